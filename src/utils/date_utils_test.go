package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 1, d.Day())

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	d := time.Date(2025, 6, 1, 13, 45, 12, 0, time.UTC)

	start := StartOfDay(d)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)

	end := EndOfDay(d)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), end)
}

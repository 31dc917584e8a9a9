package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/username/insightfactory/backend/src/models"
)

var (
	periodFrom = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
)

func TestReportEmailSubjectContainsPeriod(t *testing.T) {
	subject := reportEmailSubject(periodFrom, periodTo)
	assert.Equal(t, "Weekly Sales Report - 2025-06-01 to 2025-06-07", subject)
}

func TestBuildReportEmailBody(t *testing.T) {
	body := buildReportEmailBody(sampleAggregates(), "A very good week overall.", periodFrom, periodTo)

	assert.Contains(t, body, "Period: 2025-06-01 to 2025-06-07")
	assert.Contains(t, body, "A very good week overall.")
	assert.Contains(t, body, "- Total units: 30")
	assert.Contains(t, body, "- Total revenue: $62.20")
	assert.Contains(t, body, "- Top SKU: OREO_CLASSIC")
	assert.Contains(t, body, "- Top branch: Miraflores")
}

func TestBuildFallbackEmailBody(t *testing.T) {
	body := buildFallbackEmailBody(sampleAggregates(), periodFrom, periodTo)

	assert.Contains(t, body, "Period: 2025-06-01 to 2025-06-07")
	assert.Contains(t, body, "30 units were sold for a total revenue of $62.20")
	assert.Contains(t, body, "- Total units: 30")
	assert.Contains(t, body, "- Total revenue: $62.20")
	assert.Contains(t, body, "- Top SKU: OREO_CLASSIC")
	assert.Contains(t, body, "- Top branch: Miraflores")
}

func TestBuildFallbackEmailBodyWithNoData(t *testing.T) {
	agg := models.SalesAggregates{TopSKU: models.NoDataSentinel, TopBranch: models.NoDataSentinel}
	body := buildFallbackEmailBody(agg, periodFrom, periodTo)

	assert.Contains(t, body, "0 units were sold for a total revenue of $0.00")
	assert.Contains(t, body, "- Top SKU: N/A")
	assert.Contains(t, body, "- Top branch: N/A")
}

func TestMockEmailServiceNeverFails(t *testing.T) {
	mock := &MockEmailService{}
	summary := models.GeneratedSummary{Text: "narrative", Source: models.SummarySourceTemplate}

	assert.NoError(t, mock.SendReportEmail("ceo@oreo.com", periodFrom, periodTo, sampleAggregates(), summary))
	assert.NoError(t, mock.SendFallbackReportEmail("ceo@oreo.com", periodFrom, periodTo, sampleAggregates()))
}

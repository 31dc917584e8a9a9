package handlers

import (
	"os"
	"testing"

	"github.com/username/insightfactory/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

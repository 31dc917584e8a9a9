package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/insightfactory/backend/src/models"
)

// ErrQueueFull is returned by EnqueueReport when the pipeline queue has no
// capacity left. The accepting handler must never block on a full queue.
var ErrQueueFull = errors.New("report queue is full")

// SaleStore is the data-access contract the report pipeline consumes.
type SaleStore interface {
	FindSalesBetween(start, end time.Time) ([]models.Sale, error)
}

// SummaryService produces a narrative for a set of aggregates. It never
// returns an error: every internal failure is absorbed and replaced by the
// templated fallback so the pipeline always has a usable summary string.
type SummaryService interface {
	GenerateSummary(ctx context.Context, agg models.SalesAggregates) models.GeneratedSummary
}

// EmailService delivers report notifications. SendFallbackReportEmail must not
// depend on anything but the aggregates so it stays usable when the summary
// stage was bypassed.
type EmailService interface {
	SendReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates, summary models.GeneratedSummary) error
	SendFallbackReportEmail(toEmail string, from, to time.Time, agg models.SalesAggregates) error
}

// ReportService accepts report request events and processes them asynchronously.
type ReportService interface {
	EnqueueReport(req models.ReportRequest) error
}

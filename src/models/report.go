package models

import "time"

// NoDataSentinel is the top-SKU/top-branch value when no sales match a request.
const NoDataSentinel = "N/A"

// ReportRequest is the immutable event that starts one pipeline run. It is
// published by the HTTP layer after the caller has already been acknowledged
// and consumed exactly once by a report worker.
type ReportRequest struct {
	From      time.Time
	To        time.Time
	Branch    string // empty means all branches
	EmailTo   string
	RequestID string
}

// SalesAggregates holds the summary statistics for one report period.
type SalesAggregates struct {
	TotalUnits   int     `json:"totalUnits"`
	TotalRevenue float64 `json:"totalRevenue"`
	TopSKU       string  `json:"topSku"`
	TopBranch    string  `json:"topBranch"`
}

// SummarySource records where a report narrative came from.
type SummarySource string

const (
	SummarySourceAI       SummarySource = "ai"
	SummarySourceTemplate SummarySource = "template"
)

// GeneratedSummary is a narrative plus its provenance. It only lives for the
// duration of a single pipeline run.
type GeneratedSummary struct {
	Text   string
	Source SummarySource
}

// ReportOutcome is the terminal state of one pipeline run.
type ReportOutcome string

const (
	// ReportCompleted: aggregation, summary and the primary notification all succeeded.
	ReportCompleted ReportOutcome = "completed"
	// ReportDegraded: the primary notification failed but the statistics-only
	// fallback notification was delivered.
	ReportDegraded ReportOutcome = "degraded"
	// ReportFailed: nothing was delivered; the request is lost.
	ReportFailed ReportOutcome = "failed"
)

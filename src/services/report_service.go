package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/insightfactory/backend/src/logger"
	"github.com/username/insightfactory/backend/src/models"
	"github.com/username/insightfactory/backend/src/utils"
)

const (
	// Aggregates cache, keyed by period and branch filter.
	ckReportAggregates = "agg_report_%s_%s_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// reportServiceImpl runs the asynchronous report pipeline. Each enqueued
// request is picked up by exactly one worker and processed through
// aggregation, summary generation and notification, in that order. Workers
// share no mutable state beyond the cache, so runs interleave freely.
type reportServiceImpl struct {
	store          SaleStore
	summaryService SummaryService
	emailService   EmailService
	reportCache    *cache.Cache
	queue          chan models.ReportRequest
}

// NewReportService starts the worker pool and returns the service. The queue
// is bounded; EnqueueReport fails fast with ErrQueueFull rather than blocking
// the accepting request.
func NewReportService(
	store SaleStore,
	summaryService SummaryService,
	emailService EmailService,
	reportCache *cache.Cache,
	workers int,
	queueSize int,
) ReportService {
	s := &reportServiceImpl{
		store:          store,
		summaryService: summaryService,
		emailService:   emailService,
		reportCache:    reportCache,
		queue:          make(chan models.ReportRequest, queueSize),
	}

	for i := 0; i < workers; i++ {
		go s.worker(i)
	}
	logger.L.Info("Report pipeline workers started", "workers", workers, "queueSize", queueSize)

	return s
}

func (s *reportServiceImpl) EnqueueReport(req models.ReportRequest) error {
	select {
	case s.queue <- req:
		logger.L.Info("Report request accepted", "requestId", req.RequestID, "emailTo", req.EmailTo, "branch", req.Branch)
		return nil
	default:
		logger.L.Warn("Report queue full, rejecting request", "requestId", req.RequestID)
		return ErrQueueFull
	}
}

func (s *reportServiceImpl) worker(id int) {
	for req := range s.queue {
		s.processReport(req)
	}
	logger.L.Debug("Report worker exiting", "worker", id)
}

// processReport drives one pipeline run to a terminal outcome. Nothing is
// surfaced to the original caller: success or failure is observable only via
// the outbound email and these logs.
func (s *reportServiceImpl) processReport(req models.ReportRequest) {
	start := time.Now()
	logger.L.Info("Processing report request", "requestId", req.RequestID, "emailTo", req.EmailTo)

	agg, err := s.aggregatesFor(req)
	if err != nil {
		// Without aggregates there is nothing even the degraded notification
		// could carry; the request is lost.
		logger.L.Error("Failed to load sales for report, request is lost",
			"requestId", req.RequestID, "error", err)
		s.logOutcome(req, models.ReportFailed, start)
		return
	}

	outcome := s.runPipeline(req, agg)
	s.logOutcome(req, outcome, start)
}

// runPipeline executes the summary and notification stages. The summary stage
// never fails by contract; a primary-send failure or a panic anywhere in the
// two stages degrades to the statistics-only notification.
func (s *reportServiceImpl) runPipeline(req models.ReportRequest, agg models.SalesAggregates) (outcome models.ReportOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("Unexpected report pipeline failure, attempting degraded notification",
				"requestId", req.RequestID, "panic", r)
			outcome = s.sendDegraded(req, agg)
		}
	}()

	summary := s.summaryService.GenerateSummary(context.Background(), agg)
	logger.L.Info("Report summary ready", "requestId", req.RequestID, "source", string(summary.Source))

	if err := s.emailService.SendReportEmail(req.EmailTo, req.From, req.To, agg, summary); err != nil {
		logger.L.Warn("Primary report notification failed, attempting degraded notification",
			"requestId", req.RequestID, "error", err)
		return s.sendDegraded(req, agg)
	}
	return models.ReportCompleted
}

func (s *reportServiceImpl) sendDegraded(req models.ReportRequest, agg models.SalesAggregates) models.ReportOutcome {
	if err := s.emailService.SendFallbackReportEmail(req.EmailTo, req.From, req.To, agg); err != nil {
		logger.L.Error("Degraded notification also failed, report request is lost",
			"requestId", req.RequestID, "error", err)
		return models.ReportFailed
	}
	return models.ReportDegraded
}

// aggregatesFor loads the sales for the requested period and aggregates them,
// serving repeated identical periods from the cache.
func (s *reportServiceImpl) aggregatesFor(req models.ReportRequest) (models.SalesAggregates, error) {
	key := fmt.Sprintf(ckReportAggregates,
		req.From.Format(utils.DefaultDateFormat), req.To.Format(utils.DefaultDateFormat), req.Branch)

	if cached, found := s.reportCache.Get(key); found {
		if agg, ok := cached.(models.SalesAggregates); ok {
			logger.L.Debug("Report aggregates served from cache", "requestId", req.RequestID, "cacheKey", key)
			return agg, nil
		}
	}

	sales, err := s.store.FindSalesBetween(utils.StartOfDay(req.From), utils.EndOfDay(req.To))
	if err != nil {
		return models.SalesAggregates{}, fmt.Errorf("querying sales for report period: %w", err)
	}

	agg := Aggregate(sales, req.Branch)
	s.reportCache.Set(key, agg, cache.DefaultExpiration)
	return agg, nil
}

func (s *reportServiceImpl) logOutcome(req models.ReportRequest, outcome models.ReportOutcome, start time.Time) {
	switch outcome {
	case models.ReportCompleted:
		logger.L.Info("Report sent successfully", "requestId", req.RequestID, "emailTo", req.EmailTo, "durationMs", time.Since(start).Milliseconds())
	case models.ReportDegraded:
		logger.L.Warn("Report delivered in degraded mode", "requestId", req.RequestID, "emailTo", req.EmailTo, "durationMs", time.Since(start).Milliseconds())
	case models.ReportFailed:
		logger.L.Error("Report processing failed", "requestId", req.RequestID, "emailTo", req.EmailTo, "durationMs", time.Since(start).Milliseconds())
	}
}

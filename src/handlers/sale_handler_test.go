package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/insightfactory/backend/src/model"
	"github.com/username/insightfactory/backend/src/models"
	"github.com/username/insightfactory/backend/src/services"
)

type fakeReportService struct {
	mu    sync.Mutex
	err   error
	calls []models.ReportRequest
}

func (f *fakeReportService) EnqueueReport(req models.ReportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, req)
	return nil
}

func (f *fakeReportService) enqueued() []models.ReportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReportRequest(nil), f.calls...)
}

func centralUser() *model.User {
	return &model.User{ID: 1, Username: "hq", Role: model.RoleCentral}
}

func branchUser(branch string) *model.User {
	return &model.User{ID: 2, Username: "store", Role: model.RoleBranch, Branch: branch}
}

func summaryRequest(t *testing.T, user *model.User, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/sales/summary/weekly", bytes.NewReader(payload))
	return req.WithContext(ContextWithUser(req.Context(), user))
}

func TestHandleWeeklySummaryAccepted(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	req := summaryRequest(t, centralUser(), map[string]string{
		"from":    "2025-06-01",
		"to":      "2025-06-07",
		"emailTo": "ceo@oreo.com",
	})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		RequestID     string    `json:"requestId"`
		Status        string    `json:"status"`
		Message       string    `json:"message"`
		EstimatedTime string    `json:"estimatedTime"`
		RequestedAt   time.Time `json:"requestedAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, strings.HasPrefix(resp.RequestID, "req_"))
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Contains(t, resp.Message, "ceo@oreo.com")
	assert.Equal(t, "30-60 seconds", resp.EstimatedTime)
	assert.False(t, resp.RequestedAt.IsZero())

	enqueued := reports.enqueued()
	require.Len(t, enqueued, 1)
	assert.Equal(t, resp.RequestID, enqueued[0].RequestID)
	assert.Equal(t, "ceo@oreo.com", enqueued[0].EmailTo)
	assert.Equal(t, "2025-06-01", enqueued[0].From.Format("2006-01-02"))
	assert.Equal(t, "2025-06-07", enqueued[0].To.Format("2006-01-02"))
	assert.Empty(t, enqueued[0].Branch)
}

func TestHandleWeeklySummaryDefaultsToLastSevenDays(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	req := summaryRequest(t, centralUser(), map[string]string{"emailTo": "ceo@oreo.com"})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	enqueued := reports.enqueued()
	require.Len(t, enqueued, 1)

	span := enqueued[0].To.Sub(enqueued[0].From)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), span.Seconds(), 5)
}

func TestHandleWeeklySummaryRequiresEmail(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	req := summaryRequest(t, centralUser(), map[string]string{"from": "2025-06-01"})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, reports.enqueued())
}

func TestHandleWeeklySummaryRejectsBadDate(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	req := summaryRequest(t, centralUser(), map[string]string{
		"from":    "06/01/2025",
		"emailTo": "ceo@oreo.com",
	})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, reports.enqueued())
}

func TestHandleWeeklySummaryQueueFull(t *testing.T) {
	reports := &fakeReportService{err: services.ErrQueueFull}
	h := NewSaleHandler(nil, reports)

	req := summaryRequest(t, centralUser(), map[string]string{"emailTo": "ceo@oreo.com"})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleWeeklySummaryCoercesBranchForBranchUsers(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	// A branch user asking for another branch still only gets their own.
	req := summaryRequest(t, branchUser("Miraflores"), map[string]string{
		"branch":  "San Isidro",
		"emailTo": "store@oreo.com",
	})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	enqueued := reports.enqueued()
	require.Len(t, enqueued, 1)
	assert.Equal(t, "Miraflores", enqueued[0].Branch)
}

func TestHandleWeeklySummaryRejectsBranchUserWithoutBranch(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	// A branch-role user with no assigned branch (legacy migrated rows) must
	// not be granted all-branch visibility.
	req := summaryRequest(t, branchUser(""), map[string]string{"emailTo": "store@oreo.com"})
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, reports.enqueued())
}

func TestHandleListSalesRejectsBranchUserWithoutBranch(t *testing.T) {
	h := NewSaleHandler(nil, &fakeReportService{})

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req = req.WithContext(ContextWithUser(req.Context(), branchUser("")))
	rec := httptest.NewRecorder()
	h.HandleListSales(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleWeeklySummaryUnauthenticated(t *testing.T) {
	reports := &fakeReportService{}
	h := NewSaleHandler(nil, reports)

	req := httptest.NewRequest(http.MethodPost, "/api/sales/summary/weekly", strings.NewReader(`{"emailTo":"x@y.com"}`))
	rec := httptest.NewRecorder()
	h.HandleWeeklySummary(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateSaleValidation(t *testing.T) {
	h := NewSaleHandler(nil, &fakeReportService{})

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing sku", map[string]any{"branch": "Miraflores", "units": 5, "price": 1.99}, http.StatusBadRequest},
		{"missing branch", map[string]any{"sku": "OREO_CLASSIC", "units": 5, "price": 1.99}, http.StatusBadRequest},
		{"zero units", map[string]any{"sku": "OREO_CLASSIC", "branch": "Miraflores", "units": 0, "price": 1.99}, http.StatusBadRequest},
		{"negative price", map[string]any{"sku": "OREO_CLASSIC", "branch": "Miraflores", "units": 5, "price": -1.0}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := json.Marshal(tc.body)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewReader(payload))
			req = req.WithContext(ContextWithUser(req.Context(), centralUser()))
			rec := httptest.NewRecorder()
			h.HandleCreateSale(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleCreateSaleForbiddenForOtherBranch(t *testing.T) {
	h := NewSaleHandler(nil, &fakeReportService{})

	payload := `{"sku":"OREO_CLASSIC","branch":"San Isidro","units":5,"price":1.99}`
	req := httptest.NewRequest(http.MethodPost, "/api/sales", strings.NewReader(payload))
	req = req.WithContext(ContextWithUser(req.Context(), branchUser("Miraflores")))
	rec := httptest.NewRecorder()
	h.HandleCreateSale(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleDeleteSaleForbiddenForBranchUsers(t *testing.T) {
	h := NewSaleHandler(nil, &fakeReportService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/sales/1", nil)
	req.SetPathValue("id", "1")
	req = req.WithContext(ContextWithUser(req.Context(), branchUser("Miraflores")))
	rec := httptest.NewRecorder()
	h.HandleDeleteSale(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/username/insightfactory/backend/src/logger"
	"github.com/username/insightfactory/backend/src/models"
	"github.com/username/insightfactory/backend/src/security"
	"github.com/username/insightfactory/backend/src/services"
	"github.com/username/insightfactory/backend/src/utils"
)

type SaleHandler struct {
	store         *models.SaleStore
	reportService services.ReportService
}

func NewSaleHandler(store *models.SaleStore, reportService services.ReportService) *SaleHandler {
	return &SaleHandler{
		store:         store,
		reportService: reportService,
	}
}

type saleRequest struct {
	SKU    string     `json:"sku"`
	Units  int        `json:"units"`
	Price  float64    `json:"price"`
	Branch string     `json:"branch"`
	SoldAt *time.Time `json:"soldAt,omitempty"`
}

func (h *SaleHandler) HandleCreateSale(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req saleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SKU == "" || req.Branch == "" {
		utils.SendJSONError(w, "sku and branch are required", http.StatusBadRequest)
		return
	}
	if req.Units < 1 {
		utils.SendJSONError(w, "units must be at least 1", http.StatusBadRequest)
		return
	}
	if req.Price <= 0 {
		utils.SendJSONError(w, "price must be positive", http.StatusBadRequest)
		return
	}

	if !security.CanCreateSaleAt(user, req.Branch) {
		utils.SendJSONError(w, fmt.Sprintf("you can only create sales for your own branch: %s", user.Branch), http.StatusForbidden)
		return
	}

	soldAt := time.Now()
	if req.SoldAt != nil {
		soldAt = *req.SoldAt
	}

	sale := &models.Sale{
		SKU:           req.SKU,
		Units:         req.Units,
		Price:         req.Price,
		Branch:        req.Branch,
		SoldAt:        soldAt,
		CreatedBy:     user.ID,
		CreatedByName: user.Username,
	}

	if err := h.store.Create(sale); err != nil {
		logger.L.Error("Failed to create sale", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to create sale", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Sale created", "saleID", sale.ID, "sku", sale.SKU, "branch", sale.Branch, "userID", user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sale)
}

func (h *SaleHandler) HandleGetSale(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid sale id", http.StatusBadRequest)
		return
	}

	sale, err := h.store.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrSaleNotFound) {
			utils.SendJSONError(w, "Sale not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load sale", "saleID", id, "error", err)
		utils.SendJSONError(w, "Failed to load sale", http.StatusInternalServerError)
		return
	}

	if !security.CanAccessBranch(user, sale.Branch) {
		utils.SendJSONError(w, "You do not have access to this branch", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sale)
}

func (h *SaleHandler) HandleListSales(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	branch := r.URL.Query().Get("branch")
	// Branch users only ever see their own branch, whatever they asked for.
	// A branch user without an assigned branch must not fall through to the
	// unfiltered view.
	if !user.IsCentral() {
		if user.Branch == "" {
			utils.SendJSONError(w, "Your account has no branch assigned", http.StatusForbidden)
			return
		}
		branch = user.Branch
	}
	if branch != "" && !security.CanAccessBranch(user, branch) {
		utils.SendJSONError(w, "You do not have access to this branch", http.StatusForbidden)
		return
	}

	var from, to time.Time
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := utils.ParseDate(fromStr)
		if err != nil {
			utils.SendJSONError(w, "Invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = utils.StartOfDay(parsed)
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := utils.ParseDate(toStr)
		if err != nil {
			utils.SendJSONError(w, "Invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to = utils.EndOfDay(parsed)
	}

	sales, err := h.store.List(branch, from, to)
	if err != nil {
		logger.L.Error("Failed to list sales", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to list sales", http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(sales)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sales)
}

func (h *SaleHandler) HandleDeleteSale(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if !security.CanDeleteSales(user) {
		utils.SendJSONError(w, "Only central users can delete sales", http.StatusForbidden)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid sale id", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, models.ErrSaleNotFound) {
			utils.SendJSONError(w, "Sale not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete sale", "saleID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete sale", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Sale deleted", "saleID", id, "userID", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

type weeklySummaryRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Branch  string `json:"branch,omitempty"`
	EmailTo string `json:"emailTo"`
}

type weeklySummaryResponse struct {
	RequestID     string    `json:"requestId"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	EstimatedTime string    `json:"estimatedTime"`
	RequestedAt   time.Time `json:"requestedAt"`
}

// HandleWeeklySummary accepts a report request, publishes it to the
// asynchronous pipeline and acknowledges immediately. The caller gets no
// further signal; the result arrives by email.
func (h *SaleHandler) HandleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req weeklySummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	branch := req.Branch
	if !user.IsCentral() {
		if user.Branch == "" {
			utils.SendJSONError(w, "Your account has no branch assigned", http.StatusForbidden)
			return
		}
		branch = user.Branch
	}
	if branch != "" && !security.CanAccessBranch(user, branch) {
		utils.SendJSONError(w, "You do not have access to this branch", http.StatusForbidden)
		return
	}

	if req.EmailTo == "" {
		utils.SendJSONError(w, "emailTo is required", http.StatusBadRequest)
		return
	}

	// Default period: the last seven days.
	now := time.Now()
	fromDate := now.AddDate(0, 0, -7)
	toDate := now
	if req.From != "" {
		parsed, err := utils.ParseDate(req.From)
		if err != nil {
			utils.SendJSONError(w, "Invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		fromDate = parsed
	}
	if req.To != "" {
		parsed, err := utils.ParseDate(req.To)
		if err != nil {
			utils.SendJSONError(w, "Invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		toDate = parsed
	}

	requestID := "req_" + uuid.NewString()

	event := models.ReportRequest{
		From:      fromDate,
		To:        toDate,
		Branch:    branch,
		EmailTo:   req.EmailTo,
		RequestID: requestID,
	}

	if err := h.reportService.EnqueueReport(event); err != nil {
		if errors.Is(err, services.ErrQueueFull) {
			utils.SendJSONError(w, "Report pipeline is busy, try again later", http.StatusServiceUnavailable)
			return
		}
		logger.L.Error("Failed to enqueue report request", "requestId", requestID, "error", err)
		utils.SendJSONError(w, "Failed to accept report request", http.StatusInternalServerError)
		return
	}

	response := weeklySummaryResponse{
		RequestID:     requestID,
		Status:        "PROCESSING",
		Message:       fmt.Sprintf("Your report request is being processed. You will receive the summary at %s shortly.", req.EmailTo),
		EstimatedTime: "30-60 seconds",
		RequestedAt:   now,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/nfc-inventory/internal/core/domain"
	"github.com/rl1809/nfc-inventory/internal/core/service"
)

const healthTimeout = 2 * time.Second

type HTTPHandler struct {
	stock    *service.StockService
	reports  *service.ReportService
	workflow  *service.Workflow
	requester ScanRequester
	now       func() time.Time
}

// ScanRequester steers the background reader. *service.Poller implements it.
type ScanRequester interface {
	Request(role domain.ScanRole) error
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ScanHTTPRequest struct {
	Role string `json:"role"`
	// Tag is optional; when empty the reader is asked to fill role with its next tag.
	Tag string `json:"tag"`
}

type QuantityHTTPRequest struct {
	Specify  bool   `json:"specify"`
	Quantity string `json:"quantity"`
}

type WithdrawHTTPRequest struct {
	UserTag     string `json:"user_tag"`
	MaterialTag string `json:"material_tag"`
	Quantity    int    `json:"quantity"`
}

type ReportHTTPRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// NewHTTPHandler wires the JSON surface. requester may be nil when no reader is attached;
// manual scans then require an explicit tag.
func NewHTTPHandler(stock *service.StockService, reports *service.ReportService, workflow *service.Workflow, requester ScanRequester) *HTTPHandler {
	return &HTTPHandler{
		stock:     stock,
		reports:   reports,
		workflow:  workflow,
		requester: requester,
		now:       time.Now,
	}
}

func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/materials", h.ListMaterials)
	mux.HandleFunc("/api/materials/search", h.SearchMaterials)
	mux.HandleFunc("/api/scans", h.Scans)
	mux.HandleFunc("/api/quantity", h.SetQuantity)
	mux.HandleFunc("/api/withdrawals", h.Withdraw)
	mux.HandleFunc("/api/log", h.ListLog)
	mux.HandleFunc("/api/reports", h.SaveReport)
	return mux
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.stock.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "up"})
}

func (h *HTTPHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := h.stock.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rows})
}

func (h *HTTPHandler) SearchMaterials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	column := q.Get("column")
	if column == "" {
		column = string(domain.SearchByName)
	}

	materials, err := h.stock.Search(r.Context(), column, q.Get("term"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := APIResponse{Success: true, Data: materials}
	if len(materials) == 0 {
		resp.Message = "no results found"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Scans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: h.workflow.State()})
	case http.MethodPost:
		h.scan(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) scan(w http.ResponseWriter, r *http.Request) {
	var req ScanHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Message: "invalid request body"})
		return
	}

	role, err := domain.ParseScanRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	tag := domain.TagID(strings.TrimSpace(req.Tag))
	if tag == "" {
		if h.requester == nil {
			writeJSON(w, http.StatusServiceUnavailable, APIResponse{Message: "no scanner attached"})
			return
		}
		// The poller owns the reader; the tag lands in the scan slots when it is read.
		if err := h.requester.Request(role); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, APIResponse{
			Success: true,
			Message: "waiting for " + string(role) + " tag",
			Data:    h.workflow.State(),
		})
		return
	}

	attempt, err := h.workflow.Record(r.Context(), domain.NewScanEvent(role, tag, h.now()))
	if err != nil {
		writeAttemptError(w, attempt, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "scanned " + string(role) + " tag " + string(tag),
		Data:    h.workflow.State(),
	})
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QuantityHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Message: "invalid request body"})
		return
	}

	h.workflow.SetQuantityInput(req.Specify, req.Quantity)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: h.workflow.State()})
}

// Withdraw evaluates the held scan pair, or withdraws directly when tags are given in the body.
func (h *HTTPHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req WithdrawHTTPRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, APIResponse{Message: "invalid request body"})
			return
		}
	}

	if req.UserTag != "" || req.MaterialTag != "" {
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		left, err := h.workflow.Withdraw(r.Context(), domain.TagID(req.UserTag), domain.TagID(req.MaterialTag), quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Message: strconv.Itoa(quantity) + " units of " + req.MaterialTag + " withdrawn",
			Data:    map[string]int{"new_quantity": left},
		})
		return
	}

	attempt, err := h.workflow.Evaluate(r.Context())
	if err != nil {
		writeAttemptError(w, attempt, err)
		return
	}
	if attempt == nil {
		writeJSON(w, http.StatusConflict, APIResponse{
			Message: "both a user scan and a material scan are required",
			Data:    h.workflow.State(),
		})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: strconv.Itoa(attempt.Requested) + " units of " + string(attempt.MaterialTag) + " withdrawn",
		Data:    attempt,
	})
}

func (h *HTTPHandler) ListLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	entries, err := h.stock.RecentLog(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

func (h *HTTPHandler) SaveReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReportHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Message: "invalid request body"})
		return
	}

	rows, err := h.reports.Save(r.Context(), req.Path, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "report saved at " + req.Path,
		Data:    map[string]int{"rows": rows},
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "material not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusGone, "not enough material available"
	case errors.Is(err, domain.ErrDuplicateAttempt):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, domain.ErrReaderClosed):
		return http.StatusServiceUnavailable, "tag reader unavailable"
	case errors.Is(err, domain.ErrNotDetected):
		return http.StatusNotFound, "no tag detected"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "inventory store unavailable"
	case errors.Is(err, domain.ErrIO):
		return http.StatusInternalServerError, "report could not be written"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	writeJSON(w, status, APIResponse{Success: false, Message: message})
}

func writeAttemptError(w http.ResponseWriter, attempt *domain.Attempt, err error) {
	status, message := errorStatus(err)
	resp := APIResponse{Success: false, Message: message}
	if attempt != nil {
		resp.Data = attempt
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package balance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wordsmith/wordsmith-api/internal/middleware"
	"github.com/wordsmith/wordsmith-api/internal/pkg/response"
)

// Handler handles balance HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates balance handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Current handles GET /balance
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.Current(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int{"balance": balance})
}

// Summary handles GET /balance/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(w, "since must be RFC 3339")
			return
		}
		since = &parsed
	}

	summary, err := h.svc.Summarize(r.Context(), userID, since)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

// Transactions handles GET /balance/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	transactions, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}

// Routes returns the balance router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Current)
	r.Get("/summary", h.Summary)
	r.Get("/transactions", h.Transactions)

	return r
}

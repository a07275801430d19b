package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wordsmith/wordsmith-api/internal/middleware"
	"github.com/wordsmith/wordsmith-api/internal/pkg/response"
	"github.com/wordsmith/wordsmith-api/internal/pkg/validator"
)

// Handler handles credit ledger HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates ledger handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type spendRequest struct {
	Amount      int    `json:"amount" validate:"required,min=1"`
	Description string `json:"description" validate:"required,max=500"`
}

type grantRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Amount      int    `json:"amount" validate:"required,min=1"`
	Type        string `json:"type" validate:"required,tx_type"`
	Description string `json:"description" validate:"max=500"`
}

// Spend handles POST /credits/spend
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req spendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	t, err := h.svc.Spend(r.Context(), userID, req.Amount, req.Description, nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ErrInsufficientCredits):
			response.Conflict(w, "insufficient credits")
		default:
			response.InternalError(w)
		}
		return
	}

	balance, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"transaction": t,
		"balance":     balance,
	})
}

// Grant handles POST /credits/grant (admin)
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "invalid user_id")
		return
	}

	t, err := h.svc.Grant(r.Context(), targetID, req.Amount, Type(req.Type), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType):
			response.BadRequest(w, "grants must be of type trial or adjustment")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, t)
}

// Routes returns the ledger router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/spend", h.Spend)
	r.With(middleware.RequireRole("admin")).Post("/grant", h.Grant)
	return r
}

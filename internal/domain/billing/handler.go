package billing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wordsmith/wordsmith-api/internal/domain/purchase"
	"github.com/wordsmith/wordsmith-api/internal/middleware"
	"github.com/wordsmith/wordsmith-api/internal/pkg/paygate"
	"github.com/wordsmith/wordsmith-api/internal/pkg/response"
	"github.com/wordsmith/wordsmith-api/internal/pkg/validator"
)

// Handler handles billing HTTP requests
type Handler struct {
	svc           *Service
	purchases     *purchase.Repository
	webhookSecret string
}

// NewHandler creates billing handler
func NewHandler(svc *Service, purchases *purchase.Repository, webhookSecret string) *Handler {
	return &Handler{svc: svc, purchases: purchases, webhookSecret: webhookSecret}
}

type checkoutRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}

type confirmRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Checkout handles POST /billing/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	session, err := h.svc.InitCheckout(r.Context(), userID, req.PackageID)
	if err != nil {
		if errors.Is(err, ErrUnknownPackage) {
			response.BadRequest(w, "unknown credit package")
			return
		}
		log.Error().Err(err).Str("package_id", req.PackageID).Msg("checkout init failed")
		response.InternalError(w)
		return
	}

	response.Created(w, session)
}

// Confirm handles POST /billing/confirm, called after the checkout
// redirect. Settlement is re-derived from the provider; the redirect itself
// proves nothing.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := h.svc.Reconcile(r.Context(), req.SessionID, TrustUser, userID, h.svc.ConfirmFromGateway)
	if err != nil {
		h.writeReconcileError(w, req.SessionID, err)
		return
	}

	response.OK(w, result)
}

// Webhook handles POST /webhooks/paygate. No auth middleware; authenticity
// comes from the HMAC signature over the raw body.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.BadRequest(w, "unreadable payload")
		return
	}

	event, err := paygate.ParseWebhook(payload, r.Header.Get("X-Paygate-Signature"), h.webhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("paygate webhook rejected")
		response.Error(w, http.StatusBadRequest, "BAD_SIGNATURE", "invalid webhook")
		return
	}

	if event.Type != paygate.EventSessionCompleted {
		// Acknowledge events we don't act on so the provider stops
		// redelivering them.
		response.OK(w, map[string]string{"status": "ignored"})
		return
	}

	result, err := h.svc.Reconcile(r.Context(), event.SessionID, TrustSystem, uuid.Nil, ConfirmFromEvent(event))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("session_id", event.SessionID).Msg("webhook for unknown session")
			response.NotFound(w, "unknown session")
			return
		}
		log.Error().Err(err).Str("session_id", event.SessionID).Msg("webhook reconciliation failed")
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}

// ListPackages handles GET /billing/packages
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	response.OK(w, Packages())
}

// History handles GET /billing/purchases
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
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

	purchases, err := h.purchases.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, purchases)
}

func (h *Handler) writeReconcileError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "unknown checkout session")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "checkout session belongs to another user")
	case errors.Is(err, ErrPaymentNotComplete):
		// Expected control flow: the payment has not settled yet and the
		// caller may retry.
		response.Error(w, http.StatusConflict, "PAYMENT_NOT_COMPLETE", "payment has not completed yet, try again")
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("reconciliation failed")
		response.InternalError(w)
	}
}

// Routes returns the billing router
func (h *Handler) Routes(authMiddleware, confirmLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/packages", h.ListPackages)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/checkout", h.Checkout)
		r.With(confirmLimiter).Post("/confirm", h.Confirm)
		r.Get("/purchases", h.History)
	})

	h.devRoutes(r)
	return r
}

// WebhookRoutes returns the webhook router (no auth, signature-verified)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/paygate", h.Webhook)
	return r
}

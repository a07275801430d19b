//go:build devtrigger

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wordsmith/wordsmith-api/internal/pkg/response"
	"github.com/wordsmith/wordsmith-api/internal/pkg/validator"
)

// TrustAdmin marks local developer triggers that assert settlement
// without consulting the provider. Exists only in devtrigger builds.
const TrustAdmin TrustLevel = "admin"

// ReconcileDev forces reconciliation of a checkout session without asking
// the provider, treating the payment as settled. Compiled only under the
// devtrigger build tag; must never ship in a production binary.
func (s *Service) ReconcileDev(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	confirm := func(ctx context.Context, sessionID string) (bool, string, error) {
		return true, "dev-" + sessionID, nil
	}
	return s.Reconcile(ctx, sessionID, TrustAdmin, uuid.Nil, confirm)
}

type devTriggerRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (h *Handler) devRoutes(r chi.Router) {
	log.Warn().Msg("dev payment trigger enabled, do not run this build in production")

	r.Post("/dev/trigger", func(w http.ResponseWriter, req *http.Request) {
		var body devTriggerRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
		if fieldErrors := validator.Validate(body); fieldErrors != nil {
			response.ValidationError(w, fieldErrors)
			return
		}

		result, err := h.svc.ReconcileDev(req.Context(), body.SessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFound(w, "unknown checkout session")
				return
			}
			response.InternalError(w)
			return
		}
		response.OK(w, result)
	})
}

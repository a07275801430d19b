//go:build !devtrigger

package billing

import "github.com/go-chi/chi/v5"

func (h *Handler) devRoutes(chi.Router) {}

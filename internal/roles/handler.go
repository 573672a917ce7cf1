package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages role endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   shared.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role routes. Seeding stays open so a fresh deployment
// can bootstrap before any admin exists; a second call fails with AlreadySeeded.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/seed", h.seedRoles)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate, h.guard.RequireRoles(shared.RoleAdmin))
		r.Get("/", h.listRoles)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"roles": items})
}

func (h *Handler) seedRoles(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Seed(r.Context()); err != nil {
		if shared.ErrorCode(err) == "internal" {
			h.logger.Error("seed roles", slog.Any("error", err))
		}
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, map[string]string{"message": "roles seeded successfully"})
}

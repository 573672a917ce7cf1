package courses

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages course endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     shared.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.Guard) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers course routes on the /courses subtree. Reads are open
// to any authenticated caller; writes require the admin role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireRoles(shared.RoleAdmin))
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	course, err := h.service.Create(r.Context(), actorID(r), in)
	if err != nil {
		h.respondError(w, "create course", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "course created successfully",
		"course":  course,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	course, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get course", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, course)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.respondError(w, "list courses", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"courses":    items,
		"pagination": pagination,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	course, err := h.service.Update(r.Context(), actorID(r), id, in)
	if err != nil {
		h.respondError(w, "update course", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, course)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		h.respondError(w, "delete course", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "course deleted successfully"})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return in, false
	}
	if err := h.validator.Struct(in); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return in, false
	}
	return in, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.ErrorCode(err) == "internal" {
		h.logger.Error(op, slog.Any("error", err))
	}
	shared.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorID(r *http.Request) int64 {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return identity.AccountID
	}
	return 0
}

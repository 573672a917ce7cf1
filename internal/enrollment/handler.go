package enrollment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages enrollment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   shared.Guard
	metrics *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// WithMetrics attaches the enrollment action counters.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountUserRoutes registers the student-scoped enrollment routes on the /users
// subtree. A student may only act on their own record; admins on any.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate)
		r.Get("/students/{studentID}/courses", h.listEnrolled)
		r.Post("/students/{studentID}/courses/{courseID}", h.enroll)
		r.Delete("/students/{studentID}/courses/{courseID}", h.unenroll)
	})
}

// MountCourseRoutes registers the catalogue-side enrollment routes on the
// /courses subtree.
func (h *Handler) MountCourseRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate, h.guard.RequireRoles(shared.RoleStudent))
		r.Get("/available", h.listAvailable)
	})
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, identity, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Enroll(r.Context(), identity.AccountID, studentID, courseID); err != nil {
		h.respondError(w, "enroll", err)
		return
	}
	h.metrics.CountEnrollment("enroll")
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "enrolled successfully"})
}

func (h *Handler) unenroll(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, identity, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Unenroll(r.Context(), identity.AccountID, studentID, courseID); err != nil {
		h.respondError(w, "unenroll", err)
		return
	}
	h.metrics.CountEnrollment("unenroll")
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "unenrolled successfully"})
}

func (h *Handler) listEnrolled(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "studentID")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	if !canActOn(identity, studentID) {
		shared.RespondError(w, shared.ErrForbidden)
		return
	}
	items, err := h.service.ListEnrolled(r.Context(), studentID)
	if err != nil {
		h.respondError(w, "list enrolled", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"courses": items})
}

func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		shared.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	items, err := h.service.ListAvailable(r.Context(), identity.AccountID)
	if err != nil {
		h.respondError(w, "list available", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"courses": items})
}

// scope parses the path ids and enforces that students only touch their own
// enrollments.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (studentID, courseID int64, identity *shared.Identity, ok bool) {
	studentID, err := pathID(r, "studentID")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return 0, 0, nil, false
	}
	courseID, err = pathID(r, "courseID")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return 0, 0, nil, false
	}
	identity = shared.IdentityFromContext(r.Context())
	if !canActOn(identity, studentID) {
		shared.RespondError(w, shared.ErrForbidden)
		return 0, 0, nil, false
	}
	return studentID, courseID, identity, true
}

func canActOn(identity *shared.Identity, studentID int64) bool {
	if identity == nil {
		return false
	}
	if identity.HasRole(shared.RoleAdmin) {
		return true
	}
	return identity.AccountID == studentID
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.ErrorCode(err) == "internal" {
		h.logger.Error(op, slog.Any("error", err))
	}
	shared.RespondError(w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

package accounts

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages account endpoints.
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

// MountAuthRoutes registers the account-facing auth routes (registration and
// current-profile) on the /auth subtree.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate)
		r.Get("/me", h.getCurrent)
		r.With(h.guard.RequireRoles(shared.RoleAdmin)).Post("/register", h.register)
	})
}

// MountRoutes registers account administration routes on the /users subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate, h.guard.RequireRoles(shared.RoleAdmin))
		r.Post("/students", h.createStudent)
		r.Get("/students", h.listStudents)
		r.Put("/students/{studentID}", h.updateStudent)
		r.Delete("/students/{studentID}", h.deleteStudent)
		r.Get("/admins", h.listAdmins)
		r.Delete("/admins/{id}", h.deleteAdmin)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	account, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.respondError(w, "register account", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "account registered successfully",
		"user":    ViewOf(account),
	})
}

func (h *Handler) getCurrent(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		shared.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	account, err := h.service.Get(r.Context(), identity.AccountID)
	if err != nil {
		h.respondError(w, "get current account", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"user": ViewOf(account)})
}

func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	var in CreateStudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	account, err := h.service.CreateStudent(r.Context(), in)
	if err != nil {
		h.respondError(w, "create student", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "student created successfully",
		"student": ViewOf(account),
	})
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context())
	if err != nil {
		h.respondError(w, "list students", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, viewsOf(students))
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		h.respondError(w, "list admins", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, viewsOf(admins))
}

type updateStudentRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	PhoneNumber *string `json:"phone_number"`
	Program     *string `json:"program"`
}

func (h *Handler) updateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	account, err := h.service.UpdateStudent(r.Context(), id, Patch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Address:     req.Address,
		City:        req.City,
		PhoneNumber: req.PhoneNumber,
		Program:     req.Program,
	})
	if err != nil {
		h.respondError(w, "update student", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, ViewOf(account))
}

func (h *Handler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.DeleteStudent(r.Context(), actorID(r), id); err != nil {
		h.respondError(w, "delete student", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "student deleted successfully"})
}

func (h *Handler) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.DeleteAdmin(r.Context(), actorID(r), id); err != nil {
		h.respondError(w, "delete admin", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "admin deleted successfully"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if shared.ErrorCode(err) == "internal" {
		h.logger.Error(op, slog.Any("error", err))
	}
	shared.RespondError(w, err)
}

func viewsOf(accounts []Account) []View {
	views := make([]View, len(accounts))
	for i := range accounts {
		views[i] = ViewOf(&accounts[i])
	}
	return views
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func actorID(r *http.Request) int64 {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return identity.AccountID
	}
	return 0
}

package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages login endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	cookieTTL    time.Duration
	secureCookie bool
	metrics      *observability.Metrics
}

// NewHandler builds Handler instance. secureCookie should be true everywhere
// except local development over plain http.
func NewHandler(logger *slog.Logger, service *Service, cookieTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		validator:    validator.New(),
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// WithMetrics attaches the login outcome counters.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers login routes on the /auth subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/admin-login", h.adminLogin)
	r.Post("/student-login", h.studentLogin)
	r.Post("/logout", h.logout)
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	session, err := h.service.AuthenticateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.CountLogin(shared.RoleAdmin, "failure")
		h.respondLoginError(w, "admin login", err)
		return
	}
	h.metrics.CountLogin(shared.RoleAdmin, "success")
	h.respondSession(w, session)
}

type studentLoginRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

func (h *Handler) studentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondErrorMessage(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	session, err := h.service.AuthenticateStudent(r.Context(), req.StudentNumber, req.Password)
	if err != nil {
		h.metrics.CountLogin(shared.RoleStudent, "failure")
		h.respondLoginError(w, "student login", err)
		return
	}
	h.metrics.CountLogin(shared.RoleStudent, "success")
	h.respondSession(w, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) respondSession(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) respondLoginError(w http.ResponseWriter, op string, err error) {
	if shared.ErrorCode(err) == "internal" {
		h.logger.Error(op, slog.Any("error", err))
	}
	shared.RespondError(w, err)
}

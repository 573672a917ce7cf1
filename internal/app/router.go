package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coursehub/coursehub/internal/accounts"
	"github.com/coursehub/coursehub/internal/auth"
	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/enrollment"
	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/roles"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Guard             shared.Guard
	AuthHandler       *auth.Handler
	RolesHandler      *roles.Handler
	AccountsHandler   *accounts.Handler
	CoursesHandler    *courses.Handler
	EnrollmentHandler *enrollment.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with CourseHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(LoginRateLimiter()).Group(params.AuthHandler.MountRoutes)
			params.AccountsHandler.MountAuthRoutes(r)
		})

		r.Route("/roles", func(r chi.Router) {
			params.RolesHandler.MountRoutes(r)
		})

		r.Route("/users", func(r chi.Router) {
			params.AccountsHandler.MountRoutes(r)
			params.EnrollmentHandler.MountUserRoutes(r)
		})

		r.Route("/courses", func(r chi.Router) {
			params.EnrollmentHandler.MountCourseRoutes(r)
			params.CoursesHandler.MountRoutes(r)
		})

		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.Guard.Authenticate, params.Guard.RequireRoles(shared.RoleAdmin))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}

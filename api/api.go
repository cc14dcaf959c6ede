package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/gatehouse/auth"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	svc        *auth.Service
	guard      *auth.Guard
	cookieName string
	sessionTTL time.Duration // <= 0: session cookies carry no expiry
	audit      *auditLogger
	alertFn    AlertFunc
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithAlertFunc installs an anomaly callback fed by the audit stream
// (login-failure spikes and the like).
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// New creates a new API instance. cookieName is the session cookie the
// login handler issues and the guard reads; sessionTTL bounds the cookie
// lifetime and must match the registry's configured duration.
func New(svc *auth.Service, guard *auth.Guard, cookieName string, sessionTTL time.Duration, opts ...Option) *API {
	a := &API{
		svc:        svc,
		guard:      guard,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	if a.alertFn != nil {
		a.audit.metrics = newMetricsCollector(a.alertFn)
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/status", a.Status)

	r.Post("/users", a.Register)
	r.Post("/sessions", a.Login)
	r.Delete("/sessions", a.Logout)
	r.Post("/reset_password", a.ResetPasswordToken)
	r.Put("/reset_password", a.UpdatePassword)

	r.Group(func(r chi.Router) {
		r.Use(a.AuthMiddleware)
		r.Get("/profile", a.Profile)
		r.Get("/users/me", a.Me)
	})

	return r
}

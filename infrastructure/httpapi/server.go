// Package httpapi exposes the annotation service over HTTP. It owns the
// session and capability layer; the service and engines below it never
// see authentication.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mohaimin66/event-annotation-tool/internal/application"
	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// Server routes annotation API requests to the application service and
// enforces session capabilities on each endpoint.
type Server struct {
	service  *application.AnnotationService
	config   ports.ProjectConfigSource
	sessions *SessionManager
	limiter  *loginLimiter
	metrics  ports.MetricsCollector
	version  string
}

// ServerOptions carries the HTTP-surface tunables.
type ServerOptions struct {
	// Version is reported by the health and root endpoints.
	Version string

	// LoginRatePerMinute and LoginBurst bound login attempts per client.
	LoginRatePerMinute float64
	LoginBurst         int
}

// NewServer creates the HTTP surface over the application service. The
// config source supplies credentials for login checks; the service itself
// never sees them.
//
// Error Conditions:
//   - returns an error when any dependency is nil or limits are not positive.
func NewServer(
	service *application.AnnotationService,
	config ports.ProjectConfigSource,
	sessions *SessionManager,
	metrics ports.MetricsCollector,
	opts ServerOptions,
) (*Server, error) {
	switch {
	case service == nil:
		return nil, errors.New("service cannot be nil")
	case config == nil:
		return nil, errors.New("config source cannot be nil")
	case sessions == nil:
		return nil, errors.New("session manager cannot be nil")
	case metrics == nil:
		return nil, errors.New("metrics collector cannot be nil")
	case opts.LoginRatePerMinute <= 0:
		return nil, errors.New("login rate must be positive")
	case opts.LoginBurst < 1:
		return nil, errors.New("login burst must be at least 1")
	}

	return &Server{
		service:  service,
		config:   config,
		sessions: sessions,
		limiter:  newLoginLimiter(opts.LoginRatePerMinute, opts.LoginBurst),
		metrics:  metrics,
		version:  opts.Version,
	}, nil
}

// Handler returns the fully wired handler: routes plus the recovery,
// metrics, and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/event-types", s.handleEventTypes)
	mux.HandleFunc("GET /api/data/{annotatorID}", s.handleAnnotatorData)
	mux.HandleFunc("POST /api/annotate", s.handleAnnotate)
	mux.HandleFunc("GET /api/progress/{annotatorID}", s.handleProgress)

	mux.HandleFunc("GET /api/admin/progress", s.requireAdmin(s.handleAdminProgress))
	mux.HandleFunc("GET /api/admin/agreement", s.requireAdmin(s.handleAgreement))
	mux.HandleFunc("GET /api/admin/disagreements", s.requireAdmin(s.handleDisagreements))
	mux.HandleFunc("GET /api/admin/merged", s.requireAdmin(s.handleMerged))
	mux.HandleFunc("GET /api/admin/adjudication/queue", s.requireAdmin(s.handleAdjudicationQueue))
	mux.HandleFunc("POST /api/admin/adjudicate", s.requireAdmin(s.handleAdjudicate))
	mux.HandleFunc("POST /api/admin/plan/regenerate", s.requireAdmin(s.handleRegeneratePlan))

	return LoggingMiddleware(MetricsMiddleware(s.metrics, RecoverMiddleware(mux)))
}

// sessionFrom resolves the request's session from the X-Session-Token
// header or the session cookie, in that order.
func (s *Server) sessionFrom(r *http.Request) (Session, bool) {
	if token := r.Header.Get("X-Session-Token"); token != "" {
		return s.sessions.Lookup(token)
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return s.sessions.Lookup(cookie.Value)
	}
	return Session{}, false
}

// requireAdmin wraps a handler with the admin capability check.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessionFrom(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if sess.Role != RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "admin session required")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto its HTTP status with the
// JSON error envelope. Unrecognized errors hide their detail behind a
// generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownAnnotator):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMalformedAnnotation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConfigMissing),
		errors.Is(err, domain.ErrDataMissing),
		errors.Is(err, domain.ErrPlanMissing),
		errors.Is(err, domain.ErrInvalidSplitState):
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

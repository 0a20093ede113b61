package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Mohaimin66/event-annotation-tool/internal/application"
	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

type loginRequest struct {
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string    `json:"token"`
	Role        Role      `json:"role"`
	AnnotatorID *int      `json:"annotator_id,omitempty"`
	Annotator   string    `json:"annotator,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "event-annotation-tool",
		"version": s.version,
	})
}

// handleLogin authenticates against the project configuration and issues
// a session. All credential failures collapse into one 401 so responses
// do not reveal which part was wrong; exhausted rate buckets answer 429.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(clientKey(r.RemoteAddr)) {
		writeJSONError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	cfg, err := s.config.LoadProjectConfig(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch Role(req.Role) {
	case RoleAdmin:
		if !passwordMatches(req.Password, cfg.AdminPassword) {
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		sess := s.sessions.Create(RoleAdmin, -1, "admin")
		s.setSessionCookie(w, sess)
		writeJSON(w, http.StatusOK, loginResponse{
			Token:     sess.Token,
			Role:      sess.Role,
			Annotator: sess.Annotator,
			ExpiresAt: sess.ExpiresAt,
		})

	case RoleAnnotator:
		annotatorID, ok := resolveAnnotator(cfg, req.Name)
		if !ok || !passwordMatches(req.Password, annotatorPassword(cfg, annotatorID)) {
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		sess := s.sessions.Create(RoleAnnotator, annotatorID, cfg.AnnotatorName(annotatorID))
		s.setSessionCookie(w, sess)
		writeJSON(w, http.StatusOK, loginResponse{
			Token:       sess.Token,
			Role:        sess.Role,
			AnnotatorID: &sess.AnnotatorID,
			Annotator:   sess.Annotator,
			ExpiresAt:   sess.ExpiresAt,
		})

	default:
		writeJSONError(w, http.StatusBadRequest, "role must be \"annotator\" or \"admin\"")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessionFrom(r); ok {
		s.sessions.Revoke(sess.Token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.PublicConfig(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.service.EventTypes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_types": types,
		"total":       len(types),
	})
}

// handleAnnotatorData serves an annotator's working set. Only the
// annotator's own session may fetch it.
func (s *Server) handleAnnotatorData(w http.ResponseWriter, r *http.Request) {
	annotatorID, ok := pathAnnotatorID(w, r)
	if !ok {
		return
	}
	if !s.requireOwnAnnotator(w, r, annotatorID) {
		return
	}

	page, err := s.service.AssignmentFor(r.Context(), annotatorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleAnnotate accepts one annotation submission for the session's own
// annotator ID.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req application.SubmitAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid annotation payload")
		return
	}
	if !s.requireOwnAnnotator(w, r, req.AnnotatorID) {
		return
	}

	rec, err := s.service.SubmitAnnotation(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "saved",
		"record": rec,
	})
}

// handleProgress serves one annotator's progress to that annotator or to
// an admin session.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	annotatorID, ok := pathAnnotatorID(w, r)
	if !ok {
		return
	}

	sess, ok := s.sessionFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if sess.Role != RoleAdmin && sess.AnnotatorID != annotatorID {
		writeJSONError(w, http.StatusForbidden, "progress is visible to its annotator or an admin")
		return
	}

	progress, err := s.service.Progress(r.Context(), annotatorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// requireOwnAnnotator enforces that the request carries an annotator
// session for exactly the given ID, writing the error response otherwise.
func (s *Server) requireOwnAnnotator(w http.ResponseWriter, r *http.Request, annotatorID int) bool {
	sess, ok := s.sessionFrom(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if sess.Role != RoleAnnotator {
		writeJSONError(w, http.StatusForbidden, "annotator session required")
		return false
	}
	if sess.AnnotatorID != annotatorID {
		writeJSONError(w, http.StatusForbidden, "sessions may only access their own data")
		return false
	}
	return true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// pathAnnotatorID parses the {annotatorID} path segment, writing a 400 on
// garbage input.
func pathAnnotatorID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("annotatorID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "annotator ID must be an integer")
		return 0, false
	}
	return id, true
}

// resolveAnnotator maps a login name to an annotator ID. Display names
// are checked first, then the annotator_<id> fallback form.
func resolveAnnotator(cfg domain.ProjectConfig, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for id := 0; id < cfg.NumAnnotators; id++ {
		if cfg.AnnotatorName(id) == name {
			return id, true
		}
	}
	return 0, false
}

// annotatorPassword returns the configured password for a slot, empty
// when none is set.
func annotatorPassword(cfg domain.ProjectConfig, annotatorID int) string {
	if annotatorID >= 0 && annotatorID < len(cfg.AnnotatorPasswords) {
		return cfg.AnnotatorPasswords[annotatorID]
	}
	return ""
}

// passwordMatches compares credentials in constant time. An empty
// configured password disables the login entirely.
func passwordMatches(supplied, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}

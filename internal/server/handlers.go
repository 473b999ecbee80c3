package server

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/formify/internal/components"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/session"
	"github.com/conneroisu/formify/internal/version"
	"github.com/conneroisu/formify/internal/widget"
)

const maxFormBytes = 64 << 10

// session resolves the caller's session, creating one and setting the
// cookie when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, created, err := s.registry.GetOrCreate(session.FromRequest(r))
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to create session")
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	if created {
		session.SetCookie(w, sess.ID, s.config.Server.SessionTTL)
	}
	return sess, true
}

// isFetch reports whether the request came from the live script rather
// than a plain form post.
func isFetch(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") != ""
}

// respond answers a widget mutation: the fragment for the live script, a
// redirect back to the page for plain forms.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if !isFetch(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	templ.Handler(components.Widget(sess.Widget.Snapshot(), s.components)).ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	templ.Handler(components.Page(sess.Widget.Snapshot(), s.components)).ServeHTTP(w, r)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	templ.Handler(components.Widget(sess.Widget.Snapshot(), s.components)).ServeHTTP(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Widget.Toggle()
	s.respond(w, r, sess)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if !s.applyForm(w, r, sess) {
		return
	}
	if isFetch(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if !s.applyForm(w, r, sess) {
		return
	}

	outcome, err := sess.Widget.Submit(r.Context())
	switch outcome {
	case widget.OutcomeFailed:
		errors.NewErrorHandler(s.logger.With("session", sess.ID)).Handle(r.Context(), err)
	case widget.OutcomeInvalid, widget.OutcomeBusy:
		s.logger.Debug(r.Context(), "Submission rejected", "session", sess.ID, "outcome", outcome.String(), "reason", errors.CodeOf(err))
	default:
		s.logger.Debug(r.Context(), "Submission finished", "session", sess.ID, "outcome", outcome.String())
	}
	s.respond(w, r, sess)
}

// applyForm copies posted field values into the widget. Unknown or
// unconfigured field names are a 400 and leave the widget untouched.
func (s *Server) applyForm(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return false
	}

	changes := make(map[string]string, len(r.PostForm))
	for name, values := range r.PostForm {
		changes[name] = values[len(values)-1]
	}
	if err := sess.Widget.ChangeFields(changes); err != nil {
		s.logger.Debug(r.Context(), "Rejected field change", "session", sess.ID, "error", err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := session.FromRequest(r)
	if _, ok := s.registry.Get(id); !ok {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}
	s.hub.ServeWS(w, r, id)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
	Clients   int       `json:"clients"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := HealthResponse{
		Status:    "healthy",
		Version:   version.Version,
		Sessions:  s.registry.Len(),
		Clients:   s.hub.TotalClients(),
		Timestamp: time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

// handleEcho is a stand-in form backend: it logs the submission and
// answers true.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "false")
		return
	}
	var values map[string]string
	if err := json.Unmarshal(body, &values); err != nil {
		s.logger.Warn(r.Context(), err, "Echo received malformed submission")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "false")
		return
	}

	s.logger.Info(r.Context(), "Echo received submission", echoFields(values)...)
	_, _ = io.WriteString(w, "true")
}

// echoFields turns a submission into log fields without leaking the
// address or the message body.
func echoFields(values map[string]string) []interface{} {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]interface{}, 0, 2*len(names))
	for _, name := range names {
		v := values[name]
		switch name {
		case "email":
			out = append(out, name, logging.MaskEmail(v))
		case "message":
			out = append(out, "message_length", len(v))
		default:
			out = append(out, name, logging.SanitizeForLog(v))
		}
	}
	return out
}

// Package session keeps one widget controller per browser session. Sessions
// are identified by a random UUID cookie and expire after an idle TTL.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/widget"
)

// CookieName is the cookie carrying the session id.
const CookieName = "formify_session"

// DefaultTTL is used when Options.TTL is zero.
const DefaultTTL = 30 * time.Minute

// Factory builds a fresh widget for a new session.
type Factory func() (*widget.Widget, error)

// Session pairs an id with its widget.
type Session struct {
	ID     string
	Widget *widget.Widget

	lastSeen time.Time
	cleanup  []func()
}

// OnClose registers fn to run when the session is evicted or the registry
// closes.
func (s *Session) OnClose(fn func()) {
	s.cleanup = append(s.cleanup, fn)
}

func (s *Session) close() {
	for _, fn := range s.cleanup {
		fn()
	}
	s.Widget.Close()
}

// Options configures a Registry.
type Options struct {
	Factory Factory
	TTL     time.Duration
	// MaxSessions bounds the registry; creating one more evicts expired
	// sessions first, then the least recently seen. Zero means unbounded.
	MaxSessions int
	Logger      logging.Logger
	Now         func() time.Time
	OnCreate    func(*Session)
}

// Registry is a concurrency-safe map of live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  Factory
	ttl      time.Duration
	max      int
	now      func() time.Time
	onCreate func(*Session)
	logger   logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  opts.Factory,
		ttl:      opts.TTL,
		max:      opts.MaxSessions,
		now:      opts.Now,
		onCreate: opts.OnCreate,
		logger:   opts.Logger.WithComponent("session"),
	}
}

// SetFactory swaps the factory used for sessions created from now on.
// Existing sessions keep their widget.
func (r *Registry) SetFactory(f Factory) {
	r.mu.Lock()
	r.factory = f
	r.mu.Unlock()
}

// Get returns a live session and marks it as seen.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.now().Sub(s.lastSeen) > r.ttl {
		return nil, false
	}
	s.lastSeen = r.now()
	return s, true
}

// GetOrCreate returns the session for id, creating a new one (with a new
// id) when id is unknown, malformed or expired.
func (r *Registry) GetOrCreate(id string) (*Session, bool, error) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false, nil
		}
	}
	s, err := r.Create()
	return s, err == nil, err
}

// Create starts a new session.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	factory := r.factory
	r.mu.Unlock()
	if factory == nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "session registry has no widget factory", nil)
	}

	w, err := factory()
	if err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.NewString(), Widget: w}

	r.mu.Lock()
	s.lastSeen = r.now()
	evicted := r.makeRoomLocked()
	r.sessions[s.ID] = s
	count := len(r.sessions)
	r.mu.Unlock()

	for _, old := range evicted {
		old.close()
	}
	if len(evicted) > 0 {
		r.logger.Debug(context.Background(), "Session limit reached, evicted sessions", "count", len(evicted), "limit", r.max)
	}
	if r.onCreate != nil {
		r.onCreate(s)
	}
	r.logger.Debug(context.Background(), "Session created", "session", s.ID, "sessions", count)
	return s, nil
}

// makeRoomLocked removes sessions until one more fits under the limit:
// every expired session, or failing that the least recently seen ones.
func (r *Registry) makeRoomLocked() []*Session {
	if r.max <= 0 || len(r.sessions) < r.max {
		return nil
	}

	var evicted []*Session
	now := r.now()
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	for len(r.sessions) >= r.max {
		var oldest *Session
		for _, s := range r.sessions {
			if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
				oldest = s
			}
		}
		evicted = append(evicted, oldest)
		delete(r.sessions, oldest.ID)
	}
	return evicted
}

// Len returns the number of tracked sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var expired []*Session
	now := r.now()
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		r.logger.Debug(context.Background(), "Expired sessions evicted", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Close evicts every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

// FromRequest returns the session id carried by the request cookie, or ""
// when it is missing or not a UUID.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/widget"
)

type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Add(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func factory(title string) Factory {
	return func() (*widget.Widget, error) {
		return widget.New(widget.Options{
			Fields:    fields.MustSet("name"),
			Title:     title,
			Submitter: submit.Func(func(context.Context, fields.Values) (bool, error) { return true, nil }),
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	var created []string
	r := NewRegistry(Options{Factory: factory("A"), OnCreate: func(s *Session) { created = append(created, s.ID) }})
	defer r.Close()

	s, err := r.Create()
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{s.ID}, created)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestGetOrCreate(t *testing.T) {
	r := NewRegistry(Options{Factory: factory("A")})
	defer r.Close()

	s, created, err := r.GetOrCreate("")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := r.GetOrCreate(s.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created, err := r.GetOrCreate(uuid.NewString())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, s.ID, other.ID)
	assert.Equal(t, 2, r.Len())
}

func TestIdleSessionsExpire(t *testing.T) {
	clock := &manualTime{now: time.Unix(0, 0)}
	r := NewRegistry(Options{Factory: factory("A"), TTL: time.Minute, Now: clock.Now})
	defer r.Close()

	s, err := r.Create()
	require.NoError(t, err)
	closed := false
	s.OnClose(func() { closed = true })

	clock.Add(50 * time.Second)
	_, ok := r.Get(s.ID)
	require.True(t, ok, "touch keeps the session alive")

	clock.Add(50 * time.Second)
	assert.Equal(t, 0, r.Sweep())

	clock.Add(2 * time.Minute)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Sweep())
	assert.True(t, closed)
	assert.Equal(t, 0, r.Len())
}

func TestMaxSessionsEvictsLeastRecentlySeen(t *testing.T) {
	clock := &manualTime{now: time.Unix(0, 0)}
	r := NewRegistry(Options{Factory: factory("A"), MaxSessions: 3, Now: clock.Now})
	defer r.Close()

	var ids []string
	closed := map[string]bool{}
	for i := 0; i < 3; i++ {
		s, err := r.Create()
		require.NoError(t, err)
		id := s.ID
		s.OnClose(func() { closed[id] = true })
		ids = append(ids, id)
		clock.Add(time.Second)
	}

	_, ok := r.Get(ids[0])
	require.True(t, ok, "touching the first session makes the second the oldest")

	_, err := r.Create()
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.True(t, closed[ids[1]])
	assert.False(t, closed[ids[0]])
	_, ok = r.Get(ids[1])
	assert.False(t, ok)

	for i := 0; i < 100; i++ {
		_, err := r.Create()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.Len())
}

func TestMaxSessionsPrefersExpired(t *testing.T) {
	clock := &manualTime{now: time.Unix(0, 0)}
	r := NewRegistry(Options{Factory: factory("A"), TTL: time.Minute, MaxSessions: 2, Now: clock.Now})
	defer r.Close()

	stale, err := r.Create()
	require.NoError(t, err)
	clock.Add(2 * time.Minute)
	live, err := r.Create()
	require.NoError(t, err)

	_, err = r.Create()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	_, ok := r.Get(live.ID)
	assert.True(t, ok)
	_, ok = r.Get(stale.ID)
	assert.False(t, ok)
}

func TestSetFactoryAffectsNewSessionsOnly(t *testing.T) {
	r := NewRegistry(Options{Factory: factory("Old")})
	defer r.Close()

	old, err := r.Create()
	require.NoError(t, err)

	r.SetFactory(factory("New"))
	fresh, err := r.Create()
	require.NoError(t, err)

	assert.Equal(t, "Old", old.Widget.Snapshot().Title)
	assert.Equal(t, "New", fresh.Widget.Snapshot().Title)
}

func TestCreateWithoutFactory(t *testing.T) {
	r := NewRegistry(Options{})
	_, err := r.Create()
	assert.Error(t, err)
}

func TestCookieRoundTrip(t *testing.T) {
	id := uuid.NewString()
	rec := httptest.NewRecorder()
	SetCookie(rec, id, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	assert.Equal(t, id, FromRequest(req))

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	assert.Empty(t, FromRequest(bad))
	assert.Empty(t, FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}

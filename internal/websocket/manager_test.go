package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/formify/internal/testutils"
)

func setupHub(t *testing.T, allowed []string) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(allowed, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, session string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session
	return websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	return string(data)
}

func TestPublishReachesOnlyTheSession(t *testing.T) {
	hub, srv := setupHub(t, nil)

	a1, _, err := dial(t, srv, "a", nil)
	require.NoError(t, err)
	defer a1.CloseNow()
	a2, _, err := dial(t, srv, "a", nil)
	require.NoError(t, err)
	defer a2.CloseNow()
	b, _, err := dial(t, srv, "b", nil)
	require.NoError(t, err)
	defer b.CloseNow()

	require.True(t, testutils.Eventually(t, 2*time.Second, func() bool {
		return hub.ClientCount("a") == 2 && hub.ClientCount("b") == 1
	}))
	assert.Equal(t, 3, hub.TotalClients())

	hub.Publish("a", []byte("<div>a</div>"))
	hub.Publish("b", []byte("<div>b</div>"))

	assert.Equal(t, "<div>a</div>", readText(t, a1))
	assert.Equal(t, "<div>a</div>", readText(t, a2))
	assert.Equal(t, "<div>b</div>", readText(t, b))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv := setupHub(t, nil)

	conn, _, err := dial(t, srv, "s", nil)
	require.NoError(t, err)
	require.True(t, testutils.Eventually(t, 2*time.Second, func() bool { return hub.ClientCount("s") == 1 }))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.True(t, testutils.Eventually(t, 2*time.Second, func() bool { return hub.ClientCount("s") == 0 }))
}

func TestOriginRejected(t *testing.T) {
	hub, srv := setupHub(t, []string{"https://example.com"})

	_, resp, err := dial(t, srv, "s", http.Header{"Origin": []string{"https://evil.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.TotalClients())

	conn, _, err := dial(t, srv, "s", http.Header{"Origin": []string{"https://example.com"}})
	require.NoError(t, err)
	conn.CloseNow()
}

func TestShutdownClosesClients(t *testing.T) {
	hub, srv := setupHub(t, nil)

	conn, _, err := dial(t, srv, "s", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.True(t, testutils.Eventually(t, 2*time.Second, func() bool { return hub.ClientCount("s") == 1 }))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))
	assert.Equal(t, 0, hub.TotalClients())

	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	_, _, err = conn.Read(readCtx)
	assert.Error(t, err)

	_, resp, err := dial(t, srv, "s", nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}
	hub.Publish("s", []byte("ignored"))
}

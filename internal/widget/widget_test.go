package widget_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/testutils"
	"github.com/conneroisu/formify/internal/widget"
)

func newWidget(t *testing.T, endpoint string, clock alert.Clock, names ...string) *widget.Widget {
	t.Helper()
	if len(names) == 0 {
		names = []string{"name", "email", "message"}
	}
	w, err := widget.New(widget.Options{
		Fields:    fields.MustSet(names...),
		Clock:     clock,
		Submitter: submit.NewHTTPSubmitter(endpoint, nil),
	})
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func fill(t *testing.T, w *widget.Widget, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, w.ChangeField(kv[i], kv[i+1]))
	}
}

func TestNewDefaults(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())

	s := w.Snapshot()
	assert.Equal(t, widget.DefaultTitle, s.Title)
	assert.False(t, s.Open)
	assert.False(t, s.Loading)
	assert.True(t, s.Alert.IsZero())
	assert.Equal(t, []fields.Field{fields.Name, fields.Email, fields.Message}, s.Fields())
	for _, f := range s.Fields() {
		assert.Empty(t, s.Value(f))
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := widget.New(widget.Options{Submitter: submit.Func(func(context.Context, fields.Values) (bool, error) { return true, nil })})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoFields, errors.CodeOf(err))

	_, err = widget.New(widget.Options{Fields: fields.MustSet("name")})
	require.Error(t, err)
}

func TestToggle(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())

	w.Toggle()
	assert.True(t, w.Snapshot().Open)
	w.Toggle()
	assert.False(t, w.Snapshot().Open)
}

func TestChangeField(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock(), "name", "email")

	require.NoError(t, w.ChangeField("name", "  spaced  "))
	assert.Equal(t, "  spaced  ", w.Snapshot().Value(fields.Name))

	err := w.ChangeField("message", "hi")
	require.Error(t, err, "message is not configured")

	err = w.ChangeField("emial", "x")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownField, errors.CodeOf(err))
	assert.Contains(t, err.Error(), `did you mean "email"`)
}

func TestChangeFieldsAllOrNothing(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock(), "name", "email")

	require.NoError(t, w.ChangeFields(map[string]string{"name": "Ada", "Email": "ada@example.com"}))
	assert.Equal(t, "Ada", w.Snapshot().Value(fields.Name))
	assert.Equal(t, "ada@example.com", w.Snapshot().Value(fields.Email))

	err := w.ChangeFields(map[string]string{"email": "x@y.z", "zzz": "1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownField, errors.CodeOf(err))
	assert.Equal(t, "ada@example.com", w.Snapshot().Value(fields.Email))

	err = w.ChangeFields(map[string]string{"name": "Grace", "message": "hi"})
	require.Error(t, err, "message is known but not configured")
	assert.Equal(t, "Ada", w.Snapshot().Value(fields.Name))

	var notified int
	unsubscribe := w.Subscribe(func(widget.State) { notified++ })
	defer unsubscribe()
	require.NoError(t, w.ChangeFields(nil))
	assert.Zero(t, notified)
}

func TestSubmitSuccessClearsFields(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `{"ok":true}`)
	clock := testutils.NewFakeClock()
	w := newWidget(t, stub.URL, clock)
	fill(t, w, "name", "Jane", "email", "jane@example.com", "message", "Hello")

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, widget.OutcomeSent, outcome)

	assert.Equal(t, map[string]string{"name": "Jane", "email": "jane@example.com", "message": "Hello"}, stub.DecodeBody(t, 0))

	s := w.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, alert.Success(alert.TextSent), s.Alert)
	for _, f := range s.Fields() {
		assert.Empty(t, s.Value(f))
	}

	clock.Advance(alert.DefaultDelay)
	assert.True(t, w.Snapshot().Alert.IsZero())
}

func TestSubmitEmptyFieldSendsNothing(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane", "email", "jane@example.com")

	outcome, err := w.Submit(context.Background())
	assert.Equal(t, widget.OutcomeInvalid, outcome)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyField, errors.CodeOf(err))
	assert.Equal(t, alert.Warning(alert.TextEmptyFields), w.Snapshot().Alert)
	assert.Equal(t, 0, stub.Count())
	assert.Equal(t, "Jane", w.Snapshot().Value(fields.Name))
}

func TestSubmitWhitespaceIsNotEmpty(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock(), "name")
	fill(t, w, "name", " ")

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, widget.OutcomeSent, outcome)
	assert.Equal(t, 1, stub.Count())
}

func TestSubmitBadEmail(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane", "email", "jane@example", "message", "Hello")

	outcome, err := w.Submit(context.Background())
	assert.Equal(t, widget.OutcomeInvalid, outcome)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidEmail, errors.CodeOf(err))
	assert.Equal(t, alert.Warning(alert.TextBadEmail), w.Snapshot().Alert)
	assert.Equal(t, 0, stub.Count())
}

func TestSubmitWithoutEmailFieldSkipsEmailCheck(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock(), "name", "website")
	fill(t, w, "name", "Jane", "website", "not an email")

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, widget.OutcomeSent, outcome)
}

func TestSubmitFailureKeepsFields(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusInternalServerError, `<html>boom</html>`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane", "email", "jane@example.com", "message", "Hello")

	outcome, err := w.Submit(context.Background())
	assert.Equal(t, widget.OutcomeFailed, outcome)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))

	s := w.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, alert.Warning(alert.TextFailed), s.Alert)
	assert.Equal(t, "Jane", s.Value(fields.Name))
}

func TestSubmitFalsyResponseIsIgnored(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `false`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane", "email", "jane@example.com", "message", "Hello")

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, widget.OutcomeIgnored, outcome)

	s := w.Snapshot()
	assert.False(t, s.Loading)
	assert.True(t, s.Alert.IsZero())
	assert.Equal(t, "Hello", s.Value(fields.Message))
}

func TestSubmitWhileLoadingIsBusy(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	stub.Hold()
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane", "email", "jane@example.com", "message", "Hello")

	first := make(chan widget.Outcome, 1)
	go func() {
		outcome, _ := w.Submit(context.Background())
		first <- outcome
	}()

	require.True(t, testutils.Eventually(t, 2*time.Second, func() bool { return stub.Count() == 1 }))
	assert.True(t, w.Snapshot().Loading)

	outcome, err := w.Submit(context.Background())
	assert.Equal(t, widget.OutcomeBusy, outcome)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSubmitBusy, errors.CodeOf(err))
	assert.Equal(t, alert.Warning(alert.TextBusy), w.Snapshot().Alert)

	stub.Release()
	select {
	case got := <-first:
		assert.Equal(t, widget.OutcomeSent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("first submission did not finish")
	}
	assert.Equal(t, 1, stub.Count())
}

func TestObserversSeeEveryChange(t *testing.T) {
	var (
		mu     sync.Mutex
		states []widget.State
	)
	submitter := submit.Func(func(context.Context, fields.Values) (bool, error) { return true, nil })
	clock := testutils.NewFakeClock()
	w, err := widget.New(widget.Options{Fields: fields.MustSet("name"), Clock: clock, Submitter: submitter})
	require.NoError(t, err)
	defer w.Close()

	unsubscribe := w.Subscribe(func(s widget.State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	w.Toggle()
	require.NoError(t, w.ChangeField("name", "Jane"))
	_, err = w.Submit(context.Background())
	require.NoError(t, err)
	clock.Advance(alert.DefaultDelay)

	mu.Lock()
	got := append([]widget.State(nil), states...)
	mu.Unlock()

	// toggle, change, loading on, sent, expiry
	require.Len(t, got, 5)
	assert.True(t, got[0].Open)
	assert.Equal(t, "Jane", got[1].Value(fields.Name))
	assert.True(t, got[2].Loading)
	assert.Equal(t, alert.Success(alert.TextSent), got[3].Alert)
	assert.Empty(t, got[3].Value(fields.Name))
	assert.True(t, got[4].Alert.IsZero())
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Version, got[i-1].Version)
	}

	unsubscribe()
	w.Toggle()
	mu.Lock()
	assert.Len(t, states, 5)
	mu.Unlock()
}

func TestObserverMayReadWidget(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())

	done := make(chan bool, 1)
	w.Subscribe(func(widget.State) {
		select {
		case done <- w.Snapshot().Open:
		default:
		}
	})
	w.Toggle()

	select {
	case open := <-done:
		assert.True(t, open)
	case <-time.After(time.Second):
		t.Fatal("observer deadlocked")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	stub := testutils.NewStubEndpoint(t, http.StatusOK, `true`)
	w := newWidget(t, stub.URL, testutils.NewFakeClock())
	fill(t, w, "name", "Jane")

	s := w.Snapshot()
	require.NoError(t, s.Values.Set(fields.Name, "Mallory"))
	assert.Equal(t, "Jane", w.Snapshot().Value(fields.Name))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "sent", widget.OutcomeSent.String())
	assert.Equal(t, "busy", widget.OutcomeBusy.String())
	assert.Equal(t, "unknown", widget.Outcome(42).String())
}

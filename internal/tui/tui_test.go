package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/testutils"
	"github.com/conneroisu/formify/internal/widget"
)

func newTestModel(t *testing.T, ok bool) (Model, *testutils.FakeClock, *[]map[string]string) {
	t.Helper()
	clock := testutils.NewFakeClock()
	var sent []map[string]string
	w, err := widget.New(widget.Options{
		Fields: fields.MustSet("name", "email", "message"),
		Clock:  clock,
		Submitter: submit.Func(func(_ context.Context, v fields.Values) (bool, error) {
			sent = append(sent, v.Map())
			return ok, nil
		}),
	})
	require.NoError(t, err)
	t.Cleanup(w.Close)

	m := New(context.Background(), w)
	t.Cleanup(m.Close)
	return m, clock, &sent
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return got, cmd
}

func press(t *testing.T, m Model, kt tea.KeyType) Model {
	t.Helper()
	m, _ = apply(t, m, tea.KeyMsg{Type: kt})
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestClosedViewShowsToggler(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	view := m.View()
	assert.Contains(t, view, "✉ Contact")
	assert.NotContains(t, view, "Send")

	m = typeText(t, m, "ignored")
	assert.Equal(t, "", m.State().Value(fields.Name), "keys do nothing while closed")
}

func TestToggleOpensPanel(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	m = press(t, m, tea.KeyCtrlO)
	assert.True(t, m.State().Open)
	view := m.View()
	assert.Contains(t, view, "Contact")
	assert.Contains(t, view, "Send")

	m = press(t, m, tea.KeyCtrlO)
	assert.False(t, m.State().Open)
}

func TestTypingWritesThroughToWidget(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m = press(t, m, tea.KeyCtrlO)

	m = typeText(t, m, "Ada")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "ada@example.com")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Hi")

	snap := m.widget.Snapshot()
	assert.Equal(t, "Ada", snap.Value(fields.Name))
	assert.Equal(t, "ada@example.com", snap.Value(fields.Email))
	assert.Equal(t, "Hi", snap.Value(fields.Message))
	assert.Contains(t, m.View(), "ada@example.com")
}

func TestEnterAdvancesAndSubmitsFromButton(t *testing.T) {
	m, _, sent := newTestModel(t, true)
	m = press(t, m, tea.KeyCtrlO)

	m = typeText(t, m, "Ada")
	m = press(t, m, tea.KeyEnter)
	assert.Equal(t, 1, m.focus)

	m = press(t, m, tea.KeyShiftTab)
	m = press(t, m, tea.KeyShiftTab)
	assert.True(t, m.onSendButton(), "focus wraps backwards onto the button")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = apply(t, m, cmd())
	assert.Equal(t, widget.OutcomeInvalid, m.LastOutcome())
	assert.Empty(t, *sent)
	assert.Contains(t, m.View(), alert.TextEmptyFields)
}

func TestSubmitSuccessClearsInputs(t *testing.T) {
	m, clock, sent := newTestModel(t, true)
	m = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, "Ada")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "ada@example.com")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Hello")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, _ = apply(t, m, cmd())

	assert.Equal(t, widget.OutcomeSent, m.LastOutcome())
	require.Len(t, *sent, 1)
	assert.Equal(t, "ada@example.com", (*sent)[0]["email"])

	assert.Equal(t, "", m.inputs[0].Value())
	assert.Equal(t, "", m.inputs[1].Value())
	assert.Equal(t, "", m.message.Value())
	assert.Contains(t, m.View(), alert.TextSent)

	// expiry happens off the Update loop and arrives as a change notification
	clock.Advance(alert.DefaultDelay)
	changed := m.waitForChange()()
	m, _ = apply(t, m, changed)
	assert.True(t, m.State().Alert.IsZero())
	assert.NotContains(t, m.View(), alert.TextSent)
}

func TestFalsyResponseKeepsInputs(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	m = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, "Ada")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "ada@example.com")
	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Hello")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = apply(t, m, cmd())

	assert.Equal(t, widget.OutcomeIgnored, m.LastOutcome())
	assert.Equal(t, "Ada", m.inputs[0].Value())
	assert.False(t, m.State().Loading)
	assert.True(t, m.State().Alert.IsZero())
}

func TestChangeNotificationStartsSpinner(t *testing.T) {
	release := make(chan struct{})
	w, err := widget.New(widget.Options{
		Fields: fields.MustSet("name"),
		Submitter: submit.Func(func(context.Context, fields.Values) (bool, error) {
			<-release
			return true, nil
		}),
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.ChangeField("name", "Ada"))

	m := New(context.Background(), w)
	defer m.Close()

	done := make(chan struct{})
	go func() {
		_, _ = w.Submit(context.Background())
		close(done)
	}()
	require.True(t, testutils.Eventually(t, time.Second, func() bool { return w.Snapshot().Loading }))

	m, cmd := apply(t, m, changedMsg{})
	assert.True(t, m.State().Loading)
	assert.NotNil(t, cmd)
	m = press(t, m, tea.KeyCtrlO)
	assert.Contains(t, m.View(), "sending")

	close(release)
	<-done
	m, _ = apply(t, m, changedMsg{})
	assert.False(t, m.State().Loading)
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, true)

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())
}

// Package tui renders the contact widget in a terminal with Bubble Tea.
//
// The model never keeps its own copy of the field values: every keystroke is
// written through to the widget controller and the inputs are resynced from
// widget snapshots, so the terminal and the HTML widget share one state
// machine.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/widget"
)

// changedMsg tells the model the widget state moved. It carries no state:
// the model takes a fresh snapshot when handling it.
type changedMsg struct{}

// submittedMsg reports the end of a submission.
type submittedMsg struct {
	outcome widget.Outcome
	err     error
}

// Model is the Bubble Tea model of the widget.
type Model struct {
	ctx         context.Context
	widget      *widget.Widget
	changes     chan struct{}
	unsubscribe func()

	state  widget.State
	fields []fields.Field
	// inputs is aligned with fields; the multiline field uses message.
	inputs  []textinput.Model
	message textarea.Model
	focus   int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  Styles

	lastOutcome widget.Outcome
	quitting    bool
}

// New builds a model driving w. Call Close when done.
func New(ctx context.Context, w *widget.Widget) Model {
	changes := make(chan struct{}, 1)
	unsubscribe := w.Subscribe(func(widget.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	state := w.Snapshot()
	m := Model{
		ctx:         ctx,
		widget:      w,
		changes:     changes,
		unsubscribe: unsubscribe,
		state:       state,
		fields:      state.Fields(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Points)),
		help:        help.New(),
		keys:        defaultKeyMap(),
		styles:      DefaultStyles(),
	}
	m.spinner.Style = m.styles.Loader

	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		if f.Multiline() {
			ta := textarea.New()
			ta.Placeholder = f.Label()
			ta.ShowLineNumbers = false
			ta.SetWidth(panelWidth - 6)
			ta.SetHeight(4)
			m.message = ta
			continue
		}
		ti := textinput.New()
		ti.Placeholder = f.Label()
		ti.Prompt = "› "
		ti.CharLimit = 256
		ti.Width = panelWidth - 8
		m.inputs[i] = ti
	}
	m.setFocus(0)
	m.sync()
	return m
}

// Close detaches the model from the widget.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), textinput.Blink)
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m Model) submit() tea.Cmd {
	ctx, w := m.ctx, m.widget
	return func() tea.Msg {
		outcome, err := w.Submit(ctx)
		return submittedMsg{outcome: outcome, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case changedMsg:
		wasLoading := m.state.Loading
		m.sync()
		cmds := []tea.Cmd{m.waitForChange()}
		if m.state.Loading && !wasLoading {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case submittedMsg:
		m.lastOutcome = msg.outcome
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.widget.Toggle()
		m.sync()
		return m, nil
	}

	if !m.state.Open {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m, m.submit()
	case key.Matches(msg, m.keys.Next):
		m.setFocus(m.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setFocus(m.focus - 1)
		return m, nil
	case msg.Type == tea.KeyEnter && m.onSendButton():
		return m, m.submit()
	case msg.Type == tea.KeyEnter && !m.fields[m.focus].Multiline():
		m.setFocus(m.focus + 1)
		return m, nil
	}

	return m, m.updateFocused(msg)
}

func (m Model) onSendButton() bool {
	return m.focus == len(m.fields)
}

// setFocus moves focus, wrapping around; the slot after the last field is
// the send button.
func (m *Model) setFocus(i int) {
	slots := len(m.fields) + 1
	m.focus = ((i % slots) + slots) % slots

	for j, f := range m.fields {
		if f.Multiline() {
			if j == m.focus {
				m.message.Focus()
			} else {
				m.message.Blur()
			}
			continue
		}
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// updateFocused feeds msg to the focused input and writes the new value
// through to the widget.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	if m.onSendButton() {
		return nil
	}
	f := m.fields[m.focus]

	var (
		cmd   tea.Cmd
		value string
	)
	if f.Multiline() {
		m.message, cmd = m.message.Update(msg)
		value = m.message.Value()
	} else {
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		value = m.inputs[m.focus].Value()
	}

	if value != m.state.Value(f) {
		// f comes from the widget's own field set
		_ = m.widget.ChangeField(f.String(), value)
		m.sync()
	}
	return cmd
}

// sync copies the widget snapshot into the inputs. Only Update calls
// ChangeField, so the snapshot already holds every processed keystroke.
func (m *Model) sync() {
	m.state = m.widget.Snapshot()
	for i, f := range m.fields {
		v := m.state.Value(f)
		if f.Multiline() {
			if m.message.Value() != v {
				m.message.SetValue(v)
			}
			continue
		}
		if m.inputs[i].Value() != v {
			m.inputs[i].SetValue(v)
		}
	}
}

// LastOutcome is the outcome of the most recent submission.
func (m Model) LastOutcome() widget.Outcome {
	return m.lastOutcome
}

// State returns the last synced widget state.
func (m Model) State() widget.State {
	return m.state
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.state.Open {
		return m.styles.Toggler.Render("✉ "+m.state.Title) + "\n\n" + m.help.View(m.keys) + "\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.state.Title))
	b.WriteString("\n")
	for i, f := range m.fields {
		if f.Multiline() {
			b.WriteString(m.message.View())
		} else {
			b.WriteString(m.inputs[i].View())
		}
		b.WriteString("\n")
	}

	b.WriteString(m.alertView())
	b.WriteString("\n\n")

	if m.state.Loading {
		b.WriteString(m.spinner.View() + " sending")
	} else if m.onSendButton() {
		b.WriteString(m.styles.ButtonFocused.Render("Send"))
	} else {
		b.WriteString(m.styles.Button.Render("Send"))
	}

	return m.styles.Panel.Render(b.String()) + "\n" + m.help.View(m.keys) + "\n"
}

func (m Model) alertView() string {
	a := m.state.Alert
	switch a.Kind {
	case alert.KindSuccess:
		return m.styles.Success.Render(a.Text)
	case alert.KindWarning:
		return m.styles.Warning.Render(a.Text)
	default:
		return a.Text
	}
}

// Run drives w in the terminal until the user quits or ctx is done.
func Run(ctx context.Context, w *widget.Widget, opts ...tea.ProgramOption) error {
	m := New(ctx, w)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Package widget implements the contact widget controller: panel
// visibility, field values, the loading flag, the self-expiring alert and
// the submit workflow. Renderers observe it through immutable snapshots.
package widget

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/validation"
)

// DefaultTitle is the panel heading when none is configured.
const DefaultTitle = "Contact"

// Outcome describes how a Submit call ended.
type Outcome int

const (
	// OutcomeSent: the backend answered truthy; fields were cleared.
	OutcomeSent Outcome = iota
	// OutcomeInvalid: validation failed; nothing was sent.
	OutcomeInvalid
	// OutcomeFailed: the request or response decoding failed.
	OutcomeFailed
	// OutcomeIgnored: the backend answered with a falsy JSON value.
	OutcomeIgnored
	// OutcomeBusy: another submission was still in flight; nothing was sent.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Options configures a Widget.
type Options struct {
	Fields     fields.Set
	Title      string
	AlertDelay time.Duration
	Clock      alert.Clock
	Submitter  submit.Submitter
	Logger     logging.Logger
}

// State is an immutable snapshot of the widget.
type State struct {
	Version uint64
	Title   string
	Open    bool
	Loading bool
	Alert   alert.Alert
	Values  fields.Values
}

// Value returns the current value of f, or "" when f is not configured.
func (s State) Value(f fields.Field) string {
	v, _ := s.Values.Get(f)
	return v
}

// Fields returns the configured fields in order.
func (s State) Fields() []fields.Field {
	return s.Values.Fields()
}

// Observer is called after every state change with the new snapshot.
type Observer func(State)

// Widget is the controller. Methods are safe for concurrent use.
type Widget struct {
	mu      sync.Mutex
	title   string
	values  fields.Values
	open    bool
	loading bool
	version uint64

	alerts    *alert.Slot
	submitter submit.Submitter
	logger    logging.Logger

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// New validates opts and returns a closed widget with empty fields.
func New(opts Options) (*Widget, error) {
	if opts.Fields.Len() == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoFields, "widget needs at least one field")
	}
	if opts.Submitter == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "widget needs a submitter")
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	w := &Widget{
		title:     title,
		values:    fields.NewValues(opts.Fields),
		submitter: opts.Submitter,
		logger:    logger.WithComponent("widget"),
		observers: make(map[int]Observer),
	}
	w.alerts = alert.NewSlot(opts.Clock, opts.AlertDelay, w.alertExpired)
	return w, nil
}

// Toggle flips panel visibility.
func (w *Widget) Toggle() {
	w.mutate(func() { w.open = !w.open })
}

// ChangeField sets one field's value without validating it.
func (w *Widget) ChangeField(name, value string) error {
	f, err := fields.Parse(name)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if err := w.values.Set(f, value); err != nil {
		w.mu.Unlock()
		return err
	}
	w.version++
	w.mu.Unlock()

	w.notify()
	return nil
}

// ChangeFields sets several fields at once. Every name is resolved and
// checked against the configured set first; if any fails, nothing changes.
func (w *Widget) ChangeFields(changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make([]fields.Field, len(names))
	for i, name := range names {
		f, err := fields.Parse(name)
		if err != nil {
			return err
		}
		resolved[i] = f
	}

	w.mu.Lock()
	for _, f := range resolved {
		if _, ok := w.values.Get(f); !ok {
			w.mu.Unlock()
			return errors.ErrUnknownField(string(f), "")
		}
	}
	for i, f := range resolved {
		_ = w.values.Set(f, changes[names[i]])
	}
	w.version++
	w.mu.Unlock()

	w.notify()
	return nil
}

// Submit validates the fields and, if they pass, posts them once.
//
// Validation failures and transport failures both surface as a warning
// alert; the returned error carries the detail for logging. A falsy
// response leaves fields and alert untouched.
func (w *Widget) Submit(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		w.raise(alert.Warning(alert.TextBusy))
		return OutcomeBusy, errors.NewValidationError(errors.ErrCodeSubmitBusy, "submission already in progress")
	}
	if empty := w.values.Empty(); len(empty) > 0 {
		w.mu.Unlock()
		w.raise(alert.Warning(alert.TextEmptyFields))
		return OutcomeInvalid, errors.ErrEmptyField(string(empty[0]))
	}
	if email, ok := w.values.Get(fields.Email); ok && !validation.IsEmail(email) {
		w.mu.Unlock()
		w.raise(alert.Warning(alert.TextBadEmail))
		return OutcomeInvalid, errors.ErrInvalidEmail(email)
	}
	payload := w.values.Clone()
	w.loading = true
	w.version++
	w.mu.Unlock()
	w.notify()

	started := time.Now()
	ok, err := w.submitter.Submit(ctx, payload)

	w.mu.Lock()
	w.loading = false
	w.version++
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn(ctx, err, "Submission failed", "duration", time.Since(started))
		w.raise(alert.Warning(alert.TextFailed))
		return OutcomeFailed, err
	}
	if !ok {
		w.mu.Unlock()
		w.logger.Info(ctx, "Submission acknowledged with falsy response", "duration", time.Since(started))
		w.notify()
		return OutcomeIgnored, nil
	}
	w.values.Reset()
	w.mu.Unlock()

	fieldsLogged := []interface{}{"duration", time.Since(started)}
	if email, has := payload.Get(fields.Email); has {
		fieldsLogged = append(fieldsLogged, "email", logging.MaskEmail(email))
	}
	w.logger.Info(ctx, "Submission sent", fieldsLogged...)
	w.raise(alert.Success(alert.TextSent))
	return OutcomeSent, nil
}

// Snapshot returns the current state.
func (w *Widget) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() State {
	return State{
		Version: w.version,
		Title:   w.title,
		Open:    w.open,
		Loading: w.loading,
		Alert:   w.alerts.Current(),
		Values:  w.values.Clone(),
	}
}

// Subscribe registers an observer and returns a function removing it.
func (w *Widget) Subscribe(obs Observer) func() {
	w.obsMu.Lock()
	id := w.nextObsID
	w.nextObsID++
	w.observers[id] = obs
	w.obsMu.Unlock()

	return func() {
		w.obsMu.Lock()
		delete(w.observers, id)
		w.obsMu.Unlock()
	}
}

// Close stops the alert timer and drops all observers.
func (w *Widget) Close() {
	w.alerts.Close()
	w.obsMu.Lock()
	w.observers = make(map[int]Observer)
	w.obsMu.Unlock()
}

func (w *Widget) mutate(fn func()) {
	w.mu.Lock()
	fn()
	w.version++
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) raise(a alert.Alert) {
	w.mu.Lock()
	w.alerts.Raise(a)
	w.version++
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) alertExpired() {
	w.mu.Lock()
	w.version++
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) notify() {
	state := w.Snapshot()

	w.obsMu.Lock()
	observers := make([]Observer, 0, len(w.observers))
	for _, obs := range w.observers {
		observers = append(observers, obs)
	}
	w.obsMu.Unlock()

	for _, obs := range observers {
		obs(state)
	}
}

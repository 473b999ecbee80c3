// Package alert models the widget's transient status line: a (kind, text)
// pair that clears itself after a fixed delay.
package alert

import (
	"sync"
	"time"
)

// Kind classifies an alert for styling.
type Kind string

const (
	KindNone    Kind = ""
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
)

// DefaultDelay is how long an alert stays visible.
const DefaultDelay = 2500 * time.Millisecond

// Canonical alert texts.
const (
	TextEmptyFields = "Please fill all the fields"
	TextBadEmail    = "Please enter valid email!"
	TextSent        = "Successfully sent!"
	TextFailed      = "Something went wrong. Try again!"
	TextBusy        = "Please wait, sending..."
)

// Alert is a status message. The zero value is "no alert".
type Alert struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Warning builds a warning alert.
func Warning(text string) Alert { return Alert{Kind: KindWarning, Text: text} }

// Success builds a success alert.
func Success(text string) Alert { return Alert{Kind: KindSuccess, Text: text} }

// IsZero reports whether no alert is shown.
func (a Alert) IsZero() bool { return a.Kind == KindNone && a.Text == "" }

// Clock abstracts timer creation so expiry can be driven by tests.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the slot needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by time.AfterFunc.
var RealClock Clock = realClock{}

// Slot holds the current alert and clears it after the delay. Raising a new
// alert supersedes the pending expiry of the previous one.
type Slot struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	current  Alert
	gen      uint64
	timer    Timer
	onExpire func()
}

// NewSlot creates a slot. onExpire, if non-nil, runs after an alert clears
// itself; it is called without the slot's lock held.
func NewSlot(clock Clock, delay time.Duration, onExpire func()) *Slot {
	if clock == nil {
		clock = RealClock
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Slot{clock: clock, delay: delay, onExpire: onExpire}
}

// Raise shows a and schedules its expiry.
func (s *Slot) Raise(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.current = a
	s.timer = s.clock.AfterFunc(s.delay, func() { s.expire(gen) })
}

func (s *Slot) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// superseded
		s.mu.Unlock()
		return
	}
	s.current = Alert{}
	s.timer = nil
	cb := s.onExpire
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Current returns the visible alert.
func (s *Slot) Current() Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Delay returns the configured expiry delay.
func (s *Slot) Delay() time.Duration { return s.delay }

// Close stops any pending expiry without clearing the alert.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

package search

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long input must stay unchanged before a query runs.
const DefaultQuietPeriod = 250 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. The wall clock is used unless a test
// injects its own.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// DebounceState is the state of a Debouncer.
type DebounceState int

const (
	Idle DebounceState = iota
	Pending
)

func (s DebounceState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer coalesces rapid input into a single delayed evaluation.
//
// Every Input cancels the pending evaluation and schedules a new one, so at
// most one evaluation runs per quiet period and it always sees the last raw
// value. fire runs on the timer goroutine; callers that own state on another
// goroutine should hand the value over (a channel, tea.Program.Send).
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	fire     func(raw string)
	state    DebounceState
	timer    Timer
	raw      string
	deadline time.Time
	seq      uint64
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithClock replaces the wall clock.
func WithClock(c Clock) DebounceOption {
	return func(d *Debouncer) { d.clock = c }
}

// NewDebouncer creates an idle debouncer. A non-positive delay uses
// DefaultQuietPeriod.
func NewDebouncer(delay time.Duration, fire func(raw string), opts ...DebounceOption) *Debouncer {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	d := &Debouncer{
		clock: wallClock{},
		delay: delay,
		fire:  fire,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Input records a raw input event and (re)schedules the evaluation.
func (d *Debouncer) Input(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq
	d.raw = raw
	d.deadline = d.clock.Now().Add(d.delay)
	d.state = Pending
	d.timer = d.clock.AfterFunc(d.delay, func() { d.expire(seq) })
}

// Cancel drops the pending evaluation, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	d.state = Idle
}

// State returns the current state.
func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending returns the scheduled raw value and its deadline.
func (d *Debouncer) Pending() (raw string, deadline time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Pending {
		return "", time.Time{}, false
	}
	return d.raw, d.deadline, true
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// expire runs when a timer fires. A timer that was already running when it
// got superseded carries an old seq and is ignored.
func (d *Debouncer) expire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.state != Pending {
		d.mu.Unlock()
		return
	}
	raw := d.raw
	d.state = Idle
	d.timer = nil
	d.mu.Unlock()

	if d.fire != nil {
		d.fire(raw)
	}
}

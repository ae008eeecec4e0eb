package vtest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Log collects probe events in the order they happened. It is safe for
// concurrent use.
type Log struct {
	mu     sync.Mutex
	events []string
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Record appends a formatted event.
func (l *Log) Record(format string, args ...any) {
	l.mu.Lock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (l *Log) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Take returns the recorded events and clears the log.
func (l *Log) Take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

// Count returns how many recorded events equal event.
func (l *Log) Count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == event {
			n++
		}
	}
	return n
}

// Probe creates an element for a probe named name.
func (l *Log) Probe(name string, children ...ui.Element) ui.Element {
	return ui.New(Probe{Name: name, Log: l}, children...)
}

// Keyed creates a probe element matched by key.
func (l *Log) Keyed(key, name string, children ...ui.Element) ui.Element {
	return ui.Keyed(key, Probe{Name: name, Log: l}, children...)
}

// Frozen creates a probe element that declines updates.
func (l *Log) Frozen(name string, children ...ui.Element) ui.Element {
	return ui.New(Probe{Name: name, Log: l, Frozen: true}, children...)
}

// Sized creates a probe element that always measures as size.
func (l *Log) Sized(name string, size ui.Size, children ...ui.Element) ui.Element {
	return ui.New(Probe{Name: name, Log: l, Size: &size}, children...)
}

// Probe is a widget that records every call made on it and mounts the
// children it is given. Children are stacked vertically during layout.
type Probe struct {
	Name   string
	Log    *Log
	Frozen bool
	Size   *ui.Size // fixed size; nil measures the children
	Color  string
}

// Render implements ui.Widget.
func (p Probe) Render(children []ui.Element, _ *ui.State) []ui.Element {
	p.record("render %s", p.Name)
	return children
}

// ShouldUpdate implements ui.Updater.
func (p Probe) ShouldUpdate(ui.Widget, []ui.Element, []ui.Element, *ui.State) bool {
	return !p.Frozen
}

// Layout implements ui.Layouter.
func (p Probe) Layout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	p.record("layout %s", p.Name)
	var size ui.Size
	for i := range ctx.ChildCount() {
		s := ctx.LayoutChild(i, ui.Loose(c.Max))
		ctx.PlaceChild(i, ui.Point{Y: size.Height})
		size.Height += s.Height
		size.Width = max(size.Width, s.Width)
	}
	if p.Size != nil {
		size = *p.Size
	}
	return c.Constrain(size)
}

// Paint implements ui.Painter.
func (p Probe) Paint(c ui.Canvas, bounds ui.Rect, _ *ui.State) {
	p.record("paint %s", p.Name)
	if p.Color != "" {
		c.FillRect(bounds, p.Color)
	}
}

// Mount implements ui.Mounter.
func (p Probe) Mount(*ui.State) {
	p.record("mount %s", p.Name)
}

// Unmount implements ui.Unmounter.
func (p Probe) Unmount(*ui.State) {
	p.record("unmount %s", p.Name)
}

func (p Probe) record(format, name string) {
	if p.Log != nil {
		p.Log.Record(format, name)
	}
}

// Counter is a stateful probe whose state is an int.
type Counter struct {
	Name  string
	Start int
	Log   *Log
}

// Render implements ui.Widget.
func (c Counter) Render(children []ui.Element, s *ui.State) []ui.Element {
	n, _ := ui.Value[int](s)
	if c.Log != nil {
		c.Log.Record("render %s=%d", c.Name, n)
	}
	return children
}

// InitialState implements ui.Stateful.
func (c Counter) InitialState() any {
	return c.Start
}

// Scheduler records update requests. It is safe for concurrent use.
type Scheduler struct {
	mu  sync.Mutex
	ids []ui.ID
}

// RequestUpdate implements ui.Scheduler.
func (s *Scheduler) RequestUpdate(id ui.ID) {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
}

// Take returns the requested IDs and clears them.
func (s *Scheduler) Take() []ui.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.ids
	s.ids = nil
	return out
}

// ExpectEvents asserts that got equals want.
//
// Example:
//
//	vtest.ExpectEvents(t, log.Take(), "render app", "render a")
func ExpectEvents(t testing.TB, got []string, want ...string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

// ExpectPanicCode asserts that fn panics with a coded error.
//
// Example:
//
//	vtest.ExpectPanicCode(t, "E101", func() { m.At(slotmap.Nil) })
func ExpectPanicCode(t testing.TB, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("expected panic with %s, got none", code)
			return
		}
		err, ok := r.(error)
		if !ok {
			t.Errorf("panic value = %v, want error with code %s", r, code)
			return
		}
		if got := errors.Code(err); got != code {
			t.Errorf("panic code = %q, want %q (%v)", got, code, err)
		}
	}()
	fn()
}

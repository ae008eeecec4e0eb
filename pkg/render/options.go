package render

import (
	"log/slog"
	"time"

	"github.com/vango-dev/canopy/pkg/ui"
)

// Pass describes one finished Render or Update call.
type Pass struct {
	Kind     string // "render" or "update"
	Target   ui.ID
	Rendered int // widgets whose Render ran
	Skipped  int // nodes whose widget declined the update
	Patches  []Patch
	Nodes    int // live nodes after the pass
	Start    time.Time
	Duration time.Duration
}

// Observer is notified after every pass.
type Observer interface {
	ObservePass(p Pass)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Pass)

// ObservePass implements Observer.
func (f ObserverFunc) ObservePass(p Pass) { f(p) }

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger. Passes are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithScheduler sets where mounted states send their update requests.
func WithScheduler(s ui.Scheduler) Option {
	return func(t *Tree) {
		t.sched = s
	}
}

// WithObserver adds a pass observer.
func WithObserver(o Observer) Option {
	return func(t *Tree) {
		if o != nil {
			t.observers = append(t.observers, o)
		}
	}
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(t *Tree) {
		t.capacity = n
	}
}

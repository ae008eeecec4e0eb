package ui

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/canopy/pkg/slotmap"
)

// ID identifies a mounted node. The zero ID is nil.
type ID = slotmap.Key

// Element describes a widget to mount. Empty Key means positional matching.
type Element struct {
	Widget   Widget
	Key      string
	Children []Element
}

// New creates an element for w with the given children.
func New(w Widget, children ...Element) Element {
	return Element{Widget: w, Children: children}
}

// Keyed creates an element matched by key instead of position.
func Keyed(key string, w Widget, children ...Element) Element {
	return Element{Widget: w, Key: key, Children: children}
}

// WithKey returns a copy of e with the given key.
func (e Element) WithKey(key string) Element {
	e.Key = key
	return e
}

// TypedKey returns the reconciliation key of e at position index.
func (e Element) TypedKey(index int) TypedKey {
	return KeyOf(e.Widget, index, e.Key)
}

// TypeName returns the widget's dynamic type name.
func (e Element) TypeName() string {
	return TypeName(e.Widget)
}

// TypeName returns the dynamic type name of w without its package path.
func TypeName(w Widget) string {
	t := reflect.TypeOf(w)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// TypedKey identifies a child for one reconciliation call.
type TypedKey struct {
	Type  reflect.Type
	Key   string
	Index int // -1 when Key is set
}

// KeyOf builds the typed key for a widget at position index with an optional
// explicit key.
func KeyOf(w Widget, index int, key string) TypedKey {
	t := reflect.TypeOf(w)
	if key != "" {
		return TypedKey{Type: t, Key: key, Index: -1}
	}
	return TypedKey{Type: t, Index: index}
}

// Keyed reports whether the key came from an explicit user key.
func (k TypedKey) Keyed() bool {
	return k.Index < 0
}

// String returns the string representation of the TypedKey.
func (k TypedKey) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}
	if k.Keyed() {
		return fmt.Sprintf("%s#%q", name, k.Key)
	}
	return fmt.Sprintf("%s@%d", name, k.Index)
}

// Pod is a mounted widget instance.
type Pod struct {
	Widget   Widget
	Children []Element
	Key      string
	State    *State
}

// NewPod mounts e, creating its State.
func NewPod(e Element) Pod {
	var initial any
	if s, ok := e.Widget.(Stateful); ok {
		initial = s.InitialState()
	}
	return Pod{
		Widget:   e.Widget,
		Children: e.Children,
		Key:      e.Key,
		State:    NewState(initial),
	}
}

// Merge replaces the widget, children and key with e's. State is kept.
func (p *Pod) Merge(e Element) {
	p.Widget = e.Widget
	p.Children = e.Children
	p.Key = e.Key
}

// ShouldUpdate asks the incoming widget whether the pod must re-render.
// Widgets without an Updater always re-render.
func (p *Pod) ShouldUpdate(next Element) bool {
	u, ok := next.Widget.(Updater)
	if !ok {
		return true
	}
	return u.ShouldUpdate(p.Widget, p.Children, next.Children, p.State)
}

// Render renders the pod's widget with its current children and state.
func (p *Pod) Render() []Element {
	return p.Widget.Render(p.Children, p.State)
}

// TypeName returns the mounted widget's type name.
func (p *Pod) TypeName() string {
	return TypeName(p.Widget)
}

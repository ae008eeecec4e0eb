package ui

// Widget is anything that can render child elements.
//
// children are the elements the parent passed to this widget; the returned
// elements become this node's mounted children.
type Widget interface {
	Render(children []Element, state *State) []Element
}

// Updater lets a widget decline a re-render. prev and prevChildren are the
// currently mounted widget and children; children are the incoming ones.
type Updater interface {
	ShouldUpdate(prev Widget, prevChildren, children []Element, state *State) bool
}

// Stateful widgets seed their node's State on insertion.
type Stateful interface {
	InitialState() any
}

// Layouter sizes a widget within constraints and places its children.
type Layouter interface {
	Layout(ctx LayoutContext, c Constraints) Size
}

// LayoutContext is handed to Layouter.Layout. LayoutChild suspends the
// caller's layout until the child at index i has been measured.
type LayoutContext interface {
	ChildCount() int
	LayoutChild(i int, c Constraints) Size
	PlaceChild(i int, at Point)
	State() *State
}

// Painter draws a widget at its absolute bounds.
type Painter interface {
	Paint(c Canvas, bounds Rect, state *State)
}

// Canvas receives drawing commands.
type Canvas interface {
	FillRect(r Rect, color string)
	DrawText(at Point, text string)
}

// Mounter is notified on the first paint after its node was inserted.
type Mounter interface {
	Mount(state *State)
}

// Unmounter is notified on the paint pass following its node's removal.
type Unmounter interface {
	Unmount(state *State)
}

// PassThrough is a Widget that mounts the children it was given.
type PassThrough struct{}

// Render implements Widget.
func (PassThrough) Render(children []Element, _ *State) []Element {
	return children
}

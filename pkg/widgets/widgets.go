package widgets

import (
	"fmt"
	"unicode/utf8"

	"github.com/vango-dev/canopy/pkg/ui"
)

// Fixed text metrics.
const (
	CharWidth  = 8
	LineHeight = 16
)

// Text draws a single line.
type Text struct {
	Content string
	Color   string // background; empty draws none
}

// Render implements ui.Widget.
func (Text) Render([]ui.Element, *ui.State) []ui.Element { return nil }

// ShouldUpdate implements ui.Updater. Identical text is not re-rendered.
func (t Text) ShouldUpdate(prev ui.Widget, _, _ []ui.Element, _ *ui.State) bool {
	p, ok := prev.(Text)
	return !ok || p != t
}

// Layout implements ui.Layouter.
func (t Text) Layout(_ ui.LayoutContext, c ui.Constraints) ui.Size {
	return c.Constrain(ui.Size{
		Width:  float64(utf8.RuneCountInString(t.Content) * CharWidth),
		Height: LineHeight,
	})
}

// Paint implements ui.Painter.
func (t Text) Paint(c ui.Canvas, bounds ui.Rect, _ *ui.State) {
	if t.Color != "" {
		c.FillRect(bounds, t.Color)
	}
	c.DrawText(bounds.Origin, t.Content)
}

// Column stacks its children top to bottom.
type Column struct {
	Spacing    float64
	Background string
}

// Render implements ui.Widget.
func (Column) Render(children []ui.Element, _ *ui.State) []ui.Element { return children }

// Layout implements ui.Layouter.
func (w Column) Layout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	return stack(ctx, c, w.Spacing, true)
}

// Paint implements ui.Painter.
func (w Column) Paint(c ui.Canvas, bounds ui.Rect, _ *ui.State) {
	if w.Background != "" {
		c.FillRect(bounds, w.Background)
	}
}

// Row lays its children out left to right.
type Row struct {
	Spacing    float64
	Background string
}

// Render implements ui.Widget.
func (Row) Render(children []ui.Element, _ *ui.State) []ui.Element { return children }

// Layout implements ui.Layouter.
func (w Row) Layout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	return stack(ctx, c, w.Spacing, false)
}

// Paint implements ui.Painter.
func (w Row) Paint(c ui.Canvas, bounds ui.Rect, _ *ui.State) {
	if w.Background != "" {
		c.FillRect(bounds, w.Background)
	}
}

// stack places children one after another along the main axis. Each child
// gets the space the previous ones left.
func stack(ctx ui.LayoutContext, c ui.Constraints, spacing float64, vertical bool) ui.Size {
	var main, cross float64
	for i := range ctx.ChildCount() {
		if i > 0 {
			main += spacing
		}
		avail := c.Max
		if vertical {
			avail.Height = max(0, avail.Height-main)
		} else {
			avail.Width = max(0, avail.Width-main)
		}
		s := ctx.LayoutChild(i, ui.Loose(avail))
		if vertical {
			ctx.PlaceChild(i, ui.Point{Y: main})
			main += s.Height
			cross = max(cross, s.Width)
		} else {
			ctx.PlaceChild(i, ui.Point{X: main})
			main += s.Width
			cross = max(cross, s.Height)
		}
	}
	if vertical {
		return c.Constrain(ui.Size{Width: cross, Height: main})
	}
	return c.Constrain(ui.Size{Width: main, Height: cross})
}

// Padding insets its children.
type Padding struct {
	Horizontal, Vertical float64
}

// All pads every side by v.
func All(v float64) Padding {
	return Padding{Horizontal: v, Vertical: v}
}

// Render implements ui.Widget.
func (Padding) Render(children []ui.Element, _ *ui.State) []ui.Element { return children }

// Layout implements ui.Layouter. Children overlap inside the inset area.
func (p Padding) Layout(ctx ui.LayoutContext, c ui.Constraints) ui.Size {
	inner := c.Deflate(2*p.Horizontal, 2*p.Vertical)
	var size ui.Size
	for i := range ctx.ChildCount() {
		s := ctx.LayoutChild(i, inner)
		ctx.PlaceChild(i, ui.Point{X: p.Horizontal, Y: p.Vertical})
		size.Width = max(size.Width, s.Width)
		size.Height = max(size.Height, s.Height)
	}
	return c.Constrain(ui.Size{
		Width:  size.Width + 2*p.Horizontal,
		Height: size.Height + 2*p.Vertical,
	})
}

// Counter shows a label and an int held in its node's state.
type Counter struct {
	Label string
	Start int
}

// InitialState implements ui.Stateful.
func (c Counter) InitialState() any {
	return c.Start
}

// Render implements ui.Widget.
func (c Counter) Render(_ []ui.Element, s *ui.State) []ui.Element {
	n, _ := ui.Value[int](s)
	return []ui.Element{ui.New(Text{Content: fmt.Sprintf("%s: %d", c.Label, n)})}
}

// Increment adds one to a Counter's state and schedules its re-render.
func Increment(s *ui.State) {
	s.Update(func(old any) any {
		n, _ := old.(int)
		return n + 1
	})
}

// Demo returns the demo app: a title above n keyed counters.
func Demo(n int) ui.Element {
	counters := make([]ui.Element, n)
	for i := range n {
		counters[i] = ui.Keyed(fmt.Sprintf("counter-%d", i), Counter{Label: fmt.Sprintf("counter %d", i)})
	}
	return ui.New(All(8),
		ui.New(Column{Spacing: 4, Background: "#202020"},
			ui.New(Text{Content: "canopy demo"}),
			ui.New(Column{Spacing: 2}, counters...),
		),
	)
}

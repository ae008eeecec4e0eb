package paint

import (
	"fmt"
	"strings"

	"github.com/vango-dev/canopy/pkg/ui"
)

// CommandKind is the type of display list command.
type CommandKind uint8

const (
	CommandRect CommandKind = iota + 1
	CommandText
)

// Command is one recorded drawing call.
type Command struct {
	Kind  CommandKind
	Rect  ui.Rect
	Color string
	At    ui.Point
	Text  string
}

// String returns the string representation of the Command.
func (c Command) String() string {
	switch c.Kind {
	case CommandRect:
		return fmt.Sprintf("rect %s %s", c.Rect, c.Color)
	case CommandText:
		return fmt.Sprintf("text (%g,%g) %q", c.At.X, c.At.Y, c.Text)
	default:
		return "unknown"
	}
}

// DisplayList is a Canvas that records commands.
type DisplayList struct {
	Commands []Command
}

// FillRect implements ui.Canvas.
func (d *DisplayList) FillRect(r ui.Rect, color string) {
	d.Commands = append(d.Commands, Command{Kind: CommandRect, Rect: r, Color: color})
}

// DrawText implements ui.Canvas.
func (d *DisplayList) DrawText(at ui.Point, text string) {
	d.Commands = append(d.Commands, Command{Kind: CommandText, At: at, Text: text})
}

// Reset drops every recorded command.
func (d *DisplayList) Reset() {
	d.Commands = d.Commands[:0]
}

// Len returns the number of recorded commands.
func (d *DisplayList) Len() int {
	return len(d.Commands)
}

// String returns one command per line.
func (d *DisplayList) String() string {
	var b strings.Builder
	for _, c := range d.Commands {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

package errors

import (
	"strings"
	"sync/atomic"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGray   = "\033[90m"
)

var noColor atomic.Bool

// SetColor turns ANSI styling in Format on or off. It is on by default.
func SetColor(on bool) {
	noColor.Store(!on)
}

func paint(style, text string) string {
	if noColor.Load() {
		return text
	}
	return style + text + ansiReset
}

// Format renders the error for a terminal: a headline with the code,
// then the detail, the cause and the hint as indented sections.
func (e *Error) Format() string {
	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}

	var b strings.Builder
	b.WriteString("\n" + paint(ansiBold+ansiRed, head+":") + " " + paint(ansiBold, e.Message) + "\n")

	section := func(label, style, text string) {
		if text == "" {
			return
		}
		b.WriteString("\n  ")
		if label != "" {
			b.WriteString(paint(style, label) + " ")
		}
		b.WriteString(text + "\n")
	}
	section("", "", e.Detail)
	if e.Wrapped != nil {
		section("caused by:", ansiGray, e.Wrapped.Error())
	}
	section("Hint:", ansiYellow, e.Suggestion)
	return b.String()
}

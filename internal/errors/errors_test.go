package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "arena error",
			code:    "E101",
			wantMsg: "Invalid key",
			wantCat: CategoryArena,
		},
		{
			name:    "tree error",
			code:    "E103",
			wantMsg: "Root has no siblings",
			wantCat: CategoryTree,
		},
		{
			name:    "config error",
			code:    "E201",
			wantMsg: "Invalid configuration",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New("E102").WithDetail("key 3#1")
	if got, want := err.Error(), "E102: Slot already filled: key 3#1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := Newf(CategoryCLI, "file %q not found", "canopy.json")
	if got, want := plain.Error(), `file "canopy.json" not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapAndIs(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New("E302").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !stderrors.Is(fmt.Errorf("saving: %w", err), New("E302")) {
		t.Error("errors.Is should match by code through a wrap")
	}
	if stderrors.Is(err, New("E301")) {
		t.Error("errors.Is should not match a different code")
	}
	if got := Code(fmt.Errorf("outer: %w", err)); got != "E302" {
		t.Errorf("Code() = %q, want E302", got)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E201") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("E203")
	if got := FromError(fmt.Errorf("load: %w", coded), "E201"); got != coded {
		t.Error("FromError should return the existing *Error in the chain")
	}

	wrapped := FromError(stderrors.New("boom"), "E202")
	if wrapped.Code != "E202" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v, want E202 wrapping the cause", wrapped)
	}
}

func TestFormat(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	out := New("E201").
		WithDetail("viewport width must be positive").
		WithSuggestion("set viewport.width in canopy.json").
		Format()

	for _, want := range []string{"ERROR E201: Invalid configuration", "viewport width must be positive", "Hint: set viewport.width"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

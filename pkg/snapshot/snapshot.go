package snapshot

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Bounds is an absolute rectangle.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one mounted widget.
type Node struct {
	ID       uint64 `json:"id"`
	Type     string `json:"type"`
	Key      string `json:"key,omitempty"`
	Flags    string `json:"flags"`
	Bounds   Bounds `json:"bounds"`
	Children []Node `json:"children,omitempty"`
}

// Snapshot is a point-in-time copy of a paint tree.
type Snapshot struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	Viewport  Bounds    `json:"viewport"`
	Nodes     int       `json:"nodes"`
	Root      *Node     `json:"root,omitempty"`
}

// Capture copies pt. seq is the last batch applied to it. It must run on
// the goroutine that owns pt.
func Capture(pt *paint.Tree, seq uint64, viewport ui.Size) *Snapshot {
	s := &Snapshot{
		ID:        newID(),
		Seq:       seq,
		CreatedAt: time.Now().UTC(),
		Viewport:  Bounds{Width: viewport.Width, Height: viewport.Height},
		Nodes:     pt.Len(),
	}
	if root := pt.Root(); !root.IsNil() {
		n := capture(pt, root)
		s.Root = &n
	}
	return s
}

func capture(pt *paint.Tree, id ui.ID) Node {
	n, _ := pt.Node(id)
	r := pt.Bounds(id)
	out := Node{
		ID:    uint64(id),
		Type:  n.Pod.TypeName(),
		Key:   n.Pod.Key,
		Flags: n.Flags.String(),
		Bounds: Bounds{
			X:      r.Origin.X,
			Y:      r.Origin.Y,
			Width:  r.Size.Width,
			Height: r.Size.Height,
		},
	}
	for _, c := range pt.Children(id) {
		out.Children = append(out.Children, capture(pt, c))
	}
	return out
}

// Walk calls fn for every node in pre-order until fn returns false.
func (s *Snapshot) Walk(fn func(n *Node, depth int) bool) {
	if s.Root == nil {
		return
	}
	walk(s.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for i := range n.Children {
		if !walk(&n.Children[i], depth+1, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given ID.
func (s *Snapshot) Find(id uint64) (*Node, bool) {
	var found *Node
	s.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Encode returns the indented JSON form of s.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses a snapshot. Malformed input yields an E303 error.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.New("E303").Wrap(err)
	}
	if s.ID == "" {
		return nil, errors.New("E303").WithDetail("snapshot has no id")
	}
	return &s, nil
}

// newID returns a sortable, unique snapshot ID.
func newID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return time.Now().UTC().Format("20060102T150405.000000000Z") + "-" + hex.EncodeToString(b)
}

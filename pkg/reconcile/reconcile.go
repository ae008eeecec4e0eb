package reconcile

import (
	"iter"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/ui"
)

// Kind is the type of reconciliation step.
type Kind uint8

const (
	New Kind = iota
	Insertion
	Update
	UpdateAndPlacement
	Deletion
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case New:
		return "New"
	case Insertion:
		return "Insertion"
	case Update:
		return "Update"
	case UpdateAndPlacement:
		return "UpdateAndPlacement"
	case Deletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// Op is one reconciliation step.
type Op struct {
	Kind    Kind
	ID      ui.ID      // mounted child (Update, UpdateAndPlacement, Deletion)
	Before  ui.ID      // anchor (Insertion, UpdateAndPlacement)
	Element ui.Element // incoming element (all but Deletion)
}

// Reconciler yields the ops for one parent. It is consumed once.
type Reconciler struct {
	oldIDs   []ui.ID
	newElems []ui.Element

	matches  []int  // new position -> old position, or -1
	matched  []bool // old position has a partner
	consumed []bool // old position was already emitted

	next   int // next new position
	cursor int // first old position still waiting in place
	del    int // deletion scan position
}

// Keys returns the typed keys of elems by position.
func Keys(elems []ui.Element) []ui.TypedKey {
	keys := make([]ui.TypedKey, len(elems))
	for i, e := range elems {
		keys[i] = e.TypedKey(i)
	}
	return keys
}

// NewReconciler prepares a reconciliation. oldKeys/oldIDs describe the
// mounted children in tree order; newKeys/newElems the rendered children in
// the desired order. Parallel slices must have equal lengths.
func NewReconciler(oldKeys []ui.TypedKey, oldIDs []ui.ID, newKeys []ui.TypedKey, newElems []ui.Element) *Reconciler {
	if len(oldKeys) != len(oldIDs) || len(newKeys) != len(newElems) {
		panic(errors.New("E109").WithDetailf("%d keys for %d old IDs, %d keys for %d new elements",
			len(oldKeys), len(oldIDs), len(newKeys), len(newElems)))
	}

	r := &Reconciler{
		oldIDs:   oldIDs,
		newElems: newElems,
		matches:  make([]int, len(newKeys)),
		matched:  make([]bool, len(oldKeys)),
		consumed: make([]bool, len(oldKeys)),
	}

	index := make(map[ui.TypedKey]int, len(oldKeys))
	for j, k := range oldKeys {
		if _, dup := index[k]; !dup {
			index[k] = j
		}
	}
	for i, k := range newKeys {
		j, ok := index[k]
		if !ok {
			r.matches[i] = -1
			continue
		}
		r.matches[i] = j
		r.matched[j] = true
		delete(index, k)
	}
	return r
}

// Next returns the next op, or false when the reconciliation is finished.
func (r *Reconciler) Next() (Op, bool) {
	if r.next < len(r.newElems) {
		i := r.next
		r.next++
		r.skip()

		el := r.newElems[i]
		j := r.matches[i]
		switch {
		case j < 0:
			if r.cursor < len(r.oldIDs) {
				return Op{Kind: Insertion, Before: r.oldIDs[r.cursor], Element: el}, true
			}
			return Op{Kind: New, Element: el}, true
		case j == r.cursor:
			r.consumed[j] = true
			r.cursor++
			return Op{Kind: Update, ID: r.oldIDs[j], Element: el}, true
		default:
			r.consumed[j] = true
			return Op{Kind: UpdateAndPlacement, ID: r.oldIDs[j], Before: r.oldIDs[r.cursor], Element: el}, true
		}
	}

	for r.del < len(r.oldIDs) {
		j := r.del
		r.del++
		if !r.matched[j] {
			return Op{Kind: Deletion, ID: r.oldIDs[j]}, true
		}
	}
	return Op{}, false
}

// skip advances the cursor past children that were already emitted out of
// order or that will be deleted.
func (r *Reconciler) skip() {
	for r.cursor < len(r.oldIDs) && (r.consumed[r.cursor] || !r.matched[r.cursor]) {
		r.cursor++
	}
}

// All iterates the remaining ops.
func (r *Reconciler) All() iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for {
			op, ok := r.Next()
			if !ok || !yield(op) {
				return
			}
		}
	}
}

// Diff reconciles mounted children against rendered elements and collects
// every op.
func Diff(oldKeys []ui.TypedKey, oldIDs []ui.ID, newElems []ui.Element) []Op {
	r := NewReconciler(oldKeys, oldIDs, Keys(newElems), newElems)
	ops := make([]Op, 0, len(newElems)+len(oldIDs))
	for op := range r.All() {
		ops = append(ops, op)
	}
	return ops
}

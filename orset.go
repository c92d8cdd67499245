package cvrdt

import "fmt"

// orItem tags an ORSet value with the process and per-process tick
// that added it, making every insertion into the underlying USet
// unique even when the same value is added more than once (possibly
// by different processes, possibly after being removed and re-added).
type orItem struct {
	Value   any
	Process string
	Tick    int
}

// ORSet is an Observed-Remove Set: a remove only undoes the adds this
// replica has observed, so an add concurrent with a remove of the
// same value survives (add-wins), which is the defining ORSet
// property.
type ORSet struct {
	Process Process
	Inner   *USet
	Ticks   int
}

// NewORSet constructs an empty ORSet owned by process.
func NewORSet(process Process) *ORSet {
	return &ORSet{Process: process, Inner: NewUSet(process)}
}

// Value projects away the (process, tick) tags, returning the set of
// plain values currently observed as added.
func (s *ORSet) Value() any {
	out := make(map[any]struct{})
	for k := range s.Inner.Items {
		out[k.(orItem).Value] = struct{}{}
	}
	return out
}

// Add inserts value, tagged with a fresh per-process tick so the
// underlying USet's unique-add precondition always holds even for a
// value added more than once over the set's lifetime.
func (s *ORSet) Add(value any) {
	s.Ticks++
	// The tag makes this triple unique cluster-wide by construction
	// (Process+Tick never repeats), so the USet precondition can
	// never actually fire here.
	_ = s.Inner.Add(orItem{Value: value, Process: s.Process.Name, Tick: s.Ticks})
}

// Remove finds every triple currently tagging value and removes them
// all, but bumps the vector clock exactly once for the whole batch —
// a logical remove is a single event at this replica regardless of
// how many add-observations it subsumes. If value is not currently
// present, Remove is a no-op.
func (s *ORSet) Remove(value any) {
	var toRemove []any
	for k := range s.Inner.Items {
		if k.(orItem).Value == value {
			toRemove = append(toRemove, k)
		}
	}
	if len(toRemove) == 0 {
		return
	}
	for _, k := range toRemove {
		delete(s.Inner.Items, k)
	}
	s.Inner.Clock = s.Inner.Clock.Bump(s.Process)
}

// currentTick returns this replica's own dot counter within the inner
// USet's clock, or 0 if it has none yet (the Go analogue of the
// original's try/except ValueError around dot_counter).
func (s *ORSet) currentTick() int {
	d, err := s.Inner.Clock.Find(s.Process)
	if err != nil {
		return 0
	}
	return d.Counter
}

// LessEq delegates to the inner USet.
func (s *ORSet) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*ORSet)
	if !ok {
		return false, typeMismatch("*ORSet", other)
	}
	return s.Inner.LessEq(o.Inner)
}

// Merge delegates to the inner USet's three-case merge.
func (s *ORSet) Merge(other CRDT) error {
	o, ok := other.(*ORSet)
	if !ok {
		return typeMismatch("*ORSet", other)
	}
	if err := s.Inner.Merge(o.Inner); err != nil {
		return err
	}
	if Metrics != nil {
		Metrics.ObserveMerge("ORSet")
	}
	return nil
}

// State returns a deep-copy snapshot of s.
func (s *ORSet) State() *ORSet {
	return &ORSet{Process: s.Process, Inner: s.Inner.State(), Ticks: s.Ticks}
}

// Snapshot implements CRDT.
func (s *ORSet) Snapshot() CRDT { return s.State() }

// Reset empties the inner set and resets the tick counter.
func (s *ORSet) Reset() {
	s.Inner.Reset()
	s.Ticks = 0
}

func (s *ORSet) String() string {
	return fmt.Sprintf("ORSet(%s, dot=%d, ticks=%d)", s.Process.Name, s.currentTick(), s.Ticks)
}

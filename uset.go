package cvrdt

import "fmt"

// USet is a unique-add set: a VC-guarded item set used as the
// building block for ORSet. Callers MUST never add the same item
// value twice across the whole cluster — USet rejects an Add of an
// item it currently holds but, like the original this is
// grounded on, cannot detect a cross-replica double-add on its own;
// ORSet's per-process tagging is what makes the precondition hold in
// practice.
type USet struct {
	Process Process
	Clock   VClock
	Items   map[any]struct{}
}

// NewUSet constructs an empty USet owned by process.
func NewUSet(process Process) *USet {
	return &USet{Process: process, Items: make(map[any]struct{})}
}

// Value returns a copy of the current item set.
func (s *USet) Value() any {
	out := make(map[any]struct{}, len(s.Items))
	for k := range s.Items {
		out[k] = struct{}{}
	}
	return out
}

// Add bumps the clock and inserts item. The unique-add precondition is
// that no item value is ever added twice across the whole cluster;
// Add only checks this replica's current items, so it rejects adding
// an item that is already present with ErrPreconditionViolated rather
// than silently bumping the clock for nothing. An item that was added
// and later removed is not remembered, so adding it again succeeds.
func (s *USet) Add(item any) error {
	if _, ok := s.Items[item]; ok {
		return ErrPreconditionViolated
	}
	s.Clock = s.Clock.Bump(s.Process)
	s.Items[item] = struct{}{}
	return nil
}

// Remove bumps the clock and deletes item, iff item is currently
// present. A remove of an absent item is a no-op (no bump).
func (s *USet) Remove(item any) {
	if _, ok := s.Items[item]; ok {
		s.Clock = s.Clock.Bump(s.Process)
		delete(s.Items, item)
	}
}

// LessEq compares two USets by their vector clocks.
func (s *USet) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*USet)
	if !ok {
		return false, typeMismatch("*USet", other)
	}
	return s.Clock.LessEq(o.Clock), nil
}

// Merge has exactly three cases on vector-clock comparison, exhaustive
// because VCs form a lattice:
//
//   - s.Clock >= other.Clock: s already knows everything other does;
//     no change.
//   - s.Clock < other.Clock: other has seen everything s has plus
//     more; adopt other's items outright.
//   - s.Clock concurrent with other.Clock: neither replica could have
//     removed an item the other added without having observed the
//     add first (the unique-add precondition guarantees this), so a
//     plain union of items is safe.
//
// A fourth case is a programming error (an internal invariant
// violation, not a caller mistake), since the three above are
// exhaustive for any pair of vector clocks.
func (s *USet) Merge(other CRDT) error {
	o, ok := other.(*USet)
	if !ok {
		return typeMismatch("*USet", other)
	}
	switch {
	case s.Clock.GreaterEq(o.Clock):
		// no change
	case s.Clock.Less(o.Clock):
		cp := make(map[any]struct{}, len(o.Items))
		for k := range o.Items {
			cp[k] = struct{}{}
		}
		s.Items = cp
		s.Clock = s.Clock.Merge(o.Clock)
	case s.Clock.Concurrent(o.Clock):
		for k := range o.Items {
			s.Items[k] = struct{}{}
		}
		s.Clock = s.Clock.Merge(o.Clock)
	default:
		return fmt.Errorf("cvrdt: USet.Merge: clocks %v and %v are neither ordered nor concurrent, which is impossible in a lattice", s.Clock, o.Clock)
	}
	if Metrics != nil {
		Metrics.ObserveMerge("USet")
	}
	return nil
}

// State returns a deep-copy snapshot of s.
func (s *USet) State() *USet {
	cp := make(map[any]struct{}, len(s.Items))
	for k := range s.Items {
		cp[k] = struct{}{}
	}
	return &USet{Process: s.Process, Clock: s.Clock, Items: cp}
}

// Snapshot implements CRDT.
func (s *USet) Snapshot() CRDT { return s.State() }

// Reset empties the clock and item set.
func (s *USet) Reset() {
	s.Clock = VClock{}
	s.Items = make(map[any]struct{})
}

// usetWire is USet's gob wire shape, items traveling as a slice for
// the same reason as GSet's.
type usetWire struct {
	Process Process
	Clock   VClock
	Items   []any
}

// GobEncode implements gob.GobEncoder.
func (s *USet) GobEncode() ([]byte, error) {
	w := usetWire{Process: s.Process, Clock: s.Clock, Items: make([]any, 0, len(s.Items))}
	for k := range s.Items {
		w.Items = append(w.Items, k)
	}
	return EncodeState(w)
}

// GobDecode implements gob.GobDecoder.
func (s *USet) GobDecode(data []byte) error {
	var w usetWire
	if err := DecodeState(data, &w); err != nil {
		return err
	}
	s.Process = w.Process
	s.Clock = w.Clock
	s.Items = make(map[any]struct{}, len(w.Items))
	for _, item := range w.Items {
		s.Items[item] = struct{}{}
	}
	return nil
}

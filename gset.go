package cvrdt

// GSet is a grow-only set: an unordered collection of opaque,
// comparable items that only ever gains members. Its merge is set
// union, which is trivially commutative, associative, and idempotent.
//
// Items must be comparable (usable as a Go map key); storing a
// non-comparable item (a slice, map, or func) panics, the same
// constraint Go itself places on map keys.
type GSet struct {
	Process Process
	Items   map[any]struct{}
}

// NewGSet constructs an empty GSet owned by process.
func NewGSet(process Process) *GSet {
	return &GSet{Process: process, Items: make(map[any]struct{})}
}

// Add inserts item into the set.
func (s *GSet) Add(item any) {
	s.Items[item] = struct{}{}
}

// Value returns a copy of the current item set.
func (s *GSet) Value() any {
	out := make(map[any]struct{}, len(s.Items))
	for k := range s.Items {
		out[k] = struct{}{}
	}
	return out
}

// Contains reports whether item is currently a member.
func (s *GSet) Contains(item any) bool {
	_, ok := s.Items[item]
	return ok
}

// LessEq is subset: s <= other iff every item in s is in other.
func (s *GSet) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*GSet)
	if !ok {
		return false, typeMismatch("*GSet", other)
	}
	for k := range s.Items {
		if _, found := o.Items[k]; !found {
			return false, nil
		}
	}
	return true, nil
}

// Merge is set union.
func (s *GSet) Merge(other CRDT) error {
	o, ok := other.(*GSet)
	if !ok {
		return typeMismatch("*GSet", other)
	}
	for k := range o.Items {
		s.Items[k] = struct{}{}
	}
	if Metrics != nil {
		Metrics.ObserveMerge("GSet")
	}
	return nil
}

// State returns a deep-copy snapshot of s.
func (s *GSet) State() *GSet {
	cp := make(map[any]struct{}, len(s.Items))
	for k := range s.Items {
		cp[k] = struct{}{}
	}
	return &GSet{Process: s.Process, Items: cp}
}

// Snapshot implements CRDT.
func (s *GSet) Snapshot() CRDT { return s.State() }

// Reset empties the set.
func (s *GSet) Reset() {
	s.Items = make(map[any]struct{})
}

// gsetWire is GSet's gob wire shape. gob's map support for an
// interface-typed key is not a path this library wants to lean on
// untested, so items travel as a slice instead.
type gsetWire struct {
	Process Process
	Items   []any
}

// GobEncode implements gob.GobEncoder.
func (s *GSet) GobEncode() ([]byte, error) {
	w := gsetWire{Process: s.Process, Items: make([]any, 0, len(s.Items))}
	for k := range s.Items {
		w.Items = append(w.Items, k)
	}
	return EncodeState(w)
}

// GobDecode implements gob.GobDecoder.
func (s *GSet) GobDecode(data []byte) error {
	var w gsetWire
	if err := DecodeState(data, &w); err != nil {
		return err
	}
	s.Process = w.Process
	s.Items = make(map[any]struct{}, len(w.Items))
	for _, item := range w.Items {
		s.Items[item] = struct{}{}
	}
	return nil
}

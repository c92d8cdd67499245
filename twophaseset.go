package cvrdt

// TwoPhaseSet is an add-set minus a remove-set: once an item is
// removed, it can never reappear in Value at this or any descendant
// replica, even if re-added.
type TwoPhaseSet struct {
	Process Process
	Alive   *GSet
	Dead    *GSet
}

// NewTwoPhaseSet constructs an empty TwoPhaseSet owned by process.
func NewTwoPhaseSet(process Process) *TwoPhaseSet {
	return &TwoPhaseSet{Process: process, Alive: NewGSet(process), Dead: NewGSet(process)}
}

// Add inserts item into the alive set.
func (s *TwoPhaseSet) Add(item any) {
	s.Alive.Add(item)
}

// Remove tombstones item, iff it is currently a member of Value. It
// reports whether the removal actually took effect.
func (s *TwoPhaseSet) Remove(item any) bool {
	if !s.Alive.Contains(item) || s.Dead.Contains(item) {
		return false
	}
	s.Dead.Add(item)
	return true
}

// Value is Alive minus Dead.
func (s *TwoPhaseSet) Value() any {
	out := make(map[any]struct{})
	for k := range s.Alive.Items {
		if !s.Dead.Contains(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// LessEq is the component-wise AND of the Alive and Dead subset
// checks. A version of this comparison using OR exists in some
// sources; OR breaks the partial order (it would accept x <= y even
// when x's tombstones aren't contained in y's, letting a removed item
// resurface downstream), so this implementation uses AND.
func (s *TwoPhaseSet) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*TwoPhaseSet)
	if !ok {
		return false, typeMismatch("*TwoPhaseSet", other)
	}
	aliveLE, err := s.Alive.LessEq(o.Alive)
	if err != nil {
		return false, err
	}
	deadLE, err := s.Dead.LessEq(o.Dead)
	if err != nil {
		return false, err
	}
	return aliveLE && deadLE, nil
}

// Merge unions both components independently.
func (s *TwoPhaseSet) Merge(other CRDT) error {
	o, ok := other.(*TwoPhaseSet)
	if !ok {
		return typeMismatch("*TwoPhaseSet", other)
	}
	if err := s.Alive.Merge(o.Alive); err != nil {
		return err
	}
	if err := s.Dead.Merge(o.Dead); err != nil {
		return err
	}
	if Metrics != nil {
		Metrics.ObserveMerge("TwoPhaseSet")
	}
	return nil
}

// State returns a deep-copy snapshot of s.
func (s *TwoPhaseSet) State() *TwoPhaseSet {
	return &TwoPhaseSet{Process: s.Process, Alive: s.Alive.State(), Dead: s.Dead.State()}
}

// Snapshot implements CRDT.
func (s *TwoPhaseSet) Snapshot() CRDT { return s.State() }

// Reset empties both components.
func (s *TwoPhaseSet) Reset() {
	s.Alive.Reset()
	s.Dead.Reset()
}

package cvrdt

// LWWRegister is a Last-Write-Wins Register: a single mutable atom
// guarded by a vector clock, with ties broken by timestamp and then
// by the total order over processes. If two replicas set a value
// concurrently with equal timestamps, the replica whose process sorts
// higher in the cluster's total order wins on every replica, which is
// what makes the resolution deterministic.
type LWWRegister struct {
	Process   Process
	Clock     VClock
	Atom      any
	Timestamp float64
}

// NewLWWRegister constructs an LWWRegister owned by process, with its
// own dot absent (counter 0) and no value set.
func NewLWWRegister(process Process) *LWWRegister {
	return &LWWRegister{Process: process}
}

// Value returns the atom currently held, or nil if Set has never been
// called.
func (r *LWWRegister) Value() any {
	return r.Atom
}

// Set assigns value to the register. value must be comparable (the Go
// analogue of "hashable"); a non-comparable value (slice, map, func)
// returns ErrMutableValue rather than panicking later inside a map or
// an equality check. ts optionally pins the new dot's timestamp;
// omitted, MonotonicNow is consulted and the result never regresses
// this replica's previous timestamp.
func (r *LWWRegister) Set(value any, ts ...float64) error {
	if !isComparable(value) {
		return ErrMutableValue
	}
	var timestamp float64
	if len(ts) > 0 {
		timestamp = ts[0]
	} else {
		timestamp = MonotonicNow()
		if r.Timestamp > timestamp {
			timestamp = r.Timestamp
		}
	}
	r.Clock = r.Clock.Bump(r.Process, timestamp)
	r.Atom = value
	r.Timestamp = timestamp
	return nil
}

func isComparable(value any) (ok bool) {
	if value == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	// reflect.TypeOf(value).Comparable() would report true for structs
	// containing incomparable fields only at call time; triggering the
	// same panic Go's own map/== machinery would hit is the simplest
	// way to match exactly what "must be immutable" means in Go.
	return value == value
}

// dominates reports self << other ("other wins"): the dominance ladder.
//
//  1. self.Clock < other.Clock: other strictly descends — other wins.
//  2. self.Clock > other.Clock: self strictly descends — self wins.
//  3. Otherwise (concurrent or equal clocks): higher Timestamp wins;
//     on a timestamp tie, the higher-ordered Process wins.
//
// The third branch compares self.Clock to other.Clock, not to itself:
// an earlier revision of this algorithm tested self.Clock ==
// self.Clock here, a tautology that silently broke the
// concurrent/equal case.
func (r *LWWRegister) dominates(other *LWWRegister) bool {
	switch {
	case r.Clock.Less(other.Clock):
		return true
	case r.Clock.Dominates(other.Clock):
		return false
	default:
		if r.Timestamp != other.Timestamp {
			return other.Timestamp > r.Timestamp
		}
		return r.Process.Less(other.Process)
	}
}

// LessEq compares two LWWRegisters by their vector clocks, as with
// every other type here — not by Value.
func (r *LWWRegister) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*LWWRegister)
	if !ok {
		return false, typeMismatch("*LWWRegister", other)
	}
	return r.Clock.LessEq(o.Clock), nil
}

// Merge adopts other's atom and timestamp together if other wins the
// dominance ladder, keeping both as-is otherwise, then joins the
// vector clocks. The timestamp MUST follow the winning write rather
// than taking max(self, other): decoupling the two breaks
// associativity, since a later merge could then favor a stale
// timestamp that never belonged to the atom it's attached to.
func (r *LWWRegister) Merge(other CRDT) error {
	o, ok := other.(*LWWRegister)
	if !ok {
		return typeMismatch("*LWWRegister", other)
	}
	ts := r.Timestamp
	if r.dominates(o) {
		r.Atom = o.Atom
		ts = o.Timestamp
	}
	r.Clock = r.Clock.Merge(o.Clock).withTimestamp(r.Process, ts)
	r.Timestamp = ts
	if Metrics != nil {
		Metrics.ObserveMerge("LWWRegister")
	}
	return nil
}

// State returns a deep-copy snapshot of r. Atom is a value already
// held under the comparable constraint Set enforces, so a shallow
// copy of the field is a logical deep copy.
func (r *LWWRegister) State() *LWWRegister {
	return &LWWRegister{Process: r.Process, Clock: r.Clock, Atom: r.Atom, Timestamp: r.Timestamp}
}

// Snapshot implements CRDT.
func (r *LWWRegister) Snapshot() CRDT { return r.State() }

// Reset clears the register back to its initial, unset state.
func (r *LWWRegister) Reset() {
	r.Clock = VClock{}
	r.Atom = nil
	r.Timestamp = 0
}

func (r *LWWRegister) String() string {
	return "LWWRegister(" + r.Process.Name + ")"
}

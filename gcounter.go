package cvrdt

// GCounter is a state-based Grow-only Counter CRDT: a distributed
// counter whose value only increases. It is, in effect, a VClock
// restricted to one operation (Incr) whose dot counters sum to the
// observable value — every process is responsible only for its own
// dot, so increments from different processes never collide.
type GCounter struct {
	Process Process
	Clock   VClock
}

// NewGCounter initializes a GCounter owned by process.
func NewGCounter(process Process) *GCounter {
	return &GCounter{Process: process}
}

// Incr adds 1 to the local process's dot in the counter.
func (c *GCounter) Incr() {
	c.Clock = c.Clock.Bump(c.Process)
}

// Value returns the sum of all dot counters: the global total count
// as currently known by this replica.
func (c *GCounter) Value() any {
	total := 0
	for _, d := range c.Clock.dots {
		total += d.Counter
	}
	return total
}

// Merge folds other's vector clock into c's by pointwise max, the
// Join-Semilattice join that makes GCounter convergent.
func (c *GCounter) Merge(other CRDT) error {
	o, ok := other.(*GCounter)
	if !ok {
		return typeMismatch("*GCounter", other)
	}
	c.Clock = c.Clock.Merge(o.Clock)
	if Metrics != nil {
		Metrics.ObserveMerge("GCounter")
	}
	return nil
}

// LessEq compares two GCounters by their vector clocks.
func (c *GCounter) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*GCounter)
	if !ok {
		return false, typeMismatch("*GCounter", other)
	}
	return c.Clock.LessEq(o.Clock), nil
}

// State returns a deep-copy snapshot of c, safe to hand to another
// replica's Merge or to EncodeState.
func (c *GCounter) State() *GCounter {
	return &GCounter{Process: c.Process, Clock: c.Clock}
}

// Snapshot implements CRDT.
func (c *GCounter) Snapshot() CRDT { return c.State() }

// Reset clears the counter back to zero. See CRDT.Reset's warning:
// this is a coordination-layer operation, not a lattice one.
func (c *GCounter) Reset() {
	c.Clock = VClock{}
}

func (c *GCounter) String() string {
	return "GCounter(" + c.Process.Name + "," + c.Clock.String() + ")"
}

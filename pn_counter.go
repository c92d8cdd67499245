package cvrdt

// PNCounter is a Positive-Negative Counter CRDT: unlike GCounter,
// which is increment-only, PNCounter allows both increments and
// decrements by internally managing two independent GCounters, one
// tracking the sum of increments and one the sum of decrements, so the
// underlying state stays monotonically growing in both components.
type PNCounter struct {
	Process Process
	Pos     *GCounter // increments
	Neg     *GCounter // decrements
}

// NewPNCounter initializes a PNCounter owned by process.
func NewPNCounter(process Process) *PNCounter {
	return &PNCounter{
		Process: process,
		Pos:     NewGCounter(process),
		Neg:     NewGCounter(process),
	}
}

// Incr adds 1 to the counter's value.
func (c *PNCounter) Incr() {
	c.Pos.Incr()
}

// Decr subtracts 1 from the counter's value.
func (c *PNCounter) Decr() {
	c.Neg.Incr()
}

// Value is pos.Value - neg.Value.
func (c *PNCounter) Value() any {
	return c.Pos.Value().(int) - c.Neg.Value().(int)
}

// Merge merges the positive and negative components independently.
// Since each is a GCounter join, the PNCounter merge is also
// commutative, associative, and idempotent.
func (c *PNCounter) Merge(other CRDT) error {
	o, ok := other.(*PNCounter)
	if !ok {
		return typeMismatch("*PNCounter", other)
	}
	if err := c.Pos.Merge(o.Pos); err != nil {
		return err
	}
	if err := c.Neg.Merge(o.Neg); err != nil {
		return err
	}
	if Metrics != nil {
		Metrics.ObserveMerge("PNCounter")
	}
	return nil
}

// LessEq holds iff both components are LessEq.
func (c *PNCounter) LessEq(other CRDT) (bool, error) {
	o, ok := other.(*PNCounter)
	if !ok {
		return false, typeMismatch("*PNCounter", other)
	}
	posLE, err := c.Pos.LessEq(o.Pos)
	if err != nil {
		return false, err
	}
	negLE, err := c.Neg.LessEq(o.Neg)
	if err != nil {
		return false, err
	}
	return posLE && negLE, nil
}

// State returns a deep-copy snapshot of c.
func (c *PNCounter) State() *PNCounter {
	return &PNCounter{Process: c.Process, Pos: c.Pos.State(), Neg: c.Neg.State()}
}

// Snapshot implements CRDT.
func (c *PNCounter) Snapshot() CRDT { return c.State() }

// Reset clears both components back to zero.
func (c *PNCounter) Reset() {
	c.Pos.Reset()
	c.Neg.Reset()
}

func (c *PNCounter) String() string {
	return "PNCounter(" + c.Process.Name + ")"
}

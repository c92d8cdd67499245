package cvrdt

import "fmt"

// Dot is a single per-process event: Counter is the event count for
// Process, Timestamp is a monotonic real number used only by
// LWWRegister. Timestamp never participates in Dot equality or
// ordering — two dots are equal iff they share Process and Counter.
type Dot struct {
	Process   Process
	Counter   int
	Timestamp float64
}

// Equal reports whether two dots share the same process and counter.
// Timestamp is ignored.
func (d Dot) Equal(other Dot) bool {
	return d.Process.Equal(other.Process) && d.Counter == other.Counter
}

func (d Dot) String() string {
	return fmt.Sprintf("(%s,%d)", d.Process.Name, d.Counter)
}

package cvrdt

import "github.com/google/uuid"

// Process identifies a single replica within a cluster. Names must be
// unique for the lifetime of a process and must never be reused once
// retired; Order is a tie-break used by types that need a total order
// over processes (LWWRegister).
//
// Process values are immutable once constructed.
type Process struct {
	Name  string
	Order int
}

// NewProcess constructs a Process with the given name and order.
func NewProcess(name string, order int) Process {
	return Process{Name: name, Order: order}
}

// NewProcessID mints a Process with a random, practically-unique name,
// for callers that have no natural stable identifier to hand. Order
// still needs to be supplied by the caller; it is meaningless to
// randomize a tie-break.
func NewProcessID(order int) Process {
	return Process{Name: uuid.NewString(), Order: order}
}

// Equal reports whether two processes are the same identity. Equality
// is by Name alone — Order is a tie-break for ordering, not identity.
func (p Process) Equal(other Process) bool {
	return p.Name == other.Name
}

// Less reports whether p sorts before other in the cluster's total
// order, by (Order, Name).
func (p Process) Less(other Process) bool {
	if p.Order != other.Order {
		return p.Order < other.Order
	}
	return p.Name < other.Name
}

func (p Process) String() string {
	return p.Name
}

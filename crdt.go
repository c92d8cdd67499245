// Package cvrdt implements a small library of state-based Convergent
// Replicated Data Types: values that several processes update
// independently and that converge to the same value once every update
// has been exchanged, with no coordination beyond periodic state
// exchange. See the vector clock in vclock.go for the ordering
// primitive every other type here is built on.
package cvrdt

import (
	"errors"

	"github.com/latticebase/cvrdt/cvrmetrics"
)

// Sentinel errors. Callers discriminate with errors.Is; call sites
// that need to attach context wrap these with
// fmt.Errorf("...: %w", ErrX).
var (
	// ErrInvalidInput is returned by VClock construction when the
	// input violates an invariant (e.g. a duplicate process).
	ErrInvalidInput = errors.New("cvrdt: invalid input")
	// ErrNotFound is returned by VClock.Find when the process has no
	// recorded dot.
	ErrNotFound = errors.New("cvrdt: not found")
	// ErrMutableValue is returned by LWWRegister.Set when the value
	// is not comparable (the Go analogue of "not hashable").
	ErrMutableValue = errors.New("cvrdt: value is not immutable")
	// ErrTypeMismatch is returned by Merge and LessEq when the
	// operand is not the same concrete CRDT kind as the receiver.
	ErrTypeMismatch = errors.New("cvrdt: type mismatch")
	// ErrPreconditionViolated is returned by USet.Add when the item is
	// already present in the replica, violating USet's unique-add
	// contract.
	ErrPreconditionViolated = errors.New("cvrdt: precondition violated")
)

// CRDT is the capability every concrete type in this package exposes,
// letting callers (and the cvrtest harness) work with CRDT values
// without knowing their concrete kind ahead of time. Merge and LessEq
// take the interface rather than a concrete type so that a caller
// mixing up kinds gets ErrTypeMismatch instead of a silent wrong
// answer.
type CRDT interface {
	// Value projects the replica to its application-visible value.
	Value() any

	// Merge combines the state of a remote CRDT into the local
	// instance. other must be the same concrete kind as the receiver;
	// a mismatch returns ErrTypeMismatch.
	//
	// To guarantee convergence, every implementation's Merge MUST be
	// commutative, associative, and idempotent.
	Merge(other CRDT) error

	// LessEq compares two replicas in the semilattice order, not by
	// Value. A kind mismatch is ErrTypeMismatch.
	LessEq(other CRDT) (bool, error)

	// Reset restores the zero-value-equivalent initial state. This is
	// a coordination-layer operation, not a lattice operation:
	// calling it outside of a coordinated process/membership change
	// breaks convergence.
	Reset()

	// Snapshot returns a logical deep copy of the replica, suitable
	// for handing to another replica's Merge or to EncodeState.
	// Mutating the receiver afterward must not affect the result.
	Snapshot() CRDT
}

// Metrics, when non-nil, receives counters for vector-clock and CRDT
// merge/bump activity across this package. It is nil by default so the
// core stays free of I/O and side effects; set it once at program
// start to opt in, e.g.:
//
//	cvrdt.Metrics = cvrmetrics.NewCollectors(prometheus.DefaultRegisterer)
var Metrics *cvrmetrics.Collectors

func typeMismatch(expected string, got CRDT) error {
	return &typeMismatchError{expected: expected, got: got}
}

type typeMismatchError struct {
	expected string
	got      CRDT
}

func (e *typeMismatchError) Error() string {
	return ErrTypeMismatch.Error() + ": expected " + e.expected + ", got " + typeName(e.got)
}

func (e *typeMismatchError) Unwrap() error { return ErrTypeMismatch }

func typeName(v CRDT) string {
	switch v.(type) {
	case *GCounter:
		return "*GCounter"
	case *PNCounter:
		return "*PNCounter"
	case *GSet:
		return "*GSet"
	case *TwoPhaseSet:
		return "*TwoPhaseSet"
	case *USet:
		return "*USet"
	case *ORSet:
		return "*ORSet"
	case *LWWRegister:
		return "*LWWRegister"
	default:
		return "unknown CRDT"
	}
}

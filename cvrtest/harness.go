// Package cvrtest is a stateful, model-based and sync-based test
// harness: machines that drive arbitrary sequences of local mutations
// and out-of-order pairwise state exchanges across a fixed number of
// replicas, checking convergence, monotonicity, and agreement with a
// sequential reference model.
//
// Random command sequences are replayed by hand-written Go loops
// driven by github.com/leanovate/gopter's gen/prop.ForAll, the same
// gopter idiom used elsewhere in this module's property tests.
package cvrtest

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/latticebase/cvrdt"
)

// ReplicaCount is the fixed number of replicas every machine in this
// package drives.
const ReplicaCount = 5

// Processes returns ReplicaCount distinct processes named "R0".."R4",
// ordered by index, following the Rᵢ = Process("Rᵢ", i) convention used
// throughout this package's regression tests.
func Processes() [ReplicaCount]cvrdt.Process {
	var out [ReplicaCount]cvrdt.Process
	for i := range out {
		out[i] = cvrdt.NewProcess(fmt.Sprintf("R%d", i), i)
	}
	return out
}

// valueEqual compares two CRDT Value() results structurally. Every
// concrete Value() here is a plain int, a map[any]struct{}, or (for
// LWWRegister) a comparable atom, all of which reflect.DeepEqual
// handles correctly.
func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// SynchronizeReceiver implements the model-based machine's
// `synchronize(receiver)` command: it merges the states of every
// other replica into replicas[receiver], in a random order, and after
// each pairwise merge asserts that the pre-merge sender state is now
// dominated by the receiver (sender <= receiver).
func SynchronizeReceiver(rng *rand.Rand, replicas []cvrdt.CRDT, receiver int) error {
	senders := make([]int, 0, len(replicas)-1)
	for i := range replicas {
		if i != receiver {
			senders = append(senders, i)
		}
	}
	rng.Shuffle(len(senders), func(i, j int) { senders[i], senders[j] = senders[j], senders[i] })

	for _, i := range senders {
		senderState := replicas[i].Snapshot()
		if err := replicas[receiver].Merge(senderState); err != nil {
			return fmt.Errorf("cvrtest: merge sender %d into receiver %d: %w", i, receiver, err)
		}
		le, err := senderState.LessEq(replicas[receiver])
		if err != nil {
			return fmt.Errorf("cvrtest: compare sender %d to receiver %d: %w", i, receiver, err)
		}
		if !le {
			return fmt.Errorf("cvrtest: monotonicity violated: sender %d not <= receiver %d after merge", i, receiver)
		}
	}
	return nil
}

// SynchronizeLine implements the sync-based machine's `synchronize()`
// command: it shuffles replicas into a line, merges forward
// (r0→r1→…→r_{R-1}) then backward (r_{R-1}→…→r0), and asserts that
// afterward every pair converges: equal Value() and mutual <=.
func SynchronizeLine(rng *rand.Rand, replicas []cvrdt.CRDT) error {
	order := make([]int, len(replicas))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	propagate := func(from, to int) error {
		snap := replicas[order[from]].Snapshot()
		if err := replicas[order[to]].Merge(snap); err != nil {
			return fmt.Errorf("cvrtest: propagate %d -> %d: %w", order[from], order[to], err)
		}
		return nil
	}
	for i := 0; i < len(order)-1; i++ {
		if err := propagate(i, i+1); err != nil {
			return err
		}
	}
	for i := len(order) - 1; i > 0; i-- {
		if err := propagate(i, i-1); err != nil {
			return err
		}
	}
	return AssertConverged(replicas)
}

// AssertConverged checks convergence directly: every pair of replicas
// has equal Value() and is mutually <=.
func AssertConverged(replicas []cvrdt.CRDT) error {
	for a := 0; a < len(replicas); a++ {
		for b := a + 1; b < len(replicas); b++ {
			if !valueEqual(replicas[a].Value(), replicas[b].Value()) {
				return fmt.Errorf("cvrtest: replicas %d and %d diverged: %v != %v", a, b, replicas[a].Value(), replicas[b].Value())
			}
			ab, err := replicas[a].LessEq(replicas[b])
			if err != nil {
				return err
			}
			ba, err := replicas[b].LessEq(replicas[a])
			if err != nil {
				return err
			}
			if !ab || !ba {
				return fmt.Errorf("cvrtest: replicas %d and %d not mutually <= after convergence", a, b)
			}
		}
	}
	return nil
}

// RoundTrip encodes snapshot with encode, decodes it with decode into
// a fresh zero value of the same concrete type, and asserts the
// decoded value matches the original under Value(). It is used by
// both machines to periodically exercise decode(encode(x)) == x
// alongside the convergence checks.
func RoundTrip(snapshot cvrdt.CRDT, decodeInto func([]byte) (cvrdt.CRDT, error)) error {
	data, err := cvrdt.EncodeState(snapshot)
	if err != nil {
		return fmt.Errorf("cvrtest: encode: %w", err)
	}
	decoded, err := decodeInto(data)
	if err != nil {
		return fmt.Errorf("cvrtest: decode: %w", err)
	}
	if !valueEqual(snapshot.Value(), decoded.Value()) {
		return fmt.Errorf("cvrtest: round-trip value mismatch: %v != %v", snapshot.Value(), decoded.Value())
	}
	return nil
}

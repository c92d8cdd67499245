package cvrtest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/latticebase/cvrdt"
)

// RegisterModel is the sequential reference for LWWRegisterMachine.
type RegisterModel struct{ Value any }

// Set assigns value to the model.
func (m *RegisterModel) Set(value any) { m.Value = value }

// LWWRegisterMachine drives ReplicaCount LWWRegister replicas, mixing
// single-replica sets (recorded in a sequential model; Synchronize
// checks convergence only, not the model) with concurrent
// same-timestamp sets across two replicas (checked against whichever
// replica the dominance ladder says should win).
type LWWRegisterMachine struct {
	Replicas [ReplicaCount]*cvrdt.LWWRegister
	Model    RegisterModel
	rng      *rand.Rand
}

// NewLWWRegisterMachine constructs a machine with a fresh replica per
// process.
func NewLWWRegisterMachine(rng *rand.Rand) *LWWRegisterMachine {
	m := &LWWRegisterMachine{rng: rng}
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewLWWRegister(p)
	}
	return m
}

func (m *LWWRegisterMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// Set assigns value at one replica with the caller-supplied timestamp
// ts and updates the model in lockstep.
func (m *LWWRegisterMachine) Set(replica int, value any, ts float64) error {
	if err := m.Replicas[replica].Set(value, ts); err != nil {
		return err
	}
	m.Model.Set(value)
	return nil
}

// Synchronize shuffles replicas into a line and propagates forward
// then backward, asserting mutual convergence. LWW has no sequential
// model once concurrent writes are in play, since the dominance
// ladder, not insertion order, picks the winner.
func (m *LWWRegisterMachine) Synchronize() error {
	return SynchronizeLine(m.rng, m.crdtSlice())
}

// SetConcurrently sets two different values at two distinct replicas
// with the same timestamp after first fully synchronizing them: it
// asserts that whichever replica the dominance ladder picks as the
// winner is reflected identically on both sides after a subsequent
// merge, and that the winner is the higher-ordered process's value.
func (m *LWWRegisterMachine) SetConcurrently(replica1, replica2 int, value1, value2 any, ts float64) error {
	if replica1 == replica2 {
		return fmt.Errorf("cvrtest: SetConcurrently requires distinct replicas")
	}
	if err := m.Synchronize(); err != nil {
		return err
	}
	if err := m.Replicas[replica1].Set(value1, ts); err != nil {
		return err
	}
	if err := m.Replicas[replica2].Set(value2, ts); err != nil {
		return err
	}
	a, b := m.Replicas[replica1].State(), m.Replicas[replica2].State()
	if err := a.Merge(b); err != nil {
		return err
	}
	if err := b.Merge(m.Replicas[replica1].State()); err != nil {
		return err
	}
	if !valueEqual(a.Value(), b.Value()) {
		return fmt.Errorf("cvrtest: LWW concurrent set did not converge: %v != %v", a.Value(), b.Value())
	}
	want := value1
	if m.Replicas[replica1].Process.Less(m.Replicas[replica2].Process) {
		want = value2
	}
	if !valueEqual(a.Value(), want) {
		return fmt.Errorf("cvrtest: LWW concurrent set picked %v, want %v from the higher-ordered process", a.Value(), want)
	}
	return nil
}

// RunLWWRegisterProperty drives a gopter property test over random
// command sequences against an LWWRegisterMachine, asserting
// convergence after each synchronize.
func RunLWWRegisterProperty(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng = rng
	properties := gopter.NewProperties(parameters)

	properties.Property("LWWRegister machine converges", prop.ForAll(
		func(values []int, codes []int) bool {
			m := NewLWWRegisterMachine(rng)
			ts := 1.0
			for i, n := range codes {
				replica := n % ReplicaCount
				if i < len(values) {
					if err := m.Set(replica, values[i], ts); err != nil {
						t.Log(err)
						return false
					}
					ts++
				}
				if n%7 == 0 {
					if err := m.Synchronize(); err != nil {
						t.Log(err)
						return false
					}
				}
			}
			if err := m.Synchronize(); err != nil {
				t.Log(err)
				return false
			}
			return AssertConverged(m.crdtSlice()) == nil
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.SliceOf(gen.IntRange(0, 4*ReplicaCount-1)),
	))

	properties.TestingRun(t)
}

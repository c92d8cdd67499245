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

// SetModel is the sequential reference for GSetMachine: a plain set
// with no tombstones, since a grow-only set never needs any.
type SetModel struct {
	items map[any]struct{}
}

// NewSetModel constructs an empty SetModel.
func NewSetModel() *SetModel { return &SetModel{items: make(map[any]struct{})} }

// Add inserts item into the model.
func (m *SetModel) Add(item any) { m.items[item] = struct{}{} }

// Value returns a copy of the model's current items.
func (m *SetModel) Value() map[any]struct{} {
	out := make(map[any]struct{}, len(m.items))
	for k := range m.items {
		out[k] = struct{}{}
	}
	return out
}

// GSetMachine drives ReplicaCount GSet replicas against a SetModel —
// a grow-only set needs no removal bookkeeping, so model-based
// synchronize is a direct fit.
type GSetMachine struct {
	Replicas [ReplicaCount]*cvrdt.GSet
	Model    *SetModel
	rng      *rand.Rand
}

// NewGSetMachine constructs a machine with a fresh replica per
// process and an empty model.
func NewGSetMachine(rng *rand.Rand) *GSetMachine {
	m := &GSetMachine{rng: rng, Model: NewSetModel()}
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewGSet(p)
	}
	return m
}

// AddItem adds item to one replica and to the model in lockstep.
func (m *GSetMachine) AddItem(replica int, item any) {
	m.Replicas[replica].Add(item)
	m.Model.Add(item)
}

func (m *GSetMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// Synchronize merges every other replica into replicas[receiver] and
// checks it against the model.
func (m *GSetMachine) Synchronize(receiver int) error {
	if err := SynchronizeReceiver(m.rng, m.crdtSlice(), receiver); err != nil {
		return err
	}
	got := m.Replicas[receiver].Value().(map[any]struct{})
	want := m.Model.Value()
	if !valueEqual(got, want) {
		return fmt.Errorf("cvrtest: GSet receiver %d value %v != model %v", receiver, got, want)
	}
	return nil
}

// syncBasedMachine is the shared shape of the three sync-based set
// machines below: no sequential model, `Synchronize` instead shuffles
// replicas into a line and propagates forward then backward, checking
// mutual convergence afterward.
type syncBasedMachine struct {
	rng      *rand.Rand
	crdtFunc func() []cvrdt.CRDT
}

func (s syncBasedMachine) synchronize() error {
	return SynchronizeLine(s.rng, s.crdtFunc())
}

// TwoPhaseSetMachine drives ReplicaCount TwoPhaseSet replicas with no
// sequential model: once an item is removed at any replica, the
// terminal property means convergence alone — not a model — is the
// thing worth checking.
type TwoPhaseSetMachine struct {
	syncBasedMachine
	Replicas [ReplicaCount]*cvrdt.TwoPhaseSet
}

// NewTwoPhaseSetMachine constructs a machine with a fresh replica per
// process.
func NewTwoPhaseSetMachine(rng *rand.Rand) *TwoPhaseSetMachine {
	m := &TwoPhaseSetMachine{}
	m.rng = rng
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewTwoPhaseSet(p)
	}
	m.crdtFunc = m.crdtSlice
	return m
}

func (m *TwoPhaseSetMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// AddItem adds item to one replica.
func (m *TwoPhaseSetMachine) AddItem(replica int, item any) {
	m.Replicas[replica].Add(item)
}

// RemoveItem removes item from one replica, returning whether it took
// effect.
func (m *TwoPhaseSetMachine) RemoveItem(replica int, item any) bool {
	return m.Replicas[replica].Remove(item)
}

// Synchronize shuffles replicas into a line and propagates forward
// then backward, asserting mutual convergence.
func (m *TwoPhaseSetMachine) Synchronize() error { return m.synchronize() }

// USetMachine drives ReplicaCount USet replicas with no sequential
// model.
type USetMachine struct {
	syncBasedMachine
	Replicas [ReplicaCount]*cvrdt.USet
}

// NewUSetMachine constructs a machine with a fresh replica per
// process.
func NewUSetMachine(rng *rand.Rand) *USetMachine {
	m := &USetMachine{}
	m.rng = rng
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewUSet(p)
	}
	m.crdtFunc = m.crdtSlice
	return m
}

func (m *USetMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// AddItem adds item to one replica, honoring the unique-add
// precondition: callers (both here and in property tests) must not
// add the same item twice across the cluster.
func (m *USetMachine) AddItem(replica int, item any) error {
	return m.Replicas[replica].Add(item)
}

// RemoveItem removes item from one replica.
func (m *USetMachine) RemoveItem(replica int, item any) {
	m.Replicas[replica].Remove(item)
}

// Synchronize shuffles replicas into a line and propagates forward
// then backward, asserting mutual convergence.
func (m *USetMachine) Synchronize() error { return m.synchronize() }

// ORSetMachine drives ReplicaCount ORSet replicas with no sequential
// model, including the concurrent add/remove add-wins scenario.
type ORSetMachine struct {
	syncBasedMachine
	Replicas [ReplicaCount]*cvrdt.ORSet
}

// NewORSetMachine constructs a machine with a fresh replica per
// process.
func NewORSetMachine(rng *rand.Rand) *ORSetMachine {
	m := &ORSetMachine{}
	m.rng = rng
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewORSet(p)
	}
	m.crdtFunc = m.crdtSlice
	return m
}

func (m *ORSetMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// AddItem adds value to one replica.
func (m *ORSetMachine) AddItem(replica int, value any) {
	m.Replicas[replica].Add(value)
}

// RemoveItem removes value from one replica.
func (m *ORSetMachine) RemoveItem(replica int, value any) {
	m.Replicas[replica].Remove(value)
}

// Synchronize shuffles replicas into a line and propagates forward
// then backward, asserting mutual convergence.
func (m *ORSetMachine) Synchronize() error { return m.synchronize() }

// SimulateConcurrentAddRemove adds value at replica1 and synchronizes
// so every replica observes it, then concurrently re-adds value at
// replica1 and removes it at replica2, synchronizes again, and asserts
// value survives at both (add-wins).
func (m *ORSetMachine) SimulateConcurrentAddRemove(replica1, replica2 int, value any) error {
	if replica1 == replica2 {
		return fmt.Errorf("cvrtest: SimulateConcurrentAddRemove requires distinct replicas")
	}
	m.Replicas[replica1].Add(value)
	if err := m.Synchronize(); err != nil {
		return err
	}
	m.Replicas[replica1].Add(value)
	m.Replicas[replica2].Remove(value)
	if err := m.Synchronize(); err != nil {
		return err
	}
	v1 := m.Replicas[replica1].Value().(map[any]struct{})
	v2 := m.Replicas[replica2].Value().(map[any]struct{})
	if _, ok := v1[value]; !ok {
		return fmt.Errorf("cvrtest: add-wins violated: %v not in replica %d", value, replica1)
	}
	if _, ok := v2[value]; !ok {
		return fmt.Errorf("cvrtest: add-wins violated: %v not in replica %d", value, replica2)
	}
	return nil
}

// RunGSetProperty drives a gopter property test over random command
// sequences against a GSetMachine.
func RunGSetProperty(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng = rng
	properties := gopter.NewProperties(parameters)

	properties.Property("GSet machine converges to the model", prop.ForAll(
		func(items []int, codes []int) bool {
			m := NewGSetMachine(rng)
			for i, n := range codes {
				replica := n % ReplicaCount
				if i < len(items) {
					m.AddItem(replica, items[i])
				}
				if n%7 == 0 {
					if err := m.Synchronize(replica); err != nil {
						t.Log(err)
						return false
					}
				}
			}
			for r := 0; r < ReplicaCount; r++ {
				if err := m.Synchronize(r); err != nil {
					t.Log(err)
					return false
				}
			}
			return AssertConverged(m.crdtSlice()) == nil
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.SliceOf(gen.IntRange(0, 4*ReplicaCount-1)),
	))

	properties.TestingRun(t)
}

// RunORSetAddWinsProperty drives a gopter property test specifically
// for the add-wins guarantee: a concurrent add/remove of the same
// value, followed by full synchronization, always leaves the value
// present at both replicas involved.
func RunORSetAddWinsProperty(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng = rng
	properties := gopter.NewProperties(parameters)

	properties.Property("ORSet concurrent add/remove is add-wins", prop.ForAll(
		func(value int, r1, r2 int) bool {
			r1, r2 = r1%ReplicaCount, r2%ReplicaCount
			if r1 == r2 {
				r2 = (r2 + 1) % ReplicaCount
			}
			m := NewORSetMachine(rng)
			if err := m.SimulateConcurrentAddRemove(r1, r2, value); err != nil {
				t.Log(err)
				return false
			}
			return true
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, ReplicaCount-1),
		gen.IntRange(0, ReplicaCount-1),
	))

	properties.TestingRun(t)
}

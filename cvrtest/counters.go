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

// CounterModel is the sequential reference used for both GCounter and
// PNCounter machines.
type CounterModel struct{ Value int }

// Incr increments the model's value by 1.
func (m *CounterModel) Incr() { m.Value++ }

// Decr decrements the model's value by 1.
func (m *CounterModel) Decr() { m.Value-- }

// GCounterMachine drives ReplicaCount GCounter replicas against a
// CounterModel.
type GCounterMachine struct {
	Replicas [ReplicaCount]*cvrdt.GCounter
	Model    CounterModel
	rng      *rand.Rand
}

// NewGCounterMachine constructs a machine with a fresh replica per
// process and a zeroed model.
func NewGCounterMachine(rng *rand.Rand) *GCounterMachine {
	m := &GCounterMachine{rng: rng}
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewGCounter(p)
	}
	return m
}

// Incr increments one replica and the model in lockstep.
func (m *GCounterMachine) Incr(replica int) {
	m.Replicas[replica].Incr()
	m.Model.Incr()
}

func (m *GCounterMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// Synchronize merges every other replica into replicas[receiver] and
// checks it against the model.
func (m *GCounterMachine) Synchronize(receiver int) error {
	if err := SynchronizeReceiver(m.rng, m.crdtSlice(), receiver); err != nil {
		return err
	}
	if got := m.Replicas[receiver].Value().(int); got != m.Model.Value {
		return fmt.Errorf("cvrtest: GCounter receiver %d value %d != model %d", receiver, got, m.Model.Value)
	}
	return nil
}

// RoundTrip encodes and decodes one replica's state and checks the
// value survives.
func (m *GCounterMachine) RoundTrip(replica int) error {
	return RoundTrip(m.Replicas[replica].State(), func(data []byte) (cvrdt.CRDT, error) {
		var out cvrdt.GCounter
		if err := cvrdt.DecodeState(data, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// PNCounterMachine drives ReplicaCount PNCounter replicas against a
// CounterModel, extending GCounterMachine's shape with Decr.
type PNCounterMachine struct {
	Replicas [ReplicaCount]*cvrdt.PNCounter
	Model    CounterModel
	rng      *rand.Rand
}

// NewPNCounterMachine constructs a machine with a fresh replica per
// process and a zeroed model.
func NewPNCounterMachine(rng *rand.Rand) *PNCounterMachine {
	m := &PNCounterMachine{rng: rng}
	for i, p := range Processes() {
		m.Replicas[i] = cvrdt.NewPNCounter(p)
	}
	return m
}

// Incr increments one replica and the model in lockstep.
func (m *PNCounterMachine) Incr(replica int) {
	m.Replicas[replica].Incr()
	m.Model.Incr()
}

// Decr decrements one replica and the model in lockstep.
func (m *PNCounterMachine) Decr(replica int) {
	m.Replicas[replica].Decr()
	m.Model.Decr()
}

func (m *PNCounterMachine) crdtSlice() []cvrdt.CRDT {
	out := make([]cvrdt.CRDT, len(m.Replicas))
	for i, r := range m.Replicas {
		out[i] = r
	}
	return out
}

// Synchronize merges every other replica into replicas[receiver] and
// checks it against the model.
func (m *PNCounterMachine) Synchronize(receiver int) error {
	if err := SynchronizeReceiver(m.rng, m.crdtSlice(), receiver); err != nil {
		return err
	}
	if got := m.Replicas[receiver].Value().(int); got != m.Model.Value {
		return fmt.Errorf("cvrtest: PNCounter receiver %d value %d != model %d", receiver, got, m.Model.Value)
	}
	return nil
}

// RoundTrip encodes and decodes one replica's state and checks the
// value survives.
func (m *PNCounterMachine) RoundTrip(replica int) error {
	return RoundTrip(m.Replicas[replica].State(), func(data []byte) (cvrdt.CRDT, error) {
		var out cvrdt.PNCounter
		if err := cvrdt.DecodeState(data, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// command decodes a small integer into one of: incr a replica, decr a
// replica, synchronize a receiver, or round-trip a replica. It is a
// hand-rolled
// rule dispatch fed by gopter's plain gen/prop.ForAll rather than
// gopter/commands (see DESIGN.md for why).
type command struct {
	kind    int // 0=incr, 1=decr, 2=synchronize, 3=round-trip
	replica int
}

func decodeCommand(n int) command {
	replica := (n / 4) % ReplicaCount
	return command{kind: n % 4, replica: replica}
}

// RunGCounterProperty drives a gopter property test over random
// command sequences against a GCounterMachine, asserting model
// agreement after every synchronize, a successful round-trip after
// every round-trip command, and convergence after a final full
// synchronization.
func RunGCounterProperty(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng = rng
	properties := gopter.NewProperties(parameters)

	properties.Property("GCounter machine converges to the model", prop.ForAll(
		func(codes []int) bool {
			m := NewGCounterMachine(rng)
			for _, n := range codes {
				cmd := decodeCommand(n)
				switch cmd.kind {
				case 0, 1:
					m.Incr(cmd.replica)
				case 2:
					if err := m.Synchronize(cmd.replica); err != nil {
						t.Log(err)
						return false
					}
				case 3:
					if err := m.RoundTrip(cmd.replica); err != nil {
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
		gen.SliceOf(gen.IntRange(0, 4*ReplicaCount-1)),
	))

	properties.TestingRun(t)
}

// RunPNCounterProperty is RunGCounterProperty's PNCounter analogue,
// with command kind 1 mapped to Decr instead of a second Incr.
func RunPNCounterProperty(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng = rng
	properties := gopter.NewProperties(parameters)

	properties.Property("PNCounter machine converges to the model", prop.ForAll(
		func(codes []int) bool {
			m := NewPNCounterMachine(rng)
			for _, n := range codes {
				cmd := decodeCommand(n)
				switch cmd.kind {
				case 0:
					m.Incr(cmd.replica)
				case 1:
					m.Decr(cmd.replica)
				case 2:
					if err := m.Synchronize(cmd.replica); err != nil {
						t.Log(err)
						return false
					}
				case 3:
					if err := m.RoundTrip(cmd.replica); err != nil {
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
		gen.SliceOf(gen.IntRange(0, 4*ReplicaCount-1)),
	))

	properties.TestingRun(t)
}

package cvrtest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebase/cvrdt"
)

func TestGCounterProperty(t *testing.T)      { RunGCounterProperty(t, 1) }
func TestPNCounterProperty(t *testing.T)     { RunPNCounterProperty(t, 2) }
func TestGSetProperty(t *testing.T)          { RunGSetProperty(t, 3) }
func TestORSetAddWinsProperty(t *testing.T)  { RunORSetAddWinsProperty(t, 4) }
func TestLWWRegisterProperty(t *testing.T)   { RunLWWRegisterProperty(t, 5) }

// TestGCounterMachine_ThreeWayConvergence drives three replicas each
// incr-ing twice, pairwise merges them in any order, and checks every
// replica converges to 6.
func TestGCounterMachine_ThreeWayConvergence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := NewGCounterMachine(rng)
	m.Incr(0)
	m.Incr(0)
	m.Incr(1)
	m.Incr(1)
	m.Incr(2)
	m.Incr(2)

	for r := 0; r < 3; r++ {
		require.NoError(t, m.Synchronize(r))
	}
	for r := 0; r < 3; r++ {
		require.Equal(t, 6, m.Replicas[r].Value())
	}
}

// TestORSetMachine_AddWinsAcrossFullSync has R0 add x, synchronize,
// then R1 remove x concurrently with R0 re-adding it, and
// synchronizes again: x survives everywhere.
func TestORSetMachine_AddWinsAcrossFullSync(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	m := NewORSetMachine(rng)

	m.AddItem(0, "x")
	require.NoError(t, m.Synchronize())

	m.AddItem(0, "x")
	m.RemoveItem(1, "x")
	require.NoError(t, m.Synchronize())

	for r := 0; r < ReplicaCount; r++ {
		v := m.Replicas[r].Value().(map[any]struct{})
		_, present := v["x"]
		require.True(t, present, "x missing from replica %d", r)
	}
}

// TestTwoPhaseSetMachine_Terminal exercises the terminal property:
// once an item is removed, no descendant replica's value ever
// contains it again, even after a later re-add attempt.
func TestTwoPhaseSetMachine_Terminal(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	m := NewTwoPhaseSetMachine(rng)

	m.AddItem(0, "x")
	require.True(t, m.RemoveItem(0, "x"))
	require.NoError(t, m.Synchronize())

	// Re-adding after removal must not resurrect it anywhere.
	m.AddItem(1, "x")
	require.NoError(t, m.Synchronize())

	for r := 0; r < ReplicaCount; r++ {
		v := m.Replicas[r].Value().(map[any]struct{})
		_, present := v["x"]
		require.False(t, present, "x resurfaced at replica %d", r)
	}
}

// TestUSetMachine_Convergence exercises USet's three-case merge
// across a full line synchronization.
func TestUSetMachine_Convergence(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	m := NewUSetMachine(rng)

	require.NoError(t, m.AddItem(0, "a"))
	require.NoError(t, m.AddItem(1, "b"))
	require.NoError(t, m.AddItem(2, "c"))
	m.RemoveItem(0, "a")

	require.NoError(t, m.Synchronize())

	want := map[any]struct{}{"b": {}, "c": {}}
	for r := 0; r < ReplicaCount; r++ {
		require.Equal(t, want, m.Replicas[r].Value())
	}
}

// TestLWWRegisterMachine_ConcurrentTieBreak exercises the dominance
// ladder's full path through the sync-based machine.
func TestLWWRegisterMachine_ConcurrentTieBreak(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := NewLWWRegisterMachine(rng)

	require.NoError(t, m.SetConcurrently(0, 1, "from-0", "from-1", 100.0))
}

// TestProcesses_StableNaming checks the R0..R4 naming convention the
// rest of this package's regression scenarios rely on.
func TestProcesses_StableNaming(t *testing.T) {
	procs := Processes()
	for i, p := range procs {
		require.Equal(t, i, p.Order)
	}
	require.True(t, procs[0].Less(procs[1]))

	var _ cvrdt.Process = procs[0] // sanity: Processes returns cvrdt.Process values
}

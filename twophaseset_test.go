package cvrdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwoPhaseSet_AddAndRemove(t *testing.T) {
	s := NewTwoPhaseSet(NewProcess("R0", 0))
	s.Add(1)
	s.Add(2)

	require.True(t, s.Remove(1))
	v := s.Value().(map[any]struct{})
	require.NotContains(t, v, 1)
	require.Contains(t, v, 2)
}

func TestTwoPhaseSet_RemoveOfAbsentIsNoop(t *testing.T) {
	s := NewTwoPhaseSet(NewProcess("R0", 0))
	require.False(t, s.Remove(99))
}

func TestTwoPhaseSet_RemoveTwiceReportsFalseSecondTime(t *testing.T) {
	s := NewTwoPhaseSet(NewProcess("R0", 0))
	s.Add(1)
	require.True(t, s.Remove(1))
	require.False(t, s.Remove(1))
}

// TestTwoPhaseSet_TerminalAcrossMerge checks the terminal property:
// once x is removed from s, no descendant of s ever has x in Value
// again, even if a concurrent replica re-adds it.
func TestTwoPhaseSet_TerminalAcrossMerge(t *testing.T) {
	a := NewTwoPhaseSet(NewProcess("R0", 0))
	b := NewTwoPhaseSet(NewProcess("R1", 1))

	a.Add("x")
	require.True(t, a.Remove("x"))

	b.Add("x") // concurrent re-add attempt at a different replica
	require.NoError(t, b.Merge(a))

	v := b.Value().(map[any]struct{})
	require.NotContains(t, v, "x")
}

func TestTwoPhaseSet_LessEqIsComponentwiseAnd(t *testing.T) {
	a := NewTwoPhaseSet(NewProcess("R0", 0))
	b := NewTwoPhaseSet(NewProcess("R1", 1))

	a.Add(1)
	a.Remove(1)

	b.Add(1)
	b.Add(2)
	// b has not removed anything, so b.Dead is empty while a.Dead = {1}:
	// a.Dead is NOT a subset check that should pass in this direction,
	// so a <= b must be false (a's tombstone isn't known to b).
	le, err := a.LessEq(b)
	require.NoError(t, err)
	require.False(t, le)
}

func TestTwoPhaseSet_MergeIdempotentCommutativeAssociative(t *testing.T) {
	mk := func(add, remove []any) *TwoPhaseSet {
		s := NewTwoPhaseSet(NewProcess("R0", 0))
		for _, x := range add {
			s.Add(x)
		}
		for _, x := range remove {
			s.Remove(x)
		}
		return s
	}
	x := mk([]any{1, 2}, []any{1})
	y := mk([]any{2, 3}, nil)
	z := mk([]any{4}, []any{4})

	self := x.State()
	require.NoError(t, self.Merge(x.State()))
	require.Equal(t, x.Value(), self.Value())

	xy := x.State()
	require.NoError(t, xy.Merge(y.State()))
	yx := y.State()
	require.NoError(t, yx.Merge(x.State()))
	require.Equal(t, xy.Value(), yx.Value())

	left := x.State()
	require.NoError(t, left.Merge(y.State()))
	require.NoError(t, left.Merge(z.State()))
	right := y.State()
	require.NoError(t, right.Merge(z.State()))
	merged := x.State()
	require.NoError(t, merged.Merge(right))
	require.Equal(t, left.Value(), merged.Value())
}

func TestTwoPhaseSet_Reset(t *testing.T) {
	s := NewTwoPhaseSet(NewProcess("R0", 0))
	s.Add(1)
	s.Remove(1)
	s.Reset()
	require.Empty(t, s.Value().(map[any]struct{}))
	require.Empty(t, s.Dead.Items)
}

package cvrdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLWWRegister_SetAndValue(t *testing.T) {
	r := NewLWWRegister(NewProcess("R0", 0))
	require.Nil(t, r.Value())

	require.NoError(t, r.Set("hello", 1.0))
	require.Equal(t, "hello", r.Value())

	require.NoError(t, r.Set("world", 2.0))
	require.Equal(t, "world", r.Value())
}

func TestLWWRegister_SetRejectsMutableValue(t *testing.T) {
	r := NewLWWRegister(NewProcess("R0", 0))
	err := r.Set([]int{1, 2, 3})
	require.ErrorIs(t, err, ErrMutableValue)
}

func TestLWWRegister_MergeDescendantWins(t *testing.T) {
	r0 := NewProcess("R0", 0)
	r1 := NewProcess("R1", 1)
	a := NewLWWRegister(r0)
	b := NewLWWRegister(r1)

	require.NoError(t, a.Set(1, 1.0))
	require.NoError(t, b.Set(2, 2.0))
	// b observed a's write and overwrites it: b's clock, once it
	// merges a's, strictly descends a's.
	require.NoError(t, b.Merge(a.State()))
	require.NoError(t, b.Set(3, 3.0))

	require.NoError(t, a.Merge(b.State()))
	require.Equal(t, 3, a.Value())
}

// TestLWWRegister_ConcurrentTiebreakByTimestamp covers the dominance
// ladder's third step: equal/concurrent clocks, distinct timestamps,
// higher timestamp wins regardless of process order.
func TestLWWRegister_ConcurrentTiebreakByTimestamp(t *testing.T) {
	r0 := NewProcess("R0", 0)
	r1 := NewProcess("R1", 1)
	a := NewLWWRegister(r0)
	b := NewLWWRegister(r1)

	require.NoError(t, a.Set("from-a", 5.0))
	require.NoError(t, b.Set("from-b", 9.0))
	require.True(t, a.Clock.Concurrent(b.Clock))

	require.NoError(t, a.Merge(b.State()))
	require.NoError(t, b.Merge(a.State()))
	require.Equal(t, "from-b", a.Value())
	require.Equal(t, "from-b", b.Value())
}

// TestLWWRegister_ConcurrentTiebreakByProcess covers the dominance
// ladder's fourth step: a timestamp tie falls back to the
// higher-ordered process (by (Order, Name)) winning on every replica.
func TestLWWRegister_ConcurrentTiebreakByProcess(t *testing.T) {
	low := NewProcess("R0", 0)
	high := NewProcess("R1", 1)
	a := NewLWWRegister(low)
	b := NewLWWRegister(high)

	require.NoError(t, a.Set("from-low", 5.0))
	require.NoError(t, b.Set("from-high", 5.0))

	require.NoError(t, a.Merge(b.State()))
	require.NoError(t, b.Merge(a.State()))
	require.Equal(t, "from-high", a.Value())
	require.Equal(t, "from-high", b.Value())
}

// TestLWWRegister_MergeIsIdempotentCommutativeAssociative checks the
// idempotent/commutative/associative merge laws for a representative
// trio of replicas.
func TestLWWRegister_MergeIsIdempotentCommutativeAssociative(t *testing.T) {
	mk := func(name string, order int, v any, ts float64) *LWWRegister {
		r := NewLWWRegister(NewProcess(name, order))
		require.NoError(t, r.Set(v, ts))
		return r
	}

	x := mk("R0", 0, "x", 1.0)
	y := mk("R1", 1, "y", 2.0)
	z := mk("R2", 2, "z", 1.5)

	// Idempotent.
	self := x.State()
	require.NoError(t, self.Merge(x.State()))
	require.Equal(t, x.Value(), self.Value())

	// Commutative.
	xy := x.State()
	require.NoError(t, xy.Merge(y.State()))
	yx := y.State()
	require.NoError(t, yx.Merge(x.State()))
	require.Equal(t, xy.Value(), yx.Value())

	// Associative.
	left := x.State()
	require.NoError(t, left.Merge(y.State()))
	require.NoError(t, left.Merge(z.State()))

	right := y.State()
	require.NoError(t, right.Merge(z.State()))
	merged := x.State()
	require.NoError(t, merged.Merge(right))

	require.Equal(t, left.Value(), merged.Value())
}

// TestLWWRegister_MergeAssociativeAcrossCallerTimestamps pins down a
// regression: SA observed by SB with a lower app timestamp, then SC
// concurrent with both. The winning write's own timestamp must travel
// with its atom through the merge chain regardless of merge order, or
// the three orders disagree on the final winner.
func TestLWWRegister_MergeAssociativeAcrossCallerTimestamps(t *testing.T) {
	r0 := NewProcess("R0", 0)
	r1 := NewProcess("R1", 1)
	r2 := NewProcess("R2", 2)

	mk := func(p Process, v any, ts float64) *LWWRegister {
		r := NewLWWRegister(p)
		require.NoError(t, r.Set(v, ts))
		return r
	}

	sa := mk(r0, "a", 100.0)
	sb := NewLWWRegister(r1)
	require.NoError(t, sb.Merge(sa.State()))
	require.NoError(t, sb.Set("b", 1.0))
	sc := mk(r2, "c", 50.0)

	left := sa.State()
	require.NoError(t, left.Merge(sb.State()))
	require.NoError(t, left.Merge(sc.State()))

	right := sb.State()
	require.NoError(t, right.Merge(sc.State()))
	require.NoError(t, right.Merge(sa.State()))

	require.Equal(t, left.Value(), right.Value())
	require.Equal(t, "c", left.Value())
}

func TestLWWRegister_MergeRejectsTypeMismatch(t *testing.T) {
	r := NewLWWRegister(NewProcess("R0", 0))
	_, err := r.LessEq(NewGCounter(NewProcess("R1", 1)))
	require.ErrorIs(t, err, ErrTypeMismatch)

	err = r.Merge(NewGCounter(NewProcess("R1", 1)))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestLWWRegister_Reset(t *testing.T) {
	r := NewLWWRegister(NewProcess("R0", 0))
	require.NoError(t, r.Set(42, 1.0))
	r.Reset()
	require.Nil(t, r.Value())
	require.False(t, r.Clock.Any())
}

func TestLWWRegister_RoundTrip(t *testing.T) {
	r := NewLWWRegister(NewProcess("R0", 0))
	require.NoError(t, r.Set(7, 1.0))

	data, err := EncodeState(r.State())
	require.NoError(t, err)

	var decoded LWWRegister
	require.NoError(t, DecodeState(data, &decoded))
	require.Equal(t, r.Value(), decoded.Value())
	require.True(t, r.Clock.Equal(decoded.Clock))
}

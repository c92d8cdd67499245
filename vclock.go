package cvrdt

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// processStart anchors MonotonicNow's reading. time.Since uses the
// runtime's monotonic clock reading when available, so elapsed time
// from a fixed anchor is non-decreasing for the life of the process
// regardless of wall-clock adjustments.
var processStart = time.Now()

// MonotonicNow is the monotonic clock reader VClock.Bump and
// LWWRegister.Set consult when the caller omits an explicit
// timestamp. It is a package-level variable, not a hardwired call to
// time.Now, so tests can substitute a deterministic sequence; the
// default never goes backwards within one process.
var MonotonicNow = defaultMonotonicNow

func defaultMonotonicNow() float64 {
	return time.Since(processStart).Seconds()
}

// VClock is a vector clock: a set of Dots with at most one Dot per
// process, stored sorted by process name. It is immutable in the
// algebraic sense — every operation below returns a new VClock rather
// than mutating the receiver.
type VClock struct {
	dots []Dot
}

// NewVClock builds a VClock from an explicit dot sequence. It rejects
// sequences containing two dots for the same process, and silently
// drops dots with a negative counter (there is no such thing as a
// negative event count).
func NewVClock(dots []Dot) (VClock, error) {
	seen := make(map[string]bool, len(dots))
	for _, d := range dots {
		if seen[d.Process.Name] {
			return VClock{}, fmt.Errorf("%w: duplicate process %q in vector clock", ErrInvalidInput, d.Process.Name)
		}
		seen[d.Process.Name] = true
	}
	filtered := make([]Dot, 0, len(dots))
	for _, d := range dots {
		if d.Counter >= 0 {
			filtered = append(filtered, d)
		}
	}
	sortDots(filtered)
	return VClock{dots: filtered}, nil
}

func sortDots(dots []Dot) {
	sort.Slice(dots, func(i, j int) bool { return dots[i].Process.Name < dots[j].Process.Name })
}

// nonZero returns the subset of dots with a strictly positive
// counter. A dot with counter 0 is semantically absent everywhere in
// this algebra.
func nonZero(dots []Dot) []Dot {
	out := make([]Dot, 0, len(dots))
	for _, d := range dots {
		if d.Counter > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Descends reports whether vc descends from (happens after, or
// equals) other: for every process with a positive counter in other,
// vc has a dot for that process with counter >= other's.
func (vc VClock) Descends(other VClock) bool {
	theirs := nonZero(other.dots)
	ours := nonZero(vc.dots)
	if len(theirs) == 0 {
		return true
	}
	if len(ours) == 0 {
		return false
	}
	j := 0
	for _, td := range theirs {
		for j < len(ours) && ours[j].Process.Name != td.Process.Name {
			j++
		}
		if j >= len(ours) {
			return false
		}
		if ours[j].Counter < td.Counter {
			return false
		}
		j++
	}
	return true
}

// Equal reports whether vc and other record the same events: every
// process present (with a positive counter) in either is present in
// both with the same counter.
func (vc VClock) Equal(other VClock) bool {
	theirs := nonZero(other.dots)
	ours := nonZero(vc.dots)
	j := 0
	for _, td := range theirs {
		for j < len(ours) && ours[j].Process.Name != td.Process.Name {
			j++
		}
		if j >= len(ours) {
			return false
		}
		if ours[j].Counter != td.Counter {
			return false
		}
		j++
	}
	return len(ours) == len(theirs)
}

// LessEq reports vc <= other.
func (vc VClock) LessEq(other VClock) bool {
	return other.Descends(vc)
}

// GreaterEq reports vc >= other, i.e. vc.Descends(other).
func (vc VClock) GreaterEq(other VClock) bool {
	return vc.Descends(other)
}

// Less reports vc < other: vc <= other but not the reverse.
func (vc VClock) Less(other VClock) bool {
	return !other.LessEq(vc) && vc.LessEq(other)
}

// Dominates reports vc > other: vc >= other but not the reverse.
func (vc VClock) Dominates(other VClock) bool {
	return vc.GreaterEq(other) && !other.GreaterEq(vc)
}

// Concurrent reports that neither vc nor other descends from the
// other: they represent divergent histories.
func (vc VClock) Concurrent(other VClock) bool {
	return !vc.Descends(other) && !other.Descends(vc)
}

// Any reports whether vc has at least one dot with a positive
// counter. A VClock with only zero-counter dots, or no dots at all,
// compares equal to the empty clock everywhere in this algebra.
func (vc VClock) Any() bool {
	for _, d := range vc.dots {
		if d.Counter > 0 {
			return true
		}
	}
	return false
}

// Merge returns the least common descendant of vc and others: the
// pointwise max of counters (and, independently, of timestamps) across
// every process mentioned by any operand. Merge is commutative,
// associative, and idempotent because max is.
func (vc VClock) Merge(others ...VClock) VClock {
	acc := make(map[string]Dot, len(vc.dots))
	order := make([]string, 0, len(vc.dots))
	add := func(d Dot) {
		cur, ok := acc[d.Process.Name]
		if !ok {
			acc[d.Process.Name] = d
			order = append(order, d.Process.Name)
			return
		}
		counter := cur.Counter
		if d.Counter > counter {
			counter = d.Counter
		}
		ts := cur.Timestamp
		if d.Timestamp > ts {
			ts = d.Timestamp
		}
		acc[d.Process.Name] = Dot{Process: cur.Process, Counter: counter, Timestamp: ts}
	}
	for _, d := range vc.dots {
		add(d)
	}
	for _, o := range others {
		for _, d := range o.dots {
			add(d)
		}
	}
	sort.Strings(order)
	dots := make([]Dot, 0, len(order))
	for _, name := range order {
		dots = append(dots, acc[name])
	}
	if Metrics != nil {
		Metrics.ObserveMerge("vclock")
	}
	return VClock{dots: dots}
}

// Bump returns a new VClock with process's dot incremented by one. If
// process has no dot yet, it starts at counter 1. timestamp, when
// supplied, pins the new dot's timestamp; otherwise MonotonicNow is
// consulted and the result never regresses the process's previous
// timestamp.
func (vc VClock) Bump(process Process, timestamp ...float64) VClock {
	var ts float64
	explicit := len(timestamp) > 0
	if explicit {
		ts = timestamp[0]
	} else {
		ts = MonotonicNow()
	}
	dots := make([]Dot, len(vc.dots))
	copy(dots, vc.dots)
	for i, d := range dots {
		if d.Process.Name == process.Name {
			if !explicit && d.Timestamp > ts {
				ts = d.Timestamp
			}
			dots[i] = Dot{Process: process, Counter: d.Counter + 1, Timestamp: ts}
			if Metrics != nil {
				Metrics.ObserveBump(process.Name)
			}
			return VClock{dots: dots}
		}
	}
	dots = append(dots, Dot{Process: process, Counter: 1, Timestamp: ts})
	sortDots(dots)
	if Metrics != nil {
		Metrics.ObserveBump(process.Name)
	}
	return VClock{dots: dots}
}

// Find returns the dot recorded for process, or ErrNotFound if vc has
// none.
func (vc VClock) Find(process Process) (Dot, error) {
	for _, d := range vc.dots {
		if d.Process.Name == process.Name {
			return d, nil
		}
	}
	return Dot{}, fmt.Errorf("%w: no dot for process %q", ErrNotFound, process.Name)
}

// Simplified returns vc with every zero-counter dot dropped — useful
// for display and for minimizing wire size, never required for
// correctness since zero-counter dots already compare as absent.
func (vc VClock) Simplified() VClock {
	return VClock{dots: nonZero(vc.dots)}
}

// withTimestamp returns vc with process's dot timestamp pinned to ts,
// leaving its counter untouched. Used by LWWRegister.Merge to pin the
// local dot's timestamp to the winning write's timestamp after the
// vclock join, since a plain pointwise-max merge of two vclocks that
// both happen to carry an (unrelated) dot for process would not
// otherwise guarantee that result.
func (vc VClock) withTimestamp(process Process, ts float64) VClock {
	dots := make([]Dot, len(vc.dots))
	copy(dots, vc.dots)
	for i, d := range dots {
		if d.Process.Name == process.Name {
			dots[i] = Dot{Process: d.Process, Counter: d.Counter, Timestamp: ts}
			return VClock{dots: dots}
		}
	}
	return VClock{dots: dots}
}

func (vc VClock) String() string {
	parts := make([]string, len(vc.dots))
	for i, d := range vc.dots {
		parts[i] = d.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

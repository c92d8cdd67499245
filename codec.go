package cvrdt

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

func init() {
	// Register the atom/item kinds any of the regression and property
	// tests in this module store. Applications storing their own
	// concrete types in a GSet/USet/ORSet/LWWRegister must call
	// gob.Register on them before EncodeState, same as any other gob
	// user storing interface values — this package cannot know ahead
	// of time what an application will put in an opaque item slot.
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register(orItem{})
}

// EncodeState serializes a CRDT snapshot (as returned by a type's
// State method or by CRDT.Snapshot) to bytes, preserving every dot,
// counter, timestamp, item, and tag needed to reconstruct it exactly.
// This library uses gob because every CRDT type here already composes
// cleanly under it (VClock, GSet and USet define their own
// GobEncode/GobDecode; the other types encode through their exported
// fields) and it needs no schema file.
func EncodeState(snapshot any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, fmt.Errorf("cvrdt: encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState deserializes bytes produced by EncodeState into out,
// which must be a pointer to the same concrete snapshot type that was
// encoded (e.g. *GCounter, *ORSet).
func DecodeState(data []byte, out any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return fmt.Errorf("cvrdt: decode state: %w", err)
	}
	return nil
}

// State is a generic wrapper around a CRDT snapshot, encoded and
// decoded by EncodeTypedState/DecodeTypedState: the Go analogue of the
// original's pickle-based
// get_state/from_state: one encode/decode pair usable by every
// concrete type instead of one per type.
type State[T any] struct {
	Snapshot T
}

// EncodeTypedState encodes a State[T] wrapper.
func EncodeTypedState[T any](snapshot T) ([]byte, error) {
	return EncodeState(State[T]{Snapshot: snapshot})
}

// DecodeTypedState decodes bytes produced by EncodeTypedState back
// into a T.
func DecodeTypedState[T any](data []byte) (T, error) {
	var wrapper State[T]
	if err := DecodeState(data, &wrapper); err != nil {
		var zero T
		return zero, err
	}
	return wrapper.Snapshot, nil
}

// vclockWire is VClock's gob wire shape: VClock keeps its dots slice
// unexported (to keep the algebra's immutability discipline from
// being bypassed by outside callers), so it needs its own
// GobEncode/GobDecode rather than relying on gob's default
// reflection over exported fields.
type vclockWire struct {
	Dots []Dot
}

// GobEncode implements gob.GobEncoder.
func (vc VClock) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vclockWire{Dots: vc.dots}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (vc *VClock) GobDecode(data []byte) error {
	var w vclockWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	vc.dots = w.Dots
	return nil
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package slot implements the dual-purpose cell described in spec.md §3
// ("Slot") and §9 ("Slot type confusion"): a tagged cell holding either a
// numeric payload or a reference payload, never both. It is shared by local
// variables, static-field storage, array elements, and instance-field
// storage, so it lives in its own package rather than under frames/object/
// classloader to avoid import cycles between them.
package slot

import "jacobin/heap"

// Kind distinguishes the two payload shapes a Slot can carry.
type Kind int

const (
	Numeric Kind = iota
	Reference
)

// Slot is one storage cell. On a frame's operand stack and in its locals a
// 64-bit value (long/double) occupies two adjacent Slots, high half first
// (spec.md §4.4); array elements, instance fields and statics hold a whole
// 64-bit value in one Slot's Num.
type Slot struct {
	Kind  Kind
	Num   int64 // numeric payload: ints/floats reinterpreted as bits live here
	Ref   heap.Handle
}

// NewNumeric builds a numeric slot. Float/double payloads are reinterpreted
// as IEEE-754 bits by the caller (e.g. frames/frame.go) so that a Slot is always
// exactly one int64 word wide.
func NewNumeric(v int64) Slot {
	return Slot{Kind: Numeric, Num: v}
}

// NewReference builds a reference slot. The zero Handle value is not
// automatically null; callers pass heap.NullHandle explicitly for null.
func NewReference(h heap.Handle) Slot {
	return Slot{Kind: Reference, Ref: h}
}

// Zero returns the zero-valued numeric slot, used to initialize freshly
// allocated locals/fields/array elements of numeric type (spec.md §4.3).
func Zero() Slot { return Slot{Kind: Numeric, Num: 0} }

// ZeroRef returns the zero-valued (null) reference slot.
func ZeroRef() Slot { return Slot{Kind: Reference, Ref: heap.NullHandle} }

// IsNullRef reports whether s is a reference slot holding the null handle.
func (s Slot) IsNullRef() bool {
	return s.Kind == Reference && heap.IsNull(s.Ref)
}

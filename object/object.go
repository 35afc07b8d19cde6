/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements the object model of spec.md §3/§4.3: instance
// objects (a class pointer + an ordered slot map keyed by field name) and
// arrays (a class pointer + element-type tag + dense slot sequence), plus
// the String convenience constructor the teacher's object/String.go sketches.
package object

import (
	"fmt"

	"jacobin/heap"
	"jacobin/slot"
	"jacobin/types"
)

// Instance is a heap object created by `new` (spec.md §4.6 "Object ops").
// Fields are kept in declaration order (the non-private fields of the super
// chain, root class first, followed by the class's own fields, per §4.3) so that
// field-by-name lookup and the "ordered slot map" language in spec.md are
// both honored: FieldIndex gives O(1) lookup, Fields preserves the order.
type Instance struct {
	ClassName  string
	FieldIndex map[string]int
	Fields     []slot.Slot
	FieldTypes []types.FieldType
	Hash       uint32 // identity hash slot (mirrors teacher's Mark.Hash); nothing sets it, so it stays 0

	// goContent backs java/lang/String instances with native Go string
	// storage; see string.go. Zero value for every other class.
	goContent string
}

// NewInstance builds an empty instance for className; the caller (the
// classloader-driven `new` opcode handler) appends fields via AddField in
// the class's declared order, super chain first or last as the instantiate
// logic on the class dictates (spec.md §4.3).
func NewInstance(className string) *Instance {
	return &Instance{
		ClassName:  className,
		FieldIndex: make(map[string]int),
	}
}

// AddField appends a new field initialized to the type-appropriate zero
// value (spec.md §4.3 Instance allocation).
func (o *Instance) AddField(name string, ft types.FieldType) {
	var s slot.Slot
	if ft.Category() == types.CatReference {
		s = slot.ZeroRef()
	} else {
		s = slot.Zero()
	}
	o.FieldIndex[name] = len(o.Fields)
	o.Fields = append(o.Fields, s)
	o.FieldTypes = append(o.FieldTypes, ft)
}

// GetField reads a named field's slot (spec.md §4.6 getfield/getstatic
// family: "unknown names fail").
func (o *Instance) GetField(name string) (slot.Slot, error) {
	idx, ok := o.FieldIndex[name]
	if !ok {
		return slot.Slot{}, fmt.Errorf("no such field %q on %s", name, o.ClassName)
	}
	return o.Fields[idx], nil
}

// PutField writes a named field's slot.
func (o *Instance) PutField(name string, s slot.Slot) error {
	idx, ok := o.FieldIndex[name]
	if !ok {
		return fmt.Errorf("no such field %q on %s", name, o.ClassName)
	}
	o.Fields[idx] = s
	return nil
}

// RefFields implements heap.Object: the collector recurses into every
// reference-payload field (spec.md §4.9 Traversal).
func (o *Instance) RefFields() []heap.Handle {
	var out []heap.Handle
	for _, f := range o.Fields {
		if f.Kind == slot.Reference && !heap.IsNull(f.Ref) {
			out = append(out, f.Ref)
		}
	}
	return out
}

// RewriteRefs implements heap.Object: after compaction relocates survivors,
// every reference-payload field must be translated to its new handle, or
// this instance would hold a stale pointer past Compact.
func (o *Instance) RewriteRefs(remap func(heap.Handle) heap.Handle) {
	for i, f := range o.Fields {
		if f.Kind == slot.Reference && !heap.IsNull(f.Ref) {
			o.Fields[i].Ref = remap(f.Ref)
		}
	}
}

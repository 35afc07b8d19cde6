/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"fmt"

	"jacobin/excnames"
	"jacobin/heap"
	"jacobin/slot"
	"jacobin/types"
)

// Array is a heap object created by the array-allocation opcodes (spec.md
// §3 "Array", §4.3 "Array allocation", §4.6 "Array ops"). ElemType records
// whether this is a primitive array (one of the eight kinds) or a reference
// array, which determines whether *aload/*astore treat the dense slot
// sequence as numbers or as handles.
type Array struct {
	ClassName string // e.g. "[I", "[Ljava/lang/String;"
	ElemType  types.FieldType
	Elements  []slot.Slot
}

// NewArray allocates a length-sized slot sequence, each initialized to the
// type-appropriate zero (spec.md §4.3). length < 0 returns an error naming
// NegativeArraySizeException, which newarray/anewarray raise (it is not
// among the core's unwindable kinds in §7 but is modeled the same way via
// excnames).
func NewArray(className string, elemType types.FieldType, length int) (*Array, error) {
	if length < 0 {
		return nil, fmt.Errorf("%s: negative array size %d", excnames.NegativeArraySizeException, length)
	}
	a := &Array{
		ClassName: className,
		ElemType:  elemType,
		Elements:  make([]slot.Slot, length),
	}
	zero := slot.Zero()
	if elemType.Category() == types.CatReference {
		zero = slot.ZeroRef()
	}
	for i := range a.Elements {
		a.Elements[i] = zero
	}
	return a, nil
}

// Length returns the array's element count.
func (a *Array) Length() int { return len(a.Elements) }

// Get bounds-checks and returns the slot at index (spec.md §4.6: "Stores
// bounds-check; ... fail with an index error on violation").
func (a *Array) Get(index int) (slot.Slot, error) {
	if index < 0 || index >= len(a.Elements) {
		return slot.Slot{}, fmt.Errorf("%s: index %d, length %d", excnames.ArrayIndexOutOfBoundsEx, index, len(a.Elements))
	}
	return a.Elements[index], nil
}

// Set bounds-checks and writes the slot at index.
func (a *Array) Set(index int, s slot.Slot) error {
	if index < 0 || index >= len(a.Elements) {
		return fmt.Errorf("%s: index %d, length %d", excnames.ArrayIndexOutOfBoundsEx, index, len(a.Elements))
	}
	a.Elements[index] = s
	return nil
}

// RefFields implements heap.Object. Primitive-element arrays contribute
// nothing to GC traversal (spec.md §4.9 Traversal).
func (a *Array) RefFields() []heap.Handle {
	if a.ElemType.Category() != types.CatReference {
		return nil
	}
	var out []heap.Handle
	for _, e := range a.Elements {
		if e.Kind == slot.Reference && !heap.IsNull(e.Ref) {
			out = append(out, e.Ref)
		}
	}
	return out
}

// RewriteRefs implements heap.Object: a reference array's elements must
// follow their targets' relocation the same way an instance's fields do.
// Primitive-element arrays have nothing to rewrite.
func (a *Array) RewriteRefs(remap func(heap.Handle) heap.Handle) {
	if a.ElemType.Category() != types.CatReference {
		return
	}
	for i, e := range a.Elements {
		if e.Kind == slot.Reference && !heap.IsNull(e.Ref) {
			a.Elements[i].Ref = remap(e.Ref)
		}
	}
}

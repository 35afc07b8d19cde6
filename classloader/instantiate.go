/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"math"

	"jacobin/object"
	"jacobin/slot"
	"jacobin/types"
)

const accPrivate = 0x0002

// InstantiateClass is spec.md §4.3 "Instance allocation": the class's own
// instance fields plus all non-private instance fields of its super chain
// (outermost super first, so a subclass's same-named field correctly
// shadows it in FieldIndex) become slots, each zeroed to its
// type-appropriate default.
func InstantiateClass(c *Class) *object.Instance {
	inst := object.NewInstance(c.Name)

	var chain []*Class
	for k := c; k != nil; k = k.Super {
		chain = append(chain, k)
	}
	// Walk from the root down so subclass fields are added last and thus
	// win on name collision when read back via FieldIndex.
	for i := len(chain) - 1; i >= 0; i-- {
		k := chain[i]
		for _, f := range k.Fields {
			if f.IsStatic {
				continue
			}
			if k != c && f.AccessFlags&accPrivate != 0 {
				continue // private super fields are not inherited (spec.md §4.3)
			}
			ft, _, err := types.ParseFieldDescriptor(f.Descriptor)
			if err != nil {
				continue
			}
			inst.AddField(f.Name, ft)
		}
	}
	return inst
}

// EnsureStaticsAllocated installs a class's static fields into its Statics
// map (the interpreter calls it on the class's first touch, before
// <clinit>; cells that already exist are left alone), applying any ConstantValue
// attribute as the initial value (spec.md §4.3: "static fields can have
// ConstantValue attributes, which specify their initial value").
func EnsureStaticsAllocated(c *Class) {
	for _, f := range c.Fields {
		if !f.IsStatic {
			continue
		}
		if _, ok := c.GetStatic(f.Name); ok {
			continue
		}
		s := &Static{Type: f.Descriptor, Value: zeroSlotFor(f.Descriptor)}
		if f.ConstValue != nil {
			if v, ok := slotFromConstValue(f.Descriptor, f.ConstValue); ok {
				s.Value = v
			}
		}
		c.PutStatic(f.Name, s)
	}
}

// slotFromConstValue converts a decoded ConstantValue (see link.go
// decodeConstantValue) into a numeric Slot, using the field's own
// descriptor to pick the right bit width for floating types (a "F" field's
// ConstantValue must store 32-bit IEEE-754 bits, not 64-bit, even though
// decodeConstantValue widens float32 to float64 in Go). String constants
// are left unconverted (ok=false): classloader has no heap reference to
// allocate a String object into, so the interpreter's first getstatic on
// such a field materializes it lazily the same way a bare `ldc` does.
func slotFromConstValue(desc string, v interface{}) (slot.Slot, bool) {
	switch val := v.(type) {
	case int64:
		return slot.NewNumeric(val), true
	case float64:
		if len(desc) > 0 && desc[0] == 'F' {
			return slot.NewNumeric(int64(math.Float32bits(float32(val)))), true
		}
		return slot.NewNumeric(int64(math.Float64bits(val))), true
	default:
		return slot.Slot{}, false
	}
}

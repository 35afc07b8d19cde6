/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"jacobin/excnames"
	"jacobin/types"
)

// Strings are so commonly used that it's worth a fast constructor rather
// than building one from scratch by walking the constant pool every time
// (teacher's object/String.go). The fields mirror the real java/lang/String
// layout (a "value" and a "hash" field) closely enough for println, without
// emulating the full compact-string/encoder machinery (explicitly out of
// scope per spec.md §1: "only ... String ... need any special handling").
const (
	stringFieldValue = "value"
	stringFieldHash  = "hash"
)

// NewStringFromGoString builds a java/lang/String instance whose content is
// the Go string, held natively in goContent (read back via GoString); the
// "value" and "hash" fields keep their zero values. Used by `ldc` of a string
// constant, by getstatic of a String ConstantValue, and for exception messages.
func NewStringFromGoString(s string) *Instance {
	inst := NewInstance(excnames.StringClassName)
	inst.AddField(stringFieldValue, types.FieldType{Base: types.Array, Ref: "C"})
	inst.AddField(stringFieldHash, types.FieldType{Base: types.Int})
	inst.goContent = s
	return inst
}

// GoString returns the Go-native content of a java/lang/String instance, or
// ok=false if inst isn't one (defensive: callers should already know from
// the constant pool / descriptor that they hold a String).
func GoString(inst *Instance) (string, bool) {
	if inst == nil || inst.ClassName != excnames.StringClassName {
		return "", false
	}
	return inst.goContent, true
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// Constant pool entry tag values, per the external class-file format
// (spec.md §1: the binary parser itself is out of scope, but the tag
// values it hands us are fixed by that external spec, so they're
// reproduced here verbatim).
const (
	Utf8Const               = 1
	IntConst                = 3
	FloatConst               = 4
	LongConst                = 5
	DoubleConst              = 6
	ClassRef                 = 7
	StringConst              = 8
	FieldRef                 = 9
	MethodRef                = 10
	InterfaceRef             = 11
	NameAndTypeConst         = 12
	MethodHandleConst        = 15
	MethodTypeConst          = 16
	DynamicConst             = 17
	InvokeDynamicConst       = 18
	ModuleConst              = 19
	PackageConst             = 20
)

// CpEntry is one slot in the constant-pool index: a tag plus the index into
// the tag-specific table where the entry's actual data lives (spec.md §3
// "Constant pool entry variants").
type CpEntry struct {
	Type uint16
	Slot uint16
}

// FieldRefEntry / MethodRefEntry / InterfaceRefEntry point at a class and a
// name-and-type; resolution (resolve.go) turns these into a cached *Field or
// *Method.
type FieldRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16

	resolved *ResolvedField
}

type MethodRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16

	resolved *ResolvedMethod
}

type InterfaceRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type NameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

// ConstantPool holds every per-class constant table described in spec.md
// §3. CpIndex is the indirection table every bytecode operand indexes
// through; the rest are the tag-specific backing arrays.
type ConstantPool struct {
	CpIndex       []CpEntry
	ClassRefs     []uint16 // index into Utf8Refs, the class name
	Utf8Refs      []string
	IntConsts     []int32
	LongConsts    []int64
	Floats        []float32
	Doubles       []float64
	StringRefs    []uint16 // index into Utf8Refs
	FieldRefs     []FieldRefEntry
	MethodRefs    []MethodRefEntry
	InterfaceRefs []InterfaceRefEntry
	NameAndTypes  []NameAndTypeEntry
}

// Utf8At returns the UTF-8 string stored at CP index i, or "" if i is out of
// range or not a UTF8 entry — callers that rely on a well-formed class file
// treat "" as "shouldn't happen" territory; spec.md's format-checking
// concern (out of scope, §1) is what normally rules this out.
func (cp *ConstantPool) Utf8At(i uint16) string {
	if int(i) >= len(cp.CpIndex) {
		return ""
	}
	entry := cp.CpIndex[i]
	if entry.Type != Utf8Const {
		return ""
	}
	if int(entry.Slot) >= len(cp.Utf8Refs) {
		return ""
	}
	return cp.Utf8Refs[entry.Slot]
}

// ClassNameAt resolves a ClassRef CP entry (by its CpIndex slot) to the
// class's fully-qualified name.
func (cp *ConstantPool) ClassNameAt(i uint16) string {
	if int(i) >= len(cp.CpIndex) {
		return ""
	}
	entry := cp.CpIndex[i]
	if entry.Type != ClassRef {
		return ""
	}
	if int(entry.Slot) >= len(cp.ClassRefs) {
		return ""
	}
	return cp.Utf8At(cp.ClassRefs[entry.Slot])
}

// NameAndTypeAt resolves a NameAndType CP entry to its (name, descriptor)
// pair of strings.
func (cp *ConstantPool) NameAndTypeAt(i uint16) (name, desc string) {
	if int(i) >= len(cp.CpIndex) {
		return "", ""
	}
	entry := cp.CpIndex[i]
	if entry.Type != NameAndTypeConst {
		return "", ""
	}
	if int(entry.Slot) >= len(cp.NameAndTypes) {
		return "", ""
	}
	nat := cp.NameAndTypes[entry.Slot]
	return cp.Utf8At(nat.NameIndex), cp.Utf8At(nat.DescIndex)
}

// FieldRefAt returns the (className, fieldName, descriptor) triple a
// field-ref CP entry names.
func (cp *ConstantPool) FieldRefAt(i uint16) (class, name, desc string, slotIdx uint16, ok bool) {
	entry := cp.CpIndex[i]
	if entry.Type != FieldRef || int(entry.Slot) >= len(cp.FieldRefs) {
		return "", "", "", 0, false
	}
	fr := cp.FieldRefs[entry.Slot]
	class = cp.ClassNameAt(fr.ClassIndex)
	name, desc = cp.NameAndTypeAt(fr.NameAndType)
	return class, name, desc, entry.Slot, true
}

// MethodRefAt returns the (className, methodName, descriptor) triple a
// method-ref CP entry names.
func (cp *ConstantPool) MethodRefAt(i uint16) (class, name, desc string, slotIdx uint16, ok bool) {
	entry := cp.CpIndex[i]
	if entry.Type != MethodRef || int(entry.Slot) >= len(cp.MethodRefs) {
		return "", "", "", 0, false
	}
	mr := cp.MethodRefs[entry.Slot]
	class = cp.ClassNameAt(mr.ClassIndex)
	name, desc = cp.NameAndTypeAt(mr.NameAndType)
	return class, name, desc, entry.Slot, true
}

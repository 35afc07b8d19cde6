/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"encoding/binary"
	"fmt"

	"jacobin/slot"
)

const (
	attrCode          = "Code"
	attrConstantValue = "ConstantValue"
)

// linkClass turns a structural parsedClass into a runtime *Class: it does
// NOT resolve the superclass pointer or load referenced classes (that's
// loader.go's LoadClass, which is the only place recursion into other
// classes happens, per spec.md §4.1's loading-set discipline). linkClass
// only needs the class's own constant pool, which is why it can run before
// any other class is touched (spec.md §3 Class invariant: "constant pool is
// fully materialized before any method from it executes").
func linkClass(pc *parsedClass) (*Class, error) {
	cp := pc.CP
	name := cp.ClassNameAt(pc.ThisClass)
	if name == "" {
		return nil, fmt.Errorf("class format error: unresolved this_class")
	}

	c := NewClass(name)
	c.CP = &cp
	c.AccessFlags = int(pc.AccessFlags)
	c.IsInterface = pc.AccessFlags&0x0200 != 0

	if pc.SuperClass != 0 {
		c.SuperclassName = cp.ClassNameAt(pc.SuperClass)
	}

	for _, rf := range pc.Fields {
		field := Field{
			Name:        cp.Utf8At(rf.NameIndex),
			Descriptor:  cp.Utf8At(rf.DescIndex),
			AccessFlags: int(rf.AccessFlags),
			IsStatic:    rf.AccessFlags&0x0008 != 0,
		}
		for _, attr := range rf.Attributes {
			if cp.Utf8At(attr.NameIndex) == attrConstantValue && field.IsStatic {
				field.ConstValue = decodeConstantValue(&cp, attr.Content)
			}
		}
		c.Fields = append(c.Fields, field)
	}

	hasClinit := false
	for _, rm := range pc.Methods {
		m := &Method{
			Name:        cp.Utf8At(rm.NameIndex),
			Descriptor:  cp.Utf8At(rm.DescIndex),
			AccessFlags: int(rm.AccessFlags),
			IsStatic:    rm.AccessFlags&0x0008 != 0,
			OwningClass: c,
		}
		for _, attr := range rm.Attributes {
			if cp.Utf8At(attr.NameIndex) == attrCode {
				if err := decodeCodeAttribute(&cp, attr.Content, m); err != nil {
					return nil, err
				}
			}
		}
		md, err := parseArgSlots(m.Descriptor)
		if err == nil {
			m.ArgSlots = md
		}
		c.Methods[MethodKey(m.Name, m.Descriptor)] = m
		if m.Name == "<clinit>" {
			hasClinit = true
		}
	}
	if hasClinit {
		c.ClInit = ClInitNotRun
	} else {
		c.ClInit = NoClinit
	}

	return c, nil
}

// decodeConstantValue reads the 2-byte CP-index body of a ConstantValue
// attribute and returns the Go-native constant it names.
func decodeConstantValue(cp *ConstantPool, content []byte) interface{} {
	if len(content) < 2 {
		return nil
	}
	idx := binary.BigEndian.Uint16(content)
	entry := cp.CpIndex[idx]
	switch entry.Type {
	case IntConst:
		return int64(cp.IntConsts[entry.Slot])
	case LongConst:
		return cp.LongConsts[entry.Slot]
	case FloatConst:
		return float64(cp.Floats[entry.Slot])
	case DoubleConst:
		return cp.Doubles[entry.Slot]
	case StringConst:
		return cp.Utf8At(cp.StringRefs[entry.Slot])
	default:
		return nil
	}
}

// decodeCodeAttribute parses a Code attribute body: max_stack, max_locals,
// code, exception_table, and its own sub-attributes (spec.md §3 Method).
func decodeCodeAttribute(cp *ConstantPool, content []byte, m *Method) error {
	r := &reader{b: content}
	maxStack, err := r.u2()
	if err != nil {
		return err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return err
	}
	codeLen, err := r.u4()
	if err != nil {
		return err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return err
	}
	m.MaxStack = int(maxStack)
	m.MaxLocals = int(maxLocals)
	m.Code = append([]byte(nil), code...)

	excCount, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(excCount); i++ {
		startPc, err := r.u2()
		if err != nil {
			return err
		}
		endPc, err := r.u2()
		if err != nil {
			return err
		}
		handlerPc, err := r.u2()
		if err != nil {
			return err
		}
		catchIdx, err := r.u2()
		if err != nil {
			return err
		}
		catchType := ""
		if catchIdx != 0 {
			catchType = cp.ClassNameAt(catchIdx)
		}
		m.ExceptionTable = append(m.ExceptionTable, ExceptionTableEntry{
			StartPc:   int(startPc),
			EndPc:     int(endPc),
			HandlerPc: int(handlerPc),
			CatchType: catchType,
		})
	}

	// Code attribute's own sub-attributes (LineNumberTable, etc.) are
	// skipped by length, per spec.md §6.
	attrCount, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(attrCount); i++ {
		if _, err := parseAttribute(r); err != nil {
			return err
		}
	}
	return nil
}

// parseArgSlots computes the local-slot width of a method descriptor's
// parameter list with its own small scanner rather than package types'
// descriptor parser (this is the one place the descriptor's category
// widths matter during linking).
func parseArgSlots(desc string) (int, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return 0, fmt.Errorf("bad method descriptor %q", desc)
	}
	n := 0
	i := 1
	for i < len(desc) && desc[i] != ')' {
		switch desc[i] {
		case 'J', 'D':
			n += 2
			i++
		case 'L':
			for i < len(desc) && desc[i] != ';' {
				i++
			}
			i++ // consume ';'
			n++
		case '[':
			for i < len(desc) && desc[i] == '[' {
				i++
			}
			if i < len(desc) && desc[i] == 'L' {
				for i < len(desc) && desc[i] != ';' {
					i++
				}
			}
			i++
			n++
		default:
			n++
			i++
		}
	}
	return n, nil
}

// zeroSlotFor is used by class instantiation (instantiate.go) to build a
// field's initial Slot from its raw descriptor character.
func zeroSlotFor(desc string) slot.Slot {
	if len(desc) == 0 {
		return slot.Zero()
	}
	switch desc[0] {
	case 'L', '[':
		return slot.ZeroRef()
	default:
		return slot.Zero()
	}
}

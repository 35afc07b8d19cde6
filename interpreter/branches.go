/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/thread"
)

// Branch offsets are signed and relative to the branching instruction's own
// opcode PC, not to the operand's position (spec.md §4.6 "Branches").

// ifCond builds the single-operand if<cond> family (ifeq, ifne, iflt, ifge,
// ifgt, ifle): pop one int, test it with fn, branch if true.
func ifCond(fn func(v int32) bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		v := f.PopInt32()
		branch(f, pc, fn(v))
		return nil
	}
}

// ifIcmp builds the two-operand if_icmp<cond> family.
func ifIcmp(fn func(a, b int32) bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopInt32()
		a := f.PopInt32()
		branch(f, pc, fn(a, b))
		return nil
	}
}

// ifAcmp builds if_acmpeq/if_acmpne: reference identity comparison.
func ifAcmp(eq bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopRef()
		a := f.PopRef()
		same := a == b
		branch(f, pc, same == eq)
		return nil
	}
}

// ifNullCond builds ifnull/ifnonnull.
func ifNullCond(isNull bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		ref := f.PopRef()
		branch(f, pc, heap.IsNull(ref) == isNull)
		return nil
	}
}

// branch sets f.PC to the signed 16-bit offset target (relative to the
// opcode's own PC) if taken is true, otherwise to the instruction's
// fallthrough address.
func branch(f *frames.Frame, opcodePC int, taken bool) {
	if taken {
		f.PC = opcodePC + int(s2(f.Method.Code, opcodePC))
	} else {
		f.PC = opcodePC + 3
	}
}

func opGotoHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PC = pc + int(s2(f.Method.Code, pc))
	return nil
}

func opGotoWHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PC = pc + int(s4(f.Method.Code, pc))
	return nil
}

// opTableswitchHandler implements tableswitch: a default offset plus a
// dense [low, high] table of offsets, operand block 4-byte-aligned
// (relative to the method start) after 0-3 pad bytes.
func opTableswitchHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	code := f.Method.Code
	base := alignedOperandStart(pc)

	defaultOff := int32FromBytes(code, base)
	low := int32FromBytes(code, base+4)
	high := int32FromBytes(code, base+8)

	index := f.PopInt32()
	if index < low || index > high {
		f.PC = pc + int(defaultOff)
		return nil
	}
	entryOff := base + 12 + int(index-low)*4
	f.PC = pc + int(int32FromBytes(code, entryOff))
	return nil
}

// opLookupswitchHandler implements lookupswitch: a default offset plus a
// sorted (match, offset) table, same alignment rule as tableswitch.
func opLookupswitchHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	code := f.Method.Code
	base := alignedOperandStart(pc)

	defaultOff := int32FromBytes(code, base)
	npairs := int(int32FromBytes(code, base+4))

	key := f.PopInt32()
	for i := 0; i < npairs; i++ {
		pairOff := base + 8 + i*8
		match := int32FromBytes(code, pairOff)
		if match == key {
			f.PC = pc + int(int32FromBytes(code, pairOff+4))
			return nil
		}
	}
	f.PC = pc + int(defaultOff)
	return nil
}

// alignedOperandStart returns the offset of the first operand byte of a
// table/lookupswitch: the byte immediately after the opcode, rounded up to
// the next multiple of 4 relative to the start of the method's code array.
func alignedOperandStart(opcodePC int) int {
	first := opcodePC + 1
	pad := (4 - first%4) % 4
	return first + pad
}

func int32FromBytes(code []byte, off int) int32 {
	return int32(uint32(code[off])<<24 | uint32(code[off+1])<<16 | uint32(code[off+2])<<8 | uint32(code[off+3]))
}

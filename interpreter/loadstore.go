/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"jacobin/frames"
	"jacobin/thread"
)

// loadGeneric builds the 1-byte-index local-to-stack transfer for one
// category (spec.md §4.6 "Loads & stores... a general form carrying a
// 1-byte index").
func loadGeneric(cat category) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		idx := int(u1(f.Method.Code, pc))
		doLoad(f, cat, idx)
		f.PC = pc + 2
		return nil
	}
}

// loadFixed builds one of the four specialized index-0..3 forms.
func loadFixed(cat category, idx int) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		doLoad(f, cat, idx)
		f.PC = pc + 1
		return nil
	}
}

func doLoad(f *frames.Frame, cat category, idx int) {
	switch cat {
	case catInt32:
		f.PushInt32(f.GetLocalInt32(idx))
	case catInt64:
		f.PushInt64(f.GetLocalInt64(idx))
	case catFloat32:
		f.PushFloat32(f.GetLocalFloat32(idx))
	case catFloat64:
		f.PushFloat64(f.GetLocalFloat64(idx))
	case catRef:
		f.PushRef(f.GetLocalRef(idx))
	}
}

func storeGeneric(cat category) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		idx := int(u1(f.Method.Code, pc))
		doStore(f, cat, idx)
		f.PC = pc + 2
		return nil
	}
}

func storeFixed(cat category, idx int) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		doStore(f, cat, idx)
		f.PC = pc + 1
		return nil
	}
}

func doStore(f *frames.Frame, cat category, idx int) {
	switch cat {
	case catInt32:
		f.SetLocalInt32(idx, f.PopInt32())
	case catInt64:
		f.SetLocalInt64(idx, f.PopInt64())
	case catFloat32:
		f.SetLocalFloat32(idx, f.PopFloat32())
	case catFloat64:
		f.SetLocalFloat64(idx, f.PopFloat64())
	case catRef:
		f.SetLocalRef(idx, f.PopRef())
	}
}

// opIincHandler implements iinc: local variable at the given index is
// incremented in place by a signed byte constant (spec.md §4.6 Arithmetic,
// listed alongside the wide-extendable family).
func opIincHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := int(u1(f.Method.Code, pc))
	delta := int32(s1(f.Method.Code, pc+1))
	f.SetLocalInt32(idx, f.GetLocalInt32(idx)+delta)
	f.PC = pc + 3
	return nil
}

// opWideHandler implements the wide prefix (spec.md §4.6 "Extends the
// operand index of a subsequent load/store/iinc to 2 bytes"): the next byte
// names the opcode being widened, and its index operand (and, for iinc, its
// delta) is read as 2 bytes instead of 1.
func opWideHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	code := f.Method.Code
	sub := code[pc+1]
	idx := int(u2(code, pc+1))

	switch sub {
	case opIload:
		doLoad(f, catInt32, idx)
		f.PC = pc + 4
	case opLload:
		doLoad(f, catInt64, idx)
		f.PC = pc + 4
	case opFload:
		doLoad(f, catFloat32, idx)
		f.PC = pc + 4
	case opDload:
		doLoad(f, catFloat64, idx)
		f.PC = pc + 4
	case opAload:
		doLoad(f, catRef, idx)
		f.PC = pc + 4
	case opIstore:
		doStore(f, catInt32, idx)
		f.PC = pc + 4
	case opLstore:
		doStore(f, catInt64, idx)
		f.PC = pc + 4
	case opFstore:
		doStore(f, catFloat32, idx)
		f.PC = pc + 4
	case opDstore:
		doStore(f, catFloat64, idx)
		f.PC = pc + 4
	case opAstore:
		doStore(f, catRef, idx)
		f.PC = pc + 4
	case opIinc:
		delta := int32(s2(code, pc+3))
		f.SetLocalInt32(idx, f.GetLocalInt32(idx)+delta)
		f.PC = pc + 6
	default:
		return fmt.Errorf("wide: unsupported sub-opcode 0x%X", sub)
	}
	return nil
}

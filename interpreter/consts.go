/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/thread"
)

// opNopHandler implements nop: does nothing but advance the PC.
func opNopHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PC = pc + 1
	return nil
}

func opAconstNullHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushRef(heap.NullHandle)
	f.PC = pc + 1
	return nil
}

// constInt/constLong/constFloat/constDouble build the family of hard-coded
// constant pushers (spec.md §4.6 "Constants & immediates").
func constInt(v int32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushInt32(v)
		f.PC = pc + 1
		return nil
	}
}

func constLong(v int64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushInt64(v)
		f.PC = pc + 1
		return nil
	}
}

func constFloat(v float32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushFloat32(v)
		f.PC = pc + 1
		return nil
	}
}

func constDouble(v float64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushFloat64(v)
		f.PC = pc + 1
		return nil
	}
}

func opBipushHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(s1(f.Method.Code, pc)))
	f.PC = pc + 2
	return nil
}

func opSipushHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(s2(f.Method.Code, pc)))
	f.PC = pc + 3
	return nil
}

// ldcCpEntry pushes constant-pool entry cpIndex of the owning class, per
// spec.md §4.6 "ldc/ldc_w/ldc2_w push a constant-pool entry (int, float,
// long, double, or string reference)". What is pushed is decided by the
// entry's tag alone; the wide argument is not consulted.
func ldcCpEntry(vm *VM, th *thread.Thread, f *frames.Frame, cpIndex uint16, wide bool) error {
	c := f.Method.OwningClass
	cp := c.CP
	entry := cp.CpIndex[cpIndex]
	switch entry.Type {
	case classloader.IntConst:
		f.PushInt32(cp.IntConsts[entry.Slot])
	case classloader.FloatConst:
		f.PushFloat32(cp.Floats[entry.Slot])
	case classloader.LongConst:
		f.PushInt64(cp.LongConsts[entry.Slot])
	case classloader.DoubleConst:
		f.PushFloat64(cp.Doubles[entry.Slot])
	case classloader.StringConst:
		cached := c.InternString(cpIndex, func() interface{} {
			s := cp.Utf8At(cp.StringRefs[entry.Slot])
			ref, err := vm.Heap.NewRef(object.NewStringFromGoString(s))
			if err != nil {
				return heap.NullHandle
			}
			return ref
		})
		f.PushRef(cached.(heap.Handle))
	default:
		return fmt.Errorf("ldc: CP entry %d has unsupported tag %d", cpIndex, entry.Type)
	}
	return nil
}

func opLdcHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := uint16(u1(f.Method.Code, pc))
	if err := ldcCpEntry(vm, th, f, idx, false); err != nil {
		return err
	}
	f.PC = pc + 2
	return nil
}

func opLdcWHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	if err := ldcCpEntry(vm, th, f, idx, false); err != nil {
		return err
	}
	f.PC = pc + 3
	return nil
}

func opLdc2WHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	if err := ldcCpEntry(vm, th, f, idx, true); err != nil {
		return err
	}
	f.PC = pc + 3
	return nil
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"jacobin/frames"
	"jacobin/thread"
)

// The conversion family (spec.md §4.6 "Conversions") pops one category,
// converts via Go's native numeric conversion rules (which match the JVM's:
// truncation toward zero for float/double -> integral, sign/zero extension
// for widening, narrowing keeps the low bits), and pushes the other
// category.

func opI2lHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt64(int64(f.PopInt32()))
	f.PC = pc + 1
	return nil
}

func opI2fHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat32(float32(f.PopInt32()))
	f.PC = pc + 1
	return nil
}

func opI2dHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat64(float64(f.PopInt32()))
	f.PC = pc + 1
	return nil
}

func opL2iHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(f.PopInt64()))
	f.PC = pc + 1
	return nil
}

func opL2fHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat32(float32(f.PopInt64()))
	f.PC = pc + 1
	return nil
}

func opL2dHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat64(float64(f.PopInt64()))
	f.PC = pc + 1
	return nil
}

func opF2iHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(f.PopFloat32()))
	f.PC = pc + 1
	return nil
}

func opF2lHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt64(int64(f.PopFloat32()))
	f.PC = pc + 1
	return nil
}

func opF2dHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat64(float64(f.PopFloat32()))
	f.PC = pc + 1
	return nil
}

func opD2iHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(f.PopFloat64()))
	f.PC = pc + 1
	return nil
}

func opD2lHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt64(int64(f.PopFloat64()))
	f.PC = pc + 1
	return nil
}

func opD2fHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushFloat32(float32(f.PopFloat64()))
	f.PC = pc + 1
	return nil
}

func opI2bHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(int8(f.PopInt32())))
	f.PC = pc + 1
	return nil
}

func opI2cHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(uint16(f.PopInt32())))
	f.PC = pc + 1
	return nil
}

func opI2sHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.PushInt32(int32(int16(f.PopInt32())))
	f.PC = pc + 1
	return nil
}

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

// returnValue builds one of ireturn/lreturn/freturn/dreturn/areturn: pop the
// returning frame, and if a caller remains, push the popped value's category
// onto it (spec.md §4.6 "Call & return"). markClassDone completes spec.md
// §4.7's state transition when a <clinit> frame returns.
func returnValue(cat category) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		popReturnAndTransfer(th, f, cat)
		return nil
	}
}

func popReturnAndTransfer(th *thread.Thread, f *frames.Frame, cat category) {
	switch cat {
	case catInt32:
		v := f.PopInt32()
		finishReturn(th, f)
		if caller := th.CurrentFrame(); caller != nil {
			caller.PushInt32(v)
		}
	case catInt64:
		v := f.PopInt64()
		finishReturn(th, f)
		if caller := th.CurrentFrame(); caller != nil {
			caller.PushInt64(v)
		}
	case catFloat32:
		v := f.PopFloat32()
		finishReturn(th, f)
		if caller := th.CurrentFrame(); caller != nil {
			caller.PushFloat32(v)
		}
	case catFloat64:
		v := f.PopFloat64()
		finishReturn(th, f)
		if caller := th.CurrentFrame(); caller != nil {
			caller.PushFloat64(v)
		}
	case catRef:
		v := f.PopRef()
		finishReturn(th, f)
		if caller := th.CurrentFrame(); caller != nil {
			caller.PushRef(v)
		}
	}
}

func finishReturn(th *thread.Thread, f *frames.Frame) {
	th.PopFrame()
	markClassDone(f.Method)
}

// opReturnVoidHandler implements return: no value crosses to the caller.
func opReturnVoidHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	finishReturn(th, f)
	return nil
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"jacobin/classloader"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/gfunction"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/thread"
	"jacobin/types"
)

// opInvokestaticHandler implements invokestatic: no receiver, statically
// resolved (spec.md §4.6 "Call & return").
func opInvokestaticHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rm, err := vm.Loader.ResolveMethod(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	if err := ensureInitialized(vm, th, f, pc, rm.Class); err != nil {
		return err
	}
	return invokeMethod(vm, th, f, rm.Method, true, pc)
}

// opInvokespecialHandler implements invokespecial: constructors, private
// methods, and super calls — always statically resolved, never
// virtual-redispatched (spec.md §4.6).
func opInvokespecialHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rm, err := vm.Loader.ResolveMethod(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	return invokeMethod(vm, th, f, rm.Method, false, pc)
}

// opInvokevirtualHandler implements invokevirtual: first checks the
// intrinsic table (spec.md §4.6 "Printing hack"/"Thread-start hack"), then
// falls back to real resolution with virtual redispatch on the receiver's
// concrete class.
func opInvokevirtualHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	cp := f.Method.OwningClass.CP
	className, name, desc, _, ok := cp.MethodRefAt(idx)
	if !ok {
		return fmt.Errorf("invokevirtual: CP entry %d is not a method ref", idx)
	}

	if handler, found := gfunction.Lookup(className, name, desc); found {
		if err := handler(vm.Heap, f, vm.intrinsicHooks(th)); err != nil {
			return err
		}
		f.PC = pc + 3
		return nil
	}

	rm, err := vm.Loader.ResolveMethod(cp, idx)
	if err != nil {
		return err
	}

	md, err := types.ParseMethodDescriptor(rm.Method.Descriptor)
	if err != nil {
		return err
	}
	receiverRef := f.Top(md.ArgSlotCount()).Ref
	if err := exceptions.NullCheck(vm.Heap, receiverRef); err != nil {
		return err
	}

	method := rm.Method
	if inst, ok := vm.Heap.Deref(receiverRef).(*object.Instance); ok {
		if rc, ok2 := vm.Loader.GetLoaded(inst.ClassName); ok2 {
			if rm2, err2 := vm.Loader.ResolveMethodWithSuper(rc, name, desc); err2 == nil {
				method = rm2.Method
			}
		}
	}
	return invokeMethod(vm, th, f, method, false, pc)
}

// invokeMethod transfers arguments (and, for instance calls, the receiver)
// from the caller's operand stack into a freshly built callee frame and
// pushes it (spec.md §4.3 "Created on call", §4.4 "argument-slot
// transfer"). Parameters are popped highest-index-first (the last
// parameter is on top of the stack) and written directly to their
// precomputed local-variable slot, so traversal order never has to match
// assignment order.
func invokeMethod(vm *VM, th *thread.Thread, f *frames.Frame, m *classloader.Method, isStatic bool, pc int) error {
	md, err := types.ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		return err
	}

	localsBase := 0
	if !isStatic {
		localsBase = 1
	}
	starts := make([]int, len(md.Params))
	idx := localsBase
	for i, p := range md.Params {
		starts[i] = idx
		idx += p.Category().StackWidth()
	}

	callee := frames.New(m, f.ThreadID)
	for i := len(md.Params) - 1; i >= 0; i-- {
		switch md.Params[i].Category() {
		case types.CatInt64:
			callee.SetLocalInt64(starts[i], f.PopInt64())
		case types.CatFloat64:
			callee.SetLocalFloat64(starts[i], f.PopFloat64())
		case types.CatFloat32:
			callee.SetLocalFloat32(starts[i], f.PopFloat32())
		case types.CatReference:
			callee.SetLocalRef(starts[i], f.PopRef())
		default:
			callee.SetLocalInt32(starts[i], f.PopInt32())
		}
	}
	if !isStatic {
		callee.SetLocalRef(0, f.PopRef())
	}

	th.PushFrame(callee)
	f.PC = pc + 3
	return nil
}

// intrinsicHooks binds the gfunction intrinsic table's two effects to this
// thread/VM (spec.md §4.6 Printing hack / Thread-start hack).
func (vm *VM) intrinsicHooks(th *thread.Thread) gfunction.Hooks {
	return gfunction.Hooks{
		Print:       th.Print,
		StartThread: vm.startNewThread,
	}
}

// startNewThread implements the Thread-start hack: spawns a fresh thread
// running the receiver's run()V method (found on its own class or the
// nearest superclass that declares it) concurrently with the caller.
func (vm *VM) startNewThread(receiverClassName string, receiverRef heap.Handle) {
	class, err := vm.Loader.LoadClass(receiverClassName)
	if err != nil {
		return
	}
	var run *classloader.Method
	for c := class; c != nil; c = c.Super {
		if m, ok := c.GetMethod("run", "()V"); ok {
			run = m
			break
		}
	}
	if run == nil {
		return
	}

	newTh := thread.New(receiverClassName, vm.Heap, vm.Config.PrintInRealTime)
	vm.Threads.Register(newTh)
	nf := frames.New(run, 0)
	nf.SetLocalRef(0, receiverRef)
	newTh.PushFrame(nf)
	go vm.Run(newTh)
}

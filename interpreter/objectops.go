/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"

	"jacobin/classloader"
	"jacobin/excnames"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/slot"
	"jacobin/thread"
)

// opGetstaticHandler implements getstatic: resolve the field ref, ensure the
// declaring class is initialized (spec.md §4.7: first touch of a class via
// new/getstatic/putstatic triggers <clinit>), and push the static's slot.
func opGetstaticHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rf, err := vm.Loader.ResolveField(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	if err := ensureInitialized(vm, th, f, pc, rf.Class); err != nil {
		return err
	}
	s, ok := rf.Class.GetStatic(rf.Field.Name)
	if !ok {
		return fmt.Errorf("getstatic: static %s not allocated on %s", rf.Field.Name, rf.Class.Name)
	}
	if str, isStr := rf.Field.ConstValue.(string); isStr && s.Value.IsNullRef() {
		ref, err := vm.Heap.NewRef(object.NewStringFromGoString(str))
		if err != nil {
			return err
		}
		s = &classloader.Static{Type: s.Type, Value: slot.NewReference(ref)}
		rf.Class.PutStatic(rf.Field.Name, s)
	}
	pushFieldSlot(f, rf.Field.Descriptor, s.Value)
	f.PC = pc + 3
	return nil
}

// opPutstaticHandler implements putstatic, the write-side counterpart.
func opPutstaticHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rf, err := vm.Loader.ResolveField(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	if err := ensureInitialized(vm, th, f, pc, rf.Class); err != nil {
		return err
	}
	v := popFieldSlot(f, rf.Field.Descriptor)
	rf.Class.PutStatic(rf.Field.Name, &classloader.Static{Type: rf.Field.Descriptor, Value: v})
	f.PC = pc + 3
	return nil
}

// opGetfieldHandler implements getfield: null-check the receiver, read the
// named field off the heap instance.
func opGetfieldHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rf, err := vm.Loader.ResolveField(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	ref := f.PopRef()
	if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
		return err
	}
	inst, ok := vm.Heap.Deref(ref).(*object.Instance)
	if !ok {
		return fmt.Errorf("getfield: handle %d is not an instance", ref)
	}
	s, err := inst.GetField(rf.Field.Name)
	if err != nil {
		return err
	}
	pushFieldSlot(f, rf.Field.Descriptor, s)
	f.PC = pc + 3
	return nil
}

// opPutfieldHandler implements putfield.
func opPutfieldHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	rf, err := vm.Loader.ResolveField(f.Method.OwningClass.CP, idx)
	if err != nil {
		return err
	}
	v := popFieldSlot(f, rf.Field.Descriptor)
	ref := f.PopRef()
	if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
		return err
	}
	inst, ok := vm.Heap.Deref(ref).(*object.Instance)
	if !ok {
		return fmt.Errorf("putfield: handle %d is not an instance", ref)
	}
	if err := inst.PutField(rf.Field.Name, v); err != nil {
		return err
	}
	f.PC = pc + 3
	return nil
}

// pushFieldSlot/popFieldSlot move one field/static slot across the category
// boundary based on its descriptor, mirroring the typed load/store helpers
// in loadstore.go but keyed by descriptor instead of local index.
func pushFieldSlot(f *frames.Frame, desc string, s slot.Slot) {
	cat := categoryOfDescriptor(desc)
	switch cat {
	case catInt64, catFloat64:
		f.RawPush(slot.NewNumeric(int64(uint64(s.Num)>>32)), true)
		f.RawPush(slot.NewNumeric(int64(uint64(s.Num)&0xFFFFFFFF)), true)
	default:
		f.Push(s)
	}
}

func popFieldSlot(f *frames.Frame, desc string) slot.Slot {
	cat := categoryOfDescriptor(desc)
	switch cat {
	case catInt64, catFloat64:
		low := f.RawPop()
		high := f.RawPop()
		return slot.NewNumeric(int64(uint64(high.Num)<<32 | uint64(uint32(low.Num))))
	default:
		return f.Pop()
	}
}

func categoryOfDescriptor(desc string) category {
	if desc == "" {
		return catInt32
	}
	switch desc[0] {
	case 'J':
		return catInt64
	case 'D':
		return catFloat64
	case 'F':
		return catFloat32
	case 'L', '[':
		return catRef
	default:
		return catInt32
	}
}

// opNewHandler implements new: resolve the ClassRef, ensure the class is
// initialized, allocate an instance with its fields zeroed, push the
// reference (spec.md §4.3 "Instance allocation", §4.6 "Object ops").
func opNewHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	className := f.Method.OwningClass.CP.ClassNameAt(idx)
	class, err := vm.Loader.LoadClass(className)
	if err != nil {
		return err
	}
	if err := ensureInitialized(vm, th, f, pc, class); err != nil {
		return err
	}
	inst := classloader.InstantiateClass(class)
	ref, err := vm.Heap.NewRef(inst)
	if err != nil {
		return err
	}
	f.PushRef(ref)
	f.PC = pc + 3
	return nil
}

// opCheckcastHandler implements checkcast: a null reference always passes;
// a non-null reference whose runtime class is not name or a subclass of it
// raises ClassCastException (spec.md §4.6 "Object ops"). The reference is
// left on the stack either way (checkcast does not consume its operand).
func opCheckcastHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	targetName := f.Method.OwningClass.CP.ClassNameAt(idx)
	ref := f.Top(0).Ref
	if heap.IsNull(ref) {
		f.PC = pc + 3
		return nil
	}
	if !instanceOf(vm, ref, targetName) {
		return exceptions.Raise(vm.Heap, excnames.ClassCast,
			fmt.Sprintf("cannot cast to %s", targetName))
	}
	f.PC = pc + 3
	return nil
}

// opInstanceofHandler implements instanceof: pops the reference, pushes 1
// or 0; null is never an instance of anything.
func opInstanceofHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	targetName := f.Method.OwningClass.CP.ClassNameAt(idx)
	ref := f.PopRef()
	if heap.IsNull(ref) {
		f.PushInt32(0)
		f.PC = pc + 3
		return nil
	}
	if instanceOf(vm, ref, targetName) {
		f.PushInt32(1)
	} else {
		f.PushInt32(0)
	}
	f.PC = pc + 3
	return nil
}

// instanceOf walks the runtime class of the object at ref (looked up via the
// loader's registry, since the heap object only carries its class name) to
// see whether it is targetName or a subclass of it.
func instanceOf(vm *VM, ref heap.Handle, targetName string) bool {
	inst, ok := vm.Heap.Deref(ref).(*object.Instance)
	if !ok {
		return false
	}
	class, ok := vm.Loader.GetLoaded(inst.ClassName)
	if !ok {
		return inst.ClassName == targetName
	}
	return class.IsSubclassOf(targetName)
}

// opAthrowHandler implements athrow: null-check, then hand back a *Thrown
// for Run's loop to feed into the unwinder — athrow itself never walks the
// exception table (that's Unwind's job, spec.md §4.8).
func opAthrowHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	ref := f.PopRef()
	if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
		return err
	}
	inst, ok := vm.Heap.Deref(ref).(*object.Instance)
	if !ok {
		return fmt.Errorf("athrow: handle %d is not a throwable instance", ref)
	}
	return &exceptions.Thrown{ClassName: inst.ClassName, Ref: ref}
}


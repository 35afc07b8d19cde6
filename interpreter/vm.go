/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interpreter implements spec.md §4.5 "Interpreter Loop" and §4.6
// "Instruction Semantics": the fetch-decode-execute loop, its ~180-opcode
// dispatch table, and the call/return, exception, and class-initialization
// machinery that tie frames, classloader, heap, and gfunction together.
package interpreter

import (
	"fmt"

	"jacobin/classloader"
	"jacobin/excnames"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/gc"
	"jacobin/globals"
	"jacobin/heap"
	"jacobin/thread"
	"jacobin/trace"
)

// VM is the shared, process-wide execution context: one heap, one loader,
// one thread registry, matching spec.md §3 "Thread... shares the heap and
// class statics" and §4.10.
type VM struct {
	Heap      *heap.Heap
	Loader    *classloader.Loader
	Threads   *gc.ThreadSet
	Collector *gc.Collector
	Config    *globals.Config
}

// New wires a VM together: a heap sized per config, a loader over the
// configured search path, and a collector attached to the heap's on-full
// hook (spec.md §6 Configuration, §4.9 Trigger).
func New(cfg *globals.Config) *VM {
	h := heap.New(cfg.HeapSize)
	l := classloader.NewLoader(cfg.JdkPath)
	threads := gc.NewThreadSet()
	collector := gc.New(h, l, threads)
	return &VM{Heap: h, Loader: l, Threads: threads, Collector: collector, Config: cfg}
}

// StartExec is spec.md §6's entry point: loads entryClass, locates its
// `main([Ljava/lang/String;)V`, and runs it to completion on a new "main"
// thread (no argument array is constructed; slot 0 is left null, per §6).
func (vm *VM) StartExec(entryClass string) error {
	class, err := vm.Loader.LoadClass(entryClass)
	if err != nil {
		return err
	}
	main, ok := class.GetMethod("main", "([Ljava/lang/String;)V")
	if !ok {
		return fmt.Errorf("missing class: no main([Ljava/lang/String;)V on %s", entryClass)
	}

	th := thread.New("main", vm.Heap, vm.Config.PrintInRealTime)
	vm.Threads.Register(th)
	f := frames.New(main, 0)
	th.PushFrame(f)

	return vm.Run(th)
}

// Run executes spec.md §4.5's per-thread loop to completion: terminate when
// the frame stack empties; otherwise safe-point, fetch, decode+execute one
// instruction, handling any raised exception via the unwinder before the
// next iteration.
func (vm *VM) Run(th *thread.Thread) error {
	defer th.Terminate()
	for {
		if th.Depth() == 0 {
			return nil
		}
		th.SafePoint()

		f := th.CurrentFrame()
		pc := f.PC
		if pc >= len(f.Method.Code) {
			return fmt.Errorf("PC %d past end of code in %s%s", pc, f.Method.Name, f.Method.Descriptor)
		}
		opcode := f.Method.Code[pc]

		handler := dispatch[opcode]
		if handler == nil {
			return &exceptions.Fatal{Kind: excnames.UnknownOpcode,
				Msg: fmt.Sprintf("unknown opcode 0x%X at PC %d in %s%s", opcode, pc, f.Method.Name, f.Method.Descriptor)}
		}

		err := handler(vm, th, f, pc)
		if err == nil {
			continue
		}

		if suspend, ok := err.(clinitSuspend); ok {
			_ = suspend
			continue // the <clinit> frame is already pushed; PC was rewound
		}

		thrown, ok := err.(*exceptions.Thrown)
		if !ok {
			return err // *exceptions.Fatal or a genuine Go error
		}
		if uerr := exceptions.Unwind(th, vm.Loader, thrown); uerr != nil {
			return uerr
		}
	}
}

// clinitSuspend is a sentinel error type signaling that the current
// instruction suspended itself to run a <clinit> first (spec.md §4.7); it
// carries no data, it just distinguishes this control-flow case from a real
// thrown exception or fatal error in Run's switch above.
type clinitSuspend struct{}

func (clinitSuspend) Error() string { return "clinit suspend" }

// ensureInitialized is spec.md §4.7 "Class Initialization": runs c's
// <clinit> before first use, suspending the triggering instruction
// mid-stream the first time it is encountered. opcodePC is the start of the
// instruction that triggered initialization (new / getstatic / putstatic);
// the caller's frame PC is rewound there so the *next* loop iteration
// re-executes it once the class is ready.
func ensureInitialized(vm *VM, th *thread.Thread, f *frames.Frame, opcodePC int, c *classloader.Class) error {
	if c.ClInit == classloader.NoClinit || c.ClInit == classloader.ClInitDone {
		classloader.EnsureStaticsAllocated(c)
		return nil
	}
	if c.ClInit == classloader.ClInitRunning {
		// Re-entrant touch from within the class's own <clinit> (the
		// SUPPLEMENTED tri-state guard, SPEC_FULL.md): treat as already
		// initializing and proceed without re-triggering.
		return nil
	}

	classloader.EnsureStaticsAllocated(c)
	clinit, ok := c.GetMethod("<clinit>", "()V")
	if !ok {
		c.ClInit = classloader.ClInitDone
		return nil
	}

	c.ClInit = classloader.ClInitRunning
	f.PC = opcodePC // rewind so the triggering instruction re-runs next
	trace.Trace(fmt.Sprintf("interpreter: running <clinit> for %s", c.Name))
	th.PushFrame(frames.New(clinit, f.ThreadID))
	return clinitSuspend{}
}

// markClassDone is called by the `return` handler when the returning frame
// was a <clinit> invocation, completing spec.md §4.7's transition.
func markClassDone(m *classloader.Method) {
	if m.Name == "<clinit>" && m.OwningClass != nil {
		m.OwningClass.ClInit = classloader.ClInitDone
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames names the platform exception classes the interpreter
// raises for the error kinds in spec.md §7, mirroring artipop-jacobin's
// excNames package. Keeping these as named constants (rather than inline
// string literals scattered through the interpreter) lets the unwinder and
// the gfunction intrinsics agree on exactly one spelling per exception.
package excnames

const (
	NullPointerException       = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsEx    = "java/lang/ArrayIndexOutOfBoundsException"
	ArithmeticException        = "java/lang/ArithmeticException"
	ClassCastException         = "java/lang/ClassCastException"
	ClassNotFoundException     = "java/lang/ClassNotFoundException"
	NegativeArraySizeException = "java/lang/NegativeArraySizeException"
	StackOverflowError         = "java/lang/StackOverflowError"
	OutOfMemoryError           = "java/lang/OutOfMemoryError"
	VirtualMachineError         = "java/lang/VirtualMachineError"
	RuntimeException           = "java/lang/RuntimeException"
	Throwable                  = "java/lang/Throwable"
	ObjectClassName            = "java/lang/Object"
	StringClassName            = "java/lang/String"
	ThreadClassName            = "java/lang/Thread"
	PrintStreamClassName       = "java/io/PrintStream"
)

// JavaErrorKind is the closed set of error kinds from spec.md §7.
type JavaErrorKind int

const (
	NullReference JavaErrorKind = iota
	IndexOutOfBounds
	ArithmeticDivZero
	ClassCast
	Uncaught
	HeapFull
	UnknownOpcode
	MissingClass
)

// exceptionClassFor maps the unwindable error kinds to the platform exception
// class that represents them; HeapFull/UnknownOpcode/MissingClass are fatal
// (§7) and never materialise into a thrown object, so they have no entry.
var exceptionClassFor = map[JavaErrorKind]string{
	NullReference:     NullPointerException,
	IndexOutOfBounds:   ArrayIndexOutOfBoundsEx,
	ArithmeticDivZero: ArithmeticException,
	ClassCast:         ClassCastException,
}

// ClassNameFor returns the platform exception class name for an unwindable
// error kind, and ok=false for kinds that are fatal rather than unwindable.
func ClassNameFor(kind JavaErrorKind) (string, bool) {
	name, ok := exceptionClassFor[kind]
	return name, ok
}

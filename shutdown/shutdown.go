/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package shutdown defines process exit codes and an Exit helper that maps
// them to a process exit status. The CLI driver does not use it: it exits
// with status 1 on any fatal error.
package shutdown

import "os"

// ExitStatus enumerates why the VM process is terminating.
type ExitStatus int

const (
	OK ExitStatus = iota
	JVM_EXCEPTION
	APP_EXCEPTION
	HEAP_EXHAUSTED
	UNKNOWN_OPCODE
	CLASS_NOT_FOUND
)

// osExit is a var so tests can stub it out rather than killing the test binary.
var osExit = os.Exit

// Exit terminates the process with a code derived from status. Clean exit
// (§6: "Exit 0 on clean termination") maps OK to 0; every other status is
// non-zero, matching the uncaught-exception exit contract.
func Exit(status ExitStatus) {
	if status == OK {
		osExit(0)
		return
	}
	osExit(int(status))
}

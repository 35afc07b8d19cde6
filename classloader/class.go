/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"sync"

	"jacobin/slot"
)

// ClInitState is the tri-state clinit tracker supplementing spec.md's
// boolean has_inited, grounded on original_source/runtime/jclass.py which
// distinguishes "not yet run" from "currently running" so the interpreter
// can detect a class's <clinit> trying to trigger itself (SPEC_FULL.md
// "Supplemented features").
type ClInitState int

const (
	NoClinit ClInitState = iota
	ClInitNotRun
	ClInitRunning
	ClInitDone
)

// ExceptionTableEntry is one row of a method's exception table (spec.md §3
// Method, §4.8 Exception unwinder).
type ExceptionTableEntry struct {
	StartPc   int
	EndPc     int
	HandlerPc int
	CatchType string // resolved class name; "" means catch-all (finally)
}

// Method is a fully-linked, executable method (spec.md §3 "Method").
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags int
	IsStatic    bool
	MaxStack    int
	MaxLocals   int
	Code        []byte
	ExceptionTable []ExceptionTableEntry
	ArgSlots    int // precomputed from the descriptor (§4.3/§4.4)
	OwningClass *Class
}

// Field is a class-level field declaration (spec.md §3 "Field").
type Field struct {
	Name        string
	Descriptor  string
	AccessFlags int
	IsStatic    bool
	ConstValue  interface{} // non-nil only for statics with a ConstantValue attribute
}

// Static is one class-static storage cell (spec.md §3: "a map of static
// slots keyed by field name").
type Static struct {
	Type  string
	Value slot.Slot
}

// Class is the runtime, linked representation of a loaded class (spec.md §3
// "Class"). Its invariants: Name unique within the loader's registry; CP
// fully materialized before any method executes; the super chain terminates
// at java/lang/Object; ClInit transitions NotRun -> Running -> Done exactly
// once.
type Class struct {
	Name            string
	SuperclassName  string
	Super           *Class // nil only for java/lang/Object
	AccessFlags     int
	IsInterface     bool
	IsArray         bool // synthesized array class, super preset to Object (§4.1)
	ArrayElemDesc   string

	CP *ConstantPool

	Fields      []Field       // own fields, declaration order
	Methods     map[string]*Method // keyed by name+descriptor

	staticsMu sync.RWMutex
	Statics   map[string]*Static // keyed by the field's unqualified name

	ClInit ClInitState

	// stringCache interns ldc'd string constants per class (SPEC_FULL.md
	// "String interning for ldc"), keyed by CP index.
	stringCacheMu sync.Mutex
	stringCache   map[uint16]interface{}
}

// NewClass builds an empty, unlinked Class shell; the parser/loader fill in
// the rest.
func NewClass(name string) *Class {
	return &Class{
		Name:    name,
		Methods: make(map[string]*Method),
		Statics: make(map[string]*Static),
	}
}

// MethodKey is the lookup key used in Class.Methods and in resolution: name
// concatenated with descriptor, since overloads share a name.
func MethodKey(name, desc string) string { return name + desc }

// GetMethod returns the method matching (name, desc) declared directly on
// this class (not the super chain); used by §4.2 resolve_method's "scans
// its own methods" step.
func (c *Class) GetMethod(name, desc string) (*Method, bool) {
	m, ok := c.Methods[MethodKey(name, desc)]
	return m, ok
}

// GetStatic reads a static field's storage cell by unqualified field name.
func (c *Class) GetStatic(field string) (*Static, bool) {
	c.staticsMu.RLock()
	defer c.staticsMu.RUnlock()
	s, ok := c.Statics[field]
	return s, ok
}

// PutStatic installs or overwrites a static field's storage cell.
func (c *Class) PutStatic(field string, s *Static) {
	c.staticsMu.Lock()
	c.Statics[field] = s
	c.staticsMu.Unlock()
}

// StaticsSnapshot returns every static storage cell declared on this class,
// for the garbage collector's root scan (spec.md §4.9 Roots #3). The
// returned *Static pointers are shared, not copied, since the collector
// rewrites reference slots in place after compaction.
func (c *Class) StaticsSnapshot() []*Static {
	c.staticsMu.RLock()
	defer c.staticsMu.RUnlock()
	out := make([]*Static, 0, len(c.Statics))
	for _, s := range c.Statics {
		out = append(out, s)
	}
	return out
}

// HasInited reports the boolean invariant from spec.md §3: "has_inited
// transitions monotonically false->true exactly once".
func (c *Class) HasInited() bool { return c.ClInit == ClInitDone }

// IsSubclassOf walks the super chain comparing class names (spec.md §4.6
// "instanceof/checkcast walk the super chain comparing class names").
func (c *Class) IsSubclassOf(name string) bool {
	for k := c; k != nil; k = k.Super {
		if k.Name == name {
			return true
		}
	}
	return false
}

// InternString caches whatever build returns (as an opaque interface{}; the
// interpreter's ldc handler stores a heap.Handle and type-asserts the result
// back to heap.Handle) per CP index, per class, so repeated ldc of the same
// literal yields identity equality (SPEC_FULL.md "String interning for
// ldc").
func (c *Class) InternString(cpIndex uint16, build func() interface{}) interface{} {
	c.stringCacheMu.Lock()
	defer c.stringCacheMu.Unlock()
	if c.stringCache == nil {
		c.stringCache = make(map[uint16]interface{})
	}
	if v, ok := c.stringCache[cpIndex]; ok {
		return v
	}
	v := build()
	c.stringCache[cpIndex] = v
	return v
}

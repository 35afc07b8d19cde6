/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "fmt"

// ResolvedMethod is what a method-ref's cache holds after first use
// (spec.md §3 "Each ref caches its resolved target").
type ResolvedMethod struct {
	Class  *Class
	Method *Method
}

// ResolvedField is the field-ref analogue.
type ResolvedField struct {
	Class *Class
	Field *Field
}

// ResolveMethod is spec.md §4.2 resolve_method: loads the declaring class
// if not cached, scans its own methods for (name, descriptor); on miss,
// walks the super chain. The result is cached on the ref entry itself so
// repeat resolutions through the same constant-pool slot are O(1).
func (l *Loader) ResolveMethod(cp *ConstantPool, cpIndex uint16) (*ResolvedMethod, error) {
	entry := cp.CpIndex[cpIndex]
	if entry.Type != MethodRef || int(entry.Slot) >= len(cp.MethodRefs) {
		return nil, fmt.Errorf("CP entry %d is not a method ref", cpIndex)
	}
	ref := &cp.MethodRefs[entry.Slot]
	if ref.resolved != nil {
		return ref.resolved, nil
	}

	className, name, desc, _, ok := cp.MethodRefAt(cpIndex)
	if !ok {
		return nil, fmt.Errorf("malformed method ref at CP %d", cpIndex)
	}
	class, err := l.LoadClass(className)
	if err != nil {
		return nil, err
	}
	method, owner, err := l.findMethodInChain(class, name, desc)
	if err != nil {
		return nil, err
	}
	resolved := &ResolvedMethod{Class: owner, Method: method}
	ref.resolved = resolved
	return resolved, nil
}

// ResolveMethodWithSuper forces a re-walk starting from the receiver's
// concrete class even if the static ref already cached a resolution — used
// by invokevirtual dispatch (spec.md §4.2: "virtual dispatch when the
// receiver's concrete class differs from the static ref's class").
func (l *Loader) ResolveMethodWithSuper(receiverClass *Class, name, desc string) (*ResolvedMethod, error) {
	method, owner, err := l.findMethodInChain(receiverClass, name, desc)
	if err != nil {
		return nil, err
	}
	return &ResolvedMethod{Class: owner, Method: method}, nil
}

func (l *Loader) findMethodInChain(start *Class, name, desc string) (*Method, *Class, error) {
	for c := start; c != nil; c = c.Super {
		if m, ok := c.GetMethod(name, desc); ok {
			return m, c, nil
		}
	}
	return nil, nil, fmt.Errorf("no such method %s%s found on %s or its superclasses", name, desc, start.Name)
}

// ResolveField is spec.md §4.2's field-ref analogue: scans own fields only
// (no super-chain walk), caching the result on the ref.
func (l *Loader) ResolveField(cp *ConstantPool, cpIndex uint16) (*ResolvedField, error) {
	entry := cp.CpIndex[cpIndex]
	if entry.Type != FieldRef || int(entry.Slot) >= len(cp.FieldRefs) {
		return nil, fmt.Errorf("CP entry %d is not a field ref", cpIndex)
	}
	ref := &cp.FieldRefs[entry.Slot]
	if ref.resolved != nil {
		return ref.resolved, nil
	}

	className, name, _, _, ok := cp.FieldRefAt(cpIndex)
	if !ok {
		return nil, fmt.Errorf("malformed field ref at CP %d", cpIndex)
	}
	class, err := l.LoadClass(className)
	if err != nil {
		return nil, err
	}
	for i := range class.Fields {
		if class.Fields[i].Name == name {
			resolved := &ResolvedField{Class: class, Field: &class.Fields[i]}
			ref.resolved = resolved
			return resolved, nil
		}
	}
	return nil, fmt.Errorf("no such field %s found on %s", name, className)
}

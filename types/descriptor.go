/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package types

import (
	"fmt"
	"strings"
)

// FieldType is one component of a parsed descriptor: either a primitive
// (Base != 0, Ref == "") or a reference type (Base == Class or Array, Ref
// holds the fully-qualified class name / element descriptor).
type FieldType struct {
	Base JavaType // one of Byte, Char, Double, Float, Int, Long, Short, Boolean, Class, Array
	Ref  string   // class name for Class/Array; "" for primitives
}

// Category reports the runtime storage category of this component.
func (f FieldType) Category() Category {
	return CategoryOf(f.Base)
}

// String renders the component back to its descriptor form, e.g.
// FieldType{Class, "java/lang/String"} -> "Ljava/lang/String;".
func (f FieldType) String() string {
	switch f.Base {
	case Class:
		return "L" + f.Ref + ";"
	case Array:
		return "[" + f.Ref
	default:
		return string(f.Base)
	}
}

// MethodDescriptor is a parsed "(args)ret" descriptor, e.g.
// "(IJ)Ljava/lang/String;".
type MethodDescriptor struct {
	Params []FieldType
	Return FieldType // Base == Void for a void return
}

// ParseFieldDescriptor splits a single field/array/class descriptor into
// its component type, per spec.md §4.0 ("Descriptor parser"). It returns the
// parsed component and the number of bytes consumed, so callers can use it
// to walk a method descriptor's parameter list one component at a time.
func ParseFieldDescriptor(desc string) (FieldType, int, error) {
	if len(desc) == 0 {
		return FieldType{}, 0, fmt.Errorf("empty descriptor")
	}
	switch JavaType(desc[0]) {
	case Byte, Char, Double, Float, Int, Long, Short, Boolean, Void:
		return FieldType{Base: JavaType(desc[0])}, 1, nil
	case Class:
		idx := strings.IndexByte(desc, ';')
		if idx < 0 {
			return FieldType{}, 0, fmt.Errorf("unterminated class descriptor: %s", desc)
		}
		return FieldType{Base: Class, Ref: desc[1:idx]}, idx + 1, nil
	case Array:
		elem, n, err := ParseFieldDescriptor(desc[1:])
		if err != nil {
			return FieldType{}, 0, err
		}
		return FieldType{Base: Array, Ref: elem.String()}, n + 1, nil
	default:
		return FieldType{}, 0, fmt.Errorf("invalid descriptor byte %q in %q", desc[0], desc)
	}
}

// ParseMethodDescriptor splits a method descriptor "(args)ret" into its
// parameter vector and return type, matching the Method.parsed
// argument-descriptor vector named in spec.md §3.
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return MethodDescriptor{}, fmt.Errorf("method descriptor must start with '(': %q", desc)
	}
	close := strings.IndexByte(desc, ')')
	if close < 0 {
		return MethodDescriptor{}, fmt.Errorf("method descriptor missing ')': %q", desc)
	}
	var md MethodDescriptor
	rest := desc[1:close]
	for len(rest) > 0 {
		ft, n, err := ParseFieldDescriptor(rest)
		if err != nil {
			return MethodDescriptor{}, err
		}
		md.Params = append(md.Params, ft)
		rest = rest[n:]
	}
	ret, _, err := ParseFieldDescriptor(desc[close+1:])
	if err != nil {
		return MethodDescriptor{}, err
	}
	md.Return = ret
	return md, nil
}

// ArgSlotCount returns the number of local-variable slots the parameter
// vector occupies — category-2 params (long/double) count twice, per the
// indivisible 64-bit-value rule in spec.md §3/§4.4.
func (md MethodDescriptor) ArgSlotCount() int {
	n := 0
	for _, p := range md.Params {
		n += p.Category().StackWidth()
	}
	return n
}

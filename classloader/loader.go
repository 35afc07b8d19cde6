/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader implements spec.md §4.1 (Class Loader) and §4.2
// (Constant Pool Resolution): file lookup across an ordered search path,
// class definition from raw bytes, recursive-but-cycle-safe super linking,
// and method/field reference resolution with per-reference caches.
package classloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"jacobin/trace"
)

// ObjectClassName is the root class every super chain terminates at
// (spec.md §3 Class invariant).
const ObjectClassName = "java/lang/Object"

// Loader is the class loader described in §4.1: an ordered list of
// directory roots to search, a registry of classes already loaded, and a
// "loading set" that absorbs diamonds and transient self-references during
// recursive super-loading.
type Loader struct {
	SearchPath []string

	mu       sync.RWMutex
	classes  map[string]*Class
	loading  map[string]chan struct{} // closed when the in-flight load finishes
}

// NewLoader builds a Loader over the given ordered search roots (spec.md §6
// "jdk_path").
func NewLoader(searchPath []string) *Loader {
	return &Loader{
		SearchPath: searchPath,
		classes:    make(map[string]*Class),
		loading:    make(map[string]chan struct{}),
	}
}

// registryMu/registry back the GC's static-root enumeration (spec.md §4.1
// "every loaded class is also appended to a global registry"). A process
// normally runs one Loader, but keeping the registry here (rather than a
// second global) means the collector's root scan just asks the Loader
// (via AllLoadedClasses).
func (l *Loader) registry() []*Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Class, 0, len(l.classes))
	for _, c := range l.classes {
		out = append(out, c)
	}
	return out
}

// AllLoadedClasses returns every class currently interned, for the GC's
// static-root scan (spec.md §4.9 Roots, item 3).
func (l *Loader) AllLoadedClasses() []*Class {
	return l.registry()
}

// arrayClassElemDesc extracts X from an array class name "[X".
func arrayClassElemDesc(name string) (string, bool) {
	if strings.HasPrefix(name, "[") {
		return name[1:], true
	}
	return "", false
}

// LoadClass is spec.md §4.1 load_class: returns the cached class if loaded;
// else locates "name.class" on the search path, parses it, links its super
// (recursively), and interns it. Array classes ("[X") are synthesized
// directly with super = java/lang/Object and Inited pre-set, never read
// from disk.
func (l *Loader) LoadClass(name string) (*Class, error) {
	l.mu.RLock()
	if c, ok := l.classes[name]; ok {
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	if elem, isArray := arrayClassElemDesc(name); isArray {
		return l.defineArrayClass(name, elem)
	}

	// Loading-set discipline: if another goroutine is already loading this
	// exact name, wait for it rather than re-parsing (spec.md §4.1, §5).
	l.mu.Lock()
	if c, ok := l.classes[name]; ok {
		l.mu.Unlock()
		return c, nil
	}
	if ch, inFlight := l.loading[name]; inFlight {
		l.mu.Unlock()
		<-ch
		l.mu.RLock()
		c, ok := l.classes[name]
		l.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("class loading of %s failed on another goroutine", name)
		}
		return c, nil
	}
	done := make(chan struct{})
	l.loading[name] = done
	l.mu.Unlock()

	c, err := l.defineClassFromPath(name)

	l.mu.Lock()
	delete(l.loading, name)
	if err == nil {
		l.classes[name] = c
	}
	l.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}

	if err := l.linkSuper(c); err != nil {
		return nil, err
	}

	trace.Trace("classloader: loaded " + name)
	return c, nil
}

// linkSuper loads (recursively, eagerly per §4.1 Design Notes) the
// superclass chain and wires Class.Super pointers, terminating at
// java/lang/Object.
func (l *Loader) linkSuper(c *Class) error {
	if c.Name == ObjectClassName || c.IsArray {
		return nil
	}
	if c.SuperclassName == "" {
		return fmt.Errorf("class format error: circular or missing super chain for %s", c.Name)
	}
	if c.SuperclassName == c.Name {
		return fmt.Errorf("class format error: %s is its own superclass", c.Name)
	}
	super, err := l.LoadClass(c.SuperclassName)
	if err != nil {
		return err
	}
	c.Super = super
	return nil
}

// defineArrayClass synthesizes an array class per spec.md §4.1.
func (l *Loader) defineArrayClass(name, elemDesc string) (*Class, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.classes[name]; ok {
		return c, nil
	}
	obj, err := l.objectClassLocked()
	if err != nil {
		return nil, err
	}
	c := NewClass(name)
	c.IsArray = true
	c.ArrayElemDesc = elemDesc
	c.SuperclassName = ObjectClassName
	c.Super = obj
	c.ClInit = ClInitDone // array classes need no <clinit>
	l.classes[name] = c
	return c, nil
}

// objectClassLocked returns (loading if necessary) java/lang/Object while
// l.mu is already held; only safe to call from defineArrayClass.
func (l *Loader) objectClassLocked() (*Class, error) {
	if c, ok := l.classes[ObjectClassName]; ok {
		return c, nil
	}
	l.mu.Unlock()
	c, err := l.LoadClass(ObjectClassName)
	l.mu.Lock()
	return c, err
}

// DefineClass is spec.md §4.1 define_class: the primitive that actually
// parses and constructs a class from file bytes, without touching the
// registry or loading set (used directly by tests that hand-build class
// bytes, mirroring eltociear-jacobin's test fixtures).
func (l *Loader) DefineClass(rawBytes []byte) (*Class, error) {
	pc, err := parseClassBytes(rawBytes)
	if err != nil {
		return nil, err
	}
	return linkClass(pc)
}

func (l *Loader) defineClassFromPath(name string) (*Class, error) {
	path, err := l.findClassFile(name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("missing class: %s: %w", name, err)
	}
	return l.DefineClass(raw)
}

// findClassFile rewrites dots to path separators and appends ".class"
// (spec.md §6 "Class search path"), trying every root in order.
func (l *Loader) findClassFile(name string) (string, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".class"
	for _, root := range l.SearchPath {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("missing class: %s not found on search path", name)
}

// GetLoaded returns an already-loaded class without touching disk, or
// ok=false. Used by field/method resolution caches to check "already
// loaded" before calling LoadClass.
func (l *Loader) GetLoaded(name string) (*Class, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.classes[name]
	return c, ok
}

package drivers

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	xe "github.com/opst/datapod/pkg/errors"
)

// FormatKind tells which side of Spec an alias is for.
type FormatKind int

const (
	Logical FormatKind = iota
	File
)

// Registry is a lookup table from Spec to Constructor.
//
// Populate it at startup. After that, Registry is read-only.
type Registry struct {
	m       sync.RWMutex
	ctors   map[Spec]Constructor
	logical map[string]string
	file    map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		ctors:   map[Spec]Constructor{},
		logical: map[string]string{},
		file:    map[string]string{},
	}
}

// Register a constructor for spec.
//
// It panics when spec (or its aliased form) has been registered.
func (r *Registry) Register(spec Spec, ctor Constructor) {
	r.m.Lock()
	defer r.m.Unlock()

	spec = r.canonical(spec)
	if _, ok := r.ctors[spec]; ok {
		panic(fmt.Sprintf("drivers: %s is registered twice", spec))
	}
	r.ctors[spec] = ctor
}

// Alias makes alias to be resolved as canonical.
//
// It panics when alias has been used as another alias.
func (r *Registry) Alias(kind FormatKind, alias string, canonical string) {
	r.m.Lock()
	defer r.m.Unlock()

	aliases := r.logical
	if kind == File {
		aliases = r.file
	}
	alias, canonical = normalize(alias), normalize(canonical)
	if c, ok := aliases[alias]; ok && c != canonical {
		panic(fmt.Sprintf("drivers: alias %q is already for %q", alias, c))
	}
	aliases[alias] = canonical
}

func (r *Registry) canonical(spec Spec) Spec {
	spec = spec.normalized()
	if c, ok := r.logical[spec.LogicalFormat]; ok {
		spec.LogicalFormat = c
	}
	if c, ok := r.file[spec.FileFormat]; ok {
		spec.FileFormat = c
	}
	return spec
}

// Canonical returns spec with normalized names and aliases resolved.
func (r *Registry) Canonical(spec Spec) Spec {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.canonical(spec)
}

// Resolve returns Constructor for spec.
//
// Format names are matched case-insensitively, after trimming spaces and resolving aliases.
//
// When nothing is registered, it returns error wrapping ErrDriverNotFound.
func (r *Registry) Resolve(spec Spec) (Constructor, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	ctor, ok := r.ctors[r.canonical(spec)]
	if !ok {
		return nil, xe.Itemf(
			xe.ErrDriverNotFound, "", "",
			"no driver for (logical_format=%q, file_format=%q)", spec.LogicalFormat, spec.FileFormat,
		)
	}
	return ctor, nil
}

// Specs returns registered canonical specs, sorted.
func (r *Registry) Specs() []Spec {
	r.m.RLock()
	defer r.m.RUnlock()

	specs := make([]Spec, 0, len(r.ctors))
	for s := range r.ctors {
		specs = append(specs, s)
	}
	slices.SortFunc(specs, func(a, b Spec) int {
		return cmp.Or(
			strings.Compare(a.LogicalFormat, b.LogicalFormat),
			strings.Compare(a.FileFormat, b.FileFormat),
		)
	})
	return specs
}

package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Edges returns the ids of the targets t depends on, in declaration order.
func (b *Build) Edges(t Target) []TargetID {
	var ids []TargetID
	addRef := func(r Ref) {
		switch r.Kind {
		case RefTarget, RefTargetOutput:
			ids = appendUnique(ids, r.Target)
		case RefGeneratedList:
			if gl, ok := b.GeneratedList(r.List); ok {
				ids = appendUnique(ids, gl.Dependencies()...)
			}
		case RefExtractedObjects:
			if r.Objects != nil {
				ids = appendUnique(ids, r.Objects.Target)
			}
		}
	}
	switch v := t.(type) {
	case *CustomTarget:
		ids = appendUnique(ids, v.Dependencies...)
		ids = appendUnique(ids, v.ExtraDepends...)
		for _, r := range v.Sources {
			addRef(r)
		}
	case *CustomTargetIndex:
		return b.Edges(v.Parent)
	case *RunTarget:
		ids = appendUnique(ids, v.Dependencies...)
	case *AliasTarget:
		ids = appendUnique(ids, v.Dependencies...)
	default:
		bt, ok := AsBuildTarget(t)
		if !ok {
			return nil
		}
		for _, r := range slices.Concat(bt.LinkTargets, bt.LinkWholeTargets, bt.Generated, bt.Objects) {
			addRef(r)
		}
	}
	return ids
}

// Dependencies returns the targets the generator program and the inputs
// of the list come from.
func (gl *GeneratedList) Dependencies() []TargetID {
	var ids []TargetID
	if gl.Generator != nil {
		if gl.Generator.Exe != "" {
			ids = append(ids, gl.Generator.Exe)
		}
		ids = appendUnique(ids, gl.Generator.Depends...)
	}
	return appendUnique(ids, gl.ExtraDepends...)
}

// Validate checks that every edge points to a registered target and that
// the graph has no cycle. On success Walk yields the targets with
// dependencies first.
func (b *Build) Validate() error {
	order := make([]TargetID, 0, len(b.order))
	state := make(map[TargetID]int) // 0: unvisited, 1: visiting, 2: visited
	var path []TargetID

	var visit func(id TargetID) error
	visit = func(id TargetID) error {
		state[id] = 1
		path = append(path, id)

		t, ok := b.targets[id]
		if !ok {
			return tag(ErrTargetNotFound, "target", string(id))
		}
		for _, dep := range b.Edges(t) {
			if _, ok := b.targets[dep]; !ok {
				return zerr.With(tag(ErrTargetNotFound, "target", string(dep)), "referenced_by", string(id))
			}
			switch state[dep] {
			case 1:
				return buildCycleError(path, dep)
			case 0:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[id] = 2
		path = path[:len(path)-1]
		order = append(order, id)
		return nil
	}

	for _, id := range b.order {
		if state[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	b.walkOrder = order
	return nil
}

// buildCycleError reports the cycle closed by dep.
func buildCycleError(path []TargetID, dep TargetID) error {
	start := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		parts = append(parts, string(id))
	}
	parts = append(parts, string(dep))
	return tag(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// Walk yields the targets with every dependency before its dependents.
// It assumes Validate has returned nil.
func (b *Build) Walk() iter.Seq[Target] {
	return func(yield func(Target) bool) {
		for _, id := range b.walkOrder {
			if !yield(b.targets[id]) {
				return
			}
		}
	}
}

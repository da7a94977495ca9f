package domain

import (
	"fmt"
	"slices"
	"strings"
)

// RunTarget runs a command on request. It is never built by default and
// always runs on the build machine.
type RunTarget struct {
	TargetBase

	Command      []CommandArg
	Dependencies []TargetID
	Env          *EnvironmentVariables
}

type runTargetOptions struct {
	Command []any `mapstructure:"command"`
	Depends []any `mapstructure:"depends"`
	Env     any   `mapstructure:"env"`
}

// Outputs implements Target.
func (r *RunTarget) Outputs() []string { return []string{r.Name} }

// Filename implements Target.
func (r *RunTarget) Filename() string { return r.Name }

// IsLinkable implements Target.
func (r *RunTarget) IsLinkable() bool { return false }

// AddRunTarget declares a run target. The command may be given either as
// an argument or through the command keyword.
func (b *Build) AddRunTarget(name, subdir, subproject string, kw Kwargs) (*RunTarget, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	base, err := newTargetBase(KindRun, name, subdir, subproject, MachineBuild, false)
	if err != nil {
		return nil, err
	}
	rt := &RunTarget{TargetBase: base}
	if kw == nil {
		kw = Kwargs{}
	}
	known := knownKwargs(KindRun)
	var opts runTargetOptions
	if err := decodeKwargs(name, kw.only(known), &opts); err != nil {
		return nil, err
	}
	if unknown := kw.unknown(known); len(unknown) > 0 {
		b.warnf("Unknown keyword argument(s) in target %s: %s.", name, strings.Join(unknown, ", "))
	}
	cmd := flatten(opts.Command)
	if len(cmd) == 0 {
		return nil, invalidArgs(name, `missing keyword argument "command"`)
	}
	if _, ok := cmd[0].(string); ok {
		return nil, invalidArgs(name, "first argument of a run target command must be a program, an executable or a custom target, not a string")
	}
	fc, err := b.flattenCommand(name, cmd)
	if err != nil {
		return nil, err
	}
	rt.Command = fc.args
	deps, err := b.runDepends(name, opts.Depends)
	if err != nil {
		return nil, err
	}
	rt.Dependencies = appendUnique(fc.deps, deps...)
	if opts.Env != nil {
		if rt.Env, err = EnvironmentFromValue(opts.Env); err != nil {
			return nil, err
		}
	}
	if err := b.register(rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// AliasTarget is a named group of other targets.
type AliasTarget struct {
	RunTarget
}

// AddAliasTarget declares an alias for one or more targets.
func (b *Build) AddAliasTarget(name, subdir, subproject string, deps ...any) (*AliasTarget, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	if len(deps) == 0 {
		return nil, invalidArgs(name, "alias_target needs at least one dependency")
	}
	base, err := newTargetBase(KindAlias, name, subdir, subproject, MachineBuild, false)
	if err != nil {
		return nil, err
	}
	ids, err := b.runDepends(name, deps)
	if err != nil {
		return nil, err
	}
	at := &AliasTarget{RunTarget: RunTarget{TargetBase: base, Dependencies: ids}}
	if err := b.register(at); err != nil {
		return nil, err
	}
	return at, nil
}

// runDepends checks that every dependency is a build or custom target.
func (b *Build) runDepends(name string, deps []any) ([]TargetID, error) {
	var ids []TargetID
	for _, d := range flatten(deps) {
		t, ok := d.(Target)
		if !ok {
			return nil, invalidArgs(name, fmt.Sprintf("depends must only contain targets, got %T", d))
		}
		if k := t.Kind(); !k.IsBuildTarget() && k != KindCustom {
			return nil, invalidArgs(name, fmt.Sprintf("cannot depend on %s target %s", k, t.ID()))
		}
		if err := b.owns(t); err != nil {
			return nil, err
		}
		ids = appendUnique(ids, t.ID())
	}
	return ids, nil
}

func appendUnique[T comparable](dst []T, items ...T) []T {
	for _, item := range items {
		if !slices.Contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}

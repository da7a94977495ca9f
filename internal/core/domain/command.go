package domain

import (
	"fmt"
	"path"
)

// ArgKind tags the variant held by a CommandArg.
type ArgKind uint8

const (
	// ArgLiteral is a plain string.
	ArgLiteral ArgKind = iota + 1
	// ArgFile is a source or built file.
	ArgFile
	// ArgTarget is the output of a target.
	ArgTarget
	// ArgTargetOutput is a single output of a custom target.
	ArgTargetOutput
)

// CommandArg is one element of a custom or run command.
type CommandArg struct {
	Kind   ArgKind
	Value  string   `msgpack:",omitempty"`
	File   File     `msgpack:",omitempty"`
	Target TargetID `msgpack:",omitempty"`
}

// flattenedCommand is the result of flattening a command.
type flattenedCommand struct {
	args        []CommandArg
	deps        []TargetID
	dependFiles []File
}

// flattenCommand expands programs and nested lists of a command.
// Targets become dependencies and files with a known path are tracked so a
// change to them reruns the command.
func (b *Build) flattenCommand(target string, cmd []any) (flattenedCommand, error) {
	var fc flattenedCommand
	if err := b.flattenInto(target, cmd, &fc); err != nil {
		return flattenedCommand{}, err
	}
	return fc, nil
}

func (b *Build) flattenInto(target string, cmd []any, fc *flattenedCommand) error {
	for _, c := range cmd {
		switch v := c.(type) {
		case string:
			fc.args = append(fc.args, CommandArg{Kind: ArgLiteral, Value: v})
		case File:
			fc.dependFiles = append(fc.dependFiles, v)
			fc.args = append(fc.args, CommandArg{Kind: ArgFile, File: v})
		case *ExternalProgram:
			if !v.Found() {
				return invalidArgs(target, fmt.Sprintf("tried to use not-found external program %q in command", v.Name))
			}
			if v.IsAbsolute() {
				fc.dependFiles = append(fc.dependFiles, AbsoluteFile(v.Path()))
			}
			for _, part := range v.Command {
				fc.args = append(fc.args, CommandArg{Kind: ArgLiteral, Value: part})
			}
		case *CustomTargetIndex:
			if err := b.owns(v); err != nil {
				return err
			}
			fc.deps = append(fc.deps, v.ID())
			fc.args = append(fc.args, CommandArg{Kind: ArgTargetOutput, Target: v.ID(), Value: v.Output})
		case Target:
			if !v.Kind().IsBuildTarget() && v.Kind() != KindCustom {
				return invalidArgs(target, fmt.Sprintf("argument %s in command is invalid", v.ID()))
			}
			if err := b.owns(v); err != nil {
				return err
			}
			fc.deps = append(fc.deps, v.ID())
			fc.args = append(fc.args, CommandArg{Kind: ArgTarget, Target: v.ID()})
		case []any:
			if err := b.flattenInto(target, v, fc); err != nil {
				return err
			}
		case []string:
			for _, s := range v {
				fc.args = append(fc.args, CommandArg{Kind: ArgLiteral, Value: s})
			}
		default:
			return invalidArgs(target, fmt.Sprintf("argument %v in command is invalid", c))
		}
	}
	return nil
}

// CommandStrings renders a command with targets replaced by their output
// paths relative to the build root.
func (b *Build) CommandStrings(args []CommandArg) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a.Kind {
		case ArgFile:
			out = append(out, a.File.String())
		case ArgTarget:
			if t, ok := b.Lookup(a.Target); ok {
				out = append(out, path.Join(t.Base().Subdir, t.Filename()))
				continue
			}
			out = append(out, string(a.Target))
		case ArgTargetOutput:
			if t, ok := b.Lookup(a.Target); ok {
				out = append(out, path.Join(t.Base().Subdir, a.Value))
				continue
			}
			out = append(out, a.Value)
		default:
			out = append(out, a.Value)
		}
	}
	return out
}

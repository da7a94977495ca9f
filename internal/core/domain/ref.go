package domain

import "fmt"

// RefKind tags the variant held by a Ref.
type RefKind uint8

const (
	// RefFile refers to a plain file.
	RefFile RefKind = iota + 1
	// RefTarget refers to a registered target.
	RefTarget
	// RefTargetOutput refers to a single output of a custom target.
	RefTargetOutput
	// RefGeneratedList refers to the outputs of a generator invocation.
	RefGeneratedList
	// RefExtractedObjects refers to objects taken from another target.
	RefExtractedObjects
)

func (k RefKind) String() string {
	switch k {
	case RefFile:
		return "file"
	case RefTarget:
		return "target"
	case RefTargetOutput:
		return "target output"
	case RefGeneratedList:
		return "generated list"
	case RefExtractedObjects:
		return "extracted objects"
	}
	return "unknown"
}

// GeneratedListID indexes the generated lists owned by a Build.
type GeneratedListID int

// Ref is a graph edge. Targets and generated lists are referenced by id and
// resolved through the owning Build.
type Ref struct {
	Kind    RefKind
	File    File              `msgpack:",omitempty"`
	Target  TargetID          `msgpack:",omitempty"`
	Output  string            `msgpack:",omitempty"`
	List    GeneratedListID   `msgpack:",omitempty"`
	Objects *ExtractedObjects `msgpack:",omitempty"`
}

// FileRef refers to f.
func FileRef(f File) Ref { return Ref{Kind: RefFile, File: f} }

// TargetRef refers to a target.
func TargetRef(id TargetID) Ref { return Ref{Kind: RefTarget, Target: id} }

// ListRef refers to a generated list.
func ListRef(id GeneratedListID) Ref { return Ref{Kind: RefGeneratedList, List: id} }

// ObjectsRef refers to extracted objects.
func ObjectsRef(o *ExtractedObjects) Ref { return Ref{Kind: RefExtractedObjects, Objects: o} }

func refTo(t Target) Ref {
	if idx, ok := t.(*CustomTargetIndex); ok {
		return Ref{Kind: RefTargetOutput, Target: idx.ID(), Output: idx.Output}
	}
	return TargetRef(t.ID())
}

func (r Ref) String() string {
	switch r.Kind {
	case RefFile:
		return r.File.String()
	case RefTarget:
		return string(r.Target)
	case RefTargetOutput:
		return fmt.Sprintf("%s[%s]", r.Target, r.Output)
	case RefGeneratedList:
		return fmt.Sprintf("generated#%d", r.List)
	case RefExtractedObjects:
		if r.Objects != nil {
			return fmt.Sprintf("objects(%s)", r.Objects.Target)
		}
	}
	return r.Kind.String()
}

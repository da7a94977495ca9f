package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Jar is a Java archive.
type Jar struct {
	BuildTarget

	JavaArgs []string
}

// IsLinkable implements Target.
func (j *Jar) IsLinkable() bool { return true }

// AddJar declares a Java archive.
func (b *Build) AddJar(name, subdir, subproject string, machine MachineChoice,
	sources, objects []any, kw Kwargs,
) (*Jar, error) {
	jar := &Jar{}
	_, err := b.initBuildTarget(&jar.BuildTarget, KindJar, name, subdir, subproject, machine,
		sources, objects, kw, nil)
	if err != nil {
		return nil, err
	}
	for _, s := range jar.Sources {
		if !s.EndsWith(".java") {
			return nil, invalidArgs(name, fmt.Sprintf("jar source %s is not a java file", s))
		}
	}
	for _, ref := range jar.LinkTargets {
		if t, ok := b.Resolve(ref); !ok || t.Kind() != KindJar {
			return nil, invalidArgs(name, fmt.Sprintf("link target %s is not a jar target", ref))
		}
	}
	jar.OutputFilename = jar.Name + ".jar"
	jar.OutputNames = []string{jar.OutputFilename}
	jar.JavaArgs = slices.Clone(jar.ExtraArgs[LangJava])
	if err := b.register(jar); err != nil {
		return nil, err
	}
	return jar, nil
}

// ClasspathArgs returns the -cp arguments naming the jars j links with.
func (b *Build) ClasspathArgs(j *Jar) []string {
	var paths []string
	for _, ref := range j.LinkTargets {
		if t, ok := b.Resolve(ref); ok {
			paths = append(paths, filepath.Join(t.Base().Subdir, t.Filename()))
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return []string{"-cp", strings.Join(paths, string(os.PathListSeparator))}
}

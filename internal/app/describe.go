package app

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/ui/output"
	"go.trai.ch/weld/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DescribeOptions configuration for the Describe method.
type DescribeOptions struct {
	BuildDir string
	// Targets selects targets by id, name or path. Empty selects all.
	Targets []string
	JSON    bool
	// Color is "auto", "always" or "never".
	Color string
}

// TargetDescription is what a backend needs to know about one target.
type TargetDescription struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Kind           string            `json:"kind"`
	Subdir         string            `json:"subdir,omitempty"`
	Subproject     string            `json:"subproject,omitempty"`
	Machine        string            `json:"machine"`
	BuildByDefault bool              `json:"build_by_default"`
	Filename       string            `json:"filename,omitempty"`
	Outputs        []string          `json:"outputs"`
	Aliases        map[string]string `json:"aliases,omitempty"`
	Linker         string            `json:"linker,omitempty"`
	StdlibFlags    []string          `json:"stdlib_link_flags,omitempty"`
	LinkDeps       []string          `json:"link_deps,omitempty"`
	Depends        []string          `json:"depends,omitempty"`
	InstallDirs    []string          `json:"install_dirs,omitempty"`
}

// Describe renders the targets of the build configured in opts.BuildDir.
func (a *App) Describe(ctx context.Context, w io.Writer, opts DescribeOptions) error {
	_, buildDir, err := resolveDirs("", opts.BuildDir)
	if err != nil {
		return err
	}
	b, err := a.store.Load(buildDir)
	if err != nil {
		return zerr.Wrap(err, "run 'weld configure' first")
	}

	targets, err := selectTargets(b, opts.Targets)
	if err != nil {
		return err
	}

	descs, err := a.describeAll(ctx, b, targets)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(descs); err != nil {
			return zerr.Wrap(err, "failed to encode targets")
		}
		return nil
	}
	return writeText(output.NewWithProfile(w, a.colorProfile(opts.Color)), descs)
}

// describeAll describes targets concurrently. The frozen build is safe
// for concurrent readers.
func (a *App) describeAll(ctx context.Context, b *domain.Build, targets []domain.Target) ([]*TargetDescription, error) {
	descs := make([]*TargetDescription, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := DescribeTarget(b, t)
			if err != nil {
				return err
			}
			descs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}

func selectTargets(b *domain.Build, names []string) ([]domain.Target, error) {
	var all []domain.Target
	for t := range b.Walk() {
		all = append(all, t)
	}
	if len(names) == 0 {
		return all, nil
	}

	var selected []domain.Target
	for _, name := range names {
		found := false
		for _, t := range all {
			base := t.Base()
			if string(t.ID()) != name && base.Name != name && base.Path() != name {
				continue
			}
			found = true
			if !slices.Contains(selected, t) {
				selected = append(selected, t)
			}
		}
		if !found {
			return nil, zerr.With(zerr.Wrap(domain.ErrTargetNotFound, ""), "target", name)
		}
	}
	return selected, nil
}

// DescribeTarget collects the backend view of t.
func DescribeTarget(b *domain.Build, t domain.Target) (*TargetDescription, error) {
	base := t.Base()
	d := &TargetDescription{
		ID:             string(t.ID()),
		Name:           base.Name,
		Kind:           t.Kind().TypeName(),
		Subdir:         base.Subdir,
		Subproject:     base.Subproject,
		Machine:        base.ForMachine.String(),
		BuildByDefault: base.BuildByDefault,
		Filename:       t.Filename(),
		Outputs:        t.Outputs(),
		Aliases:        t.Aliases(),
	}
	if d.Outputs == nil {
		d.Outputs = []string{}
	}
	for _, dep := range b.TransitiveLinkDeps(t) {
		d.LinkDeps = append(d.LinkDeps, string(dep.ID()))
	}
	for _, id := range b.Edges(t) {
		d.Depends = append(d.Depends, string(id))
	}
	dirs, _ := b.InstallDirs(t)
	for _, dir := range dirs {
		if dir.Disabled {
			d.InstallDirs = append(d.InstallDirs, "-")
			continue
		}
		d.InstallDirs = append(d.InstallDirs, dir.Path)
	}

	bt, ok := domain.AsBuildTarget(t)
	if !ok {
		return d, nil
	}
	linker, stdlib, err := linkDriver(b, bt)
	if err != nil {
		return nil, err
	}
	d.Linker, d.StdlibFlags = linker, stdlib
	return d, nil
}

// linkDriver names the tool that produces the final artifact of bt.
func linkDriver(b *domain.Build, bt *domain.BuildTarget) (string, []string, error) {
	switch bt.Type {
	case domain.KindStaticLibrary:
		if l := b.StaticLinker(bt.ForMachine); l != nil {
			return l.ID(), nil, nil
		}
		return "", nil, nil
	case domain.KindJar:
		if c, ok := b.Environment().CompilersFor(bt.ForMachine).Get(domain.LangJava); ok {
			return c.ID(), nil, nil
		}
		return "", nil, nil
	}
	c, stdlib, err := b.DynamicLinker(bt)
	if err == nil {
		return c.LinkerID(), stdlib, nil
	}
	// Languages such as rust or swift link with their own compiler.
	for _, lang := range bt.Compilers {
		if c, ok := b.Environment().CompilersFor(bt.ForMachine).Get(lang); ok {
			return c.LinkerID(), nil, nil
		}
	}
	return "", nil, err
}

func writeText(out *termenv.Output, descs []*TargetDescription) error {
	st := style.NewReport(out)
	var sb strings.Builder
	for i, d := range descs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(st.Heading.Render(d.ID))
		sb.WriteString("\n")
		field := func(label string, values ...string) {
			if len(values) == 0 || (len(values) == 1 && values[0] == "") {
				return
			}
			sb.WriteString("  " + st.Label.Render(fmt.Sprintf("%-9s", label+":")))
			sb.WriteString(" " + strings.Join(values, " ") + "\n")
		}
		field("kind", d.Kind)
		field("machine", d.Machine)
		if !d.BuildByDefault {
			field("default", st.Off.Render("no"))
		}
		field("outputs", d.Outputs...)
		for _, name := range slices.Sorted(maps.Keys(d.Aliases)) {
			field("alias", name+" "+style.Arrow+" "+d.Aliases[name])
		}
		field("linker", d.Linker)
		field("stdlib", d.StdlibFlags...)
		field("links", d.LinkDeps...)
		field("depends", d.Depends...)
		field("install", d.InstallDirs...)
	}
	_, err := out.WriteString(sb.String())
	return err
}

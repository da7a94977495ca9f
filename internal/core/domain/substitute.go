package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var (
	inputIndexRe  = regexp.MustCompile(`@INPUT([0-9]+)?@`)
	outputIndexRe = regexp.MustCompile(`@OUTPUT([0-9]+)?@`)
)

// templateValues holds the values substituted into command templates.
type templateValues struct {
	inputs  []string
	outputs []string
	extra   map[string]string
}

func newTemplateValues(inputs, outputs []string, outdir string) templateValues {
	v := templateValues{inputs: inputs, outputs: outputs, extra: make(map[string]string)}
	for i, in := range inputs {
		v.extra[fmt.Sprintf("@INPUT%d@", i)] = in
	}
	if len(inputs) == 1 {
		plain := filepath.Base(inputs[0])
		v.extra["@PLAINNAME@"] = plain
		v.extra["@BASENAME@"] = strings.TrimSuffix(plain, filepath.Ext(plain))
	}
	for i, out := range outputs {
		v.extra[fmt.Sprintf("@OUTPUT%d@", i)] = out
	}
	if len(outputs) > 0 {
		if outdir == "" {
			outdir = "."
		}
		v.extra["@OUTDIR@"] = outdir
	}
	return v
}

// keys returns the template keys, longest first so @INPUT10@ wins over @INPUT1@.
func (v templateValues) keys() []string {
	keys := make([]string, 0, len(v.extra))
	for k := range v.extra {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return keys
}

// check rejects templates that refer to values that do not exist.
func (v templateValues) check(cmd []string) error {
	has := func(tokens ...string) string {
		for _, c := range cmd {
			for _, t := range tokens {
				if strings.Contains(c, t) {
					return t
				}
			}
		}
		return ""
	}
	if len(v.inputs) == 0 {
		for _, c := range cmd {
			if m := inputIndexRe.FindString(c); m != "" {
				return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command cannot have %q, since no input files were specified", m))
			}
		}
		if m := has("@PLAINNAME@", "@BASENAME@"); m != "" {
			return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command cannot have %q, since no input files were specified", m))
		}
	} else {
		if len(v.inputs) > 1 {
			if m := has("@PLAINNAME@", "@BASENAME@"); m != "" {
				return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command cannot have %q when there is more than one input file", m))
			}
		}
		for _, c := range cmd {
			for _, m := range inputIndexRe.FindAllString(c, -1) {
				if _, ok := v.extra[m]; !ok && m != "@INPUT@" {
					return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command argument %q has an invalid input index", c))
				}
			}
		}
	}
	if len(v.outputs) == 0 {
		for _, c := range cmd {
			if m := outputIndexRe.FindString(c); m != "" {
				return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command cannot have %q since there are no outputs", m))
			}
		}
		if m := has("@OUTDIR@"); m != "" {
			return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command cannot have %q since there are no outputs", m))
		}
	} else {
		for _, c := range cmd {
			for _, m := range outputIndexRe.FindAllString(c, -1) {
				if _, ok := v.extra[m]; !ok && m != "@OUTPUT@" {
					return zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("command argument %q has an invalid output index", c))
				}
			}
		}
	}
	return nil
}

// substitute expands the templates of cmd. A bare @INPUT@ or @OUTPUT@
// expands to every input or output.
func (v templateValues) substitute(cmd []string) ([]string, error) {
	if err := v.check(cmd); err != nil {
		return nil, err
	}
	var out []string
	for _, c := range cmd {
		switch {
		case c == "@INPUT@":
			out = append(out, v.inputs...)
		case c == "@OUTPUT@":
			out = append(out, v.outputs...)
		case strings.Contains(c, "@INPUT@"):
			if len(v.inputs) != 1 {
				return nil, zerr.Wrap(ErrInvalidArguments, "command has '@INPUT@' as part of a string and more than one input file")
			}
			out = append(out, strings.ReplaceAll(c, "@INPUT@", v.inputs[0]))
		case strings.Contains(c, "@OUTPUT@"):
			if len(v.outputs) != 1 {
				return nil, zerr.Wrap(ErrInvalidArguments, "command has '@OUTPUT@' as part of a string and more than one output file")
			}
			out = append(out, strings.ReplaceAll(c, "@OUTPUT@", v.outputs[0]))
		default:
			if exact, ok := v.extra[c]; ok {
				out = append(out, exact)
				continue
			}
			for _, key := range v.keys() {
				c = strings.ReplaceAll(c, key, v.extra[key])
			}
			out = append(out, c)
		}
	}
	return out, nil
}

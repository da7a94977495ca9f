package domain

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// EnvOp is the kind of an environment mutation.
type EnvOp uint8

const (
	// EnvSet replaces the variable.
	EnvSet EnvOp = iota
	// EnvAppend adds values after the current value.
	EnvAppend
	// EnvPrepend adds values before the current value.
	EnvPrepend
)

func (o EnvOp) String() string {
	switch o {
	case EnvAppend:
		return "append"
	case EnvPrepend:
		return "prepend"
	default:
		return "set"
	}
}

// EnvEntry is a single recorded mutation.
type EnvEntry struct {
	Op        EnvOp    `msgpack:"op" json:"op"`
	Name      string   `msgpack:"name" json:"name"`
	Values    []string `msgpack:"values" json:"values"`
	Separator string   `msgpack:"separator" json:"separator"`
}

// EnvironmentVariables is an ordered log of environment mutations that is
// replayed against a base environment.
type EnvironmentVariables struct {
	Entries []EnvEntry `msgpack:"entries" json:"entries"`
}

// NewEnvironmentVariables returns an empty log.
func NewEnvironmentVariables() *EnvironmentVariables {
	return &EnvironmentVariables{}
}

// Set records a replacement of name.
// An empty separator means the platform path list separator.
func (e *EnvironmentVariables) Set(name string, values []string, separator string) {
	e.record(EnvSet, name, values, separator)
}

// Append records values to add after the current value of name.
func (e *EnvironmentVariables) Append(name string, values []string, separator string) {
	e.record(EnvAppend, name, values, separator)
}

// Prepend records values to add before the current value of name.
func (e *EnvironmentVariables) Prepend(name string, values []string, separator string) {
	e.record(EnvPrepend, name, values, separator)
}

func (e *EnvironmentVariables) record(op EnvOp, name string, values []string, separator string) {
	if separator == "" {
		separator = string(os.PathListSeparator)
	}
	e.Entries = append(e.Entries, EnvEntry{
		Op:        op,
		Name:      name,
		Values:    slices.Clone(values),
		Separator: separator,
	})
}

// Len returns the number of recorded mutations.
func (e *EnvironmentVariables) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Entries)
}

// Names returns the affected variable names in first-mutation order.
func (e *EnvironmentVariables) Names() []string {
	if e == nil {
		return nil
	}
	var names []string
	for _, entry := range e.Entries {
		if !slices.Contains(names, entry.Name) {
			names = append(names, entry.Name)
		}
	}
	return names
}

// Apply replays the log against a copy of base and returns the result.
// Each mutation sees the outcome of the ones recorded before it.
func (e *EnvironmentVariables) Apply(base map[string]string) map[string]string {
	env := maps.Clone(base)
	if env == nil {
		env = make(map[string]string)
	}
	if e == nil {
		return env
	}
	for _, entry := range e.Entries {
		value := joinEnvValues(entry.Values, entry.Separator)
		current, ok := env[entry.Name]
		switch entry.Op {
		case EnvAppend:
			if ok {
				value = current + entry.Separator + value
			}
		case EnvPrepend:
			if ok {
				value = value + entry.Separator + current
			}
		}
		env[entry.Name] = value
	}
	return env
}

// joinEnvValues joins values and trims separator characters from both ends.
func joinEnvValues(values []string, separator string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(separator)
		b.WriteString(v)
	}
	return strings.Trim(b.String(), separator)
}

// EnvironmentFromValue converts an env keyword argument into a mutation log.
// It accepts an existing log, a map of names to values, or a list of
// "NAME=value" strings.
func EnvironmentFromValue(v any) (*EnvironmentVariables, error) {
	env := NewEnvironmentVariables()
	switch val := v.(type) {
	case nil:
		return env, nil
	case *EnvironmentVariables:
		return val, nil
	case map[string]string:
		for _, k := range slices.Sorted(maps.Keys(val)) {
			env.Set(k, []string{val[k]}, "")
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(val)) {
			values, err := envValues(k, val[k])
			if err != nil {
				return nil, err
			}
			env.Set(k, values, "")
		}
	case string:
		return EnvironmentFromValue([]string{val})
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return EnvironmentFromValue(items)
	case []any:
		for _, item := range flatten(val) {
			s, ok := item.(string)
			if !ok {
				return nil, zerr.With(zerr.Wrap(ErrInvalidArguments, "env list entries must be strings"), "entry", fmt.Sprint(item))
			}
			name, value, ok := strings.Cut(s, "=")
			if !ok {
				return nil, zerr.With(zerr.Wrap(ErrInvalidArguments, `env entries must be of form "NAME=value"`), "entry", s)
			}
			env.Set(strings.TrimSpace(name), []string{value}, "")
		}
	default:
		return nil, zerr.Wrap(ErrInvalidArguments, fmt.Sprintf("env must be a map, a list of strings or an environment object, got %T", v))
	}
	return env, nil
}

func envValues(name string, v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range flatten(val) {
			s, ok := item.(string)
			if !ok {
				return nil, zerr.With(zerr.Wrap(ErrInvalidArguments, "env values must be strings"), "name", name)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, zerr.With(zerr.Wrap(ErrInvalidArguments, "env values must be strings"), "name", name)
}

package domain

import (
	"maps"
	"slices"
)

// ConfigStamp records the project files a build was configured from.
type ConfigStamp struct {
	ConfigPaths []string         // weld.yaml and weld.toolchain.yaml files
	Mtimes      map[string]int64 // path -> mtime in UnixNano
}

// Changed returns the recorded paths whose mtime differs in current or that
// are missing from it, followed by paths of current that were not recorded.
func (s ConfigStamp) Changed(current map[string]int64) []string {
	var changed []string
	for _, p := range s.ConfigPaths {
		mtime, ok := current[p]
		if !ok || mtime != s.Mtimes[p] {
			changed = append(changed, p)
		}
	}
	for _, p := range slices.Sorted(maps.Keys(current)) {
		if !slices.Contains(s.ConfigPaths, p) {
			changed = append(changed, p)
		}
	}
	return changed
}

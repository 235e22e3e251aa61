package guildconfig

import "sort"

// Diff is the result of comparing two config documents' key sets.
// A mismatch is data, not an error; callers decide how to react.
type Diff struct {
	Added   []string
	Removed []string
}

// Empty reports whether both documents declare the same key set at
// every nesting level.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Compare recursively walks the key sets of both documents. Keys
// present in incoming but not current are reported as added; keys
// present in current but not incoming as removed. Paths are dotted,
// deduplicated and sorted. Values are not type-checked - only key-set
// shape matters. The Mongo _id bookkeeping key is ignored.
func Compare(current, incoming map[string]any) Diff {
	added := make(map[string]struct{})
	removed := make(map[string]struct{})

	compareMaps("", current, incoming, added, removed)

	return Diff{
		Added:   sortedPaths(added),
		Removed: sortedPaths(removed),
	}
}

func compareMaps(prefix string, current, incoming map[string]any, added, removed map[string]struct{}) {
	for key, incomingValue := range incoming {
		if prefix == "" && key == "_id" {
			continue
		}

		path := joinPath(prefix, key)

		currentValue, ok := current[key]
		if !ok {
			added[path] = struct{}{}
			continue
		}

		currentChild, currentIsMap := asMap(currentValue)
		incomingChild, incomingIsMap := asMap(incomingValue)
		if currentIsMap && incomingIsMap {
			compareMaps(path, currentChild, incomingChild, added, removed)
		}
	}

	for key := range current {
		if prefix == "" && key == "_id" {
			continue
		}
		if _, ok := incoming[key]; !ok {
			removed[joinPath(prefix, key)] = struct{}{}
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func sortedPaths(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Package maputil deep-copies and merges the untyped maps decoded from
// data files and front matter.
package maputil

// DeepCopyMap performs a deep copy of a map[string]any.
func DeepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))

	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}

	return dst
}

// DeepCopySlice performs a deep copy of a []any.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))

	for i, v := range src {
		dst[i] = deepCopyValue(v)
	}

	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	default:
		return v
	}
}

// Merge returns a deep copy of base with overlay merged on top. Nested maps
// merge key by key; any other overlay value, slices included, replaces the
// base value. Neither input is modified.
func Merge(base, overlay map[string]any) map[string]any {
	dst := DeepCopyMap(base)
	if dst == nil {
		dst = make(map[string]any, len(overlay))
	}

	for k, v := range overlay {
		if om, ok := v.(map[string]any); ok {
			if bm, ok := dst[k].(map[string]any); ok {
				dst[k] = Merge(bm, om)
				continue
			}
		}

		dst[k] = deepCopyValue(v)
	}

	return dst
}

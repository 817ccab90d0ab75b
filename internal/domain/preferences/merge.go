package preferences

// Merge deep-merges updates into base and returns the merged tree. Neither
// input is modified. Nested objects merge key-wise; lists and scalars in
// updates overwrite the base value wholesale.
func Merge(base, updates Tree) Tree {
	return Tree(mergeObject(map[string]any(base), map[string]any(updates)))
}

func mergeObject(base, updates map[string]any) map[string]any {
	out := cloneObject(base)
	for key, upd := range updates {
		baseObj, baseIsObj := out[key].(map[string]any)
		updObj, updIsObj := upd.(map[string]any)
		if baseIsObj && updIsObj {
			out[key] = mergeObject(baseObj, updObj)
			continue
		}
		out[key] = cloneValue(upd)
	}
	return out
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneObject(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		// scalar (string, bool, float64, nil)
		return v
	}
}

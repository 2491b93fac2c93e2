package aggs

import (
	"encoding/json"
	"strconv"
)

// Fragment is a piece of a backend aggregation request.
type Fragment map[string]any

// Clone returns a deep copy of f. Nested maps and slices are copied; leaf
// values (including raw JSON filters) are shared because they are never mutated.
func (f Fragment) Clone() Fragment {
	if f == nil {
		return Fragment{}
	}
	out := make(Fragment, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// JSON renders the fragment as it is sent to the backend.
func (f Fragment) JSON() ([]byte, error) {
	return json.Marshal(f)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Fragment:
		return t.Clone()
	case map[string]any:
		return map[string]any(Fragment(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// offsetKey is the aggregation name of a coordinate slot.
func offsetKey(slot int) string {
	return strconv.Itoa(slot)
}

// missingKey is the aggregation name of a slot's missing-value sibling.
func missingKey(slot int) string {
	return strconv.Itoa(slot) + "_missing"
}

// wrap nests the given named aggregations under a fresh "aggs" key.
func wrap(named map[string]any) Fragment {
	return Fragment{"aggs": named}
}

func termsBody(field string, size int) map[string]any {
	body := map[string]any{"field": field}
	if size > 0 {
		body["size"] = size
	}
	return body
}

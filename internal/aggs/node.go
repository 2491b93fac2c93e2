package aggs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/edgeq/internal/domain"
)

// Node is a read-only view of one object in the backend's aggregation tree.
// Every accessor reports absence as a DecodeShapeError; the only absence the
// engine models is the explicit missing-bucket branch.
type Node struct {
	path string
	m    map[string]any
}

// NewNode wraps a decoded JSON object.
func NewNode(m map[string]any) Node {
	return Node{path: "aggregations", m: m}
}

// ParseNode decodes raw JSON into a Node. Numbers become float64, except
// integers beyond 2^53, which become int64 so long keys stay distinct.
func ParseNode(data []byte) (Node, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return Node{}, &domain.DecodeShapeError{Reason: "aggregations are not a JSON object: " + err.Error()}
	}
	if m == nil {
		return Node{}, &domain.DecodeShapeError{Reason: "aggregations are null"}
	}
	return NewNode(resolveNumbers(m).(map[string]any)), nil
}

// maxExactFloat is the largest integer float64 holds without rounding.
const maxExactFloat = 1 << 53

func resolveNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = resolveNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = resolveNumbers(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if i > maxExactFloat || i < -maxExactFloat {
				return i
			}
			return float64(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t
	default:
		return v
	}
}

// Path returns the location of the node in the tree, for diagnostics.
func (n Node) Path() string { return n.path }

// Raw returns the underlying object.
func (n Node) Raw() map[string]any { return n.m }

func (n Node) shapeErr(format string, args ...any) error {
	return &domain.DecodeShapeError{Path: n.path, Reason: fmt.Sprintf(format, args...)}
}

// Child returns the object stored under name.
func (n Node) Child(name string) (Node, error) {
	raw, ok := n.m[name]
	if !ok {
		return Node{}, n.shapeErr("missing aggregation %q", name)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Node{}, n.shapeErr("aggregation %q is %T, not an object", name, raw)
	}
	return Node{path: n.path + "." + name, m: obj}, nil
}

// Buckets returns the bucket list of the aggregation stored under name.
func (n Node) Buckets(name string) ([]Node, error) {
	agg, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	raw, ok := agg.m["buckets"]
	if !ok {
		return nil, agg.shapeErr("missing bucket list")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, agg.shapeErr("buckets are %T, not a list", raw)
	}
	out := make([]Node, len(list))
	for i, b := range list {
		obj, ok := b.(map[string]any)
		if !ok {
			return nil, agg.shapeErr("bucket %d is %T, not an object", i, b)
		}
		out[i] = Node{path: fmt.Sprintf("%s.buckets[%d]", agg.path, i), m: obj}
	}
	return out, nil
}

// Key returns the bucket key.
func (n Node) Key() (any, error) {
	k, ok := n.m["key"]
	if !ok {
		return nil, n.shapeErr("bucket has no key")
	}
	return k, nil
}

// DocCount returns the number of documents in the bucket.
func (n Node) DocCount() (int64, error) {
	raw, ok := n.m["doc_count"]
	if !ok {
		return 0, n.shapeErr("bucket has no doc_count")
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, n.shapeErr("doc_count %v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, n.shapeErr("doc_count %s is not an integer", v)
		}
		return i, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, n.shapeErr("doc_count is %T", raw)
	}
}

// MetricValue returns the "value" of the metric aggregation stored under
// name. A present null value (e.g. avg over no documents) is returned as nil.
func (n Node) MetricValue(name string) (any, error) {
	agg, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	v, ok := agg.m["value"]
	if !ok {
		return nil, agg.shapeErr("metric has no value")
	}
	return v, nil
}

package aggs

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/edgeq/internal/domain/edge"
	"github.com/kailas-cloud/edgeq/internal/domain/query"
)

// assertJSON compares the JSON rendering of got with the JSON document want.
func assertJSON(t *testing.T, got any, want string) {
	t.Helper()
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var g, w any
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if diff := cmp.Diff(w, g); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func mustNode(t *testing.T, raw string) Node {
	t.Helper()
	n, err := ParseNode([]byte(raw))
	if err != nil {
		t.Fatalf("parse node: %v", err)
	}
	return n
}

func mustQuery(t *testing.T, raw string) query.Query {
	t.Helper()
	var q query.Query
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	q.Normalize(query.FormatList)
	return q
}

func mustCompile(t *testing.T, raw string) *Plan {
	t.Helper()
	p, err := Compile(mustQuery(t, raw), Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func defaultEdge(name, field string) edge.Edge {
	return edge.Edge{Name: name, Value: field, Domain: edge.Domain{Type: edge.TypeDefault}}
}

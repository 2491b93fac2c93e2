package query

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/edge"
)

func decode(t *testing.T, raw string) Query {
	t.Helper()
	var q Query
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("decode query: %v", err)
	}
	return q
}

func TestSelects_SingleObject(t *testing.T) {
	q := decode(t, `{"select":{"name":"n","aggregate":"sum","value":"bytes"},"edges":[{"name":"e","value":"f"}]}`)
	if len(q.Select) != 1 || q.Select[0].Aggregate != AggSum {
		t.Fatalf("select = %+v", q.Select)
	}
}

func TestSelects_List(t *testing.T) {
	q := decode(t, `{"select":[{"aggregate":"count"},{"aggregate":"max","value":"t"}],"edges":[]}`)
	if len(q.Select) != 2 {
		t.Fatalf("select = %+v", q.Select)
	}
}

func TestSelects_Invalid(t *testing.T) {
	var q Query
	if err := json.Unmarshal([]byte(`{"select":"count"}`), &q); err == nil {
		t.Fatal("expected error for string select")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	q := decode(t, `{"edges":[{"name":"color","value":"color_field"}]}`)
	q.Normalize(FormatList)

	if len(q.Select) != 1 || !q.Select[0].IsDocCount() || q.Select[0].Name != "count" {
		t.Errorf("default select = %+v", q.Select)
	}
	if q.Edges[0].Domain.Type != edge.TypeDefault {
		t.Errorf("domain type = %q", q.Edges[0].Domain.Type)
	}
	if q.Format != FormatList {
		t.Errorf("format = %q", q.Format)
	}
}

func TestNormalize_LeavesCallerSlicesUntouched(t *testing.T) {
	q := decode(t, `{"select":[{"aggregate":"mean","value":"duration"}],
		"edges":[{"name":"color","value":"color_field"}]}`)
	orig := q
	q.Normalize(FormatList)

	if orig.Select[0].Aggregate != "mean" || orig.Select[0].Name != "" {
		t.Errorf("caller select rewritten: %+v", orig.Select[0])
	}
	if orig.Edges[0].Domain.Type != "" {
		t.Errorf("caller edge domain rewritten: %q", orig.Edges[0].Domain.Type)
	}
	if q.Select[0].Aggregate != AggAvg || q.Edges[0].Domain.Type != edge.TypeDefault {
		t.Errorf("normalized copy = %+v / %q", q.Select[0], q.Edges[0].Domain.Type)
	}
}

func TestNormalize_MetricNamesAndAliases(t *testing.T) {
	q := decode(t, `{"select":[{"aggregate":"average","value":"duration"},{"aggregate":"count"}],
		"edges":[{"name":"e","value":"f"}],"format":"table"}`)
	q.Normalize(FormatList)

	if q.Select[0].Name != "duration" || q.Select[0].Aggregate != AggAvg {
		t.Errorf("select[0] = %+v", q.Select[0])
	}
	if q.Select[1].Name != "count" {
		t.Errorf("select[1] = %+v", q.Select[1])
	}
	if q.Format != FormatTable {
		t.Errorf("explicit format overwritten: %q", q.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		msg     string
	}{
		{"valid", `{"edges":[{"name":"e","value":"f"}]}`, nil, ""},
		{"no edges", `{"edges":[]}`, domain.ErrInvalidQuery, "at least one edge"},
		{"unnamed edge", `{"edges":[{"value":"f"}]}`, domain.ErrInvalidQuery, "edge name"},
		{"duplicate edge", `{"edges":[{"name":"e","value":"f"},{"name":"e","value":"g"}]}`, domain.ErrInvalidQuery, "duplicate"},
		{"edge clashes with metric", `{"select":{"name":"e","aggregate":"count"},"edges":[{"name":"e","value":"f"}]}`,
			domain.ErrInvalidQuery, "duplicate"},
		{"unknown aggregate", `{"select":{"name":"m","aggregate":"median","value":"x"},"edges":[{"name":"e","value":"f"}]}`,
			domain.ErrInvalidQuery, "not supported"},
		{"sum without value", `{"select":{"name":"m","aggregate":"sum"},"edges":[{"name":"e","value":"f"}]}`,
			domain.ErrInvalidQuery, "requires a value"},
		{"negative limit", `{"limit":-1,"edges":[{"name":"e","value":"f"}]}`, domain.ErrInvalidQuery, "limit"},
		{"bad format", `{"format":"csv","edges":[{"name":"e","value":"f"}]}`, domain.ErrUnsupportedFormat, "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := decode(t, tt.raw)
			q.Normalize(FormatList)
			err := q.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want substring %q", err, tt.msg)
			}
		})
	}
}

func TestMetric_BackendAggregate(t *testing.T) {
	tests := []struct {
		m    Metric
		want string
	}{
		{Metric{Aggregate: AggCount, Value: "f"}, "value_count"},
		{Metric{Aggregate: AggSum, Value: "f"}, "sum"},
		{Metric{Aggregate: AggCardinality, Value: "f"}, "cardinality"},
	}
	for _, tt := range tests {
		got, ok := tt.m.BackendAggregate()
		if !ok || got != tt.want {
			t.Errorf("BackendAggregate(%s) = %q, %v", tt.m.Aggregate, got, ok)
		}
	}
}

func TestFormat_Valid(t *testing.T) {
	for _, f := range []Format{FormatCube, FormatTable, FormatList} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Format("csv").Valid() {
		t.Error("csv should be invalid")
	}
}

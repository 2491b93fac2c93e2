package aggs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/edgeq/internal/domain"
	"github.com/kailas-cloud/edgeq/internal/domain/query"
)

const colorResponse = `{
	"0":{"buckets":[{"key":"red","doc_count":3},{"key":"blue","doc_count":5}]},
	"0_missing":{"doc_count":2}}`

const colorQuery = `{
	"select":[{"name":"count","aggregate":"count"}],
	"edges":[{"name":"color","value":"color_field","domain":{"type":"default"}}]}`

// run compiles raw, decodes resp and renders it in format f.
func run(t *testing.T, raw, resp string, f query.Format) (any, error) {
	t.Helper()
	q := mustQuery(t, raw)
	p, err := Compile(q, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	root := mustNode(t, resp)
	decoders, err := Materialize(root, p.Decoders)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	rows, err := Rows(root, decoders)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return Format(f, q.Select, decoders, rows)
}

func mustRun(t *testing.T, raw, resp string, f query.Format) any {
	t.Helper()
	out, err := run(t, raw, resp, f)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	return out
}

func TestFormat_ListEndToEnd(t *testing.T) {
	out := mustRun(t, colorQuery, colorResponse, query.FormatList)

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"color":"blue","count":5},{"color":"red","count":3},{"color":null,"count":2}]`
	if string(data) != want {
		t.Errorf("list = %s\nwant  %s", data, want)
	}
}

func TestFormat_Table(t *testing.T) {
	out := mustRun(t, `{
		"select":[{"name":"n","aggregate":"count"}],
		"edges":[{"name":"a","value":"fa"},{"name":"b","value":"fb"}]}`,
		twoEdgeResponse, query.FormatTable)

	assertJSON(t, out, `{
		"header":["a","b","n"],
		"data":[
			["a","x",3],
			["b",null,1],
			["c","y",2],
			[null,"x",1],
			[null,"y",0],
			[null,null,0]]}`)
}

func TestFormat_CubeNullSlot(t *testing.T) {
	tests := []struct {
		name       string
		allowNulls string
		wantDims   []int
		wantCounts string
	}{
		{"nulls allowed by default", ``, []int{3, 1}, `[[5],[3],[2]]`},
		{"nulls allowed explicitly", `,"allowNulls":true`, []int{3, 1}, `[[5],[3],[2]]`},
		{"nulls disallowed", `,"allowNulls":false`, []int{2, 1}, `[[5],[3]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"select":[{"name":"count","aggregate":"count"}],"edges":[
				{"name":"color","value":"color_field"` + tt.allowNulls + `},
				{"name":"kind","value":"k","allowNulls":false,
					"domain":{"type":"set","partitions":[{"value":"car"}]}}]}`
			resp := `{"1":{"buckets":[{"key":"car","doc_count":10,
				"0":{"buckets":[{"key":"red","doc_count":3},{"key":"blue","doc_count":5}]},
				"0_missing":{"doc_count":2}}]}}`

			out := mustRun(t, raw, resp, query.FormatCube)
			cube, ok := out.(*Cube)
			if !ok {
				t.Fatalf("result is %T", out)
			}
			m := cube.Data["count"]
			if diff := cmp.Diff(tt.wantDims, m.Dims()); diff != "" {
				t.Errorf("dims (-want +got):\n%s", diff)
			}
			assertJSON(t, m, tt.wantCounts)
		})
	}
}

func TestFormat_CubeCells(t *testing.T) {
	out := mustRun(t, colorQuery, colorResponse, query.FormatCube)
	cube := out.(*Cube)

	m := cube.Data["count"]
	if diff := cmp.Diff([]int{3}, m.Dims()); diff != "" {
		t.Errorf("dims (-want +got):\n%s", diff)
	}
	assertJSON(t, m, `[5,3,2]`)
	if cube.Edges[0].Domain.Size() != 2 {
		t.Errorf("cube edge domain size = %d, want 2", cube.Edges[0].Domain.Size())
	}
}

func TestFormat_CubeDropsNullRowsWhenDisallowed(t *testing.T) {
	raw := `{"select":[{"name":"count","aggregate":"count"}],
		"edges":[{"name":"color","value":"color_field","allowNulls":false}]}`

	out := mustRun(t, raw, colorResponse, query.FormatCube)
	assertJSON(t, out.(*Cube).Data["count"], `[5,3]`)
}

func TestFormat_CubeMetricDefaultsToNull(t *testing.T) {
	raw := `{"select":[{"name":"total","aggregate":"sum","value":"bytes"}],
		"edges":[{"name":"os","value":"os","domain":{"type":"set",
			"partitions":[{"value":"linux"},{"value":"mac"}]}}]}`
	resp := `{"0":{"buckets":[{"key":"mac","doc_count":1,"total":{"value":42}}]}}`

	out := mustRun(t, raw, resp, query.FormatCube)
	assertJSON(t, out.(*Cube).Data["total"], `[null,42,null]`)
}

func TestFormat_NullStringIsNotMissing(t *testing.T) {
	resp := `{
		"0":{"buckets":[{"key":"null","doc_count":4}]},
		"0_missing":{"doc_count":1}}`

	out := mustRun(t, colorQuery, resp, query.FormatList)
	assertJSON(t, out, `[{"color":"null","count":4},{"color":null,"count":1}]`)
}

func TestFormat_Deterministic(t *testing.T) {
	for _, f := range []query.Format{query.FormatCube, query.FormatTable, query.FormatList} {
		t.Run(string(f), func(t *testing.T) {
			first, err := json.Marshal(mustRun(t, colorQuery, colorResponse, f))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			second, err := json.Marshal(mustRun(t, colorQuery, colorResponse, f))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if diff := cmp.Diff(string(first), string(second)); diff != "" {
				t.Errorf("output differs between runs (-first +second):\n%s", diff)
			}
		})
	}
}

func TestFormat_UnsupportedFormat(t *testing.T) {
	_, err := Format("xml", nil, nil, nil)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormat_UnknownKeyInKnownDomain(t *testing.T) {
	raw := `{"edges":[{"name":"os","value":"os","domain":{"type":"set","partitions":[{"value":"linux"}]}}]}`
	resp := `{"0":{"buckets":[{"key":"bsd","doc_count":1}]}}`

	_, err := run(t, raw, resp, query.FormatList)
	if !errors.Is(err, domain.ErrUnknownKey) {
		t.Errorf("error = %v, want ErrUnknownKey", err)
	}
}

func TestFormat_MissingMetricIsShapeError(t *testing.T) {
	raw := `{"select":{"name":"total","aggregate":"sum","value":"bytes"},"edges":[{"name":"c","value":"c"}]}`

	_, err := run(t, raw, colorResponse, query.FormatTable)
	if !errors.Is(err, domain.ErrDecodeShape) {
		t.Errorf("error = %v, want ErrDecodeShape", err)
	}
}

// platformQuery groups on a composite dict edge; field a owns slot 0 and b slot 1.
const platformQuery = `{
	"select":[{"name":"count","aggregate":"count"},{"name":"total","aggregate":"sum","value":"bytes"}],
	"edges":[{"name":"platform","domain":{"type":"set",
		"dimension":{"fields":{"a":"fa","b":"fb"}},
		"partitions":[{"value":{"a":"x","b":"y"}},{"value":{"a":"z","b":"w"}}]}}]}`

// platformResponse has three leaves in the missing group: b present with a
// missing (3 docs), b missing with a present (5 docs), both missing (0 docs).
const platformResponse = `{
	"1":{"buckets":[{"key":"y","doc_count":4,
		"0":{"buckets":[{"key":"x","doc_count":1,"total":{"value":10}}]},
		"0_missing":{"doc_count":3,"total":{"value":30}}}]},
	"1_missing":{"doc_count":5,
		"0":{"buckets":[{"key":"x","doc_count":5,"total":{"value":50}}]},
		"0_missing":{"doc_count":0,"total":{"value":0}}}}`

func TestFormat_DictEdgeMergesMissingGroup(t *testing.T) {
	t.Run("cube", func(t *testing.T) {
		cube := mustRun(t, platformQuery, platformResponse, query.FormatCube).(*Cube)
		assertJSON(t, cube.Data["count"], `[1,0,8]`)
		assertJSON(t, cube.Data["total"], `[10,null,80]`)
	})
	t.Run("table", func(t *testing.T) {
		out := mustRun(t, platformQuery, platformResponse, query.FormatTable)
		assertJSON(t, out, `{
			"header":["platform","count","total"],
			"data":[
				[{"a":"x","b":"y"},1,10],
				[null,8,80]]}`)
	})
	t.Run("list", func(t *testing.T) {
		out := mustRun(t, platformQuery, platformResponse, query.FormatList)
		assertJSON(t, out, `[
			{"platform":{"a":"x","b":"y"},"count":1,"total":10},
			{"platform":null,"count":8,"total":80}]`)
	})
}

func TestMergeValue(t *testing.T) {
	tests := []struct {
		name   string
		metric query.Metric
		a, b   any
		want   any
	}{
		{"doc count", query.Metric{Name: "n", Aggregate: query.AggCount}, int64(3), int64(5), int64(8)},
		{"sum", query.Metric{Name: "s", Aggregate: query.AggSum, Value: "v"}, 1.5, 2.0, 3.5},
		{"sum with null", query.Metric{Name: "s", Aggregate: query.AggSum, Value: "v"}, nil, 2.0, 2.0},
		{"min", query.Metric{Name: "m", Aggregate: query.AggMin, Value: "v"}, 4.0, 2.0, 2.0},
		{"max", query.Metric{Name: "m", Aggregate: query.AggMax, Value: "v"}, 4.0, 2.0, 4.0},
		{"avg", query.Metric{Name: "a", Aggregate: query.AggAvg, Value: "v"}, 4.0, 2.0, nil},
		{"cardinality", query.Metric{Name: "c", Aggregate: query.AggCardinality, Value: "v"}, 4.0, 2.0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeValue(tt.metric, tt.a, tt.b); got != tt.want {
				t.Errorf("mergeValue(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFormat_LargeIntegerKeysStayDistinct(t *testing.T) {
	raw := `{"select":[{"name":"count","aggregate":"count"}],"edges":[{"name":"id","value":"id_field"}]}`
	resp := `{
		"0":{"buckets":[
			{"key":9007199254740993,"doc_count":1},
			{"key":9007199254740992,"doc_count":7}]},
		"0_missing":{"doc_count":0}}`

	out := mustRun(t, raw, resp, query.FormatList)
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"count":7,"id":9007199254740992},{"count":1,"id":9007199254740993},{"count":0,"id":null}]`
	if string(data) != want {
		t.Errorf("list = %s\nwant  %s", data, want)
	}
}

func TestMatrix(t *testing.T) {
	m := NewMatrix([]int{2, 3}, int64(0))
	m.Set([]int{1, 2}, int64(7))
	m.Set([]int{5, 0}, int64(9))

	if got := m.Get(1, 2); got != int64(7) {
		t.Errorf("Get(1,2) = %v", got)
	}
	if got := m.Get(2, 0); got != nil {
		t.Errorf("out of range Get = %v", got)
	}
	assertJSON(t, m, `[[0,0,0],[0,0,7]]`)
}

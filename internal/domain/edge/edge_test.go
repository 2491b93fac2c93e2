package edge

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestNullsAllowed(t *testing.T) {
	tests := []struct {
		name  string
		allow *bool
		want  bool
	}{
		{"unspecified", nil, true},
		{"explicit true", boolPtr(true), true},
		{"explicit false", boolPtr(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Edge{Name: "e", AllowNulls: tt.allow}
			if got := e.NullsAllowed(); got != tt.want {
				t.Errorf("NullsAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainType_IsPartition(t *testing.T) {
	for _, typ := range []DomainType{TypeSet, TypeUID, TypeTime, TypeDuration, TypeRange} {
		if !typ.IsPartition() {
			t.Errorf("%s should be partition-like", typ)
		}
	}
	for _, typ := range []DomainType{TypeDefault, TypeOther, ""} {
		if typ.IsPartition() {
			t.Errorf("%q should not be partition-like", typ)
		}
	}
}

func TestFields_UnmarshalList(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`["a.b","c"]`), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsList() || f.IsDict() {
		t.Fatalf("expected list fields, got %v", f)
	}
	if got := f.List(); len(got) != 2 || got[0] != "a.b" || got[1] != "c" {
		t.Errorf("List() = %v", got)
	}
}

func TestFields_UnmarshalDict(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`{"os":"build.os","arch":"build.arch"}`), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsDict() {
		t.Fatal("expected dict fields")
	}
	sorted := f.Sorted()
	if sorted[0].Name != "arch" || sorted[0].Field != "build.arch" || sorted[1].Name != "os" {
		t.Errorf("Sorted() = %v", sorted)
	}
}

func TestFields_UnmarshalInvalid(t *testing.T) {
	var f Fields
	if err := json.Unmarshal([]byte(`42`), &f); err == nil {
		t.Fatal("expected error for numeric fields")
	}
}

func TestFields_MarshalRoundShape(t *testing.T) {
	data, err := json.Marshal(NewFieldDict(map[string]string{"b": "y", "a": "x"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"a":"x","b":"y"}` {
		t.Errorf("dict marshal = %s", data)
	}
	data, _ = json.Marshal(NewFieldList("x", "y"))
	if string(data) != `["x","y"]` {
		t.Errorf("list marshal = %s", data)
	}
}

func TestCanonicalKey_TypesDoNotCollide(t *testing.T) {
	keys := []any{"1", 1.0, true, "true", nil, "null", map[string]any{"a": "1"}}
	seen := make(map[string]any)
	for _, k := range keys {
		c := CanonicalKey(k)
		if prev, dup := seen[c]; dup {
			t.Errorf("CanonicalKey(%#v) collides with %#v", k, prev)
		}
		seen[c] = k
	}
}

func TestCanonicalKey_NumericKindsAgree(t *testing.T) {
	if CanonicalKey(3) != CanonicalKey(3.0) || CanonicalKey(int64(3)) != CanonicalKey(json.Number("3")) {
		t.Error("numeric kinds of the same value must share a key")
	}
}

func TestCanonicalKey_LargeIntegersStayDistinct(t *testing.T) {
	a := CanonicalKey(int64(9007199254740993))
	b := CanonicalKey(int64(9007199254740992))
	if a == b {
		t.Errorf("keys above 2^53 collide: %s", a)
	}
	if a != CanonicalKey(json.Number("9007199254740993")) {
		t.Error("json.Number and int64 of the same integer must share a key")
	}
	if CanonicalKey(2.5) == CanonicalKey(2.0) {
		t.Error("fractional and integral numbers must not collide")
	}
}

func TestExactInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{int64(9007199254740993), 9007199254740993, true},
		{json.Number("9007199254740993"), 9007199254740993, true},
		{3.0, 3, true},
		{2.5, 0, false},
		{"3", 0, false},
		{uint64(1) << 63, 0, false},
	}
	for _, tt := range tests {
		got, ok := ExactInt(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExactInt(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCanonicalKey_MapOrderIndependent(t *testing.T) {
	a := CanonicalKey(map[string]any{"x": 1.0, "y": "b"})
	b := CanonicalKey(map[string]any{"y": "b", "x": 1.0})
	if a != b {
		t.Errorf("map keys differ: %s vs %s", a, b)
	}
}

func TestIndex_ByKeyAndPart(t *testing.T) {
	d := Domain{
		Type: TypeSet,
		Partitions: []Partition{
			{Value: "linux"},
			{Value: "win"},
			{Value: map[string]any{"os": "mac", "arch": "arm"}},
		},
	}
	idx := NewIndex(d)

	if i, ok := idx.IndexByKey("win"); !ok || i != 1 {
		t.Errorf("IndexByKey(win) = %d, %v", i, ok)
	}
	if _, ok := idx.IndexByKey("bsd"); ok {
		t.Error("IndexByKey(bsd) should miss")
	}
	if i, ok := idx.IndexByPart(map[string]any{"arch": "arm", "os": "mac"}); !ok || i != 2 {
		t.Errorf("IndexByPart = %d, %v", i, ok)
	}
}

func TestIndex_NameKey(t *testing.T) {
	d := Domain{Type: TypeSet, Key: "name", Partitions: []Partition{{Name: "a", Value: 10.0}, {Name: "b", Value: 20.0}}}
	idx := NewIndex(d)
	if i, ok := idx.IndexByKey("b"); !ok || i != 1 {
		t.Errorf("IndexByKey(b) = %d, %v", i, ok)
	}
	if _, ok := idx.IndexByKey(10.0); ok {
		t.Error("value lookups must not match under a name key")
	}
}

func TestNewSetDomain(t *testing.T) {
	d := NewSetDomain(TypeDefault, []any{"a", "b"})
	if d.Size() != 2 || d.Partitions[1].Value != "b" || d.Key != DefaultKey {
		t.Errorf("NewSetDomain = %+v", d)
	}
}

func TestEdge_WithDomainCopies(t *testing.T) {
	e := Edge{Name: "color", Value: "color_field", Domain: Domain{Type: TypeDefault}}
	bound := e.WithDomain(NewSetDomain(TypeDefault, []any{"red"}))
	if e.Domain.Size() != 0 {
		t.Error("original edge must not change")
	}
	if bound.Domain.Size() != 1 {
		t.Error("bound edge must carry new domain")
	}
}

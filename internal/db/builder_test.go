package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_VectorHNSW(t *testing.T) {
	idx := NewIndex("mfgchat:project:idx").
		Prefix("mfgchat:project:").
		Tag("main_service").
		VectorHNSW(VectorField, 768, DistanceCosine, 16, 200).
		MustBuild()

	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	f, ok := idx.VectorField()
	if !ok {
		t.Fatal("expected vector field")
	}
	if f.VectorAlgo != VectorHNSW {
		t.Errorf("algo = %q, want HNSW", f.VectorAlgo)
	}
	if f.VectorDim != 768 {
		t.Errorf("dim = %d, want 768", f.VectorDim)
	}
	if f.Alias != "vector" {
		t.Errorf("alias = %q, want vector", f.Alias)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx := NewIndex("flat-idx").
		VectorFlat(VectorField, 3, DistanceCosine).
		MustBuild()

	f, _ := idx.VectorField()
	if f.VectorAlgo != VectorFlat {
		t.Errorf("algo = %q, want FLAT", f.VectorAlgo)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").VectorFlat("v", 3, DistanceCosine).Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").VectorFlat("v", 0, DistanceCosine).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name: "no vector",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Tag("x").Build()
			},
			wantErr: "exactly one vector field",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").VectorFlat("v", 3, DistanceCosine).Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		Prefix("doc:").
		Tag("cat").
		VectorFlat("vec", 512, DistanceCosine).
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE my-idx ON HASH PREFIX 1 doc:") {
		t.Errorf("unexpected command %q", s)
	}
	if !strings.Contains(s, "vec AS vector VECTOR FLAT") {
		t.Errorf("missing vector clause in %q", s)
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "field1", Type: IndexFieldTag},
			{Name: "field1", Type: IndexFieldTag},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	v := []float32{0.25, -1, 3.5}
	got := DecodeVector(EncodeVector(v))
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], v[i])
		}
	}
	if len(EncodeVector(v)) != 12 {
		t.Errorf("expected 12 bytes, got %d", len(EncodeVector(v)))
	}
}

func TestDistanceToSimilarity(t *testing.T) {
	tests := map[float64]float64{0: 1, 0.5: 0.5, 1: 0, 1.7: 0, -0.1: 1}
	for d, want := range tests {
		if got := DistanceToSimilarity(d); got != want {
			t.Errorf("DistanceToSimilarity(%v) = %v, want %v", d, got, want)
		}
	}
}

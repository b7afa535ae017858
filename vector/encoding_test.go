package vector

import "testing"

func TestEncodeDecodeEmbedding_RoundTrip(t *testing.T) {
	orig := []float32{0.0, 1.5, -2.25, 3.75}

	b, err := EncodeEmbedding(orig)
	if err != nil {
		t.Fatalf("EncodeEmbedding failed: %v", err)
	}

	decoded, err := DecodeEmbedding(b)
	if err != nil {
		t.Fatalf("DecodeEmbedding failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if got, want := decoded[i], orig[i]; got != want {
			t.Fatalf("decoded[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestEncodeDecodeEmbedding_Empty(t *testing.T) {
	b, err := EncodeEmbedding(nil)
	if err != nil {
		t.Fatalf("EncodeEmbedding(nil) failed: %v", err)
	}
	if len(b) != 0 {
		t.Fatalf("expected empty blob for nil slice, got len=%d", len(b))
	}

	vec, err := DecodeEmbedding(nil)
	if err != nil {
		t.Fatalf("DecodeEmbedding(nil) failed: %v", err)
	}
	if len(vec) != 0 {
		t.Fatalf("expected empty slice for nil blob, got len=%d", len(vec))
	}
}


func TestDecodeRecord(t *testing.T) {
	blob, _ := EncodeEmbedding([]float32{1, 2, 3})

	vec, err := DecodeRecord(Record{ID: 1, Vector: blob, Dim: 3})
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if len(vec) != 3 || vec[2] != 3 {
		t.Fatalf("DecodeRecord = %v, want [1 2 3]", vec)
	}

	for _, r := range []Record{
		{ID: 2, Vector: blob, Dim: 4},
		{ID: 3, Vector: blob[:5], Dim: 3},
		{ID: 4, Vector: nil, Dim: 0},
	} {
		_, err := DecodeRecord(r)
		if _, ok := err.(*MalformedRecordError); !ok {
			t.Fatalf("DecodeRecord(%d) err = %v, want *MalformedRecordError", r.ID, err)
		}
	}
}

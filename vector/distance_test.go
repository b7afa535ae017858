package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{1, 0}

	// Orthogonal vectors -> similarity 0
	if sim, err := CosineSimilarity(a, b); err != nil || sim != 0 {
		t.Fatalf("CosineSimilarity(a,b) = %v, %v; want 0, nil", sim, err)
	}

	// Identical vectors -> similarity 1
	if sim, err := CosineSimilarity(a, c); err != nil || sim != 1 {
		t.Fatalf("CosineSimilarity(a,c) = %v, %v; want 1, nil", sim, err)
	}
}

func TestL2Distance(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	d, err := L2Distance(a, b)
	if err != nil {
		t.Fatalf("L2Distance failed: %v", err)
	}
	if d != 5 {
		t.Fatalf("L2Distance(0,0)-(3,4) = %v, want 5", d)
	}
	d2, err := SquaredL2(a, b)
	if err != nil {
		t.Fatalf("SquaredL2 failed: %v", err)
	}
	if d2 != 25 {
		t.Fatalf("SquaredL2(0,0)-(3,4) = %v, want 25", d2)
	}
	if _, err := SquaredL2(a, []float32{1}); err == nil {
		t.Fatalf("SquaredL2 with mismatched dims should fail")
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)
	if math.Abs(float64(n[0])-0.6) > 1e-6 || math.Abs(float64(n[1])-0.8) > 1e-6 {
		t.Fatalf("Normalize(3,4) = %v, want [0.6 0.8]", n)
	}
	if v[0] != 3 || v[1] != 4 {
		t.Fatalf("Normalize modified its input: %v", v)
	}

	zero := Normalize([]float32{0, 0, 0})
	for i, x := range zero {
		if x != 0 || math.IsNaN(float64(x)) {
			t.Fatalf("Normalize(zero)[%d] = %v, want 0", i, x)
		}
	}
}

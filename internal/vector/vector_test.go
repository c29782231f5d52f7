package vector

import (
	"errors"
	"math"
	"testing"

	interrors "github.com/streed/smart-notes/internal/errors"
)

const epsilon = 1e-9

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 2, 3}, []float64{-1, -2, -3}, -1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"zero query", []float64{0, 0}, []float64{1, 1}, 0},
		{"zero note", []float64{3, 4}, []float64{0, 0}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
		{"known angle", []float64{1, 1}, []float64{1, 0}, 1 / math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > epsilon {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCosineSimilarityProperties(t *testing.T) {
	vectors := [][]float64{
		{0.1, 0.2, 0.3},
		{-5, 2.5, 1e-3},
		{100, -100, 42},
		{0.7, 0, 0.7},
	}

	for i, a := range vectors {
		self := CosineSimilarity(a, a)
		if math.Abs(self-1) > 1e-9 {
			t.Errorf("self-similarity of vector %d = %v, want 1", i, self)
		}
		for j, b := range vectors {
			ab := CosineSimilarity(a, b)
			ba := CosineSimilarity(b, a)
			if ab != ba {
				t.Errorf("similarity not symmetric for %d,%d: %v vs %v", i, j, ab, ba)
			}
			if ab < -1-epsilon || ab > 1+epsilon {
				t.Errorf("similarity out of range for %d,%d: %v", i, j, ab)
			}
		}
	}
}

func TestNorm(t *testing.T) {
	if got := Norm([]float64{3, 4}); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := Norm(nil); got != 0 {
		t.Errorf("Norm(nil) = %v, want 0", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	original := []float64{0.25, -1.5, 3}
	encoded, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded != "[0.25,-1.5,3]" {
		t.Errorf("unexpected encoding %q", encoded)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("component %d: got %v, want %v", i, decoded[i], original[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	encoded, err := Encode(nil)
	if err != nil || encoded != "" {
		t.Errorf("Encode(nil) = %q, %v", encoded, err)
	}
	decoded, err := Decode("")
	if err != nil || decoded != nil {
		t.Errorf("Decode(\"\") = %v, %v", decoded, err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "abc"},
		{"object", `{"a":1}`},
		{"strings", `["x","y"]`},
		{"empty array", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.input); err == nil {
				t.Errorf("Decode(%q) should fail", tt.input)
			}
		})
	}

	if _, err := Decode("[]"); !errors.Is(err, interrors.ErrInvalidEmbeddingLength) {
		t.Errorf("expected ErrInvalidEmbeddingLength, got %v", err)
	}
}

func TestFromFloat32(t *testing.T) {
	if FromFloat32(nil) != nil {
		t.Error("FromFloat32(nil) should be nil")
	}
	got := FromFloat32([]float32{0.5, 2})
	if len(got) != 2 || got[0] != 0.5 || got[1] != 2 {
		t.Errorf("unexpected conversion %v", got)
	}
}

// Package vector holds the embedding math and the on-disk encoding of
// embedding vectors.
package vector

import (
	"encoding/json"
	"fmt"
	"math"

	interrors "github.com/streed/smart-notes/internal/errors"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|). It returns 0 when either
// vector has zero magnitude. Callers must pass vectors of equal length.
func CosineSimilarity(a, b []float64) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (na * nb)
}

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// FromFloat32 widens a provider vector.
func FromFloat32(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Encode serialises an embedding as a JSON array. A nil or empty vector
// encodes to an empty string so the column can be stored as NULL.
func Encode(v []float64) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored JSON array. An empty string decodes to nil.
func Decode(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	if len(v) == 0 {
		return nil, interrors.ErrInvalidEmbeddingLength
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("embedding contains non-finite value: %w", interrors.ErrInvalidEmbeddingLength)
		}
	}
	return v, nil
}

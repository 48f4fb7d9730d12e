// Package inference is the boundary to text-classification backends. A
// backend loads a model by identifier and returns a callable that maps text
// to a RawPrediction.
package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Prediction is one label with its confidence in [0,1].
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RawPrediction holds a backend result in one of the two shapes pipelines
// return for a single input: a flat list, or a list wrapping lists (the
// batch form). The zero value is an empty flat prediction.
type RawPrediction struct {
	flat   []Prediction
	nested [][]Prediction
}

// Flat builds a flat RawPrediction.
func Flat(p ...Prediction) RawPrediction { return RawPrediction{flat: p} }

// Nested builds a batch-shaped RawPrediction.
func Nested(batches ...[]Prediction) RawPrediction { return RawPrediction{nested: batches} }

// IsNested reports whether the first element is itself a sequence.
func (r RawPrediction) IsNested() bool { return len(r.nested) > 0 }

// Normalize returns exactly one flat sequence. A nested value is unwrapped
// one level by taking its first element; anything else is returned as is.
// Scores are never rescaled.
func (r RawPrediction) Normalize() []Prediction {
	if r.IsNested() {
		return r.nested[0]
	}
	return r.flat
}

// UnmarshalJSON accepts `[{...}]`, `[[{...}]]`, a bare `{...}` and `[]`.
func (r *RawPrediction) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = RawPrediction{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '{' {
		var p Prediction
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("prediction: %w", err)
		}
		r.flat = []Prediction{p}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	if first := bytes.TrimSpace(items[0]); len(first) > 0 && first[0] == '[' {
		return json.Unmarshal(b, &r.nested)
	}
	return json.Unmarshal(b, &r.flat)
}

// MarshalJSON writes the value back in its original shape.
func (r RawPrediction) MarshalJSON() ([]byte, error) {
	if r.IsNested() {
		return json.Marshal(r.nested)
	}
	if r.flat == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.flat)
}

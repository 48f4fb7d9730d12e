package evaluation

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/mhai-lab/mhai/inference"
)

// UnknownCategory collects every label missing from a taxonomy.
const UnknownCategory = "unknown"

// Taxonomy maps fine-grained labels onto coarse categories. It is immutable
// once built.
type Taxonomy struct {
	name  string
	table map[string]string
}

// NewTaxonomy copies table, so later changes to it do not leak in.
func NewTaxonomy(name string, table map[string]string) Taxonomy {
	return Taxonomy{name: name, table: maps.Clone(table)}
}

func (t Taxonomy) Name() string { return t.name }

// Category resolves label, falling back to UnknownCategory.
func (t Taxonomy) Category(label string) string {
	if c, ok := t.table[label]; ok {
		return c
	}
	return UnknownCategory
}

// Categories lists the distinct categories of t, sorted.
func (t Taxonomy) Categories() []string {
	seen := map[string]struct{}{}
	for _, c := range t.table {
		seen[c] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Labels lists the fine-grained labels of t, sorted.
func (t Taxonomy) Labels() []string { return slices.Sorted(maps.Keys(t.table)) }

func (t Taxonomy) Len() int { return len(t.table) }

// MentBERTTaxonomy collapses mentBERT conditions onto core categories.
var MentBERTTaxonomy = NewTaxonomy("mentbert", map[string]string{
	"Anxiety":       "anxiety",
	"Depression":    "depression",
	"Schizophrenia": "psychosis",
	"Borderline":    "other",
	"Asperger":      "other",
	"Bipolar":       "other",
	"OCD":           "anxiety",
	"PTSD":          "anxiety",
	"ADHD":          "other",
	"Autism":        "other",
	"None":          "none",
})

type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CategoryScores is ordered by score, highest first. Equal scores are
// ordered by category name so the order never depends on map iteration.
type CategoryScores []CategoryScore

// MapToCategories sums the scores of every label that resolves to the same
// category. Labels are visited in sorted order, which keeps float sums
// reproducible.
func MapToCategories(scores Scores, t Taxonomy) CategoryScores {
	acc := map[string]float64{}
	for _, label := range slices.Sorted(maps.Keys(scores)) {
		acc[t.Category(label)] += scores[label]
	}
	out := make(CategoryScores, 0, len(acc))
	for c, s := range acc {
		out = append(out, CategoryScore{Category: c, Score: s})
	}
	slices.SortFunc(out, func(a, b CategoryScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// Top is the classification decision: the first entry.
func (cs CategoryScores) Top() (CategoryScore, bool) {
	if len(cs) == 0 {
		return CategoryScore{}, false
	}
	return cs[0], true
}

func (cs CategoryScores) Get(category string) (float64, bool) {
	for _, c := range cs {
		if c.Category == category {
			return c.Score, true
		}
	}
	return 0, false
}

func (cs CategoryScores) Map() map[string]float64 {
	out := make(map[string]float64, len(cs))
	for _, c := range cs {
		out[c.Category] = c.Score
	}
	return out
}

func (cs CategoryScores) Total() float64 {
	var t float64
	for _, c := range cs {
		t += c.Score
	}
	return t
}

// MarshalJSON writes an object whose keys keep the ranking order.
func (cs CategoryScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Category)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object written by MarshalJSON, keeping key order.
func (cs *CategoryScores) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*cs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category scores: want object, got %v", tok)
	}
	out := CategoryScores{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("category scores: %q: %w", tok, err)
		}
		out = append(out, CategoryScore{Category: tok.(string), Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*cs = out
	return nil
}

// CategoryClassifier evaluates text with a mapping evaluator and reduces
// the result onto a taxonomy.
type CategoryClassifier struct {
	*TextEvaluator
	taxonomy Taxonomy
}

// MentBERTModel is the mentBERT checkpoint used by NewMentBERTClassifier.
const MentBERTModel = "reab5555/mentBERT"

// NewCategoryClassifier builds a classifier over any mapping kind.
func NewCategoryClassifier(ctx context.Context, kind Kind, cfg Config, p inference.Provider, t Taxonomy) (*CategoryClassifier, error) {
	ev, err := New(ctx, kind, cfg, p)
	if err != nil {
		return nil, err
	}
	return &CategoryClassifier{TextEvaluator: ev, taxonomy: t}, nil
}

// NewMentBERTClassifier is the mental evaluator bound to mentBERT on device
// 0 with the MentBERT taxonomy.
func NewMentBERTClassifier(ctx context.Context, p inference.Provider) (*CategoryClassifier, error) {
	cfg := Config{Model: MentBERTModel, Params: map[string]any{"device": 0}}
	return NewCategoryClassifier(ctx, KindMental, cfg, p, MentBERTTaxonomy)
}

func (c *CategoryClassifier) Taxonomy() Taxonomy { return c.taxonomy }

// MapToCoreCategories reduces raw scores with the classifier's taxonomy.
func (c *CategoryClassifier) MapToCoreCategories(raw Scores) CategoryScores {
	return MapToCategories(raw, c.taxonomy)
}

// Classify evaluates text and maps its scores. Ranked results are turned
// into scores first; a repeated label keeps its last score.
func (c *CategoryClassifier) Classify(ctx context.Context, text string) (CategoryScores, *Result, error) {
	res, err := c.Evaluate(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	scores := res.Scores
	if scores == nil {
		scores = make(Scores, len(res.Labels))
		for _, p := range res.Labels {
			scores[p.Label] = p.Score
		}
	}
	return c.MapToCoreCategories(scores), res, nil
}

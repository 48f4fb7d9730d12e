// Package evaluation wraps text-classification models behind one Evaluate
// call and reduces fine-grained label scores onto small category taxonomies.
package evaluation

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/mhai-lab/mhai/inference"
)

// Evaluator is a configured classifier over text.
type Evaluator interface {
	Name() string
	// LoadModel acquires a fresh model handle without touching the one the
	// evaluator already holds.
	LoadModel(ctx context.Context) (inference.Model, error)
	Evaluate(ctx context.Context, text string) (*Result, error)
}

// Scores maps label to score.
type Scores map[string]float64

// Result is the output of one Evaluate call. Labels holds the single best
// entry for sentiment and the full ranked list for emotion; Scores is set
// for the mapping kinds.
type Result struct {
	Kind   Kind                   `json:"kind"`
	Model  string                 `json:"model"`
	Labels []inference.Prediction `json:"labels,omitempty"`
	Scores Scores                 `json:"scores,omitempty"`
}

// Best returns the highest scoring label of r regardless of its shape.
func (r *Result) Best() (inference.Prediction, bool) {
	if len(r.Labels) > 0 {
		return topPrediction(r.Labels), true
	}
	if len(r.Scores) == 0 {
		return inference.Prediction{}, false
	}
	preds := make([]inference.Prediction, 0, len(r.Scores))
	for _, l := range slices.Sorted(maps.Keys(r.Scores)) {
		preds = append(preds, inference.Prediction{Label: l, Score: r.Scores[l]})
	}
	return topPrediction(preds), true
}

// TextEvaluator is the one Evaluator implementation; kinds differ only in
// their Profile.
type TextEvaluator struct {
	profile  Profile
	cfg      Config
	provider inference.Provider
	model    inference.Model
	log      *log.Entry
}

var _ Evaluator = (*TextEvaluator)(nil)

// New resolves cfg against the kind defaults and loads the model once.
func New(ctx context.Context, kind Kind, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	prof, err := ProfileFor(kind)
	if err != nil {
		return nil, err
	}
	return NewWithProfile(ctx, prof, cfg, p)
}

// NewWithProfile is New for a caller supplied profile.
func NewWithProfile(ctx context.Context, prof Profile, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	e := &TextEvaluator{
		profile:  prof,
		cfg:      cfg.WithDefaults(prof.Defaults),
		provider: p,
		log:      log.WithField("component", "evaluator").WithField("kind", prof.Kind),
	}
	m, err := e.LoadModel(ctx)
	if err != nil {
		return nil, err
	}
	e.model = m
	e.log.WithFields(log.Fields{
		"model":       e.cfg.Model,
		"temperature": e.cfg.Temp(),
		"max_length":  e.cfg.OutputMaxLength,
	}).Info("model loaded")
	return e, nil
}

func NewSentiment(ctx context.Context, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	return New(ctx, KindSentiment, cfg, p)
}

func NewEmotion(ctx context.Context, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	return New(ctx, KindEmotion, cfg, p)
}

func NewMental(ctx context.Context, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	return New(ctx, KindMental, cfg, p)
}

func NewClinicalMental(ctx context.Context, cfg Config, p inference.Provider) (*TextEvaluator, error) {
	return New(ctx, KindClinical, cfg, p)
}

func (e *TextEvaluator) Name() string { return string(e.profile.Kind) }

func (e *TextEvaluator) Kind() Kind { return e.profile.Kind }

// Config returns a copy of the resolved configuration.
func (e *TextEvaluator) Config() Config { return e.cfg.clone() }

func (e *TextEvaluator) LoadModel(ctx context.Context) (inference.Model, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%s: %w: %w", e.Name(), ErrModelLoad, inference.ErrUnavailable)
	}
	m, err := e.provider.Load(ctx, e.cfg.Model, e.profile.Task, e.loadParams())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s: %w", e.Name(), ErrModelLoad, e.cfg.Model, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%s: %w: %s: provider returned no model", e.Name(), ErrModelLoad, e.cfg.Model)
	}
	return m, nil
}

// loadParams puts the kind's top_k under the caller's params; a caller
// supplied top_k wins.
func (e *TextEvaluator) loadParams() map[string]any {
	out := make(map[string]any, len(e.cfg.Params)+1)
	if e.profile.TopK > 0 {
		out["top_k"] = e.profile.TopK
	} else {
		out["top_k"] = nil
	}
	for k, v := range e.cfg.Params {
		out[k] = v
	}
	return out
}

// Evaluate runs the model on text and shapes the normalized output for the
// evaluator's kind. Backend errors come back wrapped but otherwise untouched.
func (e *TextEvaluator) Evaluate(ctx context.Context, text string) (*Result, error) {
	raw, err := e.model.Predict(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s evaluate: %w", e.Name(), err)
	}
	preds := raw.Normalize()
	if len(preds) == 0 {
		return nil, fmt.Errorf("%s evaluate: %s: %w", e.Name(), e.cfg.Model, ErrEmptyPrediction)
	}
	e.log.WithFields(log.Fields{"labels": len(preds), "nested": raw.IsNested()}).Debug("prediction")

	res := &Result{Kind: e.profile.Kind, Model: e.cfg.Model}
	switch e.profile.Shape {
	case ShapeTop:
		best := topPrediction(preds)
		if len(e.cfg.Labels) > 0 && !slices.Contains(e.cfg.Labels, best.Label) {
			return nil, fmt.Errorf("%s evaluate: %w: %q not in %v", e.Name(), ErrUnexpectedLabel, best.Label, e.cfg.Labels)
		}
		best.Score = e.round(best.Score)
		res.Labels = []inference.Prediction{best}
	case ShapeRanked:
		ranked := make([]inference.Prediction, len(preds))
		for i, p := range preds {
			ranked[i] = inference.Prediction{Label: p.Label, Score: e.round(p.Score)}
		}
		slices.SortStableFunc(ranked, func(a, b inference.Prediction) int {
			return cmp.Compare(b.Score, a.Score)
		})
		res.Labels = ranked
	default:
		res.Scores = e.toScores(preds)
	}
	return res, nil
}

// toScores keeps the last score seen for a repeated label.
func (e *TextEvaluator) toScores(preds []inference.Prediction) Scores {
	out := make(Scores, len(preds))
	for _, p := range preds {
		out[p.Label] = e.round(p.Score)
	}
	return out
}

func (e *TextEvaluator) round(v float64) float64 {
	if e.profile.RoundDigits <= 0 {
		return v
	}
	pow := math.Pow(10, float64(e.profile.RoundDigits))
	return math.Round(v*pow) / pow
}

// topPrediction returns the highest score; the earliest entry wins a tie.
func topPrediction(preds []inference.Prediction) inference.Prediction {
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best
}

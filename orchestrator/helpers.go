package orchestrator

import (
	"cmp"
	"slices"

	"github.com/mhai-lab/mhai/evaluation"
)

func summarize(items []Item, skipped int) Summary {
	s := Summary{
		Posts:          len(items),
		Skipped:        skipped,
		MeanScores:     map[evaluation.Kind]map[string]float64{},
		TopLabels:      map[evaluation.Kind]map[string]int{},
		CategoryCounts: map[string]int{},
	}
	if len(items) == 0 {
		return s
	}

	catSums := map[string]float64{}
	for _, it := range items {
		for kind, res := range it.Results {
			if s.TopLabels[kind] == nil {
				s.TopLabels[kind] = map[string]int{}
			}
			if reportsAllLabels(kind) {
				if s.MeanScores[kind] == nil {
					s.MeanScores[kind] = map[string]float64{}
				}
				for label, score := range labelScores(res) {
					s.MeanScores[kind][label] += score
				}
			}
			if best, ok := res.Best(); ok {
				s.TopLabels[kind][best.Label]++
			}
		}
		if it.Category != "" {
			s.CategoryCounts[it.Category]++
		}
		for _, c := range it.Categories {
			catSums[c.Category] += c.Score
		}
	}

	n := float64(len(items))
	for _, m := range s.MeanScores {
		for k := range m {
			m[k] /= n
		}
	}
	if len(catSums) > 0 {
		for c, v := range catSums {
			s.CategoryMeans = append(s.CategoryMeans, evaluation.CategoryScore{Category: c, Score: v / n})
		}
		slices.SortFunc(s.CategoryMeans, func(a, b evaluation.CategoryScore) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Category, b.Category)
		})
	}
	return s
}

// reportsAllLabels is false for single-best kinds, whose results carry only
// the winning label and so cannot be averaged per label.
func reportsAllLabels(kind evaluation.Kind) bool {
	prof, err := evaluation.ProfileFor(kind)
	return err != nil || prof.Shape != evaluation.ShapeTop
}

// labelScores flattens either result shape into label -> score.
func labelScores(r *evaluation.Result) map[string]float64 {
	if r.Scores != nil {
		return r.Scores
	}
	out := make(map[string]float64, len(r.Labels))
	for _, p := range r.Labels {
		out[p.Label] = p.Score
	}
	return out
}

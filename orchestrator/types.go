package orchestrator

import (
	"github.com/mhai-lab/mhai/clients"
	"github.com/mhai-lab/mhai/evaluation"
)

type Item struct {
	Post    clients.Post                           `json:"post"`
	Results map[evaluation.Kind]*evaluation.Result `json:"results"`
	// Categories is set when the pipeline has a classifier.
	Categories evaluation.CategoryScores `json:"categories,omitempty"`
	Category   string                    `json:"category,omitempty"`
}

type Summary struct {
	Posts   int `json:"posts"`
	Skipped int `json:"skipped"`
	// MeanScores is kind -> label -> mean score over evaluated posts. Kinds
	// that report a single best label are counted in TopLabels only.
	MeanScores map[evaluation.Kind]map[string]float64 `json:"mean_scores"`
	// TopLabels counts how often each label was the best one, per kind.
	TopLabels map[evaluation.Kind]map[string]int `json:"top_labels"`
	// CategoryCounts counts top categories.
	CategoryCounts map[string]int `json:"category_counts,omitempty"`
	// CategoryMeans is the mean aggregated score per category.
	CategoryMeans evaluation.CategoryScores `json:"category_means,omitempty"`
}

type Report struct {
	SessionID string  `json:"session_id"`
	Source    string  `json:"source"`
	Items     []Item  `json:"items"`
	Summary   Summary `json:"summary"`
}

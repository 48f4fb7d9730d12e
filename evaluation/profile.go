package evaluation

import (
	"fmt"
	"slices"

	"github.com/mhai-lab/mhai/inference"
)

type Kind string

const (
	KindSentiment Kind = "sentiment"
	KindEmotion   Kind = "emotion"
	KindMental    Kind = "mental"
	KindClinical  Kind = "clinical"
)

// Shape is how an evaluator reports the normalized prediction.
type Shape int

const (
	// ShapeTop keeps only the highest scoring label.
	ShapeTop Shape = iota
	// ShapeRanked keeps every label, ordered by score.
	ShapeRanked
	// ShapeMapping keeps every label as label -> score.
	ShapeMapping
)

// Profile is everything that distinguishes one evaluator kind from another.
type Profile struct {
	Kind     Kind
	Task     inference.Task
	Defaults Config
	Shape    Shape
	// RoundDigits rounds scores to that many decimals; zero leaves them alone.
	RoundDigits int
	// TopK is sent to the backend as top_k; zero asks for every label.
	TopK int
}

var profiles = map[Kind]Profile{
	KindSentiment: {
		Kind: KindSentiment,
		Task: inference.TaskSentiment,
		Defaults: Config{
			Model:           "distilbert-base-uncased-finetuned-sst-2-english",
			Temperature:     Float64(0),
			OutputMaxLength: 2,
			Labels:          []string{"POSITIVE", "NEGATIVE"},
		},
		Shape: ShapeTop,
		TopK:  1,
	},
	KindEmotion: {
		Kind: KindEmotion,
		Task: inference.TaskTextClassification,
		Defaults: Config{
			Model:           "j-hartmann/emotion-english-distilroberta-base",
			Temperature:     Float64(0),
			OutputMaxLength: 6,
		},
		Shape: ShapeRanked,
	},
	KindMental: {
		Kind: KindMental,
		Task: inference.TaskTextClassification,
		Defaults: Config{
			Model:           "SamLowe/roberta-base-go_emotions",
			Temperature:     Float64(0),
			OutputMaxLength: 6,
		},
		Shape: ShapeMapping,
	},
	KindClinical: {
		Kind: KindClinical,
		Task: inference.TaskTextClassification,
		Defaults: Config{
			Model:           "mental/mental-bert-base-uncased",
			Temperature:     Float64(0),
			OutputMaxLength: 8,
		},
		Shape:       ShapeMapping,
		RoundDigits: 4,
	},
}

// Kinds lists the known evaluator kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindSentiment, KindEmotion, KindMental, KindClinical}
}

// ParseKind accepts a kind name as used in config files and on the CLI.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds(), k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// ProfileFor returns the built-in profile of kind.
func ProfileFor(kind Kind) (Profile, error) {
	p, ok := profiles[kind]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	p.Defaults = p.Defaults.clone()
	return p, nil
}

package evaluation

import "errors"

var (
	// ErrModelLoad wraps any failure to acquire a model handle. The evaluator
	// is unusable afterwards and nothing is retried.
	ErrModelLoad = errors.New("model load failed")

	// ErrEmptyPrediction means the backend returned no labels at all, which
	// is treated as a model configuration problem rather than "no signal".
	ErrEmptyPrediction = errors.New("empty prediction")

	// ErrUnexpectedLabel means a single-label evaluator got a label outside
	// its configured vocabulary.
	ErrUnexpectedLabel = errors.New("unexpected label")

	ErrUnknownKind = errors.New("unknown evaluator kind")
)

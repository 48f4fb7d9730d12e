package inference

import (
	"context"
	"errors"
)

// Task names the pipeline kind a model is loaded for.
type Task string

const (
	TaskSentiment          Task = "sentiment-analysis"
	TaskTextClassification Task = "text-classification"
)

// ErrUnavailable is returned by providers that cannot serve a model at all.
var ErrUnavailable = errors.New("inference backend unavailable")

// Model maps text to a prediction. Whether it is safe for concurrent use is
// up to the backend.
type Model interface {
	Predict(ctx context.Context, text string) (RawPrediction, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, text string) (RawPrediction, error)

func (f ModelFunc) Predict(ctx context.Context, text string) (RawPrediction, error) {
	return f(ctx, text)
}

// Provider loads models. params are passed through to the backend untouched.
type Provider interface {
	Load(ctx context.Context, model string, task Task, params map[string]any) (Model, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, model string, task Task, params map[string]any) (Model, error)

func (f ProviderFunc) Load(ctx context.Context, model string, task Task, params map[string]any) (Model, error) {
	return f(ctx, model, task, params)
}

// Static is an in-process Provider serving fixed models by identifier.
// Unknown identifiers fail to load.
type Static map[string]Model

func (s Static) Load(_ context.Context, model string, _ Task, _ map[string]any) (Model, error) {
	m, ok := s[model]
	if !ok {
		return nil, &UnknownModelError{Model: model}
	}
	return m, nil
}

// UnknownModelError reports an identifier the backend cannot resolve.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string { return "unknown model " + e.Model }

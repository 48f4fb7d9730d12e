package evaluation

import (
	"context"
	"fmt"

	"github.com/mhai-lab/mhai/inference"
)

// Registry holds one loaded evaluator per kind.
type Registry struct {
	evaluators map[Kind]*TextEvaluator
	order      []Kind
}

// NewRegistry loads an evaluator for each kind, using overrides[kind] when
// present. The first load failure aborts.
func NewRegistry(ctx context.Context, kinds []Kind, overrides map[Kind]Config, p inference.Provider) (*Registry, error) {
	r := &Registry{evaluators: make(map[Kind]*TextEvaluator, len(kinds))}
	for _, k := range kinds {
		if _, dup := r.evaluators[k]; dup {
			continue
		}
		ev, err := New(ctx, k, overrides[k], p)
		if err != nil {
			return nil, err
		}
		r.evaluators[k] = ev
		r.order = append(r.order, k)
	}
	return r, nil
}

func (r *Registry) Get(k Kind) (*TextEvaluator, error) {
	ev, ok := r.evaluators[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q not loaded", ErrUnknownKind, k)
	}
	return ev, nil
}

// Kinds returns the loaded kinds in load order.
func (r *Registry) Kinds() []Kind { return append([]Kind(nil), r.order...) }

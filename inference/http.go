package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	log "github.com/sirupsen/logrus"

	"github.com/mhai-lab/mhai/clients"
)

// HTTPProvider loads models on a remote inference server through the
// /models/{id}/load and /models/{id}/predict endpoints.
type HTTPProvider struct {
	http  *clients.HTTP
	url   string
	token string
	log   *log.Entry
}

func NewHTTPProvider(h *clients.HTTP, url, token string) *HTTPProvider {
	return &HTTPProvider{
		http:  h,
		url:   url,
		token: token,
		log:   log.WithField("component", "inference"),
	}
}

func (p *HTTPProvider) Load(ctx context.Context, model string, task Task, params map[string]any) (Model, error) {
	if p.url == "" {
		return nil, fmt.Errorf("%w: no inference url configured", ErrUnavailable)
	}
	resp, err := p.http.LoadModel(ctx, p.url, p.token, model, clients.LoadReq{
		Task:    string(task),
		Options: maps.Clone(params),
	})
	var se *clients.StatusError
	if errors.As(err, &se) && se.NotFound() {
		return nil, &UnknownModelError{Model: model}
	}
	if err != nil {
		return nil, err
	}
	p.log.WithFields(log.Fields{"model": resp.ModelID, "task": resp.Task, "labels": len(resp.Labels)}).Debug("model ready")
	return &httpModel{p: p, model: model}, nil
}

type httpModel struct {
	p     *HTTPProvider
	model string
}

func (m *httpModel) Predict(ctx context.Context, text string) (RawPrediction, error) {
	body, err := m.p.http.Predict(ctx, m.p.url, m.p.token, m.model, text)
	if err != nil {
		return RawPrediction{}, err
	}
	var raw RawPrediction
	if err := json.Unmarshal(body, &raw); err != nil {
		return RawPrediction{}, fmt.Errorf("predict %s decode: %w", m.model, err)
	}
	return raw, nil
}

package clients

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// --- Inference server (/models/{id}/load, /models/{id}/predict) ---
type LoadReq struct {
	Task    string         `json:"task"`
	Options map[string]any `json:"options,omitempty"`
}
type LoadResp struct {
	ModelID string   `json:"model_id"`
	Task    string   `json:"task"`
	Labels  []string `json:"labels,omitempty"`
}

type PredictReq struct {
	Inputs string `json:"inputs"`
}

// modelURL keeps the org/name slash of hub identifiers as a path separator.
func modelURL(base, model, action string) string {
	segs := strings.Split(model, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/models/" + strings.Join(segs, "/") + "/" + action
}

// LoadModel asks the inference server to prepare model for task.
func (h *HTTP) LoadModel(ctx context.Context, base, token, model string, req LoadReq) (*LoadResp, error) {
	var out LoadResp
	if err := h.postJSON(ctx, "load "+model, modelURL(base, model, "load"), token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict returns the undecoded prediction body. Servers answer either a flat
// list of {label, score} or a list wrapping one such list.
func (h *HTTP) Predict(ctx context.Context, base, token, model, text string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := h.postJSON(ctx, "predict "+model, modelURL(base, model, "predict"), token, PredictReq{Inputs: text}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhai-lab/mhai/clients"
	"github.com/mhai-lab/mhai/inference"
)

func newInferenceServer(t *testing.T, predictBody string) (*httptest.Server, *clients.LoadReq) {
	t.Helper()
	var gotLoad clients.LoadReq
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/models/known/model/load":
			_ = json.NewDecoder(r.Body).Decode(&gotLoad)
			_ = json.NewEncoder(w).Encode(clients.LoadResp{ModelID: "known/model", Task: gotLoad.Task})
		case r.URL.Path == "/models/known/model/predict":
			var req clients.PredictReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Inputs == "" {
				http.Error(w, "no inputs", http.StatusBadRequest)
				return
			}
			w.Write([]byte(predictBody))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &gotLoad
}

func TestHTTPProviderLoadAndPredict(t *testing.T) {
	srv, gotLoad := newInferenceServer(t, `[[{"label":"joy","score":0.9},{"label":"anger","score":0.1}]]`)
	p := inference.NewHTTPProvider(clients.NewHTTP(), srv.URL, "secret")

	m, err := p.Load(context.Background(), "known/model", inference.TaskTextClassification, map[string]any{"device": 0, "top_k": nil})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotLoad.Task != "text-classification" {
		t.Errorf("task = %q", gotLoad.Task)
	}
	if _, ok := gotLoad.Options["device"]; !ok {
		t.Errorf("options not passed through: %v", gotLoad.Options)
	}

	raw, err := m.Predict(context.Background(), "I love this!")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !raw.IsNested() {
		t.Error("expected nested prediction")
	}
	if got := raw.Normalize(); len(got) != 2 || got[0].Label != "joy" {
		t.Errorf("got %v", got)
	}
}

func TestHTTPProviderUnknownModel(t *testing.T) {
	srv, _ := newInferenceServer(t, `[]`)
	p := inference.NewHTTPProvider(clients.NewHTTP(), srv.URL, "secret")

	_, err := p.Load(context.Background(), "missing", inference.TaskSentiment, nil)
	var ue *inference.UnknownModelError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}
	if ue.Model != "missing" {
		t.Errorf("model = %q", ue.Model)
	}
}

func TestHTTPProviderNoURL(t *testing.T) {
	p := inference.NewHTTPProvider(clients.NewHTTP(), "", "")
	_, err := p.Load(context.Background(), "any", inference.TaskSentiment, nil)
	if !errors.Is(err, inference.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPProviderBackendErrorPropagates(t *testing.T) {
	srv, _ := newInferenceServer(t, `not json`)
	p := inference.NewHTTPProvider(clients.NewHTTP(), srv.URL, "secret")
	m, err := p.Load(context.Background(), "known/model", inference.TaskSentiment, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Predict(context.Background(), "text"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := m.Predict(context.Background(), ""); err == nil {
		t.Error("expected 400 to surface")
	} else {
		var se *clients.StatusError
		if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
			t.Errorf("expected StatusError 400, got %v", err)
		}
	}
}

func TestStaticProvider(t *testing.T) {
	p := inference.Static{
		"m": inference.ModelFunc(func(context.Context, string) (inference.RawPrediction, error) {
			return inference.Flat(inference.Prediction{Label: "x", Score: 1}), nil
		}),
	}
	if _, err := p.Load(context.Background(), "other", inference.TaskSentiment, nil); err == nil {
		t.Error("expected error for unknown model")
	}
	m, err := p.Load(context.Background(), "m", inference.TaskSentiment, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	raw, _ := m.Predict(context.Background(), "t")
	if len(raw.Normalize()) != 1 {
		t.Errorf("got %v", raw.Normalize())
	}
}

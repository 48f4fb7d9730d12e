package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhai-lab/mhai/config"
	"github.com/mhai-lab/mhai/inference"
)

// useProvider swaps providerFor for the duration of the test.
func useProvider(t *testing.T, raw inference.RawPrediction) {
	t.Helper()
	prev := providerFor
	providerFor = func(*config.Root) inference.Provider {
		return inference.ProviderFunc(func(context.Context, string, inference.Task, map[string]any) (inference.Model, error) {
			return inference.ModelFunc(func(context.Context, string) (inference.RawPrediction, error) {
				return raw, nil
			}), nil
		})
	}
	t.Cleanup(func() { providerFor = prev })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "--version")
	if err != nil {
		t.Fatal(err)
	}
	if out != Version+"\n" {
		t.Errorf("--version printed %q", out)
	}
}

func TestEvaluateCommand(t *testing.T) {
	useProvider(t, inference.Nested([]inference.Prediction{{Label: "Depression", Score: 0.66666}, {Label: "None", Score: 0.33334}}))
	cfg := writeConfig(t, "pipeline:\n  log_level: error\n")

	out, err := execute(t, "", "--config", cfg, "evaluate", "-k", "clinical", "I feel hopeless")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var rows []struct {
		Text    string `json:"text"`
		Results map[string]struct {
			Scores map[string]float64 `json:"scores"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 1 || rows[0].Text != "I feel hopeless" {
		t.Fatalf("rows = %+v", rows)
	}
	if got := rows[0].Results["clinical"].Scores["Depression"]; got != 0.6667 {
		t.Errorf("Depression = %v", got)
	}
}

func TestEvaluateReadsStdin(t *testing.T) {
	useProvider(t, inference.Flat(inference.Prediction{Label: "POSITIVE", Score: 0.99}))
	cfg := writeConfig(t, "pipeline:\n  log_level: error\n")

	out, err := execute(t, "first\n\nsecond\n", "--config", cfg, "evaluate", "--kind", "sentiment")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestEvaluateUnknownKind(t *testing.T) {
	useProvider(t, inference.Flat())
	cfg := writeConfig(t, "pipeline:\n  log_level: error\n")
	if _, err := execute(t, "", "--config", cfg, "evaluate", "-k", "astrology", "x"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestClassifyCommand(t *testing.T) {
	useProvider(t, inference.Nested([]inference.Prediction{{Label: "Schizophrenia", Score: 0.8}, {Label: "None", Score: 0.2}}))
	cfg := writeConfig(t, "pipeline:\n  log_level: error\n")

	out, err := execute(t, "", "--config", cfg, "classify", "they are watching me")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, `"category": "psychosis"`) {
		t.Errorf("output = %s", out)
	}
}

func TestClassifyCustomTaxonomy(t *testing.T) {
	useProvider(t, inference.Nested([]inference.Prediction{{Label: "OCD", Score: 0.9}}))
	cfg := writeConfig(t, "pipeline:\n  log_level: error\ntaxonomy:\n  path: ../testdata/taxonomy.yaml\n  model: someone/custom-model\n")

	out, err := execute(t, "", "--config", cfg, "classify", "checking the lock again")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, `"category": "anxiety"`) {
		t.Errorf("output = %s", out)
	}
}

func TestMastodonCommand(t *testing.T) {
	useProvider(t, inference.Flat(inference.Prediction{Label: "POSITIVE", Score: 0.9}))
	masto := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/timelines/tag/wellbeing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id":"1","content":"<p>Walked by the sea</p>"},{"id":"2","content":"<p></p>"}]`))
	}))
	defer masto.Close()
	cfg := writeConfig(t, fmt.Sprintf("pipeline:\n  log_level: error\nmastodon:\n  instance: %s\n  token: tok\n", masto.URL))

	out, err := execute(t, "", "--config", cfg, "mastodon", "--hashtag", "wellbeing", "-k", "sentiment", "--persist=false")
	if err != nil {
		t.Fatalf("mastodon: %v", err)
	}
	var res struct {
		Source  string `json:"source"`
		Summary struct {
			Posts   int `json:"posts"`
			Skipped int `json:"skipped"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Source != "mastodon:#wellbeing" || res.Summary.Posts != 1 || res.Summary.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestMastodonConflictingFlags(t *testing.T) {
	useProvider(t, inference.Flat())
	cfg := writeConfig(t, "pipeline:\n  log_level: error\nmastodon:\n  token: tok\n")
	if _, err := execute(t, "", "--config", cfg, "mastodon", "--hashtag", "x", "--public"); err == nil {
		t.Error("expected error for --hashtag with --public")
	}
}

func TestTwitterRequiresDates(t *testing.T) {
	cfg := writeConfig(t, "pipeline:\n  log_level: error\n")
	if _, err := execute(t, "", "--config", cfg, "twitter", "--username", "esloch"); err == nil {
		t.Error("expected error without --from/--to")
	}
}

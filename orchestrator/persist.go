package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type PersistBundle struct {
	SessionID   string    `json:"session_id"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
}

func newSessionID() string {
	return "session_" + time.Now().Format("20060102-150405") + "_" + uuid.NewString()[:8]
}

// writeJSON replaces path with the indented encoding of v. The file is
// written next to path and renamed so readers never see a partial session.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// persist writes items.json and summary.json under outputsRoot/<session>.
func persist(outputsRoot string, r *Report) (itemsPath, summaryPath string, err error) {
	dir := filepath.Join(outputsRoot, r.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	itemsPath = filepath.Join(dir, "items.json")
	summaryPath = filepath.Join(dir, "summary.json")

	if err = writeJSON(itemsPath, r.Items); err != nil {
		return "", "", err
	}
	bundle := PersistBundle{
		SessionID:   r.SessionID,
		Source:      r.Source,
		GeneratedAt: time.Now(),
		Summary:     r.Summary,
	}
	if err = writeJSON(summaryPath, bundle); err != nil {
		return "", "", err
	}
	return itemsPath, summaryPath, nil
}

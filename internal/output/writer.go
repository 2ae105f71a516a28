package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"scenefinder/internal/models"
)

type manifestEntry struct {
	Scene      int    `json:"scene"`
	FrameIndex int    `json:"frame_index"`
	Reason     string `json:"reason"`
	Path       string `json:"path"`
}

// Writer saves matched scenes into the run directory: one scene_N.jpg
// per result, byte-identical to the sampled frame, plus a results.json
// manifest.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) WriteResults(records []models.ResultRecord) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory '%s': %v", w.dir, err)
	}

	entries := make([]manifestEntry, 0, len(records))
	for _, rec := range records {
		name := fmt.Sprintf("scene_%d.jpg", rec.Scene)
		path := filepath.Join(w.dir, name)
		if err := os.WriteFile(path, rec.Frame.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %v", name, err)
		}
		entries = append(entries, manifestEntry{
			Scene:      rec.Scene,
			FrameIndex: rec.Frame.Index,
			Reason:     rec.Reason,
			Path:       path,
		})
	}

	file, err := os.Create(filepath.Join(w.dir, "results.json"))
	if err != nil {
		return fmt.Errorf("failed to create results manifest: %v", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode results manifest: %v", err)
	}
	return nil
}

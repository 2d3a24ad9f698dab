package cli

import (
	"os"
	"path/filepath"
	"testing"
)

type batchRequest struct {
	Label     string  `json:"label" yaml:"label"`
	NumFrames int     `json:"num_frames" yaml:"num_frames"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"req.yaml": "label: yes\nnum_frames: 40\nratio: 0.5\n",
		"req.json": `{"label":"yes","num_frames":40,"ratio":0.5}`,
		"req.txt":  `{"label":"yes","num_frames":40,"ratio":0.5}`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			var req batchRequest
			if err := LoadRequest(path, &req); err != nil {
				t.Fatal(err)
			}
			if req.Label != "yes" || req.NumFrames != 40 || req.Ratio != 0.5 {
				t.Fatalf("got %+v", req)
			}
		})
	}
}

func TestLoadRequestErrors(t *testing.T) {
	var req batchRequest
	if err := LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"), &req); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := ParseRequest([]byte("{bad"), "req.json", &req); err == nil {
		t.Fatal("expected error for bad JSON")
	}
}

package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := []byte("gravity: 4.905\nmax_steps: 80\ndefault_version: v2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Gravity != 4.905 || got.MaxSteps != 80 || got.DefaultVersion != "v2" {
		t.Fatalf("overrides not applied: %+v", got)
	}
	// Unset fields keep their defaults.
	d := Defaults()
	if got.TicksPerStep != d.TicksPerStep || got.DefaultTask != d.DefaultTask {
		t.Fatalf("defaults lost in merge: %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

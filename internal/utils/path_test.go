package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFile(t *testing.T) {
	work := t.TempDir()
	exec := t.TempDir()
	data := t.TempDir()
	pr := &PathResolver{executableDir: exec, workingDir: work, dataDir: data}

	write := func(dir, name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		return path
	}

	inData := write(data, "countries.json")
	got, err := pr.ResolveFile("countries.json")
	if err != nil || got != inData {
		t.Errorf("expected %s, got %s (%v)", inData, got, err)
	}

	inWork := write(work, "countries.json")
	got, err = pr.ResolveFile("countries.json")
	if err != nil || got != inWork {
		t.Errorf("expected working dir to win, got %s (%v)", got, err)
	}

	got, err = pr.ResolveFile(inData)
	if err != nil || got != inData {
		t.Errorf("expected absolute path to be used as is, got %s (%v)", got, err)
	}

	got, err = pr.ResolveFile("missing.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if got != filepath.Join(work, "missing.json") {
		t.Errorf("expected working dir candidate for error reporting, got %s", got)
	}
}

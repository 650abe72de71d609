package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		if got := formatNumber(n); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("got %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Errorf("got %q", got)
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	missing := filepath.Join(dir, "missing.csv")
	files, err := expandGlobs([]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "a.csv"), missing})
	if err != nil {
		t.Fatalf("expandGlobs: %v", err)
	}

	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), missing}
	if len(files) != len(want) {
		t.Fatalf("got %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

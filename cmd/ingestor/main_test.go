package main

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.XLSX", "notes.md", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(t.TempDir(), "single.dat")
	if err := os.WriteFile(single, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := collectFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	sort.Strings(got)

	want := []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.XLSX"),
		filepath.Join(dir, "c.txt"),
		single,
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %s, got %s", want[i], got[i])
		}
	}
}

func TestCollectFiles_Missing(t *testing.T) {
	if _, err := collectFiles([]string{filepath.Join(t.TempDir(), "absent.csv")}); err == nil {
		t.Error("expected error for a missing path")
	}
}

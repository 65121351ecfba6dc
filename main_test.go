package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crosswd/xserver/config"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestLoadPuzzlesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	content := ">> \"p\" \"d\"\n(cat, \"Feline\", ACROSS, 0, 0)\n"
	if err := os.WriteFile(filepath.Join(dir, "sample.puzzle"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	puzzles, err := config.LoadPuzzles(dir)
	if err != nil {
		t.Fatalf("LoadPuzzles: %v", err)
	}
	if len(puzzles) != 1 || puzzles[0].ID != "sample" {
		t.Fatalf("puzzles = %v", puzzles)
	}
}

func TestLoadPuzzlesRejectsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.LoadPuzzles(dir); err == nil {
		t.Fatal("expected an error when no puzzle files are present")
	}
}

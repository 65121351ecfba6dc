// Package config loads the puzzle directory named on the command line and
// defines the default listening port; the flags and env themselves are
// resolved in main.go.
//
// Grounded on the teacher's game/config.Manager (game/config/manager.go):
// read a directory, skip anything that doesn't parse, cache the rest by id.
// Generalized here from one JSON config per name to one *.puzzle file per
// puzzle id (§6.1/§6.3).
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/crosswd/xserver/puzzle"
)

// DefaultPort is the listener port used when --port is not given (§6.2).
const DefaultPort = 4949

// Config is the resolved set of flags/env the server runs with.
type Config struct {
	PuzzleDir string
	Port      int
	Debug     bool
}

// LoadPuzzles reads every *.puzzle file directly inside dir, parsing and
// validating each with puzzle.Parse/puzzle.New. A file that fails to parse
// or fails the puzzle invariant is logged and skipped rather than aborting
// the whole load, matching the teacher's ListConfigs "skip invalid configs"
// behavior in game/config/manager.go.
func LoadPuzzles(dir string) ([]*puzzle.Puzzle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: reading puzzle directory: %w", err)
	}

	var puzzles []*puzzle.Puzzle
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".puzzle") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".puzzle")
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[config] skipping %s: %v", entry.Name(), err)
			continue
		}
		parsed, err := puzzle.Parse(string(data))
		if err != nil {
			log.Printf("[config] skipping %s: %v", entry.Name(), err)
			continue
		}
		p, err := puzzle.New(id, parsed.Name, parsed.Description, parsed.Entries)
		if err != nil {
			log.Printf("[config] skipping %s: %v", entry.Name(), err)
			continue
		}
		puzzles = append(puzzles, p)
	}

	if len(puzzles) == 0 {
		return nil, fmt.Errorf("config: no valid puzzle files found in %s", dir)
	}
	return puzzles, nil
}

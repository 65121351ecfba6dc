// Package puzzle holds the immutable puzzle definition: entries, geometry,
// and the consistency check every loaded puzzle must pass.
//
// Grounded on the teacher's game/config.Manager (game/config/manager.go):
// load once, cache by id under an RWMutex, validate before caching. Puzzle
// itself carries no lock — once constructed it never changes, same as the
// teacher's *engine.GameConfig once returned from LoadConfig.
package puzzle

import (
	"fmt"
	"strings"

	"github.com/crosswd/xserver/board"
)

// Entry is the immutable solution for one word.
type Entry struct {
	Answer    string
	Clue      string
	Direction board.Direction
	Row       int
	Col       int
}

// EndRow returns the row of the entry's last cell.
func (e Entry) EndRow() int {
	if e.Direction == board.Down {
		return e.Row + len(e.Answer) - 1
	}
	return e.Row
}

// EndCol returns the column of the entry's last cell.
func (e Entry) EndCol() int {
	if e.Direction == board.Across {
		return e.Col + len(e.Answer) - 1
	}
	return e.Col
}

// Positions returns every (row, col) this entry occupies, start to end.
func (e Entry) Positions() []Position {
	n := len(e.Answer)
	out := make([]Position, n)
	for i := 0; i < n; i++ {
		if e.Direction == board.Across {
			out[i] = Position{Row: e.Row, Col: e.Col + i}
		} else {
			out[i] = Position{Row: e.Row + i, Col: e.Col}
		}
	}
	return out
}

// Position is a grid coordinate.
type Position struct {
	Row, Col int
}

// Puzzle is an immutable crossword definition.
type Puzzle struct {
	ID          string
	Name        string
	Description string
	entries     []Entry
	rows, cols  int
	starts      map[Position][]board.WordStart
	inPuzzle    map[Position]bool
	occupant    map[Position]map[board.Direction]int
}

// New validates id/name/entries against the puzzle invariant and builds an
// immutable Puzzle. Returns an error (invalid-argument) on any violation.
func New(id, name, description string, entries []Entry) (*Puzzle, error) {
	if id == "" {
		return nil, fmt.Errorf("puzzle: id must not be empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.HasSuffix(id, ".puzzle") {
		return nil, fmt.Errorf("puzzle: invalid id %q", id)
	}
	if name == "" {
		return nil, fmt.Errorf("puzzle: name must not be empty")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("puzzle: must contain at least one entry")
	}

	if err := checkConsistency(entries); err != nil {
		return nil, err
	}

	p := &Puzzle{
		ID:          id,
		Name:        name,
		Description: description,
		entries:     append([]Entry(nil), entries...),
		starts:      make(map[Position][]board.WordStart),
		inPuzzle:    make(map[Position]bool),
		occupant:    make(map[Position]map[board.Direction]int),
	}

	for idx, e := range entries {
		wordID := idx + 1
		positions := e.Positions()
		if e.EndRow()+1 > p.rows {
			p.rows = e.EndRow() + 1
		}
		if e.EndCol()+1 > p.cols {
			p.cols = e.EndCol() + 1
		}
		for i, pos := range positions {
			p.inPuzzle[pos] = true
			if i == 0 {
				p.starts[pos] = append(p.starts[pos], board.WordStart{WordID: wordID, Direction: e.Direction})
			}
			if p.occupant[pos] == nil {
				p.occupant[pos] = make(map[board.Direction]int)
			}
			p.occupant[pos][e.Direction] = wordID
		}
	}

	return p, nil
}

func checkConsistency(entries []Entry) error {
	seenAnswers := make(map[string]bool)
	// position -> direction -> answer letter, used to detect same-direction
	// overlap and cross-direction letter mismatch.
	occupied := make(map[Position]map[board.Direction]byte)

	for i, e := range entries {
		if e.Answer == "" {
			return fmt.Errorf("puzzle: entry %d has an empty answer", i+1)
		}
		if strings.ContainsAny(e.Answer, " \t\r\n") {
			return fmt.Errorf("puzzle: entry %d answer contains whitespace", i+1)
		}
		if e.Clue == "" {
			return fmt.Errorf("puzzle: entry %d has an empty clue", i+1)
		}
		if strings.ContainsAny(e.Clue, "\r\n") {
			return fmt.Errorf("puzzle: entry %d clue contains a newline", i+1)
		}
		if e.Row < 0 || e.Col < 0 {
			return fmt.Errorf("puzzle: entry %d has a negative coordinate", i+1)
		}

		upper := strings.ToUpper(e.Answer)
		if seenAnswers[upper] {
			return fmt.Errorf("puzzle: duplicate answer %q", upper)
		}
		seenAnswers[upper] = true

		for i2, pos := range e.Positions() {
			letter := upper[i2]
			byDir, ok := occupied[pos]
			if !ok {
				byDir = make(map[board.Direction]byte)
				occupied[pos] = byDir
			}
			if existing, ok := byDir[e.Direction]; ok {
				_ = existing
				return fmt.Errorf("puzzle: two %s entries share cell (%d,%d)", e.Direction, pos.Row, pos.Col)
			}
			for dir, existingLetter := range byDir {
				if dir != e.Direction && existingLetter != letter {
					return fmt.Errorf("puzzle: crossing entries disagree at (%d,%d)", pos.Row, pos.Col)
				}
			}
			byDir[e.Direction] = letter
		}
	}
	return nil
}

// Entries returns a defensive copy of the entry list.
func (p *Puzzle) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Entry returns the entry for a 1-based word id.
func (p *Puzzle) Entry(wordID int) (Entry, bool) {
	if wordID < 1 || wordID > len(p.entries) {
		return Entry{}, false
	}
	return p.entries[wordID-1], true
}

// NumEntries returns the number of entries in the puzzle.
func (p *Puzzle) NumEntries() int { return len(p.entries) }

// Dimensions returns the minimum bounding grid (rows, cols).
func (p *Puzzle) Dimensions() (rows, cols int) { return p.rows, p.cols }

// InPuzzle reports whether pos is covered by some entry.
func (p *Puzzle) InPuzzle(pos Position) bool { return p.inPuzzle[pos] }

// StartsAt returns the word-starts-here tags for pos, if any.
func (p *Puzzle) StartsAt(pos Position) []board.WordStart {
	return append([]board.WordStart(nil), p.starts[pos]...)
}

// EntryAt returns the word id of the entry occupying pos in dir, if any.
func (p *Puzzle) EntryAt(pos Position, dir board.Direction) (wordID int, ok bool) {
	byDir, found := p.occupant[pos]
	if !found {
		return 0, false
	}
	id, ok := byDir[dir]
	return id, ok
}

// Opposite returns the other direction.
func Opposite(d board.Direction) board.Direction {
	if d == board.Across {
		return board.Down
	}
	return board.Across
}

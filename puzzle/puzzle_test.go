package puzzle

import (
	"testing"

	"github.com/crosswd/xserver/board"
)

func minimalEntries() []Entry {
	return []Entry{
		{Answer: "CAT", Clue: "Feline", Direction: board.Down, Row: 0, Col: 1},
		{Answer: "MAT", Clue: "Floor covering", Direction: board.Across, Row: 1, Col: 0},
		{Answer: "CAR", Clue: "Vehicle", Direction: board.Across, Row: 0, Col: 1},
		{Answer: "TAX", Clue: "IRS business", Direction: board.Across, Row: 2, Col: 1},
	}
}

func TestNewMinimalPuzzle(t *testing.T) {
	p, err := New("minimal", "Minimal", "A tiny grid", minimalEntries())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, cols := p.Dimensions()
	if rows != 3 || cols != 4 {
		t.Fatalf("dimensions = %dx%d, want 3x4", rows, cols)
	}
	if p.NumEntries() != 4 {
		t.Fatalf("NumEntries = %d, want 4", p.NumEntries())
	}
	e, ok := p.Entry(1)
	if !ok || e.Answer != "CAT" {
		t.Fatalf("Entry(1) = %+v, %v, want CAT", e, ok)
	}
	if p.InPuzzle(Position{Row: 0, Col: 0}) {
		t.Fatal("(0,0) is not covered by any entry in the minimal puzzle")
	}
	if !p.InPuzzle(Position{Row: 0, Col: 1}) {
		t.Fatal("(0,1) should be covered")
	}
}

func TestNewRejectsEmptyID(t *testing.T) {
	if _, err := New("", "n", "d", minimalEntries()); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestNewRejectsPathyID(t *testing.T) {
	if _, err := New("../etc", "n", "d", minimalEntries()); err == nil {
		t.Fatal("expected error for id containing a path separator")
	}
	if _, err := New("foo.puzzle", "n", "d", minimalEntries()); err == nil {
		t.Fatal("expected error for id with .puzzle suffix")
	}
}

func TestNewRejectsEmptyEntries(t *testing.T) {
	if _, err := New("id", "n", "d", nil); err == nil {
		t.Fatal("expected error for empty entry list")
	}
}

func TestNewRejectsDuplicateAnswer(t *testing.T) {
	entries := []Entry{
		{Answer: "CAT", Clue: "a", Direction: board.Across, Row: 0, Col: 0},
		{Answer: "cat", Clue: "b", Direction: board.Down, Row: 5, Col: 5},
	}
	if _, err := New("id", "n", "d", entries); err == nil {
		t.Fatal("expected error for case-insensitive duplicate answer")
	}
}

func TestNewRejectsSameDirectionOverlap(t *testing.T) {
	entries := []Entry{
		{Answer: "CAT", Clue: "a", Direction: board.Across, Row: 0, Col: 0},
		{Answer: "DOG", Clue: "b", Direction: board.Across, Row: 0, Col: 1},
	}
	if _, err := New("id", "n", "d", entries); err == nil {
		t.Fatal("expected error: two ACROSS entries share a cell")
	}
}

func TestNewRejectsCrossingDisagreement(t *testing.T) {
	entries := []Entry{
		{Answer: "CAT", Clue: "a", Direction: board.Across, Row: 0, Col: 0},
		{Answer: "DOG", Clue: "b", Direction: board.Down, Row: 0, Col: 1},
	}
	// (0,1) is 'A' via CAT but 'D' via DOG.
	if _, err := New("id", "n", "d", entries); err == nil {
		t.Fatal("expected error: crossing letters disagree")
	}
}

func TestNewAcceptsAgreeingCrossing(t *testing.T) {
	p, err := New("minimal", "n", "d", minimalEntries())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// CAT (entry 1, DOWN) and CAR (entry 3, ACROSS) cross at (0,1) on 'C'.
	id, ok := p.EntryAt(Position{Row: 0, Col: 1}, board.Down)
	if !ok || id != 1 {
		t.Fatalf("EntryAt down = %d, %v, want 1", id, ok)
	}
	id, ok = p.EntryAt(Position{Row: 0, Col: 1}, board.Across)
	if !ok || id != 3 {
		t.Fatalf("EntryAt across = %d, %v, want 3", id, ok)
	}
}

func TestStartsAt(t *testing.T) {
	p, err := New("minimal", "n", "d", minimalEntries())
	if err != nil {
		t.Fatal(err)
	}
	starts := p.StartsAt(Position{Row: 0, Col: 1})
	if len(starts) != 2 {
		t.Fatalf("StartsAt(0,1) = %v, want 2 tags", starts)
	}
}

func TestOpposite(t *testing.T) {
	if Opposite(board.Across) != board.Down {
		t.Fatal("Opposite(Across) should be Down")
	}
	if Opposite(board.Down) != board.Across {
		t.Fatal("Opposite(Down) should be Across")
	}
}

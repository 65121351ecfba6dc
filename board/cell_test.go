package board

import "testing"

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"ACROSS", Across, false},
		{"DOWN", Down, false},
		{"SIDEWAYS", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDirection(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDirection(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDirection(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewGap(t *testing.T) {
	g := NewGap()
	if !g.IsGap() {
		t.Fatal("expected gap")
	}
	if g.HasGuess() {
		t.Fatal("gap must never report a guess")
	}
	if g.Serialize("anyone") != "EMPTY" {
		t.Fatalf("gap serialization = %q, want EMPTY", g.Serialize("anyone"))
	}
}

func TestNewLetterBlank(t *testing.T) {
	c := NewLetter([]WordStart{{WordID: 1, Direction: Down}})
	if c.IsGap() {
		t.Fatal("letter cell reported as gap")
	}
	if c.HasGuess() {
		t.Fatal("blank cell must not report a guess")
	}
	if got := c.Serialize("nobody"); got != "_ 1 DOWN" {
		t.Fatalf("Serialize = %q, want %q", got, "_ 1 DOWN")
	}
}

func TestWithGuessSetsLetterAndOwner(t *testing.T) {
	c := NewLetter(nil)
	next, err := c.WithGuess('A', "alice", Across)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Letter() != 'A' {
		t.Fatalf("letter = %q, want A", next.Letter())
	}
	if next.Owner(Across) != "alice" {
		t.Fatalf("owner = %q, want alice", next.Owner(Across))
	}
	if next.Owner(Down) != "" {
		t.Fatalf("owner(Down) = %q, want empty", next.Owner(Down))
	}
}

func TestWithGuessOnGapFails(t *testing.T) {
	if _, err := NewGap().WithGuess('A', "alice", Across); err != ErrGapCell {
		t.Fatalf("err = %v, want ErrGapCell", err)
	}
}

func TestWithGuessConfirmedMismatch(t *testing.T) {
	c := NewLetter(nil)
	c, err := c.WithGuess('A', "alice", Across)
	if err != nil {
		t.Fatal(err)
	}
	c, err = c.Confirmed()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.WithGuess('B', "bob", Across); err != ErrConfirmedMismatch {
		t.Fatalf("err = %v, want ErrConfirmedMismatch", err)
	}
	// Re-submitting the same letter after confirmation is legal.
	if _, err := c.WithGuess('A', "alice", Across); err != nil {
		t.Fatalf("unexpected error re-submitting same letter: %v", err)
	}
}

func TestConfirmedPreconditions(t *testing.T) {
	if _, err := NewGap().Confirmed(); err != ErrNotConfirmable {
		t.Fatalf("gap: err = %v, want ErrNotConfirmable", err)
	}
	if _, err := NewLetter(nil).Confirmed(); err != ErrNotConfirmable {
		t.Fatalf("blank: err = %v, want ErrNotConfirmable", err)
	}
	c, _ := NewLetter(nil).WithGuess('A', "alice", Across)
	if _, err := c.Confirmed(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClearDirectionKeepsLetterIfOtherDirectionOwned(t *testing.T) {
	c := NewLetter(nil)
	c, _ = c.WithGuess('A', "alice", Across)
	c, _ = c.WithGuess('A', "alice", Down)

	cleared := c.ClearDirection(Across)
	if cleared.Owner(Across) != "" {
		t.Fatal("expected Across owner cleared")
	}
	if cleared.Letter() != 'A' {
		t.Fatalf("letter = %q, want A kept (Down still owns)", cleared.Letter())
	}

	clearedBoth := cleared.ClearDirection(Down)
	if clearedBoth.Letter() != Blank {
		t.Fatalf("letter = %q, want blank once both directions cleared", clearedBoth.Letter())
	}
}

func TestClearDirectionOnGapIsNoop(t *testing.T) {
	g := NewGap()
	if !g.ClearDirection(Across).Equal(g) {
		t.Fatal("clearing a gap must be a no-op")
	}
}

func TestConsistentWith(t *testing.T) {
	c := NewLetter(nil)
	if !c.ConsistentWith('A', "alice") {
		t.Fatal("blank cell should accept any letter")
	}
	c, _ = c.WithGuess('A', "alice", Across)
	if !c.ConsistentWith('A', "bob") {
		t.Fatal("matching letter is always consistent")
	}
	if !c.ConsistentWith('B', "alice") {
		t.Fatal("alice is the only owner; she may overwrite her own letter")
	}
	if c.ConsistentWith('B', "bob") {
		t.Fatal("alice owns Across; a different letter from bob should conflict via Across ownership")
	}
}

func TestEqual(t *testing.T) {
	a := NewLetter([]WordStart{{WordID: 1, Direction: Across}})
	b := NewLetter([]WordStart{{WordID: 1, Direction: Across}})
	if !a.Equal(b) {
		t.Fatal("two freshly built blank cells with the same starts should be equal")
	}
	b, _ = b.WithGuess('A', "alice", Across)
	if a.Equal(b) {
		t.Fatal("cells should differ after a guess")
	}
}

func TestSerializeOwnershipMarker(t *testing.T) {
	c := NewLetter([]WordStart{{WordID: 1, Direction: Across}, {WordID: 2, Direction: Down}})
	c, _ = c.WithGuess('A', "alice", Across)

	asAlice := c.Serialize("alice")
	if asAlice != "A >1 ACROSS 2 DOWN" {
		t.Fatalf("Serialize(alice) = %q", asAlice)
	}
	asBob := c.Serialize("bob")
	if asBob != "A 1 ACROSS 2 DOWN" {
		t.Fatalf("Serialize(bob) = %q", asBob)
	}
}

func TestSerializeConfirmedPrefix(t *testing.T) {
	c := NewLetter([]WordStart{{WordID: 1, Direction: Across}})
	c, _ = c.WithGuess('A', "alice", Across)
	c, _ = c.Confirmed()
	if got := c.Serialize("alice"); got != "+A >1 ACROSS" {
		t.Fatalf("Serialize = %q", got)
	}
}

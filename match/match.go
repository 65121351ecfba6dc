// Package match implements the mutable, thread-safe board: guess/challenge
// rules, ownership and confirmation tracking, and end-of-game detection.
//
// Grounded on the teacher's game/engine.GameEngine (game/engine/engine.go):
// a struct wrapping a value-typed state, mutated by "compute the next value,
// store it back" operations, plus game/session.Manager's sync.RWMutex
// monitor style (game/session/manager.go) for the concurrency story — one
// lock taken for the duration of every public method, never held across a
// callback.
package match

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/crosswd/xserver/board"
	"github.com/crosswd/xserver/listener"
	"github.com/crosswd/xserver/puzzle"
)

// Reply strings are the protocol-level feedback for TRY/CHALLENGE (§4.3/§4.4).
const (
	ReplyValidGuess           = "Valid guess"
	ReplyWrongLength          = "Invalid guess, wrong word length"
	ReplySameGuess            = "Invalid guess, same as existing guess"
	ReplyInconsistent         = "Invalid guess, inconsistent with current board"
	ReplyChallengeSuccess     = "Successful challenge!"
	ReplyChallengeWasCorrect  = "Failed challenge, target word was already correct"
	ReplyChallengeBothWrong   = "Failed challenge, target word and your guess both incorrect"
	ReplyChallengeWrongLength = "Invalid challenge, wrong length"
	ReplyChallengeBlanks      = "Invalid challenge, not all squares have guesses"
	ReplyChallengeOwnWord     = "Invalid challenge, you control this word"
	ReplyChallengeAllConfirmed = "Invalid challenge, all spaces already confirmed"
	ReplyChallengeSameGuess   = "Invalid challenge, same as existing word"
)

// Errors surfaced as invalid-argument / precondition violations, not as
// protocol reply strings.
var (
	ErrFinalized      = errors.New("match: already finalized")
	ErrNotSeated      = errors.New("match: player not seated")
	ErrNotTwoPlayers  = errors.New("match: match does not have two seated players")
	ErrWhitespace     = errors.New("match: guess contains whitespace")
	ErrBadWordID      = errors.New("match: word id out of range")
	ErrFull           = errors.New("match: two seats already filled")
	ErrDuplicatePlayer = errors.New("match: player already seated")
)

// Match is the mutable, thread-safe board for one game.
type Match struct {
	ID          string
	Description string
	Puzzle      *puzzle.Puzzle

	mu        sync.Mutex
	players   []string
	scores    map[string]int
	cells     map[puzzle.Position]board.Cell
	finalized bool

	observers *listener.Registry
}

// New builds a Match covering the puzzle's full bounding grid, all cells
// initialized to Gap or blank Letter per §3.
func New(id, description string, p *puzzle.Puzzle) (*Match, error) {
	if id == "" || strings.ContainsAny(id, " \t\r\n") {
		return nil, fmt.Errorf("match: id must be nonempty and whitespace-free")
	}
	if description == "" {
		return nil, fmt.Errorf("match: description must not be empty")
	}

	rows, cols := p.Dimensions()
	cells := make(map[puzzle.Position]board.Cell, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos := puzzle.Position{Row: r, Col: c}
			if p.InPuzzle(pos) {
				cells[pos] = board.NewLetter(p.StartsAt(pos))
			} else {
				cells[pos] = board.NewGap()
			}
		}
	}

	return &Match{
		ID:          id,
		Description: description,
		Puzzle:      p,
		scores:      make(map[string]int),
		cells:       cells,
		observers:   listener.New(),
	}, nil
}

// Observe registers cb to be invoked after any board change. Returns an id
// for Unobserve.
func (m *Match) Observe(cb func()) int {
	return m.observers.Subscribe(cb)
}

// Unobserve removes a previously registered observer.
func (m *Match) Unobserve(id int) {
	m.observers.Unsubscribe(id)
}

// Players returns a defensive copy of the seated player list.
func (m *Match) Players() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.players...)
}

// Score returns a player's current score.
func (m *Match) Score(player string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[player]
}

// IsFinalized reports the finalized flag without computing completion.
func (m *Match) IsFinalized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalized
}

// Cell returns the current value at pos.
func (m *Match) Cell(pos puzzle.Position) board.Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[pos]
}

func (m *Match) seated(player string) bool {
	for _, p := range m.players {
		if p == player {
			return true
		}
	}
	return false
}

// AddPlayer seats a new player. Fails if two seats are filled, the match is
// finalized, or the name is already seated.
func (m *Match) AddPlayer(name string) error {
	m.mu.Lock()
	if m.finalized {
		m.mu.Unlock()
		return ErrFinalized
	}
	if m.seated(name) {
		m.mu.Unlock()
		return ErrDuplicatePlayer
	}
	if len(m.players) >= 2 {
		m.mu.Unlock()
		return ErrFull
	}
	m.players = append(m.players, name)
	m.scores[name] = 0
	m.mu.Unlock()

	m.observers.Publish()
	return nil
}

func opposite(d board.Direction) board.Direction { return puzzle.Opposite(d) }

// TryGuess implements §4.3. The board lock is released before any observer
// fan-out runs, so callbacks never re-enter it.
func (m *Match) TryGuess(player string, wordID int, rawGuess string) (string, error) {
	reply, changed, err := m.tryGuessLocked(player, wordID, rawGuess)
	if err != nil {
		return "", err
	}
	if changed {
		m.observers.Publish()
	}
	return reply, nil
}

func (m *Match) tryGuessLocked(player string, wordID int, rawGuess string) (reply string, changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkPlayable(player); err != nil {
		return "", false, err
	}
	if strings.ContainsAny(rawGuess, " \t\r\n") {
		return "", false, ErrWhitespace
	}
	entry, ok := m.Puzzle.Entry(wordID)
	if !ok {
		return "", false, ErrBadWordID
	}

	guess := strings.ToUpper(rawGuess)
	if len(guess) != len(entry.Answer) {
		return ReplyWrongLength, false, nil
	}

	positions := entry.Positions()
	allSame := true
	var toClear []int

	for i, pos := range positions {
		cell := m.cells[pos]
		letter := guess[i]
		if cell.Letter() == letter {
			continue
		}
		allSame = false
		if cell.IsConfirmed() {
			return ReplyInconsistent, false, nil
		}
		if !cell.ConsistentWith(letter, player) {
			return ReplyInconsistent, false, nil
		}
		if otherID, ok := m.Puzzle.EntryAt(pos, opposite(entry.Direction)); ok && otherID != wordID {
			toClear = append(toClear, otherID)
		}
	}

	if allSame {
		return ReplySameGuess, false, nil
	}

	for i, pos := range positions {
		before := m.cells[pos]
		after, werr := before.WithGuess(guess[i], player, entry.Direction)
		if werr != nil {
			return "", false, werr
		}
		if !after.Equal(before) {
			changed = true
		}
		m.cells[pos] = after
	}

	for _, otherID := range dedupeInts(toClear) {
		otherEntry, _ := m.Puzzle.Entry(otherID)
		for _, pos := range otherEntry.Positions() {
			before := m.cells[pos]
			after := before.ClearDirection(opposite(entry.Direction))
			if !after.Equal(before) {
				changed = true
			}
			m.cells[pos] = after
		}
	}

	return ReplyValidGuess, changed, nil
}

// Challenge implements §4.4. Like TryGuess, the board lock is released
// before any observer fan-out.
func (m *Match) Challenge(player string, wordID int, rawGuess string) (string, error) {
	reply, changed, err := m.challengeLocked(player, wordID, rawGuess)
	if err != nil {
		return "", err
	}
	if changed {
		m.observers.Publish()
	}
	return reply, nil
}

func (m *Match) challengeLocked(player string, wordID int, rawGuess string) (reply string, changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkPlayable(player); err != nil {
		return "", false, err
	}
	if strings.ContainsAny(rawGuess, " \t\r\n") {
		return "", false, ErrWhitespace
	}
	entry, ok := m.Puzzle.Entry(wordID)
	if !ok {
		return "", false, ErrBadWordID
	}

	guess := strings.ToUpper(rawGuess)
	if len(guess) != len(entry.Answer) {
		return ReplyChallengeWrongLength, false, nil
	}

	positions := entry.Positions()
	allConfirmed := true
	allSame := true
	current := make([]byte, len(positions))

	for i, pos := range positions {
		cell := m.cells[pos]
		if !cell.HasGuess() {
			return ReplyChallengeBlanks, false, nil
		}
		if cell.Owner(entry.Direction) == player {
			return ReplyChallengeOwnWord, false, nil
		}
		if !cell.IsConfirmed() {
			allConfirmed = false
		}
		current[i] = cell.Letter()
		if current[i] != guess[i] {
			allSame = false
		}
	}

	if allConfirmed {
		return ReplyChallengeAllConfirmed, false, nil
	}
	if allSame {
		return ReplyChallengeSameGuess, false, nil
	}

	currentCorrect := string(current) == entry.Answer
	challengerCorrect := guess == entry.Answer

	switch {
	case challengerCorrect:
		reply = ReplyChallengeSuccess
		m.scores[player] += 2
		var toClear []int
		for i, pos := range positions {
			before := m.cells[pos]
			after, werr := before.WithGuess(guess[i], player, entry.Direction)
			if werr != nil {
				return "", false, werr
			}
			letterChanged := after.Letter() != before.Letter()
			if otherID, ok := m.Puzzle.EntryAt(pos, opposite(entry.Direction)); ok && otherID != wordID && letterChanged {
				toClear = append(toClear, otherID)
			}
			after, werr = after.Confirmed()
			if werr != nil {
				return "", false, werr
			}
			if !after.Equal(before) {
				changed = true
			}
			m.cells[pos] = after
		}

		for _, otherID := range dedupeInts(toClear) {
			otherEntry, _ := m.Puzzle.Entry(otherID)
			for _, pos := range otherEntry.Positions() {
				before := m.cells[pos]
				after := before.ClearDirection(opposite(entry.Direction))
				if !after.Equal(before) {
					changed = true
				}
				m.cells[pos] = after
			}
		}

	case currentCorrect:
		reply = ReplyChallengeWasCorrect
		m.scores[player]--
		for _, pos := range positions {
			before := m.cells[pos]
			after, werr := before.Confirmed()
			if werr != nil {
				return "", false, werr
			}
			if !after.Equal(before) {
				changed = true
			}
			m.cells[pos] = after
		}

	default:
		reply = ReplyChallengeBothWrong
		m.scores[player]--
		for _, pos := range positions {
			before := m.cells[pos]
			after := before.ClearDirection(entry.Direction)
			if !after.Equal(before) {
				changed = true
			}
			m.cells[pos] = after
		}
	}

	return reply, changed, nil
}

func (m *Match) checkPlayable(player string) error {
	if m.finalized {
		return ErrFinalized
	}
	if !m.seated(player) {
		return ErrNotSeated
	}
	if len(m.players) != 2 {
		return ErrNotTwoPlayers
	}
	return nil
}

// IsFinished returns true if the match is already finalized, or if every
// entry is now cell-by-cell correct — in which case it finalizes the match
// as a side effect (§4.5; this is intentionally a mutator, per §9).
func (m *Match) IsFinished() bool {
	m.mu.Lock()
	if m.finalized {
		m.mu.Unlock()
		return true
	}

	allCorrect := true
	for _, entry := range m.Puzzle.Entries() {
		for i, pos := range entry.Positions() {
			if m.cells[pos].Letter() != entry.Answer[i] {
				allCorrect = false
				break
			}
		}
		if !allCorrect {
			break
		}
	}
	m.mu.Unlock()

	if allCorrect {
		m.Finalize("")
		return true
	}
	return false
}

// Finalize marks the match finalized. Idempotent: a no-op, including the
// fan-out, once finalized is already true. For each correctly-guessed entry
// the direction owner (if any) earns +1 and, absent a forfeit, all cells of
// that entry are confirmed. Then, if forfeitingPlayer is non-empty and
// seated, that player's score is set to 0. Always publishes once
// on the transition into finalized, since this can mutate board state
// (bonus confirmation) even on a natural win, not only on forfeit.
func (m *Match) Finalize(forfeitingPlayer string) {
	m.mu.Lock()

	if m.finalized {
		m.mu.Unlock()
		return
	}
	m.finalized = true

	forfeited := forfeitingPlayer != "" && m.seated(forfeitingPlayer)

	for _, entry := range m.Puzzle.Entries() {
		positions := entry.Positions()
		correct := true
		for i, pos := range positions {
			if m.cells[pos].Letter() != entry.Answer[i] {
				correct = false
				break
			}
		}
		if !correct {
			continue
		}
		owner := m.cells[positions[0]].Owner(entry.Direction)
		if owner != "" {
			m.scores[owner]++
		}
		if !forfeited {
			for _, pos := range positions {
				before := m.cells[pos]
				after, err := before.Confirmed()
				if err == nil {
					m.cells[pos] = after
				}
			}
		}
	}

	if forfeited {
		m.scores[forfeitingPlayer] = 0
	}

	m.mu.Unlock()

	m.publish()
}

func (m *Match) publish() {
	m.observers.Publish()
}

func dedupeInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

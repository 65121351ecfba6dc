// Package lobby holds the shared registry of loaded puzzles, active users,
// and live matches that every connected session consults.
//
// Grounded on the teacher's game/session.Manager (game/session/manager.go):
// a map guarded by its own sync.RWMutex, one lock taken for the duration of
// each public method, sentinel errors for not-found/already-exists. Lobby
// generalizes that single "sessions" map into three sibling sets (puzzles,
// users, matches) under one lock, plus an available-match observer registry
// per §4.7.
package lobby

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/crosswd/xserver/listener"
	"github.com/crosswd/xserver/match"
	"github.com/crosswd/xserver/puzzle"
)

var (
	// ErrUserInUse is returned when ADD_USER names an already-active user.
	ErrUserInUse = errors.New("lobby: user id already in use")
	// ErrPuzzleNotFound is returned when NEW_MATCH names an unknown puzzle.
	ErrPuzzleNotFound = errors.New("lobby: puzzle not found")
	// ErrMatchExists is returned when NEW_MATCH reuses a live match id.
	ErrMatchExists = errors.New("lobby: match id already in use")
	// ErrMatchNotFound is returned when PLAY_MATCH names a match that isn't
	// live.
	ErrMatchNotFound = errors.New("lobby: match not found")
)

// Lobby is the monitor holding every puzzle, active user, and live match.
type Lobby struct {
	mu       sync.RWMutex
	puzzles  map[string]*puzzle.Puzzle
	users    map[string]bool
	matches  map[string]*match.Match

	available *listener.Registry
}

// New builds a Lobby preloaded with puzzles (keyed by their own id).
func New(puzzles []*puzzle.Puzzle) *Lobby {
	byID := make(map[string]*puzzle.Puzzle, len(puzzles))
	for _, p := range puzzles {
		byID[p.ID] = p
	}
	return &Lobby{
		puzzles:   byID,
		users:     make(map[string]bool),
		matches:   make(map[string]*match.Match),
		available: listener.New(),
	}
}

// ObserveAvailable registers cb to run after the set of waiting matches
// changes (a match created, finished, or played into unavailability).
func (l *Lobby) ObserveAvailable(cb func()) int {
	return l.available.Subscribe(cb)
}

// UnobserveAvailable removes a previously registered observer.
func (l *Lobby) UnobserveAvailable(id int) {
	l.available.Unsubscribe(id)
}

// Puzzles returns every loaded puzzle, ordered by id for a stable GET_PUZZLES
// listing.
func (l *Lobby) Puzzles() []*puzzle.Puzzle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*puzzle.Puzzle, 0, len(l.puzzles))
	for _, p := range l.puzzles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Puzzle looks up a loaded puzzle by id.
func (l *Lobby) Puzzle(id string) (*puzzle.Puzzle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.puzzles[id]
	return p, ok
}

// AddUser activates userID. Fails with ErrUserInUse if already active.
func (l *Lobby) AddUser(userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.users[userID] {
		return ErrUserInUse
	}
	l.users[userID] = true
	return nil
}

// RemoveUser deactivates userID. Safe to call for a user that is not active.
func (l *Lobby) RemoveUser(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.users, userID)
}

// HasUser reports whether userID is currently active.
func (l *Lobby) HasUser(userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.users[userID]
}

// Match looks up a live match by id.
func (l *Lobby) Match(matchID string) (*match.Match, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.matches[matchID]
	return m, ok
}

// AvailableMatches returns every live match not yet finalized and not yet
// full, ordered by id, for GET_MATCHES / AVAILABLE_MATCHES listings.
func (l *Lobby) AvailableMatches() []*match.Match {
	l.mu.RLock()
	ids := make([]*match.Match, 0, len(l.matches))
	for _, m := range l.matches {
		ids = append(ids, m)
	}
	l.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].ID < ids[j].ID })

	out := ids[:0:0]
	for _, m := range ids {
		if m.IsFinalized() {
			continue
		}
		if len(m.Players()) >= 2 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// NewMatch creates and seats the first player into a new match on puzzleID.
// Fails with ErrPuzzleNotFound or ErrMatchExists.
func (l *Lobby) NewMatch(userID, matchID, puzzleID, description string) (*match.Match, error) {
	l.mu.Lock()
	p, ok := l.puzzles[puzzleID]
	if !ok {
		l.mu.Unlock()
		return nil, ErrPuzzleNotFound
	}
	if _, exists := l.matches[matchID]; exists {
		l.mu.Unlock()
		return nil, ErrMatchExists
	}

	m, err := match.New(matchID, description, p)
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("lobby: %w", err)
	}
	l.matches[matchID] = m
	l.mu.Unlock()

	if err := m.AddPlayer(userID); err != nil {
		l.mu.Lock()
		delete(l.matches, matchID)
		l.mu.Unlock()
		return nil, fmt.Errorf("lobby: %w", err)
	}

	l.available.Publish()
	return m, nil
}

// PlayMatch seats userID as the second player of an existing waiting match.
// Fails with ErrMatchNotFound, or with the underlying match.Match error if
// the match is full or finalized.
func (l *Lobby) PlayMatch(userID, matchID string) (*match.Match, error) {
	l.mu.RLock()
	m, ok := l.matches[matchID]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrMatchNotFound
	}

	if err := m.AddPlayer(userID); err != nil {
		return nil, err
	}

	l.available.Publish()
	return m, nil
}

// RetireMatch removes matchID from the live set (called once a match
// finalizes, whether by completion or forfeit) and notifies available-match
// observers.
func (l *Lobby) RetireMatch(matchID string) {
	l.mu.Lock()
	_, existed := l.matches[matchID]
	delete(l.matches, matchID)
	l.mu.Unlock()

	if existed {
		l.available.Publish()
	}
}

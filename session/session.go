package session

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/crosswd/xserver/lobby"
	"github.com/crosswd/xserver/match"
	"github.com/crosswd/xserver/protocol"
	"github.com/crosswd/xserver/puzzle"
)

// queueCapacity bounds a Session's outbound queue (§4.6/§5). A push that
// would overflow it tears the session down rather than blocking the
// producer, mirroring the teacher's non-blocking client.send<- with a
// default case (transport/websocket/hub.go).
const queueCapacity = 256

// Session owns one socket and runs a Reader and a Writer cooperating only
// through the bounded queue (§4.6).
type Session struct {
	conn  net.Conn
	lobby *lobby.Lobby

	queue chan queueItem

	closeOnce sync.Once
	closed    chan struct{}

	availableObserverID int

	mu              sync.Mutex
	userID          string
	currentMatch    *match.Match
	currentMatchID  string
	hasMatchObserve bool
	matchObserverID int
}

// New builds a Session for an accepted connection. The caller must invoke
// Run to start the reader/writer pair.
func New(conn net.Conn, l *lobby.Lobby) *Session {
	s := &Session{
		conn:   conn,
		lobby:  l,
		queue:  make(chan queueItem, queueCapacity),
		closed: make(chan struct{}),
	}
	s.availableObserverID = l.ObserveAvailable(func() { s.pushAvailableMatches() })
	return s
}

// Run starts the writer goroutine and blocks running the reader until the
// connection closes. Returns once both tasks have finished.
func (s *Session) Run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()
	s.readLoop()
	<-writerDone
}

func (s *Session) readLoop() {
	defer s.teardown()

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		line := scanner.Text()
		req, err := protocol.ParseRequest(line)
		if err != nil {
			s.enqueueFrame(protocol.EncodeFrame(protocol.ReplyInvalidRequest, []string{line}))
			continue
		}
		if s.dispatch(req) == dispatchQuit {
			return
		}
	}
}

type dispatchResult int

const (
	dispatchContinue dispatchResult = iota
	dispatchQuit
)

func (s *Session) dispatch(req protocol.Request) dispatchResult {
	switch req.Type {
	case protocol.ReqAddUser:
		return s.handleAddUser(req)
	case protocol.ReqGetPuzzles:
		return s.handleGetPuzzles()
	case protocol.ReqGetMatches:
		return s.handleGetMatches()
	case protocol.ReqNewMatch:
		return s.handleNewMatch(req)
	case protocol.ReqPlayMatch:
		return s.handlePlayMatch(req)
	case protocol.ReqTry:
		return s.handleTryOrChallenge(req, true)
	case protocol.ReqChallenge:
		return s.handleTryOrChallenge(req, false)
	case protocol.ReqExitMatch:
		return s.handleExitMatch(req)
	case protocol.ReqQuit:
		return s.handleQuit()
	default:
		s.invalidRequest(req)
		return dispatchContinue
	}
}

func (s *Session) invalidRequest(req protocol.Request) {
	s.enqueueFrame(protocol.EncodeFrame(protocol.ReplyInvalidRequest, []string{req.Raw}))
}

func (s *Session) handleAddUser(req protocol.Request) dispatchResult {
	if len(req.Args) != 1 {
		s.invalidRequest(req)
		return dispatchContinue
	}
	userID := req.Args[0]
	var body string
	if err := s.lobby.AddUser(userID); err != nil {
		body = fmt.Sprintf("User ID %s already in use", userID)
	} else {
		s.mu.Lock()
		s.userID = userID
		s.mu.Unlock()
		body = "Success"
	}
	s.enqueueFrame(protocol.EncodeFrame(protocol.ReqAddUser, []string{body}))
	return dispatchContinue
}

func (s *Session) handleGetPuzzles() dispatchResult {
	lines := formatPuzzles(s.lobby.Puzzles())
	s.enqueueFrame(protocol.EncodeFrame(protocol.ReqGetPuzzles, lines))
	return dispatchContinue
}

func (s *Session) handleGetMatches() dispatchResult {
	lines := formatMatches(s.lobby.AvailableMatches())
	s.enqueueFrame(protocol.EncodeFrame(protocol.ReqGetMatches, lines))
	return dispatchContinue
}

func (s *Session) handleNewMatch(req protocol.Request) dispatchResult {
	if len(req.Args) != 4 {
		s.invalidRequest(req)
		return dispatchContinue
	}
	s.enqueueDispose()

	userID, matchID, puzzleID, description := req.Args[0], req.Args[1], req.Args[2], req.Args[3]
	m, err := s.lobby.NewMatch(userID, matchID, puzzleID, description)
	if err != nil {
		s.enqueueFrame(protocol.EncodeFrame(protocol.ReqNewMatch, []string{"Fail " + err.Error()}))
		return dispatchContinue
	}

	s.attachMatch(m, userID)
	s.enqueueFrame(protocol.EncodeFrame(protocol.ReqNewMatch, []string{"Success"}))
	return dispatchContinue
}

func (s *Session) handlePlayMatch(req protocol.Request) dispatchResult {
	if len(req.Args) != 2 {
		s.invalidRequest(req)
		return dispatchContinue
	}
	s.enqueueDispose()

	userID, matchID := req.Args[0], req.Args[1]
	m, err := s.lobby.PlayMatch(userID, matchID)
	if err != nil {
		s.enqueueFrame(protocol.EncodeFrame(protocol.ReqPlayMatch, []string{"Fail " + err.Error()}))
		return dispatchContinue
	}

	s.attachMatch(m, userID)
	s.enqueueFrame(protocol.EncodeFrame(protocol.PushBoardChanged, viewLines(m, userID)))
	return dispatchContinue
}

func (s *Session) handleTryOrChallenge(req protocol.Request, isTry bool) dispatchResult {
	reqType := protocol.ReqChallenge
	if isTry {
		reqType = protocol.ReqTry
	}
	if len(req.Args) != 4 {
		s.invalidRequest(req)
		return dispatchContinue
	}
	userID, matchID, wordIDStr, word := req.Args[0], req.Args[1], req.Args[2], req.Args[3]
	wordID, err := strconv.Atoi(wordIDStr)
	if err != nil {
		s.invalidRequest(req)
		return dispatchContinue
	}

	m, ok := s.lobby.Match(matchID)
	if !ok {
		s.invalidRequest(req)
		return dispatchContinue
	}

	s.enqueueHold()

	var reply string
	if isTry {
		reply, err = m.TryGuess(userID, wordID, word)
	} else {
		reply, err = m.Challenge(userID, wordID, word)
	}
	if err != nil {
		s.enqueueFrame(protocol.EncodeFrame(protocol.ReplyInvalidRequest, []string{req.Raw}))
		return dispatchContinue
	}
	s.enqueueFrame(protocol.EncodeFrame(reqType, []string{reply}))

	m.IsFinished()
	return dispatchContinue
}

func (s *Session) handleExitMatch(req protocol.Request) dispatchResult {
	if len(req.Args) != 2 {
		s.invalidRequest(req)
		return dispatchContinue
	}
	s.enqueueDispose()

	userID, matchID := req.Args[0], req.Args[1]
	if m, ok := s.lobby.Match(matchID); ok {
		m.Finalize(userID)
		s.lobby.RetireMatch(matchID)
	}
	return dispatchContinue
}

func (s *Session) handleQuit() dispatchResult {
	s.mu.Lock()
	m, matchID := s.currentMatch, s.currentMatchID
	userID := s.userID
	s.mu.Unlock()

	if m != nil {
		m.Finalize(userID)
		s.lobby.RetireMatch(matchID)
	}
	if userID != "" {
		s.lobby.RemoveUser(userID)
	}

	s.enqueueItem(queueItem{marker: markerQuit})
	return dispatchQuit
}

// attachMatch records m as the session's current match and subscribes to
// its board-change fan-out, replacing any previous subscription.
func (s *Session) attachMatch(m *match.Match, userID string) {
	s.mu.Lock()
	if s.hasMatchObserve && s.currentMatch != nil {
		s.currentMatch.Unobserve(s.matchObserverID)
	}
	s.userID = userID
	s.currentMatch = m
	s.currentMatchID = m.ID
	s.matchObserverID = m.Observe(func() { s.pushMatchView(m, userID) })
	s.hasMatchObserve = true
	s.mu.Unlock()
}

func (s *Session) pushMatchView(m *match.Match, userID string) {
	frameType := protocol.PushBoardChanged
	if m.IsFinalized() {
		frameType = protocol.PushGameOver
	}
	s.enqueueFrame(protocol.EncodeFrame(frameType, viewLines(m, userID)))
}

func (s *Session) pushAvailableMatches() {
	lines := formatMatches(s.lobby.AvailableMatches())
	s.enqueueFrame(protocol.EncodeFrame(protocol.PushAvailableMatches, lines))
}

func (s *Session) enqueueHold()    { s.enqueueItem(queueItem{marker: markerHold}) }
func (s *Session) enqueueDispose() { s.enqueueItem(queueItem{marker: markerDispose}) }

func (s *Session) enqueueFrame(frame string) { s.enqueueItem(queueItem{frame: frame}) }

// enqueueItem pushes onto the bounded queue without blocking. A full queue
// means the writer has stalled; the session is torn down rather than
// wedging the producer (which may be a mutator's lock-free fan-out on an
// unrelated goroutine).
func (s *Session) enqueueItem(item queueItem) {
	select {
	case s.queue <- item:
	default:
		log.Printf("session: queue full, dropping connection")
		s.teardown()
	}
}

func (s *Session) writeLoop() {
	o := &ordering{}
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case item := <-s.queue:
			for _, frame := range o.next(item) {
				if _, err := w.WriteString(frame); err != nil {
					s.teardown()
					return
				}
			}
			if err := w.Flush(); err != nil {
				s.teardown()
				return
			}
			if item.marker == markerQuit {
				s.teardown()
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.lobby.UnobserveAvailable(s.availableObserverID)

		s.mu.Lock()
		if s.hasMatchObserve && s.currentMatch != nil {
			s.currentMatch.Unobserve(s.matchObserverID)
		}
		s.mu.Unlock()

		close(s.closed)
		s.conn.Close()
	})
}

func formatPuzzles(ps []*puzzle.Puzzle) []string {
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = fmt.Sprintf("%s %s %s", p.ID, protocol.Quote(p.Name), protocol.Quote(p.Description))
	}
	return lines
}

func formatMatches(ms []*match.Match) []string {
	lines := make([]string, len(ms))
	for i, m := range ms {
		lines[i] = fmt.Sprintf("%s %s", m.ID, protocol.Quote(m.Description))
	}
	return lines
}

// viewLines splits a Match.View rendering into one frame body line per
// line of the BOARD grammar (§6.2), so EncodeFrame's declared line count
// matches what it actually writes.
func viewLines(m *match.Match, userID string) []string {
	return strings.Split(strings.TrimRight(m.View(userID), "\n"), "\n")
}

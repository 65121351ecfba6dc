// Package protocol implements the wire framing and request tokenizing for
// the TCP game protocol (§6.2): client commands are single space-separated
// lines, server replies and pushes are framed as "<TYPE> <N>\n" followed by
// N content lines.
package protocol

// Client request types. The type token is matched case-insensitively; these
// constants are always the canonical uppercase form.
const (
	ReqAddUser    = "ADD_USER"
	ReqGetPuzzles = "GET_PUZZLES"
	ReqGetMatches = "GET_MATCHES"
	ReqNewMatch   = "NEW_MATCH"
	ReqPlayMatch  = "PLAY_MATCH"
	ReqTry        = "TRY"
	ReqChallenge  = "CHALLENGE"
	ReqExitMatch  = "EXIT_MATCH"
	ReqQuit       = "QUIT"
)

// Reply and push frame types.
const (
	ReplyInvalidRequest  = "INVALID_REQUEST"
	PushBoardChanged     = "BOARD_CHANGED"
	PushGameOver         = "GAME_OVER"
	PushAvailableMatches = "AVAILABLE_MATCHES"
)

// Request is one parsed client command line: a type token and its
// space-separated arguments, with the original line preserved for the
// INVALID_REQUEST echo.
type Request struct {
	Type string
	Args []string
	Raw  string
}

// Package session implements the per-connection reader/writer pair and the
// ordering discipline (§4.6) that keeps a TRY/CHALLENGE reply ahead of the
// BOARD_CHANGED push it caused, and suppresses a self-initiated
// AVAILABLE_MATCHES echo.
package session

import "github.com/crosswd/xserver/protocol"

// queueItem is what the Reader and listener callbacks push onto a Session's
// queue. A non-empty frame carries an already-encoded wire frame; the
// marker fields distinguish the internal HOLD/DISPOSE/QUIT sentinels, which
// never reach the socket.
type queueItem struct {
	marker marker
	frame  string
}

type marker int

const (
	markerNone marker = iota
	markerHold
	markerDispose
	markerQuit
)

// ordering is the pure state machine the Writer runs over the sequence of
// dequeued items: §4.6's HOLD (buffer the next BOARD_CHANGED until the
// reply that provoked it has been sent) and DISPOSE (swallow the next
// AVAILABLE_MATCHES, since the current user caused it) markers. It holds no
// reference to the socket or the queue, so it can be driven and tested in
// isolation from any goroutine or I/O.
type ordering struct {
	holding  bool
	buffered []string
	dispose  bool
}

// next processes one dequeued item and returns the frames that should be
// written to the socket now, in order. HOLD/DISPOSE/QUIT never produce
// output themselves.
func (o *ordering) next(item queueItem) []string {
	switch item.marker {
	case markerHold:
		o.holding = true
		return nil
	case markerDispose:
		o.dispose = true
		return nil
	case markerQuit:
		return nil
	}

	frameType := frameTypeOf(item.frame)

	if o.holding {
		if frameType == protocol.PushBoardChanged {
			o.buffered = append(o.buffered, item.frame)
			return nil
		}
		// Any non-BOARD_CHANGED frame pulled while holding is the reply
		// that provoked the hold: emit it, then flush.
		out := append([]string{item.frame}, o.buffered...)
		o.buffered = nil
		o.holding = false
		return out
	}

	if frameType == protocol.PushAvailableMatches && o.dispose {
		o.dispose = false
		return nil
	}
	if frameType == protocol.ReqGetMatches || frameType == protocol.ReqGetPuzzles {
		o.dispose = false
	}

	return []string{item.frame}
}

// frameTypeOf extracts the leading "<TYPE>" token from an encoded frame.
func frameTypeOf(frame string) string {
	for i := 0; i < len(frame); i++ {
		if frame[i] == ' ' {
			return frame[:i]
		}
	}
	return frame
}

package session

import (
	"reflect"
	"testing"
)

func frame(t string) queueItem { return queueItem{frame: t + " 0\n"} }

func TestOrderingHoldsBoardChangedUntilReply(t *testing.T) {
	o := &ordering{}

	if out := o.next(queueItem{marker: markerHold}); out != nil {
		t.Fatalf("HOLD should produce no output, got %v", out)
	}
	if out := o.next(frame("BOARD_CHANGED")); out != nil {
		t.Fatalf("BOARD_CHANGED while holding should be buffered, got %v", out)
	}
	out := o.next(frame("TRY"))
	want := []string{"TRY 0\n", "BOARD_CHANGED 0\n"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
	if o.holding {
		t.Fatal("holding should be cleared after the reply flushes")
	}
}

func TestOrderingPassesThroughWithoutHold(t *testing.T) {
	o := &ordering{}
	out := o.next(frame("ADD_USER"))
	if !reflect.DeepEqual(out, []string{"ADD_USER 0\n"}) {
		t.Fatalf("out = %v", out)
	}
}

func TestOrderingDisposeSuppressesNextAvailableMatches(t *testing.T) {
	o := &ordering{}
	o.next(queueItem{marker: markerDispose})

	out := o.next(frame("AVAILABLE_MATCHES"))
	if out != nil {
		t.Fatalf("AVAILABLE_MATCHES right after DISPOSE should be suppressed, got %v", out)
	}

	// A second AVAILABLE_MATCHES is unaffected.
	out = o.next(frame("AVAILABLE_MATCHES"))
	if !reflect.DeepEqual(out, []string{"AVAILABLE_MATCHES 0\n"}) {
		t.Fatalf("out = %v, want passthrough", out)
	}
}

func TestOrderingDisposeClearedByGetMatches(t *testing.T) {
	o := &ordering{}
	o.next(queueItem{marker: markerDispose})
	o.next(frame("GET_MATCHES"))

	out := o.next(frame("AVAILABLE_MATCHES"))
	if !reflect.DeepEqual(out, []string{"AVAILABLE_MATCHES 0\n"}) {
		t.Fatalf("out = %v, want passthrough once DISPOSE is cleared by GET_MATCHES", out)
	}
}

func TestOrderingDisposeDoesNotAffectOtherFrames(t *testing.T) {
	o := &ordering{}
	o.next(queueItem{marker: markerDispose})

	out := o.next(frame("NEW_MATCH"))
	if !reflect.DeepEqual(out, []string{"NEW_MATCH 0\n"}) {
		t.Fatalf("out = %v, want passthrough", out)
	}
}

func TestOrderingQuitProducesNoOutput(t *testing.T) {
	o := &ordering{}
	if out := o.next(queueItem{marker: markerQuit}); out != nil {
		t.Fatalf("QUIT should produce no output, got %v", out)
	}
}

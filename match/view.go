package match

import (
	"fmt"
	"strings"

	"github.com/crosswd/xserver/puzzle"
)

// View renders the match-view grammar (§6.2) for a given viewer:
//
//	DIMS SQUARES SCORES QUESTIONS
//
// Scores and questions are both emitted in a stable order (player seating
// order, word id ascending) so that two renders of an unchanged Match
// produce byte-identical output.
func (m *Match) View(viewer string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, cols := m.Puzzle.Dimensions()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d\n", rows, cols)

	sb.WriteString("Squares:\n")
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos := puzzle.Position{Row: r, Col: c}
			sb.WriteString(m.cells[pos].Serialize(viewer))
			sb.WriteByte('\n')
		}
	}

	sb.WriteString("Scores:\n")
	for _, p := range m.players {
		fmt.Fprintf(&sb, " %s %d\n", p, m.scores[p])
	}

	sb.WriteString("Questions:\n")
	for i, entry := range m.Puzzle.Entries() {
		fmt.Fprintf(&sb, "%d %s\n", i+1, quoteQuestion(entry.Clue))
	}

	return sb.String()
}

// quoteQuestion renders a clue as the grammar's double-quoted, escaped
// string: backslash, newline, carriage return, and tab are escaped; nothing
// else is, matching the puzzle-file grammar's own escape set (§6.1).
func quoteQuestion(clue string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(clue); i++ {
		switch c := clue[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

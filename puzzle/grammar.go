package puzzle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crosswd/xserver/board"
)

// ParsedFile is the raw result of parsing a .puzzle file, before the
// consistency check that New performs.
type ParsedFile struct {
	Name        string
	Description string
	Entries     []Entry
}

// Parse parses the §6.1 puzzle-file grammar:
//
//	file        ::= ">>" name description "\n"+ entry*
//	entry       ::= "(" wordName "," clue "," direction "," row "," col ")"
//	wordName    ::= [a-z\-]+   (doubles as the entry's answer, uppercased)
//	direction   ::= "DOWN" | "ACROSS"
//	comment     ::= "//" [^\r\n]*
//
// A malformed file returns an error; no partial result is produced.
func Parse(src string) (*ParsedFile, error) {
	p := &parser{src: src}
	p.skipWhitespace()
	if !p.consumeLiteral(">>") {
		return nil, fmt.Errorf("puzzle: expected '>>' at start of file")
	}
	p.skipWhitespace()
	name, err := p.parseQuotedString()
	if err != nil {
		return nil, fmt.Errorf("puzzle: parsing name: %w", err)
	}
	p.skipWhitespace()
	description, err := p.parseQuotedString()
	if err != nil {
		return nil, fmt.Errorf("puzzle: parsing description: %w", err)
	}

	before := p.pos
	p.skipWhitespace()
	if !strings.Contains(p.src[before:p.pos], "\n") {
		return nil, fmt.Errorf("puzzle: expected newline after header")
	}

	var entries []Entry
	for {
		p.skipWhitespace()
		if p.atEnd() {
			break
		}
		if p.peek() != '(' {
			return nil, fmt.Errorf("puzzle: unexpected character %q at offset %d", p.peek(), p.pos)
		}
		e, err := p.parseEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return &ParsedFile{Name: name, Description: description, Entries: entries}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.atEnd() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consumeLiteral(lit string) bool {
	if strings.HasPrefix(p.src[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

// skipWhitespace skips spaces, tabs, CR, '\n', and "//" comments. Parse
// checks the skipped span for a '\n' to enforce the header terminator.
func (p *parser) skipWhitespace() {
	for !p.atEnd() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case c == '\n':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for !p.atEnd() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) parseQuotedString() (string, error) {
	if p.atEnd() || p.peek() != '"' {
		return "", fmt.Errorf("expected '\"' at offset %d", p.pos)
	}
	p.pos++
	var sb strings.Builder
	for {
		if p.atEnd() {
			return "", fmt.Errorf("unterminated string starting before offset %d", p.pos)
		}
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return sb.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", fmt.Errorf("dangling escape at offset %d", p.pos)
			}
			esc := p.src[p.pos+1]
			switch esc {
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", fmt.Errorf("invalid escape \\%c at offset %d", esc, p.pos)
			}
			p.pos += 2
		case c == '\r' || c == '\n':
			return "", fmt.Errorf("unescaped newline inside string at offset %d", p.pos)
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) parseEntry() (Entry, error) {
	if !p.consumeLiteral("(") {
		return Entry{}, fmt.Errorf("puzzle: expected '(' at offset %d", p.pos)
	}
	p.skipEntryWhitespace()

	wordName, err := p.parseWordName()
	if err != nil {
		return Entry{}, err
	}
	p.skipEntryWhitespace()
	if !p.consumeLiteral(",") {
		return Entry{}, fmt.Errorf("puzzle: expected ',' after word name at offset %d", p.pos)
	}
	p.skipEntryWhitespace()

	clue, err := p.parseQuotedString()
	if err != nil {
		return Entry{}, fmt.Errorf("puzzle: parsing clue: %w", err)
	}
	p.skipEntryWhitespace()
	if !p.consumeLiteral(",") {
		return Entry{}, fmt.Errorf("puzzle: expected ',' after clue at offset %d", p.pos)
	}
	p.skipEntryWhitespace()

	dirTok, err := p.parseToken()
	if err != nil {
		return Entry{}, err
	}
	dir, err := board.ParseDirection(dirTok)
	if err != nil {
		return Entry{}, fmt.Errorf("puzzle: %w", err)
	}
	p.skipEntryWhitespace()
	if !p.consumeLiteral(",") {
		return Entry{}, fmt.Errorf("puzzle: expected ',' after direction at offset %d", p.pos)
	}
	p.skipEntryWhitespace()

	row, err := p.parseInt()
	if err != nil {
		return Entry{}, err
	}
	p.skipEntryWhitespace()
	if !p.consumeLiteral(",") {
		return Entry{}, fmt.Errorf("puzzle: expected ',' after row at offset %d", p.pos)
	}
	p.skipEntryWhitespace()

	col, err := p.parseInt()
	if err != nil {
		return Entry{}, err
	}
	p.skipEntryWhitespace()
	if !p.consumeLiteral(")") {
		return Entry{}, fmt.Errorf("puzzle: expected ')' at offset %d", p.pos)
	}

	return Entry{
		Answer:    strings.ToUpper(wordName),
		Clue:      clue,
		Direction: dir,
		Row:       row,
		Col:       col,
	}, nil
}

// skipEntryWhitespace skips whitespace/comments AND bare newlines, which
// the grammar explicitly allows inside an entry's parens.
func (p *parser) skipEntryWhitespace() {
	p.skipWhitespace()
}

func (p *parser) parseWordName() (string, error) {
	start := p.pos
	for !p.atEnd() {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || c == '-' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("puzzle: expected word name at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseToken() (string, error) {
	start := p.pos
	for !p.atEnd() {
		c := p.src[p.pos]
		if c == ',' || c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ')' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("puzzle: expected token at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	for !p.atEnd() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("puzzle: expected digits at offset %d", start)
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, fmt.Errorf("puzzle: invalid integer at offset %d: %w", start, err)
	}
	return n, nil
}

// Package bibtex loads and writes the BibTeX record store backing the
// handbook pages.
package bibtex

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/fs-ise/handbook-tools/internal/record"
)

// Store holds the parsed record store. Keys preserves source order;
// the order carries no meaning beyond deterministic iteration.
type Store struct {
	Keys    []string
	Records map[string]*record.Record
}

// Get returns the record for a citation key, or nil.
func (s *Store) Get(key string) *record.Record {
	return s.Records[key]
}

// Add inserts a record, tracking insertion order for new keys.
func (s *Store) Add(r *record.Record) {
	if _, ok := s.Records[r.Key]; !ok {
		s.Keys = append(s.Keys, r.Key)
	}
	s.Records[r.Key] = r
}

// Load parses a .bib file into a Store. A missing file is an error
// wrapping os.ErrNotExist; generation without the store would
// silently produce nothing.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record store: %w", err)
	}
	store, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return store, nil
}

// Parse parses BibTeX source text into a Store. Values may be brace-
// or quote-delimited (nested braces balanced) or bare tokens; entries
// of type "comment" are skipped.
func Parse(src string) (*Store, error) {
	s := &Store{Records: make(map[string]*record.Record)}
	p := &parser{src: src}

	for {
		if !p.skipTo('@') {
			return s, nil
		}
		entryType := strings.ToLower(p.readIdent())
		p.skipSpace()
		if !p.consume('{') && !p.consume('(') {
			return nil, fmt.Errorf("entry @%s at offset %d: expected '{'", entryType, p.pos)
		}
		if entryType == "comment" {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			continue
		}

		key := p.readKey()
		rec := record.New(key, entryType)

		for {
			p.skipSpace()
			if p.consume('}') || p.consume(')') {
				break
			}
			if p.done() {
				return nil, fmt.Errorf("entry %q: unexpected end of input", key)
			}
			name := strings.ToLower(strings.TrimSpace(p.readUntil('=')))
			if name == "" {
				return nil, fmt.Errorf("entry %q: empty field name", key)
			}
			value, err := p.readValue()
			if err != nil {
				return nil, fmt.Errorf("entry %q, field %q: %w", key, name, err)
			}
			rec.Set(name, value)
			p.skipSpace()
			p.consume(',')
		}

		s.Add(rec)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) skipTo(c byte) bool {
	for ; p.pos < len(p.src); p.pos++ {
		if p.src[p.pos] == c {
			p.pos++
			return true
		}
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '{' || c == '(' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) readUntil(c byte) string {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != c {
		p.pos++
	}
	out := p.src[start:p.pos]
	p.pos++ // past delimiter (or end)
	return out
}

// readKey scans the citation key, stopping at the field separator or
// the entry close so field-less entries parse.
func (p *parser) readKey() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == '}' || c == ')' {
			break
		}
		p.pos++
	}
	key := strings.TrimSpace(p.src[start:p.pos])
	p.consume(',')
	return key
}

// readValue parses a field value: {braced} with nesting, "quoted", or
// a bare token terminated by ',' or the closing brace.
func (p *parser) readValue() (string, error) {
	p.skipSpace()
	if p.done() {
		return "", fmt.Errorf("unexpected end of input")
	}

	switch p.src[p.pos] {
	case '{':
		p.pos++
		start := p.pos
		depth := 1
		for ; p.pos < len(p.src); p.pos++ {
			switch p.src[p.pos] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					v := p.src[start:p.pos]
					p.pos++
					return strings.TrimSpace(v), nil
				}
			}
		}
		return "", fmt.Errorf("unbalanced braces")
	case '"':
		p.pos++
		start := p.pos
		for ; p.pos < len(p.src); p.pos++ {
			if p.src[p.pos] == '"' {
				v := p.src[start:p.pos]
				p.pos++
				return strings.TrimSpace(v), nil
			}
		}
		return "", fmt.Errorf("unterminated quoted value")
	default:
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' && p.src[p.pos] != ')' {
			p.pos++
		}
		return strings.TrimSpace(p.src[start:p.pos]), nil
	}
}

// skipBalanced skips to the end of an already-opened braced block.
func (p *parser) skipBalanced() error {
	depth := 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
	}
	return fmt.Errorf("unbalanced braces in skipped entry")
}

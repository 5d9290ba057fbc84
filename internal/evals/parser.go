package evals

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles an Evals expression (spec.md §4.5 grammar) into a
// Program. It never evaluates anything — evaluation happens in Run,
// replayed against a Resolver each time the owning directive renders.
func Parse(src string) (*Program, error) {
	p := &tokenParser{s: src}
	instrs, err := p.parseUntil("")
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.s) {
		return nil, fmt.Errorf("evals: unexpected trailing input at %d: %q", p.pos, p.s[p.pos:])
	}
	return &Program{Instructions: instrs, Source: src}, nil
}

type tokenParser struct {
	s   string
	pos int
}

// parseUntil parses tokens until EOF or, when inside a nested function
// literal, the matching ')'. closer is ")" when called recursively from
// a "(" and "" at the top level.
func (p *tokenParser) parseUntil(closer string) ([]Instruction, error) {
	var instrs []Instruction
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			if closer != "" {
				return nil, fmt.Errorf("evals: unterminated function literal")
			}
			return instrs, nil
		}
		if closer != "" && p.s[p.pos] == ')' {
			p.pos++
			return instrs, nil
		}
		instr, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, instr)
	}
}

func (p *tokenParser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func (p *tokenParser) parseToken() (Instruction, error) {
	c := p.s[p.pos]
	switch {
	case c == '"':
		return p.parseString()
	case c == '(':
		p.pos++
		body, err := p.parseUntil(")")
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{kind: opPushFunction, fn: &Program{Instructions: body}}, nil
	case c == ')':
		return Instruction{}, fmt.Errorf("evals: unexpected ')' at %d", p.pos)
	case isDigitStart(c):
		return p.parseNumber()
	default:
		return p.parseWord()
	}
}

func isDigitStart(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseString reads a `"…"` literal. Per spec.md §4.5, string literals
// have no escaping inside — the closing quote is the very next `"`.
func (p *tokenParser) parseString() (Instruction, error) {
	start := p.pos + 1
	end := strings.IndexByte(p.s[start:], '"')
	if end < 0 {
		return Instruction{}, fmt.Errorf("evals: unterminated string starting at %d", p.pos)
	}
	lit := p.s[start : start+end]
	p.pos = start + end + 1
	return Instruction{kind: opPushLiteral, literal: String(lit)}, nil
}

// parseNumber reads a decimal literal with at most one '.'.
func (p *tokenParser) parseNumber() (Instruction, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && dots == 0 {
			dots++
			p.pos++
			continue
		}
		break
	}
	lit := p.s[start:p.pos]
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("evals: bad number literal %q: %w", lit, err)
	}
	return Instruction{kind: opPushLiteral, literal: Number(n)}, nil
}

// parseWord reads a whitespace-delimited identifier: a built-in
// operation name, or a scope-variable reference.
func (p *tokenParser) parseWord() (Instruction, error) {
	start := p.pos
	for p.pos < len(p.s) && !isSpace(p.s[p.pos]) && p.s[p.pos] != '(' && p.s[p.pos] != ')' {
		p.pos++
	}
	word := p.s[start:p.pos]
	if word == "" {
		return Instruction{}, fmt.Errorf("evals: unexpected byte %q at %d", p.s[p.pos], p.pos)
	}
	switch word {
	case "true":
		return Instruction{kind: opPushLiteral, literal: Boolean(true)}, nil
	case "false":
		return Instruction{kind: opPushLiteral, literal: Boolean(false)}, nil
	}
	if _, ok := operations[word]; ok {
		return Instruction{kind: opCall, name: word}, nil
	}
	return Instruction{kind: opPushVar, name: word}, nil
}

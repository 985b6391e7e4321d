package sequencer

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseError points at the offending byte of a pattern string
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern %q: %s at offset %d", e.Input, e.Msg, e.Pos)
}

// Parse reads the pattern notation:
//
//	1 -3      scale degrees (0 is a hold)
//	g5        grace note on degree 5
//	-         hold
//	z         rest
//	p         previous degree
//	r         random degree
//	[1 2 3]   subdivide the slot
//	(1|3)     alternate 1 and 3 on successive cycles
//	(1@0.5)   degree 1 at velocity 0.5
//
// The top level is an implicit subdivision.
func Parse(s string) (Subdivision, error) {
	p := &parser{in: s}
	nodes, err := p.items(0)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, p.fail("empty pattern")
	}
	return nodes, nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Subdivision {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	in  string
	pos int
}

func (p *parser) fail(msg string) error {
	return &ParseError{Input: p.in, Pos: p.pos, Msg: msg}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.in) && unicode.IsSpace(rune(p.in[p.pos])) {
		p.pos++
	}
}

// peek returns the next byte, ok false at end of input
func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.in) {
		return 0, false
	}
	return p.in[p.pos], true
}

// items reads nodes until close (or end of input when close is 0)
func (p *parser) items(close byte) (Subdivision, error) {
	var out Subdivision
	for {
		p.skipSpace()
		c, ok := p.peek()
		switch {
		case !ok && close == 0:
			return out, nil
		case !ok:
			return nil, p.fail(fmt.Sprintf("missing %q", close))
		case close != 0 && c == close:
			p.pos++
			return out, nil
		}
		n, err := p.item()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

func (p *parser) item() (Node, error) {
	c, _ := p.peek()
	switch c {
	case '[':
		p.pos++
		sub, err := p.items(']')
		if err != nil {
			return nil, err
		}
		if len(sub) == 0 {
			return nil, p.fail("empty subdivision")
		}
		return sub, nil
	case '(':
		p.pos++
		return p.layered()
	case ']', ')', '|', '@':
		return nil, p.fail(fmt.Sprintf("unexpected %q", c))
	}
	return p.atom()
}

func (p *parser) layered() (Node, error) {
	p.skipSpace()
	a, err := p.item()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	var out Simultaneous
	switch c, _ := p.peek(); c {
	case '|':
		p.pos++
		p.skipSpace()
		b, err := p.item()
		if err != nil {
			return nil, err
		}
		out = Alt(a, b)
	case '@':
		p.pos++
		start := p.pos
		for p.pos < len(p.in) && (p.in[p.pos] == '.' || (p.in[p.pos] >= '0' && p.in[p.pos] <= '9')) {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.in[start:p.pos], 64)
		if err != nil || v < 0 || v > 1 {
			p.pos = start
			return nil, p.fail("velocity must be in [0,1]")
		}
		out = Accent(a, v)
	default:
		return nil, p.fail("expected '|' or '@'")
	}
	p.skipSpace()
	if c, ok := p.peek(); !ok || c != ')' {
		return nil, p.fail("missing ')'")
	}
	p.pos++
	return out, nil
}

func (p *parser) atom() (Node, error) {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if unicode.IsSpace(rune(c)) || c == '[' || c == ']' || c == '(' || c == ')' || c == '|' || c == '@' {
			break
		}
		p.pos++
	}
	tok := p.in[start:p.pos]
	switch tok {
	case "-":
		return At(Hold()), nil
	case "z":
		return At(Rest()), nil
	case "p":
		return At(Prev()), nil
	case "r":
		return At(Random()), nil
	}
	grace := false
	num := tok
	if len(num) > 1 && num[0] == 'g' {
		grace = true
		num = num[1:]
	}
	d, err := strconv.Atoi(num)
	if err != nil {
		p.pos = start
		return nil, p.fail(fmt.Sprintf("bad step %q", tok))
	}
	switch {
	case d == 0 && grace:
		p.pos = start
		return nil, p.fail("grace note needs a degree")
	case d == 0:
		return At(Hold()), nil
	case grace:
		return At(Grace(d)), nil
	}
	return At(Deg(d)), nil
}

// Package markup parses the inline styling markup used for rich text:
//
//	plain text [fillColor=0xff6600]tinted [bold]and bold[/bold][/fillColor]
//
// A tag block is [name]...[/name] or [name=value]...[/name]; values may be
// bare words or quoted strings, blocks nest, and the characters
// " \ [ ] / = are written in text with a backslash escape. The parser
// produces an element tree; mapping tag names to draw styles is the
// caller's concern.
//
// Escape sequences are validated but kept verbatim in the output text, so
// a renderer that does its own substitution sees the original bytes.
package markup

import (
	"fmt"
	"strings"
)

// Element is one node of parsed markup: plain text or a tag block.
// Exactly one of Text and Block is set.
type Element struct {
	Text  string
	Block *Block
}

// IsText reports whether the element is a text node.
func (e Element) IsText() bool { return e.Block == nil }

// Block is a matched [tag]...[/tag] pair and the elements between them.
type Block struct {
	// Tag is the block's name, shared by the opening and closing tag.
	Tag string

	// Value is the optional attribute ([tag=value]). HasValue
	// distinguishes an empty value from an absent one.
	Value    string
	HasValue bool

	// Children are the elements between the opening and closing tag.
	Children []Element
}

// SyntaxError describes a parse failure at a byte offset of the input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("markup: offset %d: %s", e.Offset, e.Msg)
}

// Parse parses a complete markup string into its element list.
func Parse(input string) ([]Element, error) {
	p := &parser{in: input}
	elems, err := p.elements()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.in) {
		return nil, p.errorf("unexpected %q", p.in[p.pos])
	}
	return elems, nil
}

type parser struct {
	in  string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// elements parses a run of text and block elements. It stops without
// error at end of input or at a closing tag, which the enclosing block
// consumes.
func (p *parser) elements() ([]Element, error) {
	var out []Element
	for p.pos < len(p.in) {
		if strings.HasPrefix(p.in[p.pos:], "[/") {
			break
		}
		if text := p.text(); text != "" {
			out = append(out, Element{Text: text})
			continue
		}
		if p.in[p.pos] != '[' {
			return nil, p.errorf("unexpected %q", p.in[p.pos])
		}
		block, err := p.block()
		if err != nil {
			return nil, err
		}
		out = append(out, Element{Block: block})
	}
	return out, nil
}

// text consumes a maximal run of plain text. The characters " \ [ ] / =
// end the run unless escaped; a backslash before anything else (including
// end of input) also ends it, leaving the backslash unconsumed.
func (p *parser) text() string {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == '\\' {
			if p.pos+1 < len(p.in) && isEscapable(p.in[p.pos+1]) {
				p.pos += 2
				continue
			}
			break
		}
		if isSpecial(c) {
			break
		}
		p.pos++
	}
	return p.in[start:p.pos]
}

// block parses [tag]...[/tag] or [tag=value]...[/tag]. The caller has
// checked that the input starts with '[' not followed by '/'.
func (p *parser) block() (*Block, error) {
	p.pos++ // '['

	tag, err := p.word()
	if err != nil {
		return nil, err
	}

	value := ""
	hasValue := false
	p.skipSpace()
	if p.pos < len(p.in) && p.in[p.pos] == '=' {
		p.pos++
		value, err = p.value()
		if err != nil {
			return nil, err
		}
		hasValue = true
	}

	p.skipSpace()
	if err := p.expect(']'); err != nil {
		return nil, err
	}

	children, err := p.elements()
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(p.in[p.pos:], "[/") {
		return nil, p.errorf("missing closing tag for %q", tag)
	}
	p.pos += 2
	end, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	if end != tag {
		return nil, p.errorf("closing tag %q does not match %q", end, tag)
	}

	return &Block{Tag: tag, Value: value, HasValue: hasValue, Children: children}, nil
}

// word consumes a bare tag name or attribute word: a nonempty run of
// characters that are neither special nor whitespace, with leading
// whitespace skipped.
func (p *parser) word() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == '\\' || isSpecial(c) || isSpace(c) {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected name")
	}
	return p.in[start:p.pos], nil
}

// value consumes an attribute value: a quoted string or a bare word.
// Quoted values may contain whitespace and escapes; like text, escape
// sequences stay verbatim.
func (p *parser) value() (string, error) {
	p.skipSpace()
	if p.pos < len(p.in) && p.in[p.pos] == '"' {
		p.pos++
		start := p.pos
		for p.pos < len(p.in) {
			c := p.in[p.pos]
			if c == '\\' {
				if p.pos+1 < len(p.in) && isEscapable(p.in[p.pos+1]) {
					p.pos += 2
					continue
				}
				break
			}
			if isSpecial(c) {
				break
			}
			p.pos++
		}
		inner := p.in[start:p.pos]
		if err := p.expect('"'); err != nil {
			return "", err
		}
		return inner, nil
	}
	return p.word()
}

func (p *parser) expect(c byte) error {
	if p.pos >= len(p.in) || p.in[p.pos] != c {
		return p.errorf("expected %q", string(c))
	}
	p.pos++
	return nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.in) && isSpace(p.in[p.pos]) {
		p.pos++
	}
}

// isSpecial reports the characters that delimit text and values.
func isSpecial(c byte) bool {
	switch c {
	case '"', '[', ']', '/', '=':
		return true
	}
	return false
}

// isEscapable reports the characters a backslash may precede.
func isEscapable(c byte) bool {
	switch c {
	case '"', '\\', 'n', '[', ']', '/', '=':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

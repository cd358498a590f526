// Package dub parses the command language read by the interactive prompt:
// a command name followed by identifiers, numbers, quoted strings and bar
// selectors.
//
//	place '1:4 Am7
//	type '2,4 min7
//	export "my song.wav" 3
package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Selector) isNode()   {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			sel, err := p.selector()
			if err != nil {
				return cmd, err
			}
			arg = sel
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// selector parses the items following a quote.
func (p *parser) selector() (Selector, error) {
	var sel Selector
	if p.peek().typ == typeAsterisk {
		p.next()
		sel.matchers = append(sel.matchers, matchAll)
		return sel, nil
	}
	var list listMatch
	for {
		start, err := p.bar()
		if err != nil {
			return sel, err
		}
		if p.peek().typ == typeColon {
			p.next()
			end, err := p.bar()
			if err != nil {
				return sel, err
			}
			if end < start {
				return sel, fmt.Errorf("invalid bar range %d:%d", start, end)
			}
			sel.matchers = append(sel.matchers, rangeMatch{start: start, end: end})
			sel.max = max(sel.max, end)
		} else {
			list = append(list, start)
			sel.max = max(sel.max, start)
		}
		if p.peek().typ != typeComma {
			break
		}
		p.next()
	}
	if len(list) > 0 {
		sel.matchers = append(sel.matchers, list)
	}
	return sel, nil
}

func (p *parser) bar() (int, error) {
	t := p.next()
	if t.typ != typeInt {
		return 0, unexpected(t)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("bar numbers start at 1, got %d", n)
	}
	return n, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input at position %d", t.pos)
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}

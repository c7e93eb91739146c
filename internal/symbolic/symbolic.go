// Package symbolic pretty-prints plain infix expressions: spaced sums
// and quotients, explicit product dots, Unicode exponents. It accepts
// only complete expressions over numbers, identifiers, + - * / ^ and
// parentheses; everything else is an error, so callers never get a
// half-understood rendering.
package symbolic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Engine is the expression pretty-printer. The zero value is ready to
// use.
type Engine struct{}

// NewEngine returns a pretty-printer engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Pretty parses fragment as an infix expression and returns its spaced
// form. The whole input must parse.
func (e *Engine) Pretty(fragment string) (string, error) {
	toks, err := lex(fragment)
	if err != nil {
		return "", err
	}
	p := &exprParser{toks: toks}
	root, err := p.parseSum()
	if err != nil {
		return "", err
	}
	if p.pos != len(p.toks) {
		return "", fmt.Errorf("symbolic: trailing input %q", p.toks[p.pos].text)
	}
	return root.print(), nil
}

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

type tokenKind int

const (
	tokNum tokenKind = iota
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			j := i
			for j < len(rs) && (rs[j] >= '0' && rs[j] <= '9' || rs[j] == '.') {
				j++
			}
			lit := string(rs[i:j])
			if _, err := strconv.ParseFloat(lit, 64); err != nil {
				return nil, fmt.Errorf("symbolic: bad number %q", lit)
			}
			toks = append(toks, token{tokNum, lit})
			i = j
		case unicode.IsLetter(r):
			j := i
			for j < len(rs) && unicode.IsLetter(rs[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, string(rs[i:j])})
			i = j
		case strings.ContainsRune("+-*/^()", r):
			toks = append(toks, token{tokOp, string(r)})
			i++
		default:
			return nil, fmt.Errorf("symbolic: unexpected character %q", r)
		}
	}
	return toks, nil
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// node is an expression tree vertex. op is empty for leaves, "neg" for
// unary minus, otherwise the binary operator.
type node struct {
	op          string
	lit         string
	left, right *node
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peekOp(ops string) bool {
	if p.pos >= len(p.toks) {
		return false
	}
	t := p.toks[p.pos]
	return t.kind == tokOp && strings.Contains(ops, t.text)
}

func (p *exprParser) parseSum() (*node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peekOp("+-") {
		op := p.toks[p.pos].text
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &node{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseProduct() (*node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peekOp("*/"):
			op := p.toks[p.pos].text
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = &node{op: op, left: left, right: right}
		case p.implicitProduct():
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = &node{op: "*", left: left, right: right}
		default:
			return left, nil
		}
	}
}

// implicitProduct reports adjacency that reads as multiplication: a
// number, identifier, or group directly after a factor.
func (p *exprParser) implicitProduct() bool {
	if p.pos >= len(p.toks) {
		return false
	}
	t := p.toks[p.pos]
	return t.kind == tokNum || t.kind == tokIdent || (t.kind == tokOp && t.text == "(")
}

func (p *exprParser) parseFactor() (*node, error) {
	if p.peekOp("-") {
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &node{op: "neg", left: inner}, nil
	}
	if p.peekOp("+") {
		p.pos++
		return p.parseFactor()
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (*node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.peekOp("^") {
		p.pos++
		exp, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &node{op: "^", left: base, right: exp}, nil
	}
	return base, nil
}

func (p *exprParser) parseAtom() (*node, error) {
	if p.pos >= len(p.toks) {
		return nil, fmt.Errorf("symbolic: unexpected end of expression")
	}
	t := p.toks[p.pos]
	switch {
	case t.kind == tokNum || t.kind == tokIdent:
		p.pos++
		return &node{lit: t.text}, nil
	case t.kind == tokOp && t.text == "(":
		p.pos++
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if !p.peekOp(")") {
			return nil, fmt.Errorf("symbolic: missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}
	return nil, fmt.Errorf("symbolic: unexpected token %q", t.text)
}

// ---------------------------------------------------------------------------
// Printer
// ---------------------------------------------------------------------------

func prec(n *node) int {
	switch n.op {
	case "+", "-":
		return 1
	case "*", "/", "neg":
		return 2
	case "^":
		return 3
	}
	return 4
}

func wrap(n *node, min int) string {
	if prec(n) < min {
		return "(" + n.print() + ")"
	}
	return n.print()
}

func (n *node) print() string {
	switch n.op {
	case "":
		return n.lit
	case "neg":
		return "-" + wrap(n.left, 3)
	case "+":
		return wrap(n.left, 1) + " + " + wrap(n.right, 2)
	case "-":
		return wrap(n.left, 1) + " - " + wrap(n.right, 2)
	case "*":
		return wrap(n.left, 2) + "⋅" + wrap(n.right, 3)
	case "/":
		return wrap(n.left, 2) + " / " + wrap(n.right, 3)
	case "^":
		if sup, ok := superscriptExponent(n.right); ok {
			return wrap(n.left, 4) + sup
		}
		return wrap(n.left, 4) + "^" + wrap(n.right, 4)
	}
	return n.lit
}

var superDigits = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
}

// superscriptExponent renders an integer exponent, possibly negated, as
// a superscript run.
func superscriptExponent(n *node) (string, bool) {
	neg := false
	if n.op == "neg" {
		neg = true
		n = n.left
	}
	if n.op != "" || n.lit == "" || strings.ContainsRune(n.lit, '.') {
		return "", false
	}
	var b strings.Builder
	if neg {
		b.WriteRune('⁻')
	}
	for _, r := range n.lit {
		d, ok := superDigits[r]
		if !ok {
			return "", false
		}
		b.WriteRune(d)
	}
	return b.String(), true
}

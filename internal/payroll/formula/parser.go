package formula

import (
	"fmt"
	"sort"
)

// maxDepth bounds expression nesting
const maxDepth = 64

// node is an evaluable expression tree
type node interface {
	eval(vars map[string]float64) float64
	collect(refs map[string]struct{})
}

type number float64

func (n number) eval(map[string]float64) float64 { return float64(n) }
func (n number) collect(map[string]struct{})     {}

type variable string

func (v variable) eval(vars map[string]float64) float64 { return vars[string(v)] }
func (v variable) collect(refs map[string]struct{})     { refs[string(v)] = struct{}{} }

type negate struct{ operand node }

func (n negate) eval(vars map[string]float64) float64 { return -n.operand.eval(vars) }
func (n negate) collect(refs map[string]struct{})     { n.operand.collect(refs) }

type binary struct {
	op          tokenKind
	left, right node
}

func (b binary) eval(vars map[string]float64) float64 {
	l, r := b.left.eval(vars), b.right.eval(vars)
	switch b.op {
	case tokPlus:
		return l + r
	case tokMinus:
		return l - r
	case tokStar:
		return l * r
	default:
		return l / r
	}
}

func (b binary) collect(refs map[string]struct{}) {
	b.left.collect(refs)
	b.right.collect(refs)
}

// Expression is a parsed arithmetic expression
type Expression struct {
	src  string
	root node
	refs []string
}

// Parse parses src into an Expression.
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("-" | "+") unary | primary
//	primary = number | identifier | "(" expr ")"
func Parse(src string) (*Expression, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s %q at position %d", tok.kind, tok.text, tok.pos)
	}

	set := make(map[string]struct{})
	root.collect(set)
	refs := make([]string, 0, len(set))
	for name := range set {
		refs = append(refs, name)
	}
	sort.Strings(refs)

	return &Expression{src: src, root: root, refs: refs}, nil
}

// References lists the identifiers used by the expression, sorted
func (e *Expression) References() []string {
	return e.refs
}

// Eval evaluates the expression; unbound identifiers read as zero
func (e *Expression) Eval(vars map[string]float64) float64 {
	return e.root.eval(vars)
}

// String returns the source text
func (e *Expression) String() string {
	return e.src
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expr(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("expression nested too deeply")
	}
	left, err := p.term(depth)
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term(depth)
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) term(depth int) (node, error) {
	left, err := p.unary(depth)
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary(depth)
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) unary(depth int) (node, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		operand, err := p.unary(depth + 1)
		if err != nil {
			return nil, err
		}
		return negate{operand: operand}, nil
	case tokPlus:
		p.next()
		return p.unary(depth + 1)
	}
	return p.primary(depth)
}

func (p *parser) primary(depth int) (node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("expression nested too deeply")
	}
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return number(tok.num), nil
	case tokIdent:
		return variable(tok.text), nil
	case tokLParen:
		inner, err := p.expr(depth + 1)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", closing.pos)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %s %q at position %d", tok.kind, tok.text, tok.pos)
}

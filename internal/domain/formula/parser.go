package formula

import "github.com/shopspring/decimal"

// Gramática:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | primary
//	primary := number | identifier | '(' expr ')'

type node interface {
	eval(vars map[string]decimal.Decimal) (decimal.Decimal, error)
}

type numberNode struct {
	val decimal.Decimal
}

type identNode struct {
	name string
	pos  int
}

type unaryNode struct {
	neg bool
	x   node
}

type binaryNode struct {
	op   tokenKind
	pos  int
	l, r node
}

type parser struct {
	toks []token
	i    int
	// identificadores en orden de aparición
	idents []string
	seen   map[string]bool
}

func parse(src string) (node, []string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	if len(toks) == 1 {
		return nil, nil, &Error{Kind: KindEmpty, Msg: "fórmula vacía"}
	}
	p := &parser{toks: toks, seen: map[string]bool{}}
	root, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, nil, &Error{Kind: KindSyntax, Pos: t.pos, Msg: "símbolo inesperado " + t.text}
	}
	return root, p.idents, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPlus && t.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.kind, pos: t.pos, l: left, r: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokStar && t.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.kind, pos: t.pos, l: left, r: right}
	}
}

func (p *parser) unary() (node, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{neg: true, x: x}, nil
	case tokPlus:
		p.next()
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{val: t.num}, nil
	case tokIdent:
		if !p.seen[t.text] {
			p.seen[t.text] = true
			p.idents = append(p.idents, t.text)
		}
		return &identNode{name: t.text, pos: t.pos}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &Error{Kind: KindSyntax, Pos: closing.pos, Msg: "falta ')'"}
		}
		return inner, nil
	case tokEOF:
		return nil, &Error{Kind: KindSyntax, Pos: t.pos, Msg: "fin inesperado de la fórmula"}
	default:
		return nil, &Error{Kind: KindSyntax, Pos: t.pos, Msg: "símbolo inesperado " + t.text}
	}
}

func (n *numberNode) eval(map[string]decimal.Decimal) (decimal.Decimal, error) {
	return n.val, nil
}

func (n *identNode) eval(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	v, ok := vars[n.name]
	if !ok {
		return decimal.Zero, &Error{Kind: KindUnknownOperand, Pos: n.pos, Operand: n.name, Msg: "operando desconocido " + n.name}
	}
	return v, nil
}

func (n *unaryNode) eval(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	x, err := n.x.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	if n.neg {
		return x.Neg(), nil
	}
	return x, nil
}

func (n *binaryNode) eval(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	l, err := n.l.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	r, err := n.r.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	switch n.op {
	case tokPlus:
		return l.Add(r), nil
	case tokMinus:
		return l.Sub(r), nil
	case tokStar:
		return l.Mul(r), nil
	default:
		if r.IsZero() {
			return decimal.Zero, &Error{Kind: KindDivisionByZero, Pos: n.pos, Msg: "división por cero"}
		}
		return l.DivRound(r, DivisionScale), nil
	}
}

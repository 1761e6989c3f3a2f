package formula

// Grammar, lowest to highest precedence:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ "^" unary ]
//	primary = number | "x" | constant | function "(" expr ")" | "(" expr ")"
//
// "^" binds tighter than unary minus and is right-associative, so
// -x^2 is -(x^2) and 2^3^2 is 2^(3^2).
type parser struct {
	src  string
	toks []token
	pos  int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, errorf(src, 0, "empty expression")
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, errorf(src, t.pos, "unbalanced ')'")
		}
		return nil, errorf(src, t.pos, "unexpected %s %q", t.kind, t.text)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for i := 0; i < len(ops); i++ {
		if t.text[0] == ops[i] {
			return true
		}
	}
	return false
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+-") {
		op := p.next().text[0]
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*/") {
		op := p.next().text[0]
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.isOp("-") {
		p.next()
		arg, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negNode{arg: arg}, nil
	}
	if p.isOp("+") {
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: '^', left: base, right: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{v: t.num, text: t.text}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.closeParen(t); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		return p.ident(t)
	case tokEOF:
		return nil, errorf(p.src, t.pos, "unexpected end of expression")
	case tokRParen:
		return nil, errorf(p.src, t.pos, "unexpected ')'")
	default:
		return nil, errorf(p.src, t.pos, "unexpected %s %q", t.kind, t.text)
	}
}

func (p *parser) ident(t token) (node, error) {
	if t.text == "x" {
		return varNode{}, nil
	}
	if v, ok := constants[t.text]; ok {
		return constNode{name: t.text, v: v}, nil
	}
	fn, ok := functions[t.text]
	if !ok {
		return nil, errorf(p.src, t.pos, "unknown identifier %q", t.text)
	}

	open := p.next()
	if open.kind != tokLParen {
		return nil, errorf(p.src, open.pos, "function %s must be followed by '('", t.text)
	}
	if p.peek().kind == tokRParen {
		return nil, errorf(p.src, p.peek().pos, "function %s takes exactly one argument, got none", t.text)
	}
	arg, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokComma {
		return nil, errorf(p.src, p.peek().pos, "function %s takes exactly one argument", t.text)
	}
	if err := p.closeParen(open); err != nil {
		return nil, err
	}
	return callNode{name: t.text, fn: fn, arg: arg}, nil
}

func (p *parser) closeParen(open token) error {
	t := p.next()
	if t.kind == tokRParen {
		return nil
	}
	if t.kind == tokEOF {
		return errorf(p.src, open.pos, "unbalanced '('")
	}
	return errorf(p.src, t.pos, "expected ')', got %s %q", t.kind, t.text)
}

package parser

import (
	"strconv"
	"strings"

	"github.com/nx-lang/nx/pkg/syntax/ast"
	"github.com/nx-lang/nx/pkg/syntax/scanner"
)

// Expression grammar, loosest binding first:
//
//	or:    and (|| and)*
//	and:   eq (&& eq)*
//	eq:    cmp ((== | !=) cmp)*
//	cmp:   add ((< | <= | > | >=) add)*
//	add:   mul ((+ | -) mul)*
//	mul:   unary ((* | / | %) unary)*
//	unary: (- | !) unary | postfix
//	post:  primary (. ident)*
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.atOp("||") {
		start := left.Span().Start
		p.consumeOp("||")
		right := p.parseAnd()
		left = &ast.BinaryExpr{Op: "||", Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.atOp("&&") {
		start := left.Span().Start
		p.consumeOp("&&")
		right := p.parseEquality()
		left = &ast.BinaryExpr{Op: "&&", Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for {
		var op string
		switch {
		case p.atOp("=="):
			op = "=="
		case p.atOp("!="):
			op = "!="
		default:
			return left
		}
		start := left.Span().Start
		p.consumeOp(op)
		right := p.parseComparison()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op string
		switch {
		case p.atOp("<="):
			op = "<="
		case p.atOp(">="):
			op = ">="
		case p.atOp("<"):
			op = "<"
		case p.atOp(">"):
			op = ">"
		default:
			return left
		}
		start := left.Span().Start
		p.consumeOp(op)
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		var op string
		switch {
		case p.atOp("+"):
			op = "+"
		case p.atOp("-"):
			op = "-"
		default:
			return left
		}
		start := left.Span().Start
		p.consumeOp(op)
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op string
		switch {
		case p.atOp("*"):
			op = "*"
		case p.atOp("/"):
			op = "/"
		case p.atOp("%"):
			op = "%"
		default:
			return left
		}
		start := left.Span().Start
		p.consumeOp(op)
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right,
			Range: ast.Span{Start: start, End: right.Span().End}}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	p.skipSpace()
	start := p.pos()
	switch p.peek() {
	case '-', '!':
		op := string(byte(p.peek()))
		// "-" followed by a digit is a negative literal; keep it unary
		// anyway, the evaluator folds it.
		p.bump()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: op, Operand: operand,
			Range: ast.Span{Start: start, End: operand.Span().End}}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		if p.peek() != '.' {
			return expr
		}
		next := p.peek2()
		if next == scanner.EOF || !isIdentStart(byte(next)) {
			return expr
		}
		p.bump()
		field := p.parseIdent(false)
		expr = &ast.MemberExpr{Object: expr, Field: field,
			Range: ast.Span{Start: expr.Span().Start, End: p.pos()}}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	p.skipSpace()
	start := p.pos()
	ch := p.peek()

	switch {
	case ch == scanner.EOF, ch == '}', ch == ')':
		p.errorAt("expected-expression", start, start+1, "expected an expression")
		return &ast.NullLiteral{Range: ast.Span{Start: start, End: start}}

	case ch == '(':
		p.bump()
		p.skipSpace()
		expr := p.parseExpr()
		p.skipSpace()
		if p.peek() == ')' {
			p.bump()
		} else {
			p.errorAt("expected-rparen", p.pos(), p.pos()+1, "expected ')'")
		}
		return expr

	case ch == '"':
		return p.parseStringLiteral()

	case ch >= '0' && ch <= '9':
		return p.parseNumber()

	case isIdentStart(byte(ch)):
		name := p.parseIdent(false)
		span := ast.Span{Start: start, End: p.pos()}
		switch name {
		case "true":
			return &ast.BoolLiteral{Value: true, Range: span}
		case "false":
			return &ast.BoolLiteral{Value: false, Range: span}
		case "null":
			return &ast.NullLiteral{Range: span}
		}
		return &ast.Identifier{Name: name, Range: span}

	default:
		p.errorAt("expected-expression", start, start+1,
			"unexpected character %q in expression", string(byte(ch)))
		p.bump()
		return &ast.NullLiteral{Range: ast.Span{Start: start, End: p.pos()}}
	}
}

func (p *Parser) parseNumber() ast.Expr {
	start := p.pos()
	for ch := p.peek(); ch >= '0' && ch <= '9'; ch = p.peek() {
		p.bump()
	}
	isFloat := false
	if p.peek() == '.' {
		if n := p.peek2(); n >= '0' && n <= '9' {
			isFloat = true
			p.bump()
			for ch := p.peek(); ch >= '0' && ch <= '9'; ch = p.peek() {
				p.bump()
			}
		}
	}
	text := string(p.src[start:p.pos()])
	span := ast.Span{Start: start, End: p.pos()}

	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.errorAt("bad-number", start, p.pos(), "invalid number %q", text)
		}
		return &ast.FloatLiteral{Value: v, Range: span}
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.errorAt("bad-number", start, p.pos(), "invalid number %q", text)
	}
	return &ast.IntLiteral{Value: v, Range: span}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	start := p.pos()
	p.bump() // '"'
	var sb strings.Builder
	for {
		ch := p.peek()
		if ch == scanner.EOF {
			p.errorAt("unterminated-string", start, p.pos(), "unterminated string literal")
			break
		}
		if ch == '"' {
			p.bump()
			break
		}
		if ch == '\\' {
			p.bump()
			esc := p.peek()
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case scanner.EOF:
				continue
			default:
				sb.WriteByte('\\')
				sb.WriteByte(byte(esc))
			}
			p.bump()
			continue
		}
		sb.WriteByte(byte(ch))
		p.bump()
	}
	return &ast.StringLiteral{Value: sb.String(), Range: ast.Span{Start: start, End: p.pos()}}
}

// atOp reports whether the operator starts at the current position. Only
// same-line whitespace is skipped: a newline ends the expression, so a
// top-level binding followed by "<Root>" is not misread as a comparison.
func (p *Parser) atOp(op string) bool {
	p.skipInlineSpace()
	pos := p.pos()
	if pos+len(op) > len(p.src) {
		return false
	}
	if string(p.src[pos:pos+len(op)]) != op {
		return false
	}
	// "==" must not match when the source has "===" etc.; the expression
	// grammar has no such operators, so a full-prefix match is enough. The
	// single-character "<" and ">" are only tested after their two-character
	// forms.
	return true
}

func (p *Parser) consumeOp(op string) {
	for range op {
		p.bump()
	}
}

func (p *Parser) skipInlineSpace() {
	for {
		switch p.peek() {
		case ' ', '\t', '\r':
			p.bump()
		default:
			return
		}
	}
}

// namedEntities is the small table the decoder knows. Any other well-formed
// named entity passes through undecoded.
var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": "\"",
	"apos": "'",
}

// decodeEntity decodes a well-formed entity token ("&...;") to its text.
func decodeEntity(raw string) string {
	body := raw[1 : len(raw)-1]
	if strings.HasPrefix(body, "#") {
		num := body[1:]
		base := 10
		if len(num) > 0 && (num[0] == 'x' || num[0] == 'X') {
			base = 16
			num = num[1:]
		}
		v, err := strconv.ParseUint(num, base, 32)
		if err != nil {
			return raw
		}
		return string(rune(v))
	}
	if decoded, ok := namedEntities[body]; ok {
		return decoded
	}
	return raw
}

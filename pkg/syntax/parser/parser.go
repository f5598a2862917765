// Package parser parses NX markup documents. It owns the grammar state and
// drives the content scanner with the set of token kinds that are legal at
// each position: element content scans in text mode, typed text elements
// (<name:type>...</name:type>) scan in embed mode where @{expr} interpolates.
package parser

import (
	"fmt"

	"github.com/nx-lang/nx/pkg/diagnostics"
	"github.com/nx-lang/nx/pkg/syntax/ast"
	"github.com/nx-lang/nx/pkg/syntax/scanner"
)

var (
	textLegality = scanner.Legal(scanner.TextChunk, scanner.Entity,
		scanner.EscapedLBrace, scanner.EscapedRBrace)
	embedLegality = scanner.Legal(scanner.EmbedTextChunk, scanner.Entity,
		scanner.EscapedLBrace, scanner.EscapedRBrace, scanner.EscapedAt)
)

// Result is the outcome of a parse: a tree (possibly partial) plus collected
// diagnostics.
type Result struct {
	Document *ast.Document
	Bag      *diagnostics.Bag
	Source   []byte
	File     string
}

// Ok reports whether the parse produced no error diagnostics.
func (r *Result) Ok() bool {
	return !r.Bag.HasErrors()
}

// Parse parses src into a document.
func Parse(src []byte, fileName string) *Result {
	p := &Parser{
		src:  src,
		file: fileName,
		cur:  scanner.NewCursor(src),
		bag:  diagnostics.NewBag(),
	}
	doc := p.parseDocument()
	p.bag.ResolveSpans(src)
	return &Result{Document: doc, Bag: p.bag, Source: src, File: fileName}
}

// ParseString parses source into a document.
func ParseString(source, fileName string) *Result {
	return Parse([]byte(source), fileName)
}

// Parser is a recursive-descent parser over a scanner cursor.
type Parser struct {
	src  []byte
	file string
	cur  *scanner.Cursor
	bag  *diagnostics.Bag
	opts scanner.Options
}

func (p *Parser) peek() int {
	return p.cur.Peek()
}

func (p *Parser) peek2() int {
	if pos := p.cur.Pos() + 1; pos < len(p.src) {
		return int(p.src[pos])
	}
	return scanner.EOF
}

func (p *Parser) pos() int {
	return p.cur.Pos()
}

// bump consumes one byte and keeps the cursor's committed end in step, so the
// scanner can be re-entered at any time.
func (p *Parser) bump() {
	p.cur.Advance()
	p.cur.Commit()
}

func (p *Parser) skipSpace() {
	for {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.bump()
		default:
			return
		}
	}
}

func (p *Parser) errorAt(code string, start, end int, format string, args ...any) *diagnostics.Diagnostic {
	d := diagnostics.NewError(code, fmt.Sprintf(format, args...)).
		WithPrimaryLabel(p.file, start, end, "")
	p.bag.Add(d)
	return d
}

func (p *Parser) parseDocument() *ast.Document {
	doc := &ast.Document{}
	p.skipSpace()

	for p.atKeyword("let") {
		if b := p.parseBinding(); b != nil {
			doc.Bindings = append(doc.Bindings, b)
		}
		p.skipSpace()
	}

	if p.peek() != '<' {
		p.bag.Add(diagnostics.NewError("no-root", "No root element found in source").
			WithPrimaryLabel(p.file, 0, len(p.src), "").
			WithHelp("Add a top-level element to create an implicit root function."))
		doc.Range = ast.Span{Start: 0, End: len(p.src)}
		return doc
	}

	doc.Root = p.parseElement()
	p.skipSpace()
	if p.peek() != scanner.EOF {
		p.errorAt("trailing-content", p.pos(), len(p.src),
			"unexpected content after the root element")
	}
	doc.Range = ast.Span{Start: 0, End: len(p.src)}
	return doc
}

// atKeyword reports whether the given word starts here, followed by a
// non-identifier byte.
func (p *Parser) atKeyword(word string) bool {
	pos := p.pos()
	if pos+len(word) > len(p.src) {
		return false
	}
	if string(p.src[pos:pos+len(word)]) != word {
		return false
	}
	if pos+len(word) == len(p.src) {
		return true
	}
	return !isIdentByte(p.src[pos+len(word)])
}

func (p *Parser) parseBinding() *ast.Binding {
	start := p.pos()
	for range "let" {
		p.bump()
	}
	p.skipSpace()

	name := p.parseIdent(false)
	if name == "" {
		p.errorAt("expected-name", p.pos(), p.pos()+1, "expected a binding name after 'let'")
		p.recoverTo('<', '\n')
		return nil
	}
	p.skipSpace()
	if p.peek() != '=' {
		p.errorAt("expected-eq", p.pos(), p.pos()+1, "expected '=' in let binding")
		p.recoverTo('<', '\n')
		return nil
	}
	p.bump()
	p.skipSpace()

	value := p.parseExpr()
	return &ast.Binding{Name: name, Value: value, Range: ast.Span{Start: start, End: p.pos()}}
}

// recoverTo skips bytes until one of the given bytes or end of input.
func (p *Parser) recoverTo(stops ...byte) {
	for {
		ch := p.peek()
		if ch == scanner.EOF {
			return
		}
		for _, s := range stops {
			if ch == int(s) {
				return
			}
		}
		p.bump()
	}
}

func (p *Parser) parseElement() *ast.Element {
	start := p.pos()
	p.bump() // '<'

	el := &ast.Element{}
	el.Name = p.parseIdent(true)
	if el.Name == "" {
		p.errorAt("expected-tag-name", p.pos(), p.pos()+1, "expected an element name after '<'")
	}
	if p.peek() == ':' {
		p.bump()
		el.TextType = p.parseIdent(true)
		if el.TextType == "" {
			p.errorAt("expected-text-type", p.pos(), p.pos()+1,
				"expected a text type after ':' in element tag")
		}
	}

	p.parseProperties(el)

	p.skipSpace()
	if p.peek() == '/' && p.peek2() == '>' {
		p.bump()
		p.bump()
		el.SelfClosing = true
		el.Range = ast.Span{Start: start, End: p.pos()}
		return el
	}
	if p.peek() != '>' {
		p.errorAt("expected-gt", p.pos(), p.pos()+1,
			"expected '>' or '/>' to end the <%s> tag", el.Tag())
		p.recoverTo('>')
	}
	if p.peek() == '>' {
		p.bump()
	}

	el.Content = p.parseContent(el.TextType != "")
	p.parseCloseTag(el, start)
	el.Range = ast.Span{Start: start, End: p.pos()}
	return el
}

func (p *Parser) parseProperties(el *ast.Element) {
	for {
		p.skipSpace()
		ch := p.peek()
		if ch == scanner.EOF || ch == '>' || ch == '/' {
			return
		}
		if !isIdentStart(byte(ch)) {
			p.errorAt("expected-property", p.pos(), p.pos()+1,
				"unexpected character in <%s> tag", el.Tag())
			p.bump()
			continue
		}

		start := p.pos()
		name := p.parseIdent(true)
		prop := &ast.Property{Name: name}

		if p.peek() == '=' {
			p.bump()
			switch p.peek() {
			case '"':
				prop.Value = p.parseStringLiteral()
			case '{':
				p.bump()
				p.skipSpace()
				prop.Value = p.parseExpr()
				p.skipSpace()
				if p.peek() == '}' {
					p.bump()
				} else {
					p.errorAt("expected-rbrace", p.pos(), p.pos()+1,
						"expected '}' to close the property expression")
				}
			default:
				p.errorAt("expected-property-value", p.pos(), p.pos()+1,
					"expected a string or {expr} value for property %q", name)
			}
		}
		prop.Range = ast.Span{Start: start, End: p.pos()}
		el.Properties = append(el.Properties, prop)
	}
}

// parseContent scans element content until a close tag or end of input.
// Whitespace is significant here; the scanner folds it into text chunks.
func (p *Parser) parseContent(embed bool) []ast.Content {
	legal := textLegality
	if embed {
		legal = embedLegality
	}

	var out []ast.Content
	for {
		if tok, ok := scanner.ScanWith(p.cur, legal, p.opts); ok {
			out = append(out, p.textPiece(tok))
			continue
		}

		switch ch := p.peek(); {
		case ch == scanner.EOF:
			p.errorAt("unclosed-element", p.pos(), p.pos(),
				"unexpected end of input inside element content")
			return out

		case ch == '<':
			if p.peek2() == '/' {
				return out // close tag, handled by the caller
			}
			if embed {
				p.errorAt("unexpected-lt", p.pos(), p.pos()+1,
					"'<' cannot start a child element inside a typed text element").
					WithHelp("Use &lt; to include a literal '<'.")
				out = p.bumpAsText(out)
				continue
			}
			out = append(out, p.parseElement())

		case ch == '{':
			if embed {
				p.errorAt("unescaped-brace", p.pos(), p.pos()+1,
					"unescaped '{' in typed text").
					WithHelp("Write \\{ for a literal brace or @{expr} to interpolate.")
				out = p.bumpAsText(out)
				continue
			}
			start := p.pos()
			p.bump()
			p.skipSpace()
			expr := p.parseExpr()
			p.skipSpace()
			if p.peek() == '}' {
				p.bump()
			} else {
				p.errorAt("expected-rbrace", p.pos(), p.pos()+1,
					"expected '}' to close the interpolation")
			}
			out = append(out, &ast.Interpolation{Expr: expr, Range: ast.Span{Start: start, End: p.pos()}})

		case ch == '}':
			p.errorAt("unescaped-brace", p.pos(), p.pos()+1,
				"unescaped '}' in element content").
				WithHelp("Write \\} for a literal brace.")
			out = p.bumpAsText(out)

		case ch == '@' && embed:
			start := p.pos()
			p.bump() // '@'
			p.bump() // '{', guaranteed by the scanner's stop condition
			p.skipSpace()
			expr := p.parseExpr()
			p.skipSpace()
			if p.peek() == '}' {
				p.bump()
			} else {
				p.errorAt("expected-rbrace", p.pos(), p.pos()+1,
					"expected '}' to close the interpolation")
			}
			out = append(out, &ast.EmbedInterpolation{Expr: expr, Range: ast.Span{Start: start, End: p.pos()}})

		default:
			// No token and no structural byte, e.g. a trailing backslash
			// excluded under BackslashTrim. Take it as literal text.
			out = p.bumpAsText(out)
		}
	}
}

// bumpAsText consumes one byte as a literal text piece.
func (p *Parser) bumpAsText(out []ast.Content) []ast.Content {
	start := p.pos()
	raw := string(p.src[start : start+1])
	p.bump()
	return append(out, &ast.Text{Decoded: raw, Raw: raw, Range: ast.Span{Start: start, End: p.pos()}})
}

func (p *Parser) parseCloseTag(el *ast.Element, openStart int) {
	if p.peek() == scanner.EOF {
		return // unclosed-element already reported
	}
	start := p.pos()
	p.bump() // '<'
	p.bump() // '/'

	name := p.parseIdent(true)
	if p.peek() == ':' {
		p.bump()
		if t := p.parseIdent(true); t != "" {
			name += ":" + t
		}
	}
	p.skipSpace()
	if p.peek() == '>' {
		p.bump()
	} else {
		p.errorAt("expected-gt", p.pos(), p.pos()+1, "expected '>' to end the closing tag")
		p.recoverTo('>')
		if p.peek() == '>' {
			p.bump()
		}
	}

	if name != el.Tag() {
		p.errorAt("mismatched-close", start, p.pos(),
			"closing tag </%s> does not match <%s>", name, el.Tag()).
			WithSecondaryLabel(p.file, openStart, openStart+1, "opened here")
	}
}

func (p *Parser) textPiece(tok scanner.Token) *ast.Text {
	raw := tok.Text(p.src)
	decoded := raw
	switch tok.Kind {
	case scanner.Entity:
		decoded = decodeEntity(raw)
	case scanner.EscapedLBrace, scanner.EscapedRBrace, scanner.EscapedAt:
		decoded = raw[1:]
	}
	return &ast.Text{Decoded: decoded, Raw: raw, Range: ast.Span{Start: tok.Start, End: tok.End}}
}

// parseIdent consumes an identifier, or returns "" without consuming. Tag
// identifiers additionally allow '-'.
func (p *Parser) parseIdent(tag bool) string {
	start := p.pos()
	ch := p.peek()
	if ch == scanner.EOF || !isIdentStart(byte(ch)) {
		return ""
	}
	p.bump()
	for {
		ch = p.peek()
		if ch == scanner.EOF {
			break
		}
		b := byte(ch)
		if isIdentByte(b) || (tag && b == '-') {
			p.bump()
			continue
		}
		break
	}
	return string(p.src[start:p.pos()])
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

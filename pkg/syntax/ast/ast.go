package ast

// Span is a half-open byte range into the source.
type Span struct {
	Start int
	End   int
}

// Node represents any node in the parse tree.
type Node interface {
	Span() Span
}

// Expr represents an expression that yields a value.
type Expr interface {
	Node
	exprNode()
}

// Content represents one piece of element content.
type Content interface {
	Node
	contentNode()
}

// Document is the root node: optional let bindings followed by one root
// element.
type Document struct {
	Bindings []*Binding
	Root     *Element
	Range    Span
}

func (d *Document) Span() Span { return d.Range }

// Binding: let name = expr
type Binding struct {
	Name  string
	Value Expr
	Range Span
}

func (b *Binding) Span() Span { return b.Range }

// Element: <name prop=... >content</name>, <name ... />, or a typed text
// element <name:type>...</name:type> whose content is embed-mode text.
type Element struct {
	Name        string
	TextType    string // "" unless the tag is name:type
	Properties  []*Property
	Content     []Content
	SelfClosing bool
	Range       Span
}

func (e *Element) Span() Span { return e.Range }
func (e *Element) contentNode() {}

// Tag returns the full tag name as written, including any text type.
func (e *Element) Tag() string {
	if e.TextType == "" {
		return e.Name
	}
	return e.Name + ":" + e.TextType
}

// Property: name="string", name={expr}, or a bare flag.
type Property struct {
	Name  string
	Value Expr // nil for a bare flag
	Range Span
}

func (p *Property) Span() Span { return p.Range }

// Text is a literal content piece: a chunk, a decoded entity, or a decoded
// escape. Decoded holds the text the piece stands for; Raw preserves the
// source spelling.
type Text struct {
	Decoded string
	Raw     string
	Range   Span
}

func (t *Text) Span() Span { return t.Range }
func (t *Text) contentNode() {}

// Interpolation: {expr} in element content.
type Interpolation struct {
	Expr  Expr
	Range Span
}

func (i *Interpolation) Span() Span { return i.Range }
func (i *Interpolation) contentNode() {}

// EmbedInterpolation: @{expr} inside a typed text element.
type EmbedInterpolation struct {
	Expr  Expr
	Range Span
}

func (i *EmbedInterpolation) Span() Span { return i.Range }
func (i *EmbedInterpolation) contentNode() {}

// Identifier names a binding.
type Identifier struct {
	Name  string
	Range Span
}

func (i *Identifier) Span() Span { return i.Range }
func (i *Identifier) exprNode() {}

// IntLiteral: 42
type IntLiteral struct {
	Value int64
	Range Span
}

func (l *IntLiteral) Span() Span { return l.Range }
func (l *IntLiteral) exprNode() {}

// FloatLiteral: 3.14
type FloatLiteral struct {
	Value float64
	Range Span
}

func (l *FloatLiteral) Span() Span { return l.Range }
func (l *FloatLiteral) exprNode() {}

// StringLiteral: "text"
type StringLiteral struct {
	Value string
	Range Span
}

func (l *StringLiteral) Span() Span { return l.Range }
func (l *StringLiteral) exprNode() {}

// BoolLiteral: true or false
type BoolLiteral struct {
	Value bool
	Range Span
}

func (l *BoolLiteral) Span() Span { return l.Range }
func (l *BoolLiteral) exprNode() {}

// NullLiteral: null
type NullLiteral struct {
	Range Span
}

func (l *NullLiteral) Span() Span { return l.Range }
func (l *NullLiteral) exprNode() {}

// UnaryExpr: -x or !x
type UnaryExpr struct {
	Op      string
	Operand Expr
	Range   Span
}

func (u *UnaryExpr) Span() Span { return u.Range }
func (u *UnaryExpr) exprNode() {}

// BinaryExpr: a + b, a == b, a && b, ...
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Range Span
}

func (b *BinaryExpr) Span() Span { return b.Range }
func (b *BinaryExpr) exprNode() {}

// MemberExpr: obj.field
type MemberExpr struct {
	Object Expr
	Field  string
	Range  Span
}

func (m *MemberExpr) Span() Span { return m.Range }
func (m *MemberExpr) exprNode() {}

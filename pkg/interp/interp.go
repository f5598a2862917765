// Package interp evaluates a parsed NX document to a value tree.
package interp

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nx-lang/nx/pkg/syntax/ast"
	"github.com/nx-lang/nx/pkg/value"
)

var (
	ErrDepthExceeded = errors.New("interp: recursion depth exceeded")
	ErrStepsExceeded = errors.New("interp: step limit exceeded")
)

const (
	DefaultMaxDepth = 256
	DefaultMaxSteps = 1_000_000
)

// Error is a runtime evaluation error with a source span.
type Error struct {
	Message string
	Span    ast.Span
}

func (e *Error) Error() string {
	return e.Message
}

func errAt(span ast.Span, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Span: span}
}

// Interpreter is a tree-walking evaluator with bounded depth and steps.
type Interpreter struct {
	MaxDepth int
	MaxSteps int

	steps int
}

// New creates an interpreter with default limits.
func New() *Interpreter {
	return &Interpreter{MaxDepth: DefaultMaxDepth, MaxSteps: DefaultMaxSteps}
}

// EvalDocument evaluates the document's bindings in order, then its root
// element.
func (in *Interpreter) EvalDocument(doc *ast.Document) (value.Value, error) {
	in.steps = 0
	env := make(map[string]value.Value)

	for _, b := range doc.Bindings {
		v, err := in.evalExpr(env, b.Value, 0)
		if err != nil {
			return value.Null(), err
		}
		env[b.Name] = v
	}

	if doc.Root == nil {
		return value.Null(), errAt(doc.Range, "document has no root element")
	}
	return in.evalElement(env, doc.Root, 0)
}

func (in *Interpreter) tick(span ast.Span) error {
	in.steps++
	if in.MaxSteps > 0 && in.steps > in.MaxSteps {
		return errAt(span, "%v", ErrStepsExceeded)
	}
	return nil
}

func (in *Interpreter) evalElement(env map[string]value.Value, el *ast.Element, depth int) (value.Value, error) {
	if in.MaxDepth > 0 && depth > in.MaxDepth {
		return value.Null(), errAt(el.Range, "%v", ErrDepthExceeded)
	}
	if err := in.tick(el.Range); err != nil {
		return value.Null(), err
	}

	rec := value.NewRecord(el.Name)
	for _, prop := range el.Properties {
		if prop.Value == nil {
			rec.Set(prop.Name, value.Bool(true)) // bare flag
			continue
		}
		v, err := in.evalExpr(env, prop.Value, depth+1)
		if err != nil {
			return value.Null(), err
		}
		rec.Set(prop.Name, v)
	}

	if el.TextType != "" {
		text, err := in.evalEmbedText(env, el, depth)
		if err != nil {
			return value.Null(), err
		}
		rec.Set("type", value.String(el.TextType))
		rec.Set("text", value.String(text))
		return value.Rec(rec), nil
	}

	children, err := in.evalChildren(env, el.Content, depth)
	if err != nil {
		return value.Null(), err
	}
	if len(children) > 0 {
		rec.Set("children", value.Array(children...))
	}
	return value.Rec(rec), nil
}

// evalChildren evaluates mixed content. Adjacent literal text pieces merge
// into one string child; interpolations and child elements keep their own
// slots.
func (in *Interpreter) evalChildren(env map[string]value.Value, content []ast.Content, depth int) ([]value.Value, error) {
	var children []value.Value
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			children = append(children, value.String(text.String()))
			text.Reset()
		}
	}

	for _, piece := range content {
		switch c := piece.(type) {
		case *ast.Text:
			text.WriteString(c.Decoded)
		case *ast.Interpolation:
			flush()
			v, err := in.evalExpr(env, c.Expr, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		case *ast.Element:
			flush()
			v, err := in.evalElement(env, c, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		case *ast.EmbedInterpolation:
			return nil, errAt(c.Range, "embed interpolation outside a typed text element")
		}
	}
	flush()
	return children, nil
}

// evalEmbedText renders typed text content to a single string. Interpolated
// values are displayed: strings verbatim, null as empty, everything else via
// its display form.
func (in *Interpreter) evalEmbedText(env map[string]value.Value, el *ast.Element, depth int) (string, error) {
	var sb strings.Builder
	for _, piece := range el.Content {
		switch c := piece.(type) {
		case *ast.Text:
			sb.WriteString(c.Decoded)
		case *ast.EmbedInterpolation:
			v, err := in.evalExpr(env, c.Expr, depth+1)
			if err != nil {
				return "", err
			}
			sb.WriteString(display(v))
		case *ast.Interpolation:
			return "", errAt(c.Range, "plain interpolation inside a typed text element")
		case *ast.Element:
			return "", errAt(c.Span(), "child element inside a typed text element")
		}
	}
	return sb.String(), nil
}

func display(v value.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func (in *Interpreter) evalExpr(env map[string]value.Value, expr ast.Expr, depth int) (value.Value, error) {
	if in.MaxDepth > 0 && depth > in.MaxDepth {
		return value.Null(), errAt(expr.Span(), "%v", ErrDepthExceeded)
	}
	if err := in.tick(expr.Span()); err != nil {
		return value.Null(), err
	}

	switch e := expr.(type) {
	case *ast.NullLiteral:
		return value.Null(), nil
	case *ast.BoolLiteral:
		return value.Bool(e.Value), nil
	case *ast.IntLiteral:
		return value.Int(e.Value), nil
	case *ast.FloatLiteral:
		return value.Float(e.Value), nil
	case *ast.StringLiteral:
		return value.String(e.Value), nil

	case *ast.Identifier:
		v, ok := env[e.Name]
		if !ok {
			return value.Null(), errAt(e.Range, "unknown binding %q", e.Name)
		}
		return v, nil

	case *ast.MemberExpr:
		obj, err := in.evalExpr(env, e.Object, depth+1)
		if err != nil {
			return value.Null(), err
		}
		rec, ok := obj.AsRecord()
		if !ok {
			return value.Null(), errAt(e.Range, "cannot access field %q on a %s value", e.Field, obj.Kind())
		}
		v, ok := rec.Get(e.Field)
		if !ok {
			return value.Null(), errAt(e.Range, "record has no field %q", e.Field)
		}
		return v, nil

	case *ast.UnaryExpr:
		return in.evalUnary(env, e, depth)

	case *ast.BinaryExpr:
		return in.evalBinary(env, e, depth)

	default:
		return value.Null(), errAt(expr.Span(), "unsupported expression")
	}
}

func (in *Interpreter) evalUnary(env map[string]value.Value, e *ast.UnaryExpr, depth int) (value.Value, error) {
	operand, err := in.evalExpr(env, e.Operand, depth+1)
	if err != nil {
		return value.Null(), err
	}
	switch e.Op {
	case "-":
		if i, ok := operand.AsInt(); ok {
			return value.Int(-i), nil
		}
		if f, ok := operand.AsFloat(); ok {
			return value.Float(-f), nil
		}
		return value.Null(), errAt(e.Range, "cannot negate a %s value", operand.Kind())
	case "!":
		if b, ok := operand.AsBool(); ok {
			return value.Bool(!b), nil
		}
		return value.Null(), errAt(e.Range, "cannot apply '!' to a %s value", operand.Kind())
	}
	return value.Null(), errAt(e.Range, "unknown unary operator %q", e.Op)
}

func (in *Interpreter) evalBinary(env map[string]value.Value, e *ast.BinaryExpr, depth int) (value.Value, error) {
	// Logical operators short-circuit.
	if e.Op == "&&" || e.Op == "||" {
		left, err := in.evalExpr(env, e.Left, depth+1)
		if err != nil {
			return value.Null(), err
		}
		lb, ok := left.AsBool()
		if !ok {
			return value.Null(), errAt(e.Left.Span(), "%q needs bool operands, got %s", e.Op, left.Kind())
		}
		if (e.Op == "&&" && !lb) || (e.Op == "||" && lb) {
			return value.Bool(lb), nil
		}
		right, err := in.evalExpr(env, e.Right, depth+1)
		if err != nil {
			return value.Null(), err
		}
		rb, ok := right.AsBool()
		if !ok {
			return value.Null(), errAt(e.Right.Span(), "%q needs bool operands, got %s", e.Op, right.Kind())
		}
		return value.Bool(rb), nil
	}

	left, err := in.evalExpr(env, e.Left, depth+1)
	if err != nil {
		return value.Null(), err
	}
	right, err := in.evalExpr(env, e.Right, depth+1)
	if err != nil {
		return value.Null(), err
	}

	switch e.Op {
	case "==":
		return value.Bool(looseEqual(left, right)), nil
	case "!=":
		return value.Bool(!looseEqual(left, right)), nil
	case "+":
		if ls, ok := left.AsString(); ok {
			if rs, ok := right.AsString(); ok {
				return value.String(ls + rs), nil
			}
		}
		return numericOp(e, left, right)
	case "-", "*", "/", "%":
		return numericOp(e, left, right)
	case "<", "<=", ">", ">=":
		return compareOp(e, left, right)
	}
	return value.Null(), errAt(e.Range, "unknown operator %q", e.Op)
}

// looseEqual compares values, treating int and float as one numeric domain.
func looseEqual(a, b value.Value) bool {
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		return af == bf
	}
	return a.Equal(b)
}

func numericOp(e *ast.BinaryExpr, left, right value.Value) (value.Value, error) {
	li, lIsInt := left.AsInt()
	ri, rIsInt := right.AsInt()
	if lIsInt && rIsInt {
		switch e.Op {
		case "+":
			return value.Int(li + ri), nil
		case "-":
			return value.Int(li - ri), nil
		case "*":
			return value.Int(li * ri), nil
		case "/":
			if ri == 0 {
				return value.Null(), errAt(e.Range, "division by zero")
			}
			return value.Int(li / ri), nil
		case "%":
			if ri == 0 {
				return value.Null(), errAt(e.Range, "division by zero")
			}
			return value.Int(li % ri), nil
		}
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return value.Null(), errAt(e.Range, "%q needs numeric operands, got %s and %s",
			e.Op, left.Kind(), right.Kind())
	}
	switch e.Op {
	case "+":
		return value.Float(lf + rf), nil
	case "-":
		return value.Float(lf - rf), nil
	case "*":
		return value.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return value.Null(), errAt(e.Range, "division by zero")
		}
		return value.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return value.Null(), errAt(e.Range, "division by zero")
		}
		return value.Float(math.Mod(lf, rf)), nil
	}
	return value.Null(), errAt(e.Range, "unknown operator %q", e.Op)
}

func compareOp(e *ast.BinaryExpr, left, right value.Value) (value.Value, error) {
	if ls, ok := left.AsString(); ok {
		if rs, ok := right.AsString(); ok {
			return value.Bool(compareResult(e.Op, strings.Compare(ls, rs))), nil
		}
	}
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return value.Null(), errAt(e.Range, "%q needs comparable operands, got %s and %s",
			e.Op, left.Kind(), right.Kind())
	}
	switch {
	case lf < rf:
		return value.Bool(compareResult(e.Op, -1)), nil
	case lf > rf:
		return value.Bool(compareResult(e.Op, 1)), nil
	default:
		return value.Bool(compareResult(e.Op, 0)), nil
	}
}

func compareResult(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

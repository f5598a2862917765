package interp_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nx-lang/nx/pkg/interp"
	"github.com/nx-lang/nx/pkg/syntax/parser"
	"github.com/nx-lang/nx/pkg/value"
)

func eval(t *testing.T, src string) value.Value {
	t.Helper()
	result := parser.ParseString(src, "test.nx")
	require.True(t, result.Ok(), "parse diagnostics: %v", result.Bag.Diagnostics())

	v, err := interp.New().EvalDocument(result.Document)
	require.NoError(t, err)
	return v
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	result := parser.ParseString(src, "test.nx")
	require.True(t, result.Ok(), "parse diagnostics: %v", result.Bag.Diagnostics())

	_, err := interp.New().EvalDocument(result.Document)
	require.Error(t, err)
	return err
}

func record(t *testing.T, v value.Value) *value.Record {
	t.Helper()
	rec, ok := v.AsRecord()
	require.True(t, ok, "expected a record, got %s", v)
	return rec
}

func field(t *testing.T, rec *value.Record, key string) value.Value {
	t.Helper()
	v, ok := rec.Get(key)
	require.True(t, ok, "missing field %q", key)
	return v
}

func TestElementBecomesTypedRecord(t *testing.T) {
	rec := record(t, eval(t, `<greeting lang="en" count={2} loud/>`))

	assert.Equal(t, "greeting", rec.TypeName)
	assert.True(t, field(t, rec, "lang").Equal(value.String("en")))
	assert.True(t, field(t, rec, "count").Equal(value.Int(2)))
	assert.True(t, field(t, rec, "loud").Equal(value.Bool(true)))
}

func TestAdjacentTextMergesIntoOneChild(t *testing.T) {
	rec := record(t, eval(t, `<p>fish &amp; \{chips\}</p>`))

	children, ok := field(t, rec, "children").AsArray()
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.True(t, children[0].Equal(value.String("fish & {chips}")))
}

func TestInterpolationKeepsItsOwnSlot(t *testing.T) {
	rec := record(t, eval(t, "let name = \"World\"\n<p>Hello {name}!</p>"))

	children, ok := field(t, rec, "children").AsArray()
	require.True(t, ok)
	require.Len(t, children, 3)
	assert.True(t, children[0].Equal(value.String("Hello ")))
	assert.True(t, children[1].Equal(value.String("World")))
	assert.True(t, children[2].Equal(value.String("!")))
}

func TestChildElements(t *testing.T) {
	rec := record(t, eval(t, `<a><b/>mid<c n={1}/></a>`))

	children, ok := field(t, rec, "children").AsArray()
	require.True(t, ok)
	require.Len(t, children, 3)

	b := record(t, children[0])
	assert.Equal(t, "b", b.TypeName)
	assert.Equal(t, 0, b.Len())

	assert.True(t, children[1].Equal(value.String("mid")))

	c := record(t, children[2])
	assert.Equal(t, "c", c.TypeName)
	assert.True(t, field(t, c, "n").Equal(value.Int(1)))
}

func TestEmptyElementHasNoChildrenField(t *testing.T) {
	rec := record(t, eval(t, `<a></a>`))
	_, ok := rec.Get("children")
	assert.False(t, ok)
}

func TestTypedTextElement(t *testing.T) {
	rec := record(t, eval(t, "let answer = 6 * 7\n<doc:markdown>The answer is @{answer}.</doc:markdown>"))

	assert.Equal(t, "doc", rec.TypeName)
	assert.True(t, field(t, rec, "type").Equal(value.String("markdown")))
	assert.True(t, field(t, rec, "text").Equal(value.String("The answer is 42.")))
}

func TestEmbedTextDisplaysValues(t *testing.T) {
	cases := []struct {
		binding string
		want    string
	}{
		{`let v = "plain"`, "plain"},       // strings render verbatim, unquoted
		{"let v = null", ""},               // null renders empty
		{"let v = true", "true"},
		{"let v = 2.5", "2.5"},
	}
	for _, tc := range cases {
		rec := record(t, eval(t, tc.binding+"\n<x:t>@{v}</x:t>"))
		assert.True(t, field(t, rec, "text").Equal(value.String(tc.want)), "binding %q", tc.binding)
	}
}

func TestBindingsEvaluateInOrder(t *testing.T) {
	rec := record(t, eval(t, "let a = 2\nlet b = a * 3\n<r v={b}/>"))
	assert.True(t, field(t, rec, "v").Equal(value.Int(6)))
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want value.Value
	}{
		{"1 + 2 * 3", value.Int(7)},
		{"(1 + 2) * 3", value.Int(9)},
		{"7 / 2", value.Int(3)},
		{"7 % 2", value.Int(1)},
		{"7.0 / 2", value.Float(3.5)},
		{"1 + 0.5", value.Float(1.5)},
		{"-3 + 1", value.Int(-2)},
		{`"a" + "b"`, value.String("ab")},
		{"1 == 1.0", value.Bool(true)},
		{"1 != 2", value.Bool(true)},
		{`"a" < "b"`, value.Bool(true)},
		{"2 >= 2", value.Bool(true)},
		{"true && false", value.Bool(false)},
		{"false || true", value.Bool(true)},
		{"!false", value.Bool(true)},
	}
	for _, tc := range cases {
		rec := record(t, eval(t, "let v = "+tc.expr+"\n<r out={v}/>"))
		got := field(t, rec, "out")
		assert.True(t, got.Equal(tc.want), "expr %q: got %s, want %s", tc.expr, got, tc.want)
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	// The right operand references an unknown binding; short-circuiting must
	// never evaluate it.
	rec := record(t, eval(t, "let v = false && missing\n<r out={v}/>"))
	assert.True(t, field(t, rec, "out").Equal(value.Bool(false)))

	rec = record(t, eval(t, "let v = true || missing\n<r out={v}/>"))
	assert.True(t, field(t, rec, "out").Equal(value.Bool(true)))
}

func TestUnknownBinding(t *testing.T) {
	err := evalErr(t, "<r v={nope}/>")
	assert.Contains(t, err.Error(), `unknown binding "nope"`)

	var rt *interp.Error
	require.True(t, errors.As(err, &rt))
	assert.Greater(t, rt.Span.End, rt.Span.Start)
}

func TestDivisionByZero(t *testing.T) {
	err := evalErr(t, "let v = 1 / 0\n<r out={v}/>")
	assert.Contains(t, err.Error(), "division by zero")

	err = evalErr(t, "let v = 1 % 0\n<r out={v}/>")
	assert.Contains(t, err.Error(), "division by zero")
}

func TestTypeErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`let v = 1 + "s"` + "\n<r o={v}/>", "needs numeric operands"},
		{"let v = -true\n<r o={v}/>", "cannot negate"},
		{"let v = !1\n<r o={v}/>", "cannot apply '!'"},
		{"let v = 1 && true\n<r o={v}/>", "needs bool operands"},
		{`let v = 1 < "s"` + "\n<r o={v}/>", "needs comparable operands"},
	}
	for _, tc := range cases {
		err := evalErr(t, tc.src)
		assert.Contains(t, err.Error(), tc.want, "source %q", tc.src)
	}
}

func TestDepthLimit(t *testing.T) {
	result := parser.ParseString("<a><b><c><d/></c></b></a>", "test.nx")
	require.True(t, result.Ok())

	in := &interp.Interpreter{MaxDepth: 2, MaxSteps: interp.DefaultMaxSteps}
	_, err := in.EvalDocument(result.Document)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion depth exceeded")
}

func TestStepLimit(t *testing.T) {
	result := parser.ParseString("<a><b/><c/><d/></a>", "test.nx")
	require.True(t, result.Ok())

	in := &interp.Interpreter{MaxDepth: interp.DefaultMaxDepth, MaxSteps: 2}
	_, err := in.EvalDocument(result.Document)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step limit exceeded")
}

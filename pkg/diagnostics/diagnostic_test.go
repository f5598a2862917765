package diagnostics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nx-lang/nx/pkg/diagnostics"
)

func TestSeverityNames(t *testing.T) {
	assert.Equal(t, "error", diagnostics.Error.String())
	assert.Equal(t, "warning", diagnostics.Warning.String())
	assert.Equal(t, "info", diagnostics.Info.String())
	assert.Equal(t, "hint", diagnostics.Hint.String())
}

func TestSeverityTextRoundTrip(t *testing.T) {
	for _, s := range []diagnostics.Severity{
		diagnostics.Error, diagnostics.Warning, diagnostics.Info, diagnostics.Hint,
	} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back diagnostics.Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
}

func TestBuilders(t *testing.T) {
	d := diagnostics.NewError("bad-thing", "something went wrong").
		WithPrimaryLabel("a.nx", 3, 7, "here").
		WithSecondaryLabel("a.nx", 0, 1, "opened here").
		WithHelp("try the other thing").
		WithNote("this has always been the case")

	assert.Equal(t, diagnostics.Error, d.Severity)
	assert.Equal(t, "bad-thing", d.Code)
	require.Len(t, d.Labels, 2)
	assert.True(t, d.Labels[0].Primary)
	assert.False(t, d.Labels[1].Primary)
	assert.Equal(t, 3, d.Labels[0].Span.StartByte)
	assert.Equal(t, 7, d.Labels[0].Span.EndByte)
	assert.Equal(t, "try the other thing", d.Help)
	assert.Equal(t, "this has always been the case", d.Note)

	w := diagnostics.NewWarning("odd-thing", "looks odd")
	assert.Equal(t, diagnostics.Warning, w.Severity)
}

func TestResolveSpans(t *testing.T) {
	source := []byte("ab\ncd\nef")
	d := diagnostics.NewError("x", "m").WithPrimaryLabel("a.nx", 4, 5, "")
	d.ResolveSpans(source)

	span := d.Labels[0].Span
	assert.Equal(t, 2, span.StartLine)
	assert.Equal(t, 2, span.StartColumn)
	assert.Equal(t, 2, span.EndLine)
	assert.Equal(t, 3, span.EndColumn)
}

func TestResolveSpansCountsRunes(t *testing.T) {
	// "é" is two bytes but one column.
	source := []byte("é x")
	d := diagnostics.NewError("x", "m").WithPrimaryLabel("a.nx", 3, 4, "")
	d.ResolveSpans(source)

	span := d.Labels[0].Span
	assert.Equal(t, 1, span.StartLine)
	assert.Equal(t, 3, span.StartColumn)
}

func TestResolveSpansClampsOutOfRange(t *testing.T) {
	d := diagnostics.NewError("x", "m").WithPrimaryLabel("a.nx", 100, 200, "")
	d.ResolveSpans([]byte("ab"))

	span := d.Labels[0].Span
	assert.Equal(t, 1, span.StartLine)
	assert.Equal(t, 3, span.StartColumn)
}

func TestJSONShape(t *testing.T) {
	d := diagnostics.NewError("no-root", "No root element found in source").
		WithPrimaryLabel("a.nx", 0, 2, "")
	d.ResolveSpans([]byte("ab"))

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "error", raw["severity"])
	assert.Equal(t, "no-root", raw["code"])
	assert.NotContains(t, raw, "help", "empty fields are omitted")

	labels := raw["labels"].([]any)
	label := labels[0].(map[string]any)
	span := label["span"].(map[string]any)
	assert.Equal(t, float64(0), span["start_byte"])
	assert.Equal(t, float64(1), span["start_line"])
	assert.Equal(t, float64(1), span["start_column"])
}

func TestMsgpackRoundTrip(t *testing.T) {
	d := diagnostics.NewWarning("w-code", "watch out").
		WithPrimaryLabel("b.nx", 1, 4, "right here").
		WithHelp("do less of that")
	d.ResolveSpans([]byte("abcdef"))

	data, err := msgpack.Marshal(d)
	require.NoError(t, err)

	var back diagnostics.Diagnostic
	require.NoError(t, msgpack.Unmarshal(data, &back))
	assert.Equal(t, d.Severity, back.Severity)
	assert.Equal(t, d.Code, back.Code)
	assert.Equal(t, d.Message, back.Message)
	assert.Equal(t, d.Help, back.Help)
	require.Len(t, back.Labels, 1)
	assert.Equal(t, d.Labels[0], back.Labels[0])
}

func TestBagCounts(t *testing.T) {
	bag := diagnostics.NewBag()
	assert.False(t, bag.HasErrors())

	bag.Add(diagnostics.NewWarning("w", "warn"))
	assert.False(t, bag.HasErrors())
	assert.Equal(t, 1, bag.WarningCount())

	bag.Add(diagnostics.NewError("e", "err"))
	bag.Add(diagnostics.NewError("e2", "err2"))
	assert.True(t, bag.HasErrors())
	assert.Equal(t, 2, bag.ErrorCount())

	diags := bag.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "w", diags[0].Code)
	assert.Equal(t, "e2", diags[2].Code)
}

func TestRenderPlain(t *testing.T) {
	source := []byte("<a>\nbad line\n</a>")
	d := diagnostics.NewError("oops", "this is broken").
		WithPrimaryLabel("test.nx", 4, 7, "not like this").
		WithHelp("fix it")

	r := diagnostics.NewRenderer(source, false)
	out := r.Render(d)

	assert.Contains(t, out, "error[oops]: this is broken")
	assert.Contains(t, out, "--> test.nx:2:1")
	assert.Contains(t, out, "bad line")
	assert.Contains(t, out, "^^^ not like this")
	assert.Contains(t, out, "= help: fix it")
	assert.NotContains(t, out, "\x1b[", "plain output must carry no ANSI codes")
}

func TestRenderSecondaryLabelUsesDashes(t *testing.T) {
	source := []byte("abcdef")
	d := diagnostics.NewError("x", "m").
		WithSecondaryLabel("test.nx", 2, 4, "related")

	out := diagnostics.NewRenderer(source, false).Render(d)
	assert.Contains(t, out, "-- related")
	assert.NotContains(t, out, "^^")
}

func TestRenderAllSummary(t *testing.T) {
	bag := diagnostics.NewBag()
	bag.Add(diagnostics.NewError("a", "first"))
	bag.Add(diagnostics.NewError("b", "second"))

	out := diagnostics.NewRenderer([]byte("x"), false).RenderAll(bag)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "2 error(s)")
}

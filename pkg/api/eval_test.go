package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nx-lang/nx/pkg/api"
	"github.com/nx-lang/nx/pkg/diagnostics"
	"github.com/nx-lang/nx/pkg/value"
)

const sampleDoc = `
let name = "World"
<greeting lang="en">Hello {name}!</greeting>
`

func TestEvalJSON(t *testing.T) {
	status, buf := api.EvalString(sampleDoc, "sample.nx", api.EncodingJSON)
	require.Equal(t, api.StatusOK, status)
	require.NotNil(t, buf)
	defer buf.Release()

	want := `{"$type":"greeting","children":["Hello ","World","!"],"lang":"en"}`
	assert.JSONEq(t, want, string(buf.Bytes()))
}

func TestEvalMsgpackDecodesBack(t *testing.T) {
	status, buf := api.EvalString(sampleDoc, "sample.nx", api.EncodingMsgpack)
	require.Equal(t, api.StatusOK, status)
	defer buf.Release()

	v, err := api.DecodeResult(buf.Bytes(), api.EncodingMsgpack)
	require.NoError(t, err)

	rec, ok := v.AsRecord()
	require.True(t, ok)
	assert.Equal(t, "greeting", rec.TypeName)

	lang, _ := rec.Get("lang")
	assert.True(t, lang.Equal(value.String("en")))

	children, _ := rec.Get("children")
	elems, ok := children.AsArray()
	require.True(t, ok)
	require.Len(t, elems, 3)
	assert.True(t, elems[1].Equal(value.String("World")))
}

func TestEncodingsAgree(t *testing.T) {
	jsonStatus, jsonBuf := api.EvalString(sampleDoc, "sample.nx", api.EncodingJSON)
	require.Equal(t, api.StatusOK, jsonStatus)
	defer jsonBuf.Release()

	mpStatus, mpBuf := api.EvalString(sampleDoc, "sample.nx", api.EncodingMsgpack)
	require.Equal(t, api.StatusOK, mpStatus)
	defer mpBuf.Release()

	fromJSON, err := api.DecodeResult(jsonBuf.Bytes(), api.EncodingJSON)
	require.NoError(t, err)
	fromMsgpack, err := api.DecodeResult(mpBuf.Bytes(), api.EncodingMsgpack)
	require.NoError(t, err)

	assert.True(t, fromJSON.Equal(fromMsgpack))
}

func TestParseErrorReturnsDiagnostics(t *testing.T) {
	status, buf := api.EvalString("no markup here", "bad.nx", api.EncodingJSON)
	require.Equal(t, api.StatusError, status)
	require.NotNil(t, buf)
	defer buf.Release()

	diags, err := api.DecodeDiagnostics(buf.Bytes(), api.EncodingJSON)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.Error, diags[0].Severity)
	assert.Equal(t, "no-root", diags[0].Code)
	require.Len(t, diags[0].Labels, 1)
	assert.Equal(t, "bad.nx", diags[0].Labels[0].File)
	assert.Equal(t, 1, diags[0].Labels[0].Span.StartLine)
}

func TestParseErrorDiagnosticsOverMsgpack(t *testing.T) {
	status, buf := api.EvalString("<a><b></c></a>", "bad.nx", api.EncodingMsgpack)
	require.Equal(t, api.StatusError, status)
	defer buf.Release()

	diags, err := api.DecodeDiagnostics(buf.Bytes(), api.EncodingMsgpack)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, "mismatched-close", diags[0].Code)
}

func TestRuntimeErrorReturnsDiagnostic(t *testing.T) {
	status, buf := api.EvalString("let v = 1 / 0\n<r out={v}/>", "calc.nx", api.EncodingJSON)
	require.Equal(t, api.StatusError, status)
	defer buf.Release()

	diags, err := api.DecodeDiagnostics(buf.Bytes(), api.EncodingJSON)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "runtime-error", diags[0].Code)
	assert.Contains(t, diags[0].Message, "division by zero")
	require.Len(t, diags[0].Labels, 1)
	assert.Equal(t, "calc.nx", diags[0].Labels[0].File)
	assert.Greater(t, diags[0].Labels[0].Span.EndByte, diags[0].Labels[0].Span.StartByte)
}

func TestInvalidArguments(t *testing.T) {
	status, buf := api.EvalSource(nil, nil, api.EncodingJSON)
	assert.Equal(t, api.StatusInvalidArgument, status)
	assert.Nil(t, buf)

	status, buf = api.EvalSource([]byte{0xff, 0xfe}, nil, api.EncodingJSON)
	assert.Equal(t, api.StatusInvalidArgument, status)
	assert.Nil(t, buf)
}

func TestDefaultFileName(t *testing.T) {
	status, buf := api.EvalSource([]byte("oops"), nil, api.EncodingJSON)
	require.Equal(t, api.StatusError, status)
	defer buf.Release()

	diags, err := api.DecodeDiagnostics(buf.Bytes(), api.EncodingJSON)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	require.NotEmpty(t, diags[0].Labels)
	assert.Equal(t, "input.nx", diags[0].Labels[0].File)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "ok", api.StatusOK.String())
	assert.Equal(t, "error", api.StatusError.String())
	assert.Equal(t, "invalid argument", api.StatusInvalidArgument.String())
	assert.Equal(t, "internal failure", api.StatusInternal.String())
	assert.Equal(t, "unknown", api.Status(7).String())
}

func TestResultIsValidJSON(t *testing.T) {
	status, buf := api.EvalString("<a b={1.5}/>", "", api.EncodingJSON)
	require.Equal(t, api.StatusOK, status)
	defer buf.Release()

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "a", raw["$type"])
	assert.Equal(t, 1.5, raw["b"])
}

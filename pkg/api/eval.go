// Package api is the evaluation boundary: it accepts source bytes, runs the
// parse/eval pipeline, and returns a status code plus an owned buffer holding
// the result in one of two interchangeable encodings.
package api

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nx-lang/nx/pkg/diagnostics"
	"github.com/nx-lang/nx/pkg/interp"
	"github.com/nx-lang/nx/pkg/syntax/parser"
	"github.com/nx-lang/nx/pkg/value"
)

// Status categorizes an evaluation outcome.
type Status uint32

const (
	// StatusOK means the buffer holds the serialized result value.
	StatusOK Status = 0
	// StatusError means the buffer holds a serialized diagnostics list.
	StatusError Status = 1
	// StatusInvalidArgument means the input was rejected before evaluation.
	StatusInvalidArgument Status = 2
	// StatusInternal means evaluation failed unrecoverably; no buffer.
	StatusInternal Status = 255
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusInternal:
		return "internal failure"
	default:
		return "unknown"
	}
}

// Encoding selects the result serialization.
type Encoding int

const (
	// EncodingMsgpack is the compact binary map/array encoding.
	EncodingMsgpack Encoding = iota
	// EncodingJSON is the textual structured encoding.
	EncodingJSON
)

const defaultFileName = "input.nx"

// EvalSource parses and evaluates a self-contained NX source, returning a
// status and a buffer. The source must define a root element. fileName is
// used only in diagnostic labels; empty or nil falls back to "input.nx".
//
// The returned buffer is owned by the caller and must be released exactly
// once. On StatusInternal and StatusInvalidArgument the buffer is nil.
func EvalSource(source, fileName []byte, enc Encoding) (status Status, buf *Buffer) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusInternal
			buf = nil
		}
	}()

	if source == nil || !utf8.Valid(source) {
		return StatusInvalidArgument, nil
	}
	name := defaultFileName
	if len(fileName) > 0 && utf8.Valid(fileName) {
		name = string(fileName)
	}

	result := parser.Parse(source, name)
	if !result.Ok() {
		return encodeDiagnostics(result.Bag.Diagnostics(), enc)
	}

	v, err := interp.New().EvalDocument(result.Document)
	if err != nil {
		d := diagnostics.NewError("runtime-error", err.Error())
		var rt *interp.Error
		if errors.As(err, &rt) {
			d.WithPrimaryLabel(name, rt.Span.Start, rt.Span.End, "")
			d.ResolveSpans(source)
		}
		return encodeDiagnostics([]*diagnostics.Diagnostic{d}, enc)
	}

	payload, err := encodeValue(v, enc)
	if err != nil {
		d := diagnostics.NewError("serialize-error", errors.Wrap(err, "result serialize failed").Error())
		return encodeDiagnostics([]*diagnostics.Diagnostic{d}, enc)
	}
	return StatusOK, newBuffer(payload)
}

// EvalString is EvalSource for string inputs.
func EvalString(source, fileName string, enc Encoding) (Status, *Buffer) {
	return EvalSource([]byte(source), []byte(fileName), enc)
}

func encodeValue(v value.Value, enc Encoding) ([]byte, error) {
	if enc == EncodingJSON {
		return json.Marshal(v)
	}
	return msgpack.Marshal(v)
}

func encodeDiagnostics(diags []*diagnostics.Diagnostic, enc Encoding) (Status, *Buffer) {
	var payload []byte
	var err error
	if enc == EncodingJSON {
		payload, err = json.Marshal(diags)
	} else {
		payload, err = msgpack.Marshal(diags)
	}
	if err != nil {
		return StatusInternal, nil
	}
	return StatusError, newBuffer(payload)
}

// DecodeResult decodes a StatusOK payload back into a value, for hosts that
// want the structured result rather than raw bytes.
func DecodeResult(payload []byte, enc Encoding) (value.Value, error) {
	var v value.Value
	var err error
	if enc == EncodingJSON {
		err = json.Unmarshal(payload, &v)
	} else {
		err = msgpack.Unmarshal(payload, &v)
	}
	return v, err
}

// DecodeDiagnostics decodes a StatusError payload back into diagnostics.
func DecodeDiagnostics(payload []byte, enc Encoding) ([]*diagnostics.Diagnostic, error) {
	var diags []*diagnostics.Diagnostic
	var err error
	if enc == EncodingJSON {
		err = json.Unmarshal(payload, &diags)
	} else {
		err = msgpack.Unmarshal(payload, &diags)
	}
	return diags, err
}

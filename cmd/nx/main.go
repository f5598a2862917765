package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	arg "github.com/alexflint/go-arg"

	"github.com/nx-lang/nx/pkg/api"
	"github.com/nx-lang/nx/pkg/diagnostics"
	"github.com/nx-lang/nx/pkg/syntax/ast"
	"github.com/nx-lang/nx/pkg/syntax/parser"
	"github.com/nx-lang/nx/pkg/syntax/scanner"
)

type evalCmd struct {
	File   string `arg:"positional,required" help:"NX source file"`
	Format string `arg:"--format" default:"json" help:"json, json-pretty, or msgpack"`
}

type parseCmd struct {
	File string `arg:"positional,required" help:"NX source file"`
}

type tokensCmd struct {
	File  string `arg:"positional,required" help:"NX source file"`
	Embed bool   `arg:"--embed" help:"scan in embed mode"`
}

type cli struct {
	Eval   *evalCmd   `arg:"subcommand:eval" help:"evaluate a document and print the result"`
	Parse  *parseCmd  `arg:"subcommand:parse" help:"parse a document and dump the tree"`
	Tokens *tokensCmd `arg:"subcommand:tokens" help:"dump the content tokens of a file"`
}

func (cli) Description() string {
	return "nx evaluates NX markup documents"
}

func main() {
	var args cli
	p := arg.MustParse(&args)

	switch {
	case args.Eval != nil:
		runEval(args.Eval)
	case args.Parse != nil:
		runParse(args.Parse)
	case args.Tokens != nil:
		runTokens(args.Tokens)
	default:
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
}

func readSource(path string) []byte {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nx: %v\n", err)
		os.Exit(1)
	}
	return src
}

func runEval(cmd *evalCmd) {
	src := readSource(cmd.File)

	enc := api.EncodingJSON
	if cmd.Format == "msgpack" {
		enc = api.EncodingMsgpack
	}

	status, buf := api.EvalSource(src, []byte(cmd.File), enc)
	switch status {
	case api.StatusOK:
		defer buf.Release()
		out := buf.Bytes()
		if cmd.Format == "json-pretty" {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, out, "", "  "); err == nil {
				out = pretty.Bytes()
			}
		}
		os.Stdout.Write(out)
		if cmd.Format != "msgpack" {
			fmt.Println()
		}

	case api.StatusError:
		defer buf.Release()
		diags, err := api.DecodeDiagnostics(buf.Bytes(), enc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nx: %v\n", err)
			os.Exit(1)
		}
		r := diagnostics.NewRenderer(src, true)
		for _, d := range diags {
			fmt.Fprint(os.Stderr, r.Render(d))
		}
		os.Exit(1)

	default:
		fmt.Fprintf(os.Stderr, "nx: evaluation failed: %s\n", status)
		os.Exit(1)
	}
}

func runParse(cmd *parseCmd) {
	src := readSource(cmd.File)
	result := parser.Parse(src, cmd.File)

	if result.Document != nil {
		dumpDocument(result.Document)
	}
	if !result.Ok() {
		r := diagnostics.NewRenderer(src, true)
		fmt.Fprint(os.Stderr, r.RenderAll(result.Bag))
		os.Exit(1)
	}
}

func runTokens(cmd *tokensCmd) {
	src := readSource(cmd.File)

	legal := scanner.Legal(scanner.TextChunk, scanner.Entity,
		scanner.EscapedLBrace, scanner.EscapedRBrace)
	if cmd.Embed {
		legal = scanner.Legal(scanner.EmbedTextChunk, scanner.Entity,
			scanner.EscapedLBrace, scanner.EscapedRBrace, scanner.EscapedAt)
	}

	c := scanner.NewCursor(src)
	for c.Peek() != scanner.EOF {
		tok, ok := scanner.Scan(c, legal)
		if !ok {
			// A structural byte the scanner refuses; show and skip it.
			fmt.Printf("%4d-%-4d raw              %q\n", c.Pos(), c.Pos()+1, string(src[c.Pos()]))
			c.Advance()
			c.Commit()
			continue
		}
		fmt.Printf("%4d-%-4d %-16s %q\n", tok.Start, tok.End, tok.Kind, tok.Text(src))
	}
}

func dumpDocument(doc *ast.Document) {
	for _, b := range doc.Bindings {
		fmt.Printf("let %s = %s\n", b.Name, dumpExpr(b.Value))
	}
	if doc.Root != nil {
		dumpElement(doc.Root, 0)
	}
}

func dumpElement(el *ast.Element, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Printf("%selement %s", pad, el.Tag())
	for _, prop := range el.Properties {
		if prop.Value == nil {
			fmt.Printf(" %s", prop.Name)
		} else {
			fmt.Printf(" %s=%s", prop.Name, dumpExpr(prop.Value))
		}
	}
	fmt.Println()
	for _, c := range el.Content {
		switch n := c.(type) {
		case *ast.Text:
			fmt.Printf("%s  text %q\n", pad, n.Decoded)
		case *ast.Interpolation:
			fmt.Printf("%s  interp {%s}\n", pad, dumpExpr(n.Expr))
		case *ast.EmbedInterpolation:
			fmt.Printf("%s  interp @{%s}\n", pad, dumpExpr(n.Expr))
		case *ast.Element:
			dumpElement(n, indent+1)
		}
	}
}

func dumpExpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.NullLiteral:
		return "null"
	case *ast.BoolLiteral:
		return fmt.Sprintf("%v", n.Value)
	case *ast.IntLiteral:
		return fmt.Sprintf("%d", n.Value)
	case *ast.FloatLiteral:
		return fmt.Sprintf("%g", n.Value)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.Identifier:
		return n.Name
	case *ast.MemberExpr:
		return dumpExpr(n.Object) + "." + n.Field
	case *ast.UnaryExpr:
		return n.Op + dumpExpr(n.Operand)
	case *ast.BinaryExpr:
		return "(" + dumpExpr(n.Left) + " " + n.Op + " " + dumpExpr(n.Right) + ")"
	default:
		return "?"
	}
}

// Command tl is TL's compiler-front-end-plus-interpreter driver, the
// renamed generalization of the teacher's codecrafters/cmd/main.go
// tokenize|parse|evaluate|run dispatcher to TL's lex→parse→check→run
// pipeline (TL additionally has a static type checker, which Lox never
// needed).
package main

import (
	"fmt"
	"os"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/eval"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/lexer"
	"github.com/suma/toylang/internal/parser"
	"github.com/suma/toylang/internal/types"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: tl [tokenize | parse | check | run] <file>")
		os.Exit(1)
	}

	command := os.Args[1]
	filename := os.Args[2]

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	switch command {
	case "tokenize":
		runTokenize(filename, src)
	case "parse":
		runParse(filename, src)
	case "check":
		runCheck(filename, src)
	case "run":
		runRun(filename, src)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func runTokenize(filename string, src []byte) {
	in := intern.New()
	toks, lexErrs := lexer.New(src, in).Scan()
	for _, tok := range toks {
		fmt.Printf("%s %q %q\n", tok.Kind, tok.Lexeme, tok.Literal)
	}
	if len(lexErrs) != 0 {
		printLexErrors(filename, src, lexErrs)
		os.Exit(65)
	}
}

func runParse(filename string, src []byte) {
	in := intern.New()
	toks, lexErrs := lexer.New(src, in).Scan()
	if len(lexErrs) != 0 {
		printLexErrors(filename, src, lexErrs)
		os.Exit(65)
	}
	prog, parseErrs := parser.Parse(toks, in)
	if len(parseErrs) != 0 {
		for _, e := range parseErrs {
			printDiagnostic(filename, src, e.Location, e.Error())
		}
		os.Exit(65)
	}
	fmt.Print(prog.String())
}

func runCheck(filename string, src []byte) {
	if _, _, _, ok := checkSrc(filename, src); !ok {
		os.Exit(65)
	}
	fmt.Println("ok")
}

func runRun(filename string, src []byte) {
	prog, ctx, checker, ok := checkSrc(filename, src)
	if !ok {
		os.Exit(65)
	}

	result, err := eval.New(prog, ctx, checker).Run()
	if err != nil {
		printError("Runtime Error: " + err.Error())
		os.Exit(70)
	}
	fmt.Println(result.String())
}

// checkSrc lexes, parses, and type-checks src, printing any diagnostics
// it finds and reporting whether the program is clean enough to run.
// The returned Checker already ran Check() once, so a caller proceeding
// to evaluation reuses its populated expression-type cache rather than
// re-deriving it (internal/eval's NumberLit resolution depends on it).
func checkSrc(filename string, src []byte) (*ast.Program, *types.Context, *types.Checker, bool) {
	in := intern.New()
	toks, lexErrs := lexer.New(src, in).Scan()
	if len(lexErrs) != 0 {
		printLexErrors(filename, src, lexErrs)
		return nil, nil, nil, false
	}

	prog, parseErrs := parser.Parse(toks, in)
	if len(parseErrs) != 0 {
		for _, e := range parseErrs {
			printDiagnostic(filename, src, e.Location, e.Error())
		}
		return nil, nil, nil, false
	}

	ctx := types.NewContext(prog)
	checker := types.NewChecker(prog, ctx)
	typeErrs := checker.Check()
	if len(typeErrs) != 0 {
		for _, e := range typeErrs {
			loc := ast.Location{}
			if e.Location != nil {
				loc = *e.Location
			}
			printDiagnostic(filename, src, loc, e.Error())
		}
		return nil, nil, nil, false
	}
	return prog, ctx, checker, true
}

// printLexErrors recovers each lexer error's source Location via a type
// assertion, since Lexer.Scan returns the bare `error` interface.
func printLexErrors(filename string, src []byte, errs []error) {
	for _, e := range errs {
		loc := ast.Location{}
		if le, ok := e.(*lexer.Error); ok {
			loc = le.Location
		}
		printDiagnostic(filename, src, loc, e.Error())
	}
}

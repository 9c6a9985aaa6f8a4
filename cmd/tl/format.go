package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/suma/toylang/internal/ast"
)

var errorLabel = color.New(color.FgRed, color.Bold)

// printDiagnostic renders one lex/parse/check error with a caret-
// underlined source excerpt, grounded on
// original_source/interpreter/src/error_formatter.rs's
// format_error_with_location: a two-line "| <source>" / "| <caret>"
// block under an "Error at <file>:<line>:<col>:" header, the red
// "Error" label matching the teacher's colorized failed-row label in
// test/compare.go (there: color.RedString("failed")).
func printDiagnostic(filename string, src []byte, loc ast.Location, message string) {
	lines := strings.Split(string(src), "\n")
	sourceLine := "<line not available>"
	if loc.Line > 0 && loc.Line <= len(lines) {
		sourceLine = lines[loc.Line-1]
	}

	column := loc.Column
	if column < 1 {
		column = 1
	}
	if column > len(sourceLine)+1 {
		column = len(sourceLine) + 1
	}
	caret := strings.Repeat(" ", column-1) + "^"

	fmt.Printf("%s at %s:%d:%d:\n", errorLabel.Sprint("Error"), filename, loc.Line, loc.Column)
	fmt.Printf("   |\n")
	fmt.Printf("%2d | %s\n", loc.Line, sourceLine)
	fmt.Printf("   | %s %s\n", caret, message)
	fmt.Printf("   |\n")
}

// printError renders a diagnostic with no source location (e.g. a
// runtime error with no attached Location, spec.md §7).
func printError(message string) {
	fmt.Printf("%s: %s\n", errorLabel.Sprint("Error"), message)
}

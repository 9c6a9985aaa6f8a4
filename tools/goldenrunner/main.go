// Command goldenrunner drives `tl run` over every testdata/*.tl program
// and compares its combined stdout/stderr against the matching
// testdata/*.out golden file; a non-zero exit code also fails a case
// unless -no-fail-exit-code is set. Adapted from the teacher's root main.go, originally a
// clox-vs-reference-implementation diff harness comparing two external
// binaries; this repo only has one implementation, so the "reference"
// side is a golden file read from disk instead of a second subprocess,
// and the per-test runtime percentage (meaningful only when timing two
// VMs against each other) is dropped. The suite-collection, colorized
// pass/fail line, and side-by-side diff printing otherwise keep the
// teacher's shape (collectSuites/PrintResult/printDiff).
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"slices"
	"strings"

	"github.com/fatih/color"
)

type TestCase struct {
	Name     string
	Expected string // golden stdout from the matching .out file
	Actual   TestResult
}

type TestResult struct {
	Stdout   string
	ExitCode int
}

type TestSuite struct {
	Name  string
	Cases []TestCase
}

type TestFramework struct {
	Target string // command that runs this repo's interpreter, e.g. "go run ./cmd/tl run"
	Suites []*TestSuite
	Total  int
	Failed []*TestCase
}

var (
	noFailExitCode = flag.Bool("no-fail-exit-code", false, "Exit code mis-match is not a failure.")
	target         = flag.String("target", "go run ./cmd/tl run", "command that runs a .tl file, e.g. a built tl binary plus \"run\"")
	testdataDir    = flag.String("testdata", "testdata", "directory of *.tl programs and matching *.out golden files")
)

func main() {
	flag.Parse()

	tf := TestFramework{Target: *target}

	tf.collectSuites(*testdataDir)
	slices.SortFunc(tf.Suites, func(a, b *TestSuite) int {
		return strings.Compare(a.Name, b.Name)
	})

	tf.executeTests()
	tf.PrintSummary()

	if len(tf.Failed) > 0 {
		os.Exit(1)
	}
}

// collectSuites gathers every *.tl file directly under dir as the "Top
// Level" suite and one suite per immediate subdirectory, mirroring the
// teacher's one-level-deep collectSuites/collectSuite split.
func (tf *TestFramework) collectSuites(dir string) {
	suites := []*TestSuite{}
	topLevel := TestSuite{Name: "Top Level"}

	for _, entry := range getEntries(dir) {
		if entry.IsDir() {
			suitePath := path.Join(dir, entry.Name())
			suites = append(suites, collectSuite(suitePath))
		} else if strings.HasSuffix(entry.Name(), ".tl") {
			topLevel.Cases = append(topLevel.Cases, TestCase{Name: entry.Name()})
		}
	}

	suites = append(suites, &topLevel)
	tf.Suites = suites
}

func getEntries(dir string) []fs.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		os.Exit(1)
	}
	return entries
}

func collectSuite(dir string) *TestSuite {
	suite := &TestSuite{Name: path.Base(dir)}
	for _, entry := range getEntries(dir) {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tl") {
			suite.Cases = append(suite.Cases, TestCase{Name: entry.Name()})
		}
	}
	return suite
}

const WIDTH = 120

func (tf *TestFramework) executeTests() {
	first := true

	for _, suite := range tf.Suites {
		if len(suite.Cases) == 0 {
			continue
		}

		if first {
			first = false
		} else {
			fmt.Println()
		}

		fmt.Println(suite.Name)

		prevFailed := false
		for i, testCase := range suite.Cases {
			dir := path.Join(*testdataDir, suite.Name)
			if suite.Name == "Top Level" {
				dir = *testdataDir
			}
			tlPath := path.Join(dir, testCase.Name)
			goldenPath := strings.TrimSuffix(tlPath, ".tl") + ".out"

			tc := &suite.Cases[i]
			tc.Expected = readGolden(goldenPath)
			tc.Actual = executeTest(tf.Target, tlPath)

			prevFailed = tc.PrintResult(prevFailed)

			tf.Total++
			if prevFailed {
				tf.Failed = append(tf.Failed, tc)
			}
		}
	}
}

func readGolden(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("<missing golden file %s>", path)
	}
	return string(data)
}

func executeTest(executable, tlFile string) TestResult {
	command := strings.Fields(executable)
	command = append(command, tlFile)
	cmd := exec.Command(command[0], command[1:]...)
	stdout := strings.Builder{}
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		}
	}

	return TestResult{Stdout: stdout.String(), ExitCode: exitCode}
}

var divider = strings.Repeat("-", WIDTH)
var headerSpacing = strings.Repeat(" ", (WIDTH/2)-len("Expected stdout"))

func (tc TestCase) summaryVars() (string, bool) {
	succeeded := tc.Expected == tc.Actual.Stdout &&
		(tc.Actual.ExitCode == 0 || *noFailExitCode)

	result := color.GreenString("passed")
	if !succeeded {
		result = color.RedString("failed")
	}

	// Spacing works because len("passed") == len("failed")
	resultSpacing := strings.Repeat(" ", WIDTH-len("  [passed] ")-len(tc.Name))

	summary := fmt.Sprintf("  [%s] %s%s", result, tc.Name, resultSpacing)
	return summary, !succeeded
}

func (tc TestCase) PrintResult(prevFailed bool) bool {
	summary, failed := tc.summaryVars()

	if failed && !prevFailed {
		fmt.Println(divider)
	}
	fmt.Println(summary)

	if !*noFailExitCode && tc.Actual.ExitCode != 0 {
		fmt.Printf("Non-zero exit code: %d\n", tc.Actual.ExitCode)
	}
	if tc.Expected != tc.Actual.Stdout {
		fmt.Printf("Expected stdout%sActual stdout\n", headerSpacing)
		printDiff(tc.Expected, tc.Actual.Stdout)
	}

	if failed {
		fmt.Println(divider)
	}
	return failed
}

func printDiff(expected, actual string) {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		spaces := (WIDTH / 2) - len(e)
		if spaces < 0 {
			spaces = 2
		}
		spacing := strings.Repeat(" ", spaces)
		fmt.Printf("%s%s%s\n", e, spacing, a)
	}
}

func (tf TestFramework) PrintSummary() {
	fmt.Println()
	fmt.Println(strings.Repeat("=", WIDTH))

	fmt.Println("Test summary")
	fmt.Printf("Tests run: %d\n", tf.Total)
	fmt.Printf("Succeeded: %d\n", tf.Total-len(tf.Failed))
	fmt.Printf("Failed:    %d\n", len(tf.Failed))

	if len(tf.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed tests:")
		for _, tc := range tf.Failed {
			fmt.Printf("  %s\n", tc.Name)
		}
	}
}

// Package parser turns tool output and prompt files into codeagent values.
//
// Test runner output (go test, cargo test, pytest, Jest) becomes
// []models.TestResult and linter output (ESLint, Pylint, Clippy) becomes
// []models.LintResult. Parsers are lenient: unrecognised lines are skipped
// and an empty result means nothing was found, never an error.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/CodedAgent/codeagent/internal/models"
)

// ErrUnknownFormat is returned for a format name no parser handles.
var ErrUnknownFormat = errors.New("unknown output format")

// FormatAuto asks the dispatcher to detect the format from the output.
const FormatAuto = "auto"

type testParserFunc func(string) []models.TestResult

type lintParserFunc func(string) []models.LintResult

var testParsers = map[string]testParserFunc{
	"go":     ParseGoTest,
	"cargo":  ParseCargoTest,
	"pytest": ParsePytest,
	"jest":   ParseJest,
}

var lintParsers = map[string]lintParserFunc{
	"eslint": ParseESLint,
	"pylint": ParsePylint,
	"clippy": ParseClippy,
}

var (
	goSignatureRe     = regexp.MustCompile(`(?m)^(?:=== RUN|\s*--- (?:PASS|FAIL|SKIP):|ok  \t|FAIL\t)`)
	cargoSignatureRe  = regexp.MustCompile(`(?m)^(?:test \S+ \.\.\. (?:ok|FAILED|ignored)|test result: )`)
	pytestSignatureRe = regexp.MustCompile(`(?m)(?:^\S+::\S+\s+(?:PASSED|FAILED|SKIPPED|ERROR)|^=+ test session starts =+)`)
	jestSignatureRe   = regexp.MustCompile(`(?m)(?:^\s*[✓✕√×]\s|^Tests:\s+\d)`)

	clippySignatureRe = regexp.MustCompile(`(?m)(?:^\s*--> \S+\.rs:\d+|^\S+\.rs:\d+:\d+: (?:error|warning))`)
	pylintSignatureRe = regexp.MustCompile(`(?m)^\S+\.py:\d+:\d+:\s+[CRWEFI]\d{4}:`)
	eslintSignatureRe = regexp.MustCompile(`(?m)^\s*\S*\s+\d+:\d+\s+(?:error|warning|info)\s`)
)

// DetectTestFormat guesses the test runner from its output. It returns ""
// when no known runner matches.
func DetectTestFormat(output string) string {
	switch {
	case goSignatureRe.MatchString(output):
		return "go"
	case cargoSignatureRe.MatchString(output):
		return "cargo"
	case pytestSignatureRe.MatchString(output):
		return "pytest"
	case jestSignatureRe.MatchString(output):
		return "jest"
	default:
		return ""
	}
}

// DetectLintFormat guesses the linter from its output. It returns "" when
// no known linter matches.
func DetectLintFormat(output string) string {
	switch {
	case clippySignatureRe.MatchString(output):
		return "clippy"
	case pylintSignatureRe.MatchString(output):
		return "pylint"
	case eslintSignatureRe.MatchString(output):
		return "eslint"
	default:
		return ""
	}
}

// ParseTestOutput parses output with the named parser. With FormatAuto
// (or "") the format is detected; undetectable output yields no results.
func ParseTestOutput(format, output string) ([]models.TestResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == FormatAuto {
		format = DetectTestFormat(output)
		if format == "" {
			return nil, nil
		}
	}

	parse, ok := testParsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: test format %q", ErrUnknownFormat, format)
	}
	return parse(output), nil
}

// ParseLintOutput parses output with the named parser, detecting the
// format for FormatAuto (or "").
func ParseLintOutput(format, output string) ([]models.LintResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == FormatAuto {
		format = DetectLintFormat(output)
		if format == "" {
			return nil, nil
		}
	}

	parse, ok := lintParsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: lint format %q", ErrUnknownFormat, format)
	}
	return parse(output), nil
}

package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/CodedAgent/codeagent/internal/models"
)

// defaultFailureMessage is used for failed tests whose output carries no
// recognisable message.
const defaultFailureMessage = "Test failed"

var (
	goRunRe    = regexp.MustCompile(`^=== (?:RUN|CONT|PAUSE)\s+(\S+)`)
	goResultRe = regexp.MustCompile(`^\s*--- (PASS|FAIL|SKIP): (\S+) \((\d+(?:\.\d+)?)s\)`)
	goDetailRe = regexp.MustCompile(`^\s+([\w./\-]+\.go):(\d+): (.*)$`)
)

// testBuilder accumulates results in first-seen order.
type testBuilder struct {
	order   []string
	results map[string]*models.TestResult
}

func newTestBuilder() *testBuilder {
	return &testBuilder{results: make(map[string]*models.TestResult)}
}

func (b *testBuilder) get(name, framework string) *models.TestResult {
	if r, ok := b.results[name]; ok {
		return r
	}
	r := &models.TestResult{Name: name, Framework: framework}
	b.results[name] = r
	b.order = append(b.order, name)
	return r
}

// list returns the results, giving failed tests without a message the
// default one.
func (b *testBuilder) list() []models.TestResult {
	out := make([]models.TestResult, 0, len(b.order))
	for _, name := range b.order {
		r := *b.results[name]
		if r.Status == models.TestFailed && r.ErrorMessage == nil {
			msg := defaultFailureMessage
			r.ErrorMessage = &msg
		}
		out = append(out, r)
	}
	return out
}

type detail struct {
	file    string
	line    int
	message string
}

// ParseGoTest parses `go test` output, verbose or not. Indented
// "file.go:N: msg" lines are attributed to the test that was running (or
// that just failed); the first one becomes the error message and location.
func ParseGoTest(output string) []models.TestResult {
	b := newTestBuilder()
	details := make(map[string][]detail)
	current := ""

	for _, line := range splitLines(output) {
		if m := goRunRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if m := goResultRe.FindStringSubmatch(line); m != nil {
			r := b.get(m[2], "Go")
			r.Status = goStatus(m[1])
			r.DurationMs = secondsToMs(m[3])
			current = m[2]
			continue
		}
		if m := goDetailRe.FindStringSubmatch(line); m != nil && current != "" {
			n, _ := strconv.Atoi(m[2])
			details[current] = append(details[current], detail{file: m[1], line: n, message: m[3]})
		}
	}

	for name, ds := range details {
		r, ok := b.results[name]
		if !ok || r.Status != models.TestFailed {
			continue
		}
		first := ds[0]
		msg := first.message
		r.ErrorMessage = &msg
		r.File = first.file
		line := first.line
		r.Line = &line
		if len(ds) > 1 {
			trace := make([]string, len(ds))
			for i, d := range ds {
				trace[i] = d.file + ":" + strconv.Itoa(d.line) + ": " + d.message
			}
			joined := strings.Join(trace, "\n")
			r.StackTrace = &joined
		}
	}

	return b.list()
}

func goStatus(s string) models.TestStatus {
	switch s {
	case "PASS":
		return models.TestPassed
	case "FAIL":
		return models.TestFailed
	default:
		return models.TestSkipped
	}
}

var (
	cargoResultRe  = regexp.MustCompile(`^test (\S+) \.\.\. (ok|FAILED|ignored)`)
	cargoSectionRe = regexp.MustCompile(`^---- (\S+) stdout ----$`)
	cargoPanicRe   = regexp.MustCompile(`panicked at (?:'(.*)', )?([^\s:']+):(\d+):\d+:?$`)
)

// ParseCargoTest parses `cargo test` output. Panic messages from the
// "---- name stdout ----" sections become error messages.
func ParseCargoTest(output string) []models.TestResult {
	b := newTestBuilder()
	lines := splitLines(output)

	for _, line := range lines {
		if m := cargoResultRe.FindStringSubmatch(line); m != nil {
			r := b.get(m[1], "Cargo")
			switch m[2] {
			case "ok":
				r.Status = models.TestPassed
			case "FAILED":
				r.Status = models.TestFailed
			default:
				r.Status = models.TestSkipped
			}
		}
	}

	for i := 0; i < len(lines); i++ {
		m := cargoSectionRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		r, ok := b.results[m[1]]
		if !ok {
			continue
		}

		var body []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" && !cargoSectionRe.MatchString(lines[i+1]) {
			i++
			body = append(body, lines[i])
		}
		applyCargoPanic(r, body)
	}

	return b.list()
}

// applyCargoPanic handles both the old single-line panic format
// ("panicked at 'msg', src/lib.rs:3:5") and the newer one where the
// message follows on the next lines.
func applyCargoPanic(r *models.TestResult, body []string) {
	for i, line := range body {
		m := cargoPanicRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		r.File = m[2]
		n, _ := strconv.Atoi(m[3])
		r.Line = &n

		msg := m[1]
		if msg == "" && i+1 < len(body) {
			msg = strings.TrimSpace(body[i+1])
		}
		if msg != "" {
			r.ErrorMessage = &msg
		}
		if rest := body[i+1:]; len(rest) > 0 {
			trace := strings.Join(rest, "\n")
			r.StackTrace = &trace
		}
		return
	}
}

var (
	pytestResultRe  = regexp.MustCompile(`^(\S+::\S+)\s+(PASSED|FAILED|SKIPPED|ERROR|XFAIL|XPASS)\b`)
	pytestSummaryRe = regexp.MustCompile(`^(FAILED|ERROR) (\S+::\S+)(?: - (.+))?$`)
	pytestErrorRe   = regexp.MustCompile(`(?:AssertionError|Error):\s+(.+)`)
)

// ParsePytest parses `pytest -v` output. A failure's message comes from its
// "FAILED id - msg" short summary line; failing that, the first
// "AssertionError: msg" or "Error: msg" line in the whole output is used.
func ParsePytest(output string) []models.TestResult {
	b := newTestBuilder()

	for _, line := range splitLines(output) {
		if m := pytestResultRe.FindStringSubmatch(line); m != nil {
			r := b.get(m[1], "Pytest")
			r.File = pytestFile(m[1])
			r.Status = pytestStatus(m[2])
			continue
		}
		if m := pytestSummaryRe.FindStringSubmatch(line); m != nil {
			r := b.get(m[2], "Pytest")
			r.File = pytestFile(m[2])
			r.Status = models.TestFailed
			if m[3] != "" {
				msg := m[3]
				r.ErrorMessage = &msg
			}
		}
	}

	var fallback *string
	if m := pytestErrorRe.FindStringSubmatch(output); m != nil {
		msg := strings.TrimSpace(m[1])
		fallback = &msg
	}
	for _, r := range b.results {
		if r.Status == models.TestFailed && r.ErrorMessage == nil && fallback != nil {
			msg := *fallback
			r.ErrorMessage = &msg
		}
	}

	return b.list()
}

func pytestFile(id string) string {
	if i := strings.Index(id, "::"); i >= 0 {
		return id[:i]
	}
	return ""
}

func pytestStatus(s string) models.TestStatus {
	switch s {
	case "PASSED", "XPASS":
		return models.TestPassed
	case "FAILED", "ERROR":
		return models.TestFailed
	default:
		return models.TestSkipped
	}
}

var (
	jestPassRe  = regexp.MustCompile(`^\s*[✓√]\s+(.+?)(?:\s+\((\d+)\s*ms\))?\s*$`)
	jestFailRe  = regexp.MustCompile(`^\s*[✕×]\s+(.+?)(?:\s+\((\d+)\s*ms\))?\s*$`)
	jestSkipRe  = regexp.MustCompile(`^\s*○\s+(?:skipped\s+)?(.+?)\s*$`)
	jestBlockRe = regexp.MustCompile(`^\s*●\s+(?:.+ › )?(.+?)\s*$`)
)

// ParseJest parses Jest's default reporter output. A "● Suite › name"
// block supplies the message for the failed test of that name.
func ParseJest(output string) []models.TestResult {
	b := newTestBuilder()
	lines := splitLines(output)

	for _, line := range lines {
		switch {
		case jestPassRe.MatchString(line):
			m := jestPassRe.FindStringSubmatch(line)
			r := b.get(m[1], "Jest")
			r.Status = models.TestPassed
			r.DurationMs = parseUint(m[2])
		case jestFailRe.MatchString(line):
			m := jestFailRe.FindStringSubmatch(line)
			r := b.get(m[1], "Jest")
			r.Status = models.TestFailed
			r.DurationMs = parseUint(m[2])
		case jestSkipRe.MatchString(line):
			m := jestSkipRe.FindStringSubmatch(line)
			b.get(m[1], "Jest").Status = models.TestSkipped
		}
	}

	for i, line := range lines {
		m := jestBlockRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		r, ok := b.results[m[1]]
		if !ok || r.Status != models.TestFailed || r.ErrorMessage != nil {
			continue
		}
		for _, next := range lines[i+1:] {
			if msg := strings.TrimSpace(next); msg != "" {
				r.ErrorMessage = &msg
				break
			}
		}
	}

	return b.list()
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func secondsToMs(s string) uint64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return uint64(f*1000 + 0.5)
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

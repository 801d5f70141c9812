package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/CodedAgent/codeagent/internal/display"
	"github.com/CodedAgent/codeagent/internal/models"
)

// promptEscalator asks the user on a terminal whether a run may continue
// past a failed step.
type promptEscalator struct {
	in       *bufio.Reader
	out      io.Writer
	useColor bool
}

func newPromptEscalator(in io.Reader, out io.Writer, useColor bool) *promptEscalator {
	return &promptEscalator{in: bufio.NewReader(in), out: out, useColor: useColor}
}

// Escalate implements executor.Escalator.
func (e *promptEscalator) Escalate(ctx context.Context, step models.ExecutionStep, result models.StepResult, suggestions []models.FixSuggestion) (bool, error) {
	display.Warning{
		Title:   fmt.Sprintf("Step %s needs your attention", step.ID),
		Message: result.Error(),
	}.Render(e.out, e.useColor)
	display.RenderSuggestions(e.out, suggestions, e.useColor)

	return e.confirm(ctx, fmt.Sprintf("Continue past failed step %s?", step.ID))
}

// confirm reads a y/N answer. Anything but y or yes declines.
func (e *promptEscalator) confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(e.out, "%s [y/N]: ", question)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := e.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(e.out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/push"
)

var ErrPromptAborted = errors.New("prompt aborted")

// Prompter asks the user questions on the terminal.
type Prompter interface {
	push.Prompter

	// Choose returns the index of the picked option.
	Choose(ctx context.Context, question string, options []string) (int, error)
}

// LinePrompter reads answers with line editing. Close it before exiting so the
// terminal mode is restored.
type LinePrompter struct {
	state *liner.State
	out   io.Writer
}

var _ Prompter = (*LinePrompter)(nil)

func NewLinePrompter(out io.Writer) *LinePrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &LinePrompter{state: state, out: out}
}

func (p *LinePrompter) Close() error {
	return p.state.Close()
}

func (p *LinePrompter) prompt(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := p.state.Prompt(text)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrPromptAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		answer, err := p.prompt(ctx, question+" (yes/no): ")
		if err != nil {
			return false, err
		}
		if ok, valid := parseYesNo(answer); valid {
			return ok, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

func (p *LinePrompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	fmt.Fprintln(p.out, question)
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, o)
	}

	for {
		answer, err := p.prompt(ctx, "> ")
		if err != nil {
			return -1, err
		}
		if idx, ok := parseChoice(answer, options); ok {
			return idx, nil
		}
		fmt.Fprintf(p.out, "Pick a number between 1 and %d.\n", len(options))
	}
}

// lazyPrompter opens the line prompter on the first question. liner puts the
// terminal in raw mode as soon as it is created, so commands that never ask keep
// normal echo.
type lazyPrompter struct {
	out io.Writer

	mu sync.Mutex
	lp *LinePrompter
}

var _ Prompter = (*lazyPrompter)(nil)

func newLazyPrompter(out io.Writer) *lazyPrompter {
	return &lazyPrompter{out: out}
}

func (p *lazyPrompter) line() *LinePrompter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lp == nil {
		p.lp = NewLinePrompter(p.out)
	}
	return p.lp
}

func (p *lazyPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	return p.line().Confirm(ctx, question)
}

func (p *lazyPrompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	return p.line().Choose(ctx, question, options)
}

func (p *lazyPrompter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lp == nil {
		return nil
	}
	err := p.lp.Close()
	p.lp = nil
	return err
}

func parseYesNo(s string) (answer, valid bool) {
	switch strings.ToLower(s) {
	case "y", "yes", "ya":
		return true, true
	case "n", "no", "tidak":
		return false, true
	}
	return false, false
}

// parseChoice accepts a 1-based number or the option text itself.
func parseChoice(s string, options []string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return -1, false
	}
	for i, o := range options {
		if strings.EqualFold(s, o) {
			return i, true
		}
	}
	return -1, false
}

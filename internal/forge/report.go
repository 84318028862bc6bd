package forge

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/v0xg/testforge/internal/ai"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// step starts a progress line; finish it with done or failed.
func (f *Forge) step(format string, args ...any) {
	fmt.Fprintf(f.out, "→ "+format+"... ", args...)
}

func (f *Forge) done() { fmt.Fprintln(f.out, "done") }

func (f *Forge) failed() { fmt.Fprintln(f.out, failStyle.Render("failed")) }

func (f *Forge) ok(format string, args ...any) {
	fmt.Fprintln(f.out, okStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (f *Forge) warn(format string, args ...any) {
	fmt.Fprintln(f.out, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (f *Forge) fail(format string, args ...any) {
	fmt.Fprintln(f.out, failStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// modelFailure prints why a gateway call produced nothing usable.
func (f *Forge) modelFailure(err error) {
	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		f.fail("No API key configured (set GOOGLE_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	case errors.Is(err, ai.ErrEmptyResponse):
		f.warn("Model returned an empty answer")
	case errors.Is(err, ai.ErrMalformedResponse):
		f.warn("Model answer is not a single selector")
	default:
		f.fail("Model call failed: %v", err)
	}
}

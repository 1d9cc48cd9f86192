// Package termui renders flow feedback on a terminal. It is one Presenter
// implementation; the flows never depend on it.
package termui

import (
	"fmt"
	"io"

	"authflow/internal/service"
)

type Presenter struct {
	out     io.Writer
	loading bool
}

func New(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) ShowMessage(level service.Level, text string) {
	fmt.Fprintf(p.out, "%s %s\n", badge(level), text)
}

func (p *Presenter) ShowFieldError(field, text string) {
	fmt.Fprintf(p.out, "%s %s: %s\n", badge(service.LevelError), field, text)
}

func (p *Presenter) ClearMessages() {
	// A terminal scrolls; there is nothing to clear.
}

func (p *Presenter) SetLoading(loading bool) {
	if loading && !p.loading {
		fmt.Fprintln(p.out, "... working")
	}
	p.loading = loading
}

func (p *Presenter) SetInputsEnabled(enabled bool) {
	if !enabled {
		fmt.Fprintln(p.out, "Form disabled while locked out.")
	}
}

func (p *Presenter) Navigate(destination string) {
	fmt.Fprintf(p.out, "-> %s\n", destination)
}

func badge(level service.Level) string {
	switch level {
	case service.LevelSuccess:
		return "ok:"
	case service.LevelWarning:
		return "warn:"
	case service.LevelError:
		return "error:"
	default:
		return "info:"
	}
}

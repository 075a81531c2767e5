package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides transfer feedback during repository sync.
type Reporter interface {
	Start(description string)
	Update(current, total int64, message string)
	Finish()
}

// NewReporter returns a TerminalReporter for interactive use, or a
// PlainReporter when running under CI.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &PlainReporter{}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(description string) {
	r.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current, total int64, message string) {
	if r.bar == nil {
		return
	}
	if total > 0 && r.bar.GetMax64() != total {
		r.bar.ChangeMax64(total)
	}
	r.bar.Describe(message)
	_ = r.bar.Set64(current)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// PlainReporter prints line-by-line progress suitable for CI logs.
type PlainReporter struct{}

func (r *PlainReporter) Start(description string) {
	fmt.Fprintf(os.Stderr, "%s\n", description)
}

func (r *PlainReporter) Update(current, total int64, message string) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
		return
	}
	fmt.Fprintf(os.Stderr, "[%d] %s\n", current, message)
}

func (r *PlainReporter) Finish() {
	fmt.Fprintln(os.Stderr, "done")
}

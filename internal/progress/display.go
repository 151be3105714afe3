package progress

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// ProgressDisplay shows one active step at a time. On a TTY the step spins
// until it completes or fails; otherwise each transition is a plain line.
type ProgressDisplay struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols

	mu      sync.Mutex
	spinner *spinner.Spinner
	current StepInfo
}

// NewProgressDisplay returns a display writing to out.
func NewProgressDisplay(out io.Writer, caps TerminalCapabilities) *ProgressDisplay {
	return &ProgressDisplay{out: out, caps: caps, symbols: SelectSymbols(caps)}
}

// StartStep begins showing info as the active step.
func (d *ProgressDisplay) StartStep(info StepInfo) error {
	if info.Name == "" {
		return fmt.Errorf("step name is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.current = info

	if !d.caps.IsTTY {
		_, err := fmt.Fprintf(d.out, "%s...\n", info.label())
		return err
	}

	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	s.Suffix = " " + info.label()
	s.Start()
	d.spinner = s
	return nil
}

// CompleteStep marks info done.
func (d *ProgressDisplay) CompleteStep(info StepInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	mark := d.symbols.Checkmark
	if d.caps.SupportsColor {
		mark = color.GreenString(mark)
	}
	_, err := fmt.Fprintf(d.out, "%s %s\n", mark, info.label())
	return err
}

// FailStep marks info failed with cause.
func (d *ProgressDisplay) FailStep(info StepInfo, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	mark := d.symbols.Failure
	if d.caps.SupportsColor {
		mark = color.RedString(mark)
	}
	msg := info.label()
	if cause != nil {
		msg += ": " + cause.Error()
	}
	_, err := fmt.Fprintf(d.out, "%s %s\n", mark, msg)
	return err
}

// StopSpinner stops an active spinner without printing a status.
func (d *ProgressDisplay) StopSpinner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *ProgressDisplay) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

// Run shows info while fn executes. A nil display just runs fn.
func (d *ProgressDisplay) Run(info StepInfo, fn func() error) error {
	if d == nil {
		return fn()
	}
	if err := d.StartStep(info); err != nil {
		return fmt.Errorf("starting step display: %w", err)
	}
	if err := fn(); err != nil {
		// failure display is best effort
		_ = d.FailStep(info, err)
		return err
	}
	if err := d.CompleteStep(info); err != nil {
		return fmt.Errorf("completing step display: %w", err)
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }

// Package progress renders step progress for long-running relcut commands
// such as builds: a spinner on terminals and plain status lines elsewhere.
package progress

// TerminalCapabilities describes what the output terminal can render.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols are the status markers and spinner character set in use.
type ProgressSymbols struct {
	Checkmark  string
	Failure    string
	SpinnerSet int // index into spinner.CharSets
}

// StepInfo identifies one step of a multi-step command.
type StepInfo struct {
	Name   string
	Number int
	Total  int
}

func (s StepInfo) label() string {
	if s.Total > 1 {
		return "[" + itoa(s.Number) + "/" + itoa(s.Total) + "] " + s.Name
	}
	return s.Name
}

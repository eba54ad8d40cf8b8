package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
	StyleSuccess
	StyleInfo
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorBold   = "\033[1m"
)

// Console prints short labeled messages. Results go to out, diagnostics to errOut.
type Console struct {
	useColors bool
	out       io.Writer
	errOut    io.Writer
}

func NewConsole() *Console {
	return &Console{
		useColors: isTerminal(os.Stderr),
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
}

// NewConsoleWithWriters returns an uncolored console writing to the given writers.
func NewConsoleWithWriters(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// label colors only the label, leaving the message readable when copied.
func (c *Console) label(style ConsoleStyle, label string) string {
	if !c.useColors {
		return label
	}

	var color string
	switch style {
	case StyleError:
		color = colorRed + colorBold
	case StyleWarning:
		color = colorYellow + colorBold
	case StyleSuccess:
		color = colorGreen + colorBold
	case StyleInfo:
		color = colorBlue + colorBold
	default:
		return label
	}

	return color + label + colorReset
}

func (c *Console) PrintError(message string) {
	fmt.Fprintf(c.errOut, "%s %s\n", c.label(StyleError, "Error:"), message)
}

func (c *Console) PrintWarning(message string) {
	fmt.Fprintf(c.errOut, "%s %s\n", c.label(StyleWarning, "Warning:"), message)
}

func (c *Console) PrintSuccess(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.label(StyleSuccess, "success!"), message)
}

// PrintRunning shows the command line about to be executed.
func (c *Console) PrintRunning(args []string) {
	fmt.Fprintf(c.errOut, "%s %s\n", c.label(StyleInfo, "running:"), strings.Join(args, " "))
}

func (c *Console) PrintInfo(message string) {
	fmt.Fprintln(c.out, message)
}

func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}

	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}

	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

func printSuccess(w io.Writer, format string, args ...any) {
	green.Fprintln(w, "✓ "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	red.Fprintln(w, "✗ "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	yellow.Fprintln(w, "⚠ "+fmt.Sprintf(format, args...))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", bold.Sprint(label+":"), fmt.Sprintf(format, args...))
}

func printStep(w io.Writer, format string, args ...any) {
	cyan.Fprintln(w, "→ "+fmt.Sprintf(format, args...))
}

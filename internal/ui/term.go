package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/javiermolinar/planboard/internal/task"
)

// Color definitions for consistent styling across the UI.
var (
	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Conflicts and failures
	colorWarning = color.New(color.FgRed, color.Bold)

	// Positive confirmations
	colorSuccess = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)

	taskColors = map[task.Color]*color.Color{
		task.ColorBlue:   color.New(color.FgBlue),
		task.ColorGreen:  color.New(color.FgGreen),
		task.ColorRed:    color.New(color.FgRed),
		task.ColorYellow: color.New(color.FgYellow),
		task.ColorPurple: color.New(color.FgMagenta),
		task.ColorOrange: color.New(color.FgHiYellow),
		task.ColorGray:   color.New(color.FgHiBlack),
	}
)

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatWarning formats text as a warning.
func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

// formatSuccess formats text as a confirmation.
func formatSuccess(s string) string {
	return colorSuccess.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}

// formatTaskColor paints s in a task's palette color.
func formatTaskColor(c task.Color, s string) string {
	return taskColors[c.OrDefault()].Sprint(s)
}

// reader returns the line reader over the command's input, shared across
// prompts so buffered input is not lost between them.
func (a *App) reader(cmd *cobra.Command) *bufio.Reader {
	if a.stdin == nil {
		a.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	return a.stdin
}

// readPassword prompts for a password without echo when stdin is a terminal,
// and reads a plain line otherwise.
func (a *App) readPassword(cmd *cobra.Command, prompt string) (string, error) {
	out := cmd.ErrOrStderr()
	fmt.Fprint(out, prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := a.reader(cmd).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

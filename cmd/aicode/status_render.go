package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusKinds = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {label: "INFO", color: ansiBlue},
	statusOK:    {label: "OK", color: ansiGreen},
	statusWarn:  {label: "WARN", color: ansiYellow},
	statusError: {label: "ERROR", color: ansiRed},
}

// renderStatusLine formats one aligned "Label: [KIND] message" line, tinted
// by kind when colorize is on.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	meta, ok := statusKinds[kind]
	if !ok {
		meta = statusKinds[statusInfo]
	}
	status := "[" + meta.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize && meta.color != "" {
		return meta.color + line + ansiReset
	}
	return line
}

// renderSectionHeader returns the "== Title ==" banner and its underline.
func renderSectionHeader(title string, colorize bool) []string {
	banner := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	underline := strings.Repeat("-", len(banner))
	if colorize {
		banner = ansiBlue + banner + ansiReset
		underline = ansiBlue + underline + ansiReset
	}
	return []string{banner, underline}
}

// shouldColorize enables ANSI colors only when writing to a terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

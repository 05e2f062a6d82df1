package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// MessageKind selects how a status message is rendered
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageSuccess
	MessageError
	MessageLoading
)

// RenderMessage renders a status message with appropriate styling based on its kind.
// Long messages are truncated to fit the terminal width.
func RenderMessage(text string, kind MessageKind, theme *Theme, spinnerView string, width int) string {
	if text == "" {
		return ""
	}

	// Max length = terminal width - prefix (2) - margin (5)
	maxMessageLength := width - 7
	if maxMessageLength < 20 {
		maxMessageLength = 20
	}
	if runes := []rune(text); len(runes) > maxMessageLength {
		text = string(runes[:maxMessageLength-1]) + "…"
	}

	color := theme.Primary
	prefix := "ℹ "

	switch kind {
	case MessageSuccess:
		color = theme.Success
		prefix = "✓ "
	case MessageError:
		color = theme.Error
		prefix = "✗ "
	case MessageLoading:
		color = theme.Warning
		if spinnerView != "" {
			prefix = spinnerView + " "
		}
	}

	return lipgloss.NewStyle().Foreground(color).Render(prefix + text)
}

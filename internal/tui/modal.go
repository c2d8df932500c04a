package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderQuitModal(width, height int) string {
	if width == 0 || height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave your adventure and exit?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(44).Render(content.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// overlayModal centers a modal box on an otherwise blank screen.
func overlayModal(width, height, boxWidth int, content string) string {
	if width == 0 || height == 0 {
		return content
	}
	modal := modalStyle.Width(boxWidth).Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

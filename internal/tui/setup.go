package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fableterm/fableterm/internal/bridge"
)

type setupDoneMsg struct{ err error }

// setupModel collects the OpenAI API key and submits it to the
// backend. Setup errors are recoverable: the player corrects the key
// and retries without losing any other state.
type setupModel struct {
	input      textinput.Model
	submitting bool
	err        error
}

func newSetupModel() setupModel {
	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.CharLimit = 200
	ti.Width = 48
	ti.EchoMode = textinput.EchoPassword
	ti.Focus()
	return setupModel{input: ti}
}

func (m setupModel) init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) update(msg tea.Msg, app App) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEsc:
			return m, func() tea.Msg { return backToMenuMsg{} }
		case tea.KeyEnter:
			key := strings.TrimSpace(m.input.Value())
			if key == "" {
				m.err = bridge.ErrMissingKey
				return m, nil
			}
			m.submitting = true
			m.err = nil
			return m, func() tea.Msg {
				return setupDoneMsg{err: app.client.Setup(app.ctx, bridge.SetupRequest{OpenAIKey: key})}
			}
		}

	case setupDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			m.input.SetValue("")
			return m, nil
		}
		return m, func() tea.Msg { return backToMenuMsg{} }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m setupModel) view(width, height int) string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Backend Setup"))
	content.WriteString("\n\n")
	content.WriteString("Enter your OpenAI API key. It is stored by the\nbackend, never by this client.")
	content.WriteString("\n\n")
	content.WriteString(m.input.View())
	content.WriteString("\n\n")

	switch {
	case m.submitting:
		content.WriteString(loadingStyle.Render("Checking key..."))
	case m.err != nil:
		content.WriteString(errorStyle.Render(setupErrorText(m.err)))
	default:
		content.WriteString(promptStyle.Render("Enter to submit, Esc to go back"))
	}

	return overlayModal(width, height, 56, content.String())
}

func setupErrorText(err error) string {
	switch {
	case errors.Is(err, bridge.ErrMissingKey):
		return "An API key is required."
	case errors.Is(err, bridge.ErrBadKey):
		return "That key was rejected. Check it and try again."
	case errors.Is(err, bridge.ErrConnectionFailed):
		return "Could not reach OpenAI. Check your connection and retry."
	case errors.Is(err, bridge.ErrFileSystem):
		return "The backend could not write its config. Retry or check permissions."
	default:
		return fmt.Sprintf("Setup failed: %v", err)
	}
}

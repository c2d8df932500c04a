package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fableterm/fableterm/internal/bridge"
	"github.com/fableterm/fableterm/pkg/game"
)

type generationDoneMsg struct {
	game *game.Game
	err  error
}

var (
	contentSettings     = []bridge.ContentSetting{bridge.ContentMinimum, bridge.ContentModerate, bridge.ContentHigh}
	temperatureSettings = []string{"low", "medium", "high"}
)

// generateModel drives game generation: a prompt plus content and
// temperature settings, then a long-running backend call whose
// progress arrives as updates events on the event stream.
type generateModel struct {
	prompt      textarea.Model
	spin        spinner.Model
	textQuality int
	imgQuality  int
	temperature int
	resume      string

	generating bool
	progress   []string
	genErr     *bridge.GenerationError
	err        error
}

func newGenerateModel(resume string) generateModel {
	ta := textarea.New()
	ta.Placeholder = "A haunted lighthouse on a forgotten coast..."
	ta.CharLimit = 1000
	ta.SetWidth(56)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	return generateModel{
		prompt:      ta,
		spin:        sp,
		textQuality: 1,
		imgQuality:  1,
		temperature: 1,
		resume:      resume,
	}
}

func (m generateModel) init() tea.Cmd {
	return textarea.Blink
}

func (m generateModel) update(msg tea.Msg, app App) (generateModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.genErr != nil {
			return m.updateFailurePrompt(msg, app)
		}
		if m.generating {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "tab":
			m.textQuality = (m.textQuality + 1) % len(contentSettings)
			return m, nil
		case "shift+tab":
			m.imgQuality = (m.imgQuality + 1) % len(contentSettings)
			return m, nil
		case "ctrl+r":
			m.temperature = (m.temperature + 1) % len(temperatureSettings)
			return m, nil
		case "enter":
			prompt := strings.TrimSpace(m.prompt.Value())
			if prompt == "" && m.resume == "" {
				return m, nil
			}
			return m.submit(prompt, m.resume, app)
		}

	case updateProgressMsg:
		m.progress = append(m.progress, msg.update.Message)
		if len(m.progress) > 8 {
			m.progress = m.progress[len(m.progress)-8:]
		}
		return m, nil

	case generationDoneMsg:
		m.generating = false
		if msg.err != nil {
			var genErr *bridge.GenerationError
			switch {
			case errors.As(msg.err, &genErr):
				m.genErr = genErr
			case errors.Is(msg.err, bridge.ErrMissingKey) || errors.Is(msg.err, bridge.ErrBadKey):
				return m, func() tea.Msg { return setupNeededMsg{} }
			default:
				m.err = msg.err
			}
			return m, nil
		}
		return m, chooseGame(msg.game)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m generateModel) submit(prompt, resume string, app App) (generateModel, tea.Cmd) {
	m.generating = true
	m.err = nil
	m.genErr = nil
	m.progress = nil

	req := bridge.CreateGameRequest{
		Prompt:              prompt,
		TextContentSetting:  contentSettings[m.textQuality],
		ImageContentSetting: contentSettings[m.imgQuality],
		TemperatureSetting:  temperatureSettings[m.temperature],
		ResumePrevious:      resume,
	}
	call := func() tea.Msg {
		g, err := app.client.CreateNewGame(app.ctx, req)
		return generationDoneMsg{game: g, err: err}
	}
	return m, tea.Batch(call, m.spin.Tick)
}

func (m generateModel) updateFailurePrompt(msg tea.KeyMsg, app App) (generateModel, tea.Cmd) {
	switch msg.String() {
	case "r", "R":
		resume := m.genErr.CheckpointID
		return m.submit(strings.TrimSpace(m.prompt.Value()), resume, app)
	case "d", "D", "esc":
		return m, func() tea.Msg { return backToMenuMsg{} }
	}
	return m, nil
}

func (m generateModel) view(width, height int) string {
	var content strings.Builder

	switch {
	case m.genErr != nil:
		content.WriteString(modalTitleStyle.Render("Generation Failed"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.genErr.Message))
		content.WriteString("\n\n")
		if m.genErr.CheckpointID != "" {
			content.WriteString(fmt.Sprintf("Progress up to checkpoint %s was saved.\n\n", m.genErr.CheckpointID))
			content.WriteString(promptStyle.Render("Press R to resume from the checkpoint, D to discard"))
		} else {
			content.WriteString(promptStyle.Render("Press D to go back"))
		}

	case m.generating:
		content.WriteString(modalTitleStyle.Render("Generating Your Game"))
		content.WriteString("\n\n")
		content.WriteString(m.spin.View() + " " + loadingStyle.Render("This can take a few minutes..."))
		content.WriteString("\n\n")
		for _, line := range m.progress {
			content.WriteString(promptStyle.Render("• "+line) + "\n")
		}

	default:
		content.WriteString(modalTitleStyle.Render("New Game"))
		content.WriteString("\n\n")
		if m.resume != "" {
			content.WriteString(loadingStyle.Render(fmt.Sprintf("Resuming %q", m.resume)))
			content.WriteString("\n\n")
		}
		content.WriteString("Describe the adventure you want to play:\n\n")
		content.WriteString(m.prompt.View())
		content.WriteString("\n\n")
		content.WriteString(fmt.Sprintf("Text quality: %-10s (Tab)\n", contentSettings[m.textQuality]))
		content.WriteString(fmt.Sprintf("Image quality: %-9s (Shift+Tab)\n", contentSettings[m.imgQuality]))
		content.WriteString(fmt.Sprintf("Creativity: %-12s (Ctrl+R)\n", temperatureSettings[m.temperature]))
		content.WriteString("\n")
		if m.err != nil {
			content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			content.WriteString("\n")
		}
		content.WriteString(promptStyle.Render("Enter to generate, Esc to go back"))
	}

	return overlayModal(width, height, 64, content.String())
}

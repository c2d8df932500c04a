package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fableterm/fableterm/internal/saves"
	"github.com/fableterm/fableterm/pkg/game"
)

const (
	menuActionNew   = "new"
	menuActionSetup = "setup"
)

type menuEntry struct {
	label  string
	saved  *saves.SavedGame
	action string
}

type savesScannedMsg struct {
	games      []saves.SavedGame
	incomplete *saves.Incomplete
	err        error
}

// menuModel is the main menu: saved games plus generation and setup
// actions, with a modal prompt when an interrupted generation is found.
type menuModel struct {
	loading    bool
	entries    []menuEntry
	selected   int
	incomplete *saves.Incomplete
	showResume bool
	err        error
}

func newMenuModel() menuModel {
	return menuModel{loading: true}
}

func (m menuModel) init(scanner *saves.Scanner) tea.Cmd {
	return func() tea.Msg {
		games, incomplete, err := scanner.Scan()
		return savesScannedMsg{games: games, incomplete: incomplete, err: err}
	}
}

func (m menuModel) update(msg tea.Msg, app App) (menuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case savesScannedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = m.entries[:0]
		for i := range msg.games {
			sg := msg.games[i]
			m.entries = append(m.entries, menuEntry{
				label: fmt.Sprintf("%s - %s", sg.Game.Name, sg.Game.Summary.Description),
				saved: &sg,
			})
		}
		m.entries = append(m.entries,
			menuEntry{label: "Generate a new game", action: menuActionNew},
			menuEntry{label: "Configure OpenAI API key", action: menuActionSetup},
		)
		if m.selected >= len(m.entries) {
			m.selected = 0
		}
		m.incomplete = msg.incomplete
		m.showResume = msg.incomplete != nil
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.showResume {
			return m.updateResumePrompt(msg, app)
		}

		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.entries)-1 {
				m.selected++
			}
		case "enter":
			return m.choose(app)
		}
	}

	return m, nil
}

func (m menuModel) choose(app App) (menuModel, tea.Cmd) {
	if len(m.entries) == 0 {
		return m, nil
	}
	entry := m.entries[m.selected]

	switch {
	case entry.saved != nil:
		g := entry.saved.Game
		return m, chooseGame(g)
	case entry.action == menuActionNew:
		return m, func() tea.Msg { return newGameMsg{} }
	case entry.action == menuActionSetup:
		return m, func() tea.Msg { return setupNeededMsg{} }
	}
	return m, nil
}

func (m menuModel) updateResumePrompt(msg tea.KeyMsg, app App) (menuModel, tea.Cmd) {
	switch msg.String() {
	case "r", "R":
		resume := m.incomplete.Name
		m.showResume = false
		return m, func() tea.Msg { return newGameMsg{resume: resume} }
	case "d", "D":
		inc := m.incomplete
		m.showResume = false
		m.incomplete = nil
		return m, func() tea.Msg {
			if err := app.scanner.ClearIncomplete(inc); err != nil {
				app.logger.Warn("Failed to delete incomplete game", "error", err)
			}
			games, incomplete, err := app.scanner.Scan()
			return savesScannedMsg{games: games, incomplete: incomplete, err: err}
		}
	case "esc":
		m.showResume = false
	}
	return m, nil
}

func chooseGame(g *game.Game) tea.Cmd {
	return func() tea.Msg { return gameChosenMsg{game: g} }
}

func (m menuModel) view(width, height int) string {
	if m.showResume && m.incomplete != nil {
		var content strings.Builder
		content.WriteString(modalTitleStyle.Render("Unfinished Game Found"))
		content.WriteString("\n\n")
		content.WriteString(fmt.Sprintf("Generation of %q was interrupted.", m.incomplete.Name))
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Press R to resume, D to discard, Esc to decide later"))
		return overlayModal(width, height, 56, content.String())
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("FABLETERM"))
	content.WriteString("\n\n")

	switch {
	case m.loading:
		content.WriteString(loadingStyle.Render("Looking for saved games..."))
	case m.err != nil:
		content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		content.WriteString("\n\n")
	}

	if !m.loading {
		for i, entry := range m.entries {
			if i == m.selected {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", entry.label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", entry.label)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to quit"))
	}

	return overlayModal(width, height, 64, content.String())
}

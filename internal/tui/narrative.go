package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/fableterm/fableterm/internal/narrative"
	"github.com/fableterm/fableterm/pkg/game"
)

type dwellMsg struct{ epoch int }
type fadeDoneMsg struct{}

// narrativeModel shows the pre-game cut-scene while the session starts
// in the background. Each page advances after a dwell timeout or on a
// keypress, whichever comes first; the sequencer guards against both
// firing in the same tick.
type narrativeModel struct {
	g   *game.Game
	seq *narrative.Sequencer
}

func newNarrativeModel(g *game.Game) narrativeModel {
	return narrativeModel{
		g:   g,
		seq: narrative.NewSequencer(len(g.Narrative.Pages)),
	}
}

func (m narrativeModel) init() tea.Cmd {
	if len(m.g.Narrative.Pages) == 0 {
		return func() tea.Msg { return narrativeFinishedMsg{} }
	}
	return dwellCmd(m.seq.Epoch())
}

func dwellCmd(epoch int) tea.Cmd {
	return tea.Tick(narrative.DwellDuration, func(time.Time) tea.Msg {
		return dwellMsg{epoch: epoch}
	})
}

func fadeCmd() tea.Cmd {
	return tea.Tick(narrative.FadeDuration, func(time.Time) tea.Msg {
		return fadeDoneMsg{}
	})
}

func (m narrativeModel) update(msg tea.Msg) (narrativeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ":
			if m.seq.Advance() {
				return m, fadeCmd()
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			if m.seq.Advance() {
				return m, fadeCmd()
			}
		}

	case dwellMsg:
		if m.seq.DwellElapsed(msg.epoch) {
			return m, fadeCmd()
		}

	case fadeDoneMsg:
		m.seq.FinishFade()
		if m.seq.Done() {
			return m, func() tea.Msg { return narrativeFinishedMsg{} }
		}
		return m, dwellCmd(m.seq.Epoch())
	}

	return m, nil
}

func (m narrativeModel) view(width, height int) string {
	pages := m.g.Narrative.Pages
	if len(pages) == 0 || m.seq.Index() >= len(pages) {
		return ""
	}
	page := pages[m.seq.Index()]

	boxWidth := 64
	if width > 0 && width < boxWidth+4 {
		boxWidth = width - 4
	}

	var content strings.Builder
	content.WriteString(sceneTitleStyle.Render(m.g.Name))
	content.WriteString("\n\n")

	text := wordwrap.String(page.Narrative, boxWidth-6)
	if m.seq.Fading() {
		content.WriteString(promptStyle.Render(text))
	} else {
		content.WriteString(narratorStyle.Render(text))
	}
	content.WriteString("\n\n")
	if page.Image.Alt != "" {
		content.WriteString(narrationStyle.Render("[ " + page.Image.Alt + " ]"))
		content.WriteString("\n\n")
	}
	content.WriteString(promptStyle.Render(fmt.Sprintf("Page %d of %d. Enter to continue", m.seq.Index()+1, len(pages))))

	box := narrativePageStyle.Width(boxWidth).Render(content.String())
	if width == 0 || height == 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box, lipgloss.WithWhitespaceChars(" "))
}

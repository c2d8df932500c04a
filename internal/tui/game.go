package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/fableterm/fableterm/internal/session"
	"github.com/fableterm/fableterm/pkg/game"
	"github.com/fableterm/fableterm/pkg/state"
)

const (
	narratorName    = "Narrator"
	placeholderText = "What do you do?"
	playerPrefix    = "Player: "
)

type progressTickMsg struct{}

// gameModel is the in-game screen: the narrative message log with a
// free-text input, a scene panel, and an overlay for character
// interactions. All state is read from the orchestrator's stores; the
// model itself only holds view concerns.
type gameModel struct {
	ctx  context.Context
	orch *session.Orchestrator

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	width        int
	height       int
	ready        bool
	loading      bool
	progressTick int
}

func newGameModel(ctx context.Context, orch *session.Orchestrator, width, height int) gameModel {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	m := gameModel{
		ctx:          ctx,
		orch:         orch,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
	if width > 0 && height > 0 {
		m = m.resize(width, height)
	}
	return m
}

func (m gameModel) init() tea.Cmd {
	return textarea.Blink
}

func (m gameModel) resize(width, height int) gameModel {
	m.width = width
	m.height = height

	chatWidth := int(float64(width)*0.72) - 4
	metaWidth := width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = height - 4
	m.textarea.SetWidth(chatWidth - 4)
	m.ready = true

	m.writeChatContent()
	m.writeMetadata()
	return m
}

func (m gameModel) update(msg tea.Msg) (gameModel, tea.Cmd) {
	gs := m.orch.States().Get()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		if gs.Ended() {
			if msg.Type == tea.KeyEnter {
				return m, func() tea.Msg { return backToMenuMsg{} }
			}
			return m, nil
		}
		if gs.TradePending() {
			return m.updateTradePrompt(msg)
		}
		switch msg.Type {
		case tea.KeyEsc:
			if gs.InteractionOpen() {
				return m.endConversation()
			}
			return m, nil
		case tea.KeyEnter:
			return m.submitInput(gs)
		}

	case stateReplacedMsg:
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case sessionCallMsg:
		m.loading = false
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTickCmd()
		}
		return m, nil
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m gameModel) submitInput(gs *state.GameState) (gameModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input, gs)
	}

	m.textarea.Reset()
	m.loading = true
	m.progressTick = 0

	if gs.InteractionOpen() {
		return m, tea.Batch(m.sendCharacterMessage(input), progressTickCmd())
	}
	// The optimistic append lands in the store before this returns, so
	// the content refresh happens on the stateReplacedMsg poke.
	return m, tea.Batch(m.sendNarrativeMessage(input), progressTickCmd())
}

func (m gameModel) handleCommand(input string, gs *state.GameState) (gameModel, tea.Cmd) {
	m.textarea.Reset()

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /copy - Copy the latest narration to the clipboard
• /end  - End the current conversation
• /menu - End the game and return to the main menu

How to play:
• Type your actions and press Enter
• The narrator will respond to guide the story
`
		current := m.chatViewport.View()
		m.chatViewport.SetContent(current + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/copy":
		if msg := lastNarration(gs); msg != "" {
			// Best effort; some terminals have no clipboard.
			_ = clipboard.WriteAll(msg)
		}
		return m, nil

	case "/end":
		if gs.InteractionOpen() {
			return m.endConversation()
		}
		return m, nil

	case "/menu":
		return m, func() tea.Msg { return backToMenuMsg{} }
	}
	return m, nil
}

func (m gameModel) updateTradePrompt(msg tea.KeyMsg) (gameModel, tea.Cmd) {
	switch msg.String() {
	case "a", "A", "y", "Y":
		return m.respondToTrade(true)
	case "d", "D", "n", "N":
		return m.respondToTrade(false)
	}
	// Conversation input stays blocked until the trade is resolved.
	return m, nil
}

func (m gameModel) sendNarrativeMessage(text string) tea.Cmd {
	return func() tea.Msg {
		return sessionCallMsg{err: m.orch.SendNarrativeMessage(m.ctx, text)}
	}
}

func (m gameModel) sendCharacterMessage(text string) tea.Cmd {
	return func() tea.Msg {
		return sessionCallMsg{err: m.orch.SendCharacterMessage(m.ctx, text)}
	}
}

func (m gameModel) respondToTrade(accept bool) (gameModel, tea.Cmd) {
	m.loading = true
	m.progressTick = 0
	cmd := func() tea.Msg {
		return sessionCallMsg{err: m.orch.RespondToTrade(m.ctx, accept)}
	}
	return m, tea.Batch(cmd, progressTickCmd())
}

func (m gameModel) endConversation() (gameModel, tea.Cmd) {
	m.loading = true
	m.progressTick = 0
	cmd := func() tea.Msg {
		return sessionCallMsg{err: m.orch.EndConversation(m.ctx)}
	}
	return m, tea.Batch(cmd, progressTickCmd())
}

// writeChatContent rebuilds the message log for the current viewport
// width.
func (m *gameModel) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 10 {
		chatWidth = 10
	}

	g := m.orch.Games().Get()
	gs := m.orch.States().Get()

	var content strings.Builder
	if g != nil {
		content.WriteString(titleStyle.Render(strings.ToUpper(g.Name)) + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	if gs == nil {
		content.WriteString(loadingStyle.Render("Waiting for the story to begin..."))
		m.chatViewport.SetContent(content.String())
		return
	}

	for _, msg := range gs.Messages {
		if rest, ok := strings.CutPrefix(msg, playerPrefix); ok {
			content.WriteString(playerStyle.Render("You: ") + wordwrap.String(rest, chatWidth-5) + "\n\n")
			continue
		}
		content.WriteString(formatNarration(msg, chatWidth) + "\n\n")
	}

	if gs.Ended() {
		content.WriteString(titleStyle.Render("THE END") + "\n\n")
		content.WriteString(narratorStyle.Render(wordwrap.String(gs.EndGame, chatWidth)) + "\n\n")
		content.WriteString(promptStyle.Render("Press Enter to return to the main menu") + "\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatNarration prefixes unattributed lines with the narrator name
// and highlights "Speaker:" prefixes.
func formatNarration(msg string, width int) string {
	if idx := strings.Index(msg, ":"); idx > 0 && idx <= 20 && len(strings.Fields(msg[:idx])) <= 2 {
		speaker := msg[:idx]
		rest := msg[idx+1:]
		return sceneTitleStyle.Render(speaker+":") + wordwrap.String(rest, width-len(speaker)-1)
	}
	prefix := narratorName + ": "
	return narratorStyle.Render(prefix) + wordwrap.String(msg, width-len(prefix))
}

func lastNarration(gs *state.GameState) string {
	if gs == nil {
		return ""
	}
	for i := len(gs.Messages) - 1; i >= 0; i-- {
		if !strings.HasPrefix(gs.Messages[i], playerPrefix) {
			return gs.Messages[i]
		}
	}
	return ""
}

// writeMetadata rebuilds the scene panel.
func (m *gameModel) writeMetadata() {
	g := m.orch.Games().Get()
	gs := m.orch.States().Get()

	var content strings.Builder
	content.WriteString(titleStyle.Render("SCENE") + "\n\n")

	if g == nil || gs == nil {
		content.WriteString("No active scene.\n")
		m.metaViewport.SetContent(content.String())
		return
	}

	var scene *game.Scene
	if gs.CurrentSceneID != "" {
		scene = g.Scene(gs.CurrentSceneID)
	}

	if scene == nil {
		// Between scenes, or a dangling reference: render a neutral
		// placeholder rather than failing.
		content.WriteString(narrationStyle.Render("The scene shifts...") + "\n\n")
	} else {
		content.WriteString(sceneTitleStyle.Render(scene.Name) + "\n")
		content.WriteString(fmt.Sprintf("[ %s ]\n\n", scene.Image.Alt))

		if len(scene.Characters) > 0 {
			content.WriteString("Present:\n")
			for _, id := range scene.Characters {
				content.WriteString("• " + g.Character(id).Name + "\n")
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("Inventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	} else {
		for _, item := range g.ResolveItems(gs.Inventory) {
			content.WriteString("• " + item.Name + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m gameModel) view(width, height int) string {
	if !m.ready {
		return "\n  Initializing..."
	}

	gs := m.orch.States().Get()
	if gs.InteractionOpen() {
		return m.renderInteraction(gs)
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := lipgloss.NewStyle().Width(chatWidth).Height(m.height - 3).Padding(1, 0, 1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := lipgloss.NewStyle().Width(metaWidth).Height(m.height - 2).Padding(1, 2, 0, 0).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderInteraction draws the character conversation overlay.
func (m gameModel) renderInteraction(gs *state.GameState) string {
	g := m.orch.Games().Get()
	ci := gs.CharacterInteraction
	name := ci.CharacterID
	if g != nil {
		name = g.Character(ci.CharacterID).Name
	}

	boxWidth := 64
	if m.width > 0 && m.width < boxWidth+4 {
		boxWidth = m.width - 4
	}
	wrapWidth := boxWidth - 6

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(name) + "\n\n")

	for _, cm := range ci.Messages {
		if cm.IsDialog {
			content.WriteString(dialogStyle.Render(wordwrap.String(cm.Text, wrapWidth)) + "\n")
		} else {
			content.WriteString(narrationStyle.Render(wordwrap.String(cm.Text, wrapWidth)) + "\n")
		}
	}
	content.WriteString("\n")

	// A malformed offer with neither side set is ignored entirely;
	// conversation continues as if no trade were pending.
	tradePending := gs.TradePending()
	if tradePending {
		summary, err := ci.Trade.Summary(name)
		if err == nil {
			content.WriteString(loadingStyle.Render(wordwrap.String(summary, wrapWidth)) + "\n")
			content.WriteString(promptStyle.Render("Press A to accept, D to decline") + "\n")
		}
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar() + "\n")
	} else if !tradePending {
		content.WriteString(m.textarea.View() + "\n")
		content.WriteString(promptStyle.Render("Enter to speak, Esc to walk away"))
	}

	return overlayModal(m.width, m.height, boxWidth, content.String())
}

// renderProgressBar draws the animated bar shown while a backend call
// is in flight.
func (m gameModel) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

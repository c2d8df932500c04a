// Package tui holds the Bubble Tea screens of the client: main menu,
// backend setup, game generation, the narrative cut-scene and the main
// game screen. The root App model owns screen transitions and the
// plumbing between the backend event stream and the session stores.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fableterm/fableterm/internal/bridge"
	"github.com/fableterm/fableterm/internal/config"
	"github.com/fableterm/fableterm/internal/saves"
	"github.com/fableterm/fableterm/internal/session"
	"github.com/fableterm/fableterm/pkg/game"
	"github.com/fableterm/fableterm/pkg/state"
)

type screen int

const (
	screenMenu screen = iota
	screenSetup
	screenGenerate
	screenNarrative
	screenGame
)

const (
	// eventStreamRetryDelay spaces reconnection attempts after the
	// standing event subscription drops.
	eventStreamRetryDelay = 5 * time.Second
	// startRetryDelay spaces session start retries while the previous
	// session finishes tearing down.
	startRetryDelay = 250 * time.Millisecond
)

// Messages shared across screens.
type (
	// gameChosenMsg starts a session for a chosen game.
	gameChosenMsg struct{ game *game.Game }
	// newGameMsg opens the generation screen, optionally resuming an
	// interrupted generation directory.
	newGameMsg struct{ resume string }
	// setupNeededMsg opens the API key entry screen.
	setupNeededMsg struct{}
	// backToMenuMsg returns to the main menu, showing err if non-nil.
	backToMenuMsg struct{ err error }
	// sessionStartedMsg is the result of Orchestrator.StartGame.
	sessionStartedMsg struct{ err error }
	// sessionCallMsg is the result of any in-session call.
	sessionCallMsg struct{ err error }
	// narrativeFinishedMsg moves from the cut-scene to the game screen.
	narrativeFinishedMsg struct{}
	// stateReplacedMsg pokes the UI after a state store replacement.
	stateReplacedMsg struct{ state *state.GameState }
	// backendEventMsg carries one event from the standing subscription.
	backendEventMsg struct{ event bridge.Event }
	// eventStreamClosedMsg reports the subscription ending.
	eventStreamClosedMsg struct{ err error }
	// eventStreamRetryMsg re-establishes the event subscription.
	eventStreamRetryMsg struct{}
	// startRetryMsg retries a session start that found the previous
	// session still tearing down.
	startRetryMsg struct{ game *game.Game }
	// updateProgressMsg carries one generation progress line.
	updateProgressMsg struct{ update bridge.Update }
)

// App is the root model. It routes messages to the active screen and
// feeds backend push events into the orchestrator.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *bridge.Client
	orch    *session.Orchestrator
	scanner *saves.Scanner

	ctx          context.Context
	cancelListen context.CancelFunc
	eventCh      chan bridge.Event
	stateCh      chan *state.GameState
	unsubscribe  func()

	screen    screen
	menu      menuModel
	setup     setupModel
	generate  generateModel
	narrative narrativeModel
	game      gameModel

	showQuitModal bool
	width         int
	height        int
}

// NewApp wires the screens to the orchestrator and gateway.
func NewApp(cfg *config.Config, logger *slog.Logger, client *bridge.Client, orch *session.Orchestrator, scanner *saves.Scanner) App {
	ctx, cancel := context.WithCancel(context.Background())

	stateCh := make(chan *state.GameState, 1)
	// Latest-wins delivery: the UI re-reads the store on every poke, so
	// collapsing bursts keeps the subscriber from ever blocking the
	// store's ordered apply path.
	unsubscribe := orch.States().Subscribe(func(gs *state.GameState) {
		select {
		case stateCh <- gs:
		default:
			select {
			case <-stateCh:
			default:
			}
			stateCh <- gs
		}
	})

	return App{
		cfg:          cfg,
		logger:       logger,
		client:       client,
		orch:         orch,
		scanner:      scanner,
		ctx:          ctx,
		cancelListen: cancel,
		eventCh:      make(chan bridge.Event, 16),
		stateCh:      stateCh,
		unsubscribe:  unsubscribe,
		screen:       screenMenu,
		menu:         newMenuModel(),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.listenEvents(),
		a.waitEvent(),
		a.waitState(),
		a.menu.init(a.scanner),
	)
}

// listenEvents holds the standing event subscription open for the life
// of the program.
func (a App) listenEvents() tea.Cmd {
	return func() tea.Msg {
		err := a.client.Listen(a.ctx, a.eventCh)
		return eventStreamClosedMsg{err: err}
	}
}

func (a App) waitEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-a.eventCh:
			return backendEventMsg{event: ev}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a App) waitState() tea.Cmd {
	return func() tea.Msg {
		select {
		case gs := <-a.stateCh:
			return stateReplacedMsg{state: gs}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.showQuitModal = true
			return a, nil
		}
		if a.showQuitModal {
			return a.updateQuitModal(msg)
		}

	case backendEventMsg:
		return a.handleBackendEvent(msg.event)

	case eventStreamClosedMsg:
		if a.ctx.Err() != nil {
			return a, nil
		}
		a.logger.Warn("Event stream closed, reconnecting", "error", msg.err)
		return a, tea.Tick(eventStreamRetryDelay, func(time.Time) tea.Msg {
			return eventStreamRetryMsg{}
		})

	case eventStreamRetryMsg:
		return a, a.listenEvents()

	case stateReplacedMsg:
		var cmd tea.Cmd
		if a.screen == screenGame {
			a.game, cmd = a.game.update(msg)
		}
		return a, tea.Batch(a.waitState(), cmd)

	case sessionStartedMsg:
		// A failed start abandons the cut-scene and redirects to the
		// main menu; success needs no action here, the narrative
		// screen finishes on its own clock. A start that raced the
		// previous session's teardown retries while the cut-scene
		// plays.
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrBusy) && a.screen == screenNarrative {
				g := a.narrative.g
				return a, tea.Tick(startRetryDelay, func(time.Time) tea.Msg {
					return startRetryMsg{game: g}
				})
			}
			return a.Update(backToMenuMsg{err: msg.err})
		}
		return a, nil

	case startRetryMsg:
		if a.screen != screenNarrative {
			return a, nil
		}
		return a, a.startSession(msg.game)

	case sessionCallMsg:
		if msg.err != nil {
			// The orchestrator has already abandoned the session.
			return a.Update(backToMenuMsg{err: msg.err})
		}
		if a.screen == screenGame {
			var cmd tea.Cmd
			a.game, cmd = a.game.update(msg)
			return a, cmd
		}
		return a, nil

	// Screen transitions.
	case gameChosenMsg:
		a.screen = screenNarrative
		a.narrative = newNarrativeModel(msg.game)
		return a, tea.Batch(
			a.startSession(msg.game),
			a.narrative.init(),
		)

	case newGameMsg:
		a.screen = screenGenerate
		a.generate = newGenerateModel(msg.resume)
		return a, a.generate.init()

	case setupNeededMsg:
		a.screen = screenSetup
		a.setup = newSetupModel()
		return a, a.setup.init()

	case narrativeFinishedMsg:
		a.screen = screenGame
		a.game = newGameModel(a.ctx, a.orch, a.width, a.height)
		return a, a.game.init()

	case backToMenuMsg:
		a.screen = screenMenu
		a.menu = newMenuModel()
		a.menu.err = msg.err
		return a, tea.Batch(a.endSession(), a.menu.init(a.scanner))
	}

	if a.showQuitModal {
		return a, nil
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenMenu:
		a.menu, cmd = a.menu.update(msg, a)
	case screenSetup:
		a.setup, cmd = a.setup.update(msg, a)
	case screenGenerate:
		a.generate, cmd = a.generate.update(msg, a)
	case screenNarrative:
		a.narrative, cmd = a.narrative.update(msg)
	case screenGame:
		a.game, cmd = a.game.update(msg)
	}
	return a, cmd
}

// handleBackendEvent routes push events: state replacements go through
// the orchestrator (the single writer for the state store); generation
// progress lines go to the generation screen.
func (a App) handleBackendEvent(ev bridge.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case bridge.EventTypeState:
		gs, err := ev.GameState()
		if err != nil {
			a.logger.Warn("Dropping malformed state push", "error", err)
			return a, a.waitEvent()
		}
		a.orch.ApplyPush(gs)
		return a, a.waitEvent()

	case bridge.EventTypeUpdates:
		update, err := ev.Update()
		if err != nil {
			a.logger.Warn("Dropping malformed update event", "error", err)
			return a, a.waitEvent()
		}
		var cmd tea.Cmd
		if a.screen == screenGenerate {
			a.generate, cmd = a.generate.update(updateProgressMsg{update: update}, a)
		}
		return a, tea.Batch(a.waitEvent(), cmd)

	default:
		a.logger.Debug("Ignoring unknown event type", "type", ev.Type)
		return a, a.waitEvent()
	}
}

func (a App) startSession(g *game.Game) tea.Cmd {
	return func() tea.Msg {
		err := a.orch.StartGame(a.ctx, g)
		return sessionStartedMsg{err: err}
	}
}

// endSession tears the session down best-effort. Safe to issue when no
// session is active; the orchestrator ignores it.
func (a App) endSession() tea.Cmd {
	return func() tea.Msg {
		_ = a.orch.EndGame(a.ctx)
		return nil
	}
}

func (a App) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter", "ctrl+c":
		a.cancelListen()
		a.unsubscribe()
		return a, tea.Sequence(a.endSession(), tea.Quit)
	case "n", "N", "esc":
		a.showQuitModal = false
		return a, nil
	}
	return a, nil
}

func (a App) View() string {
	if a.showQuitModal {
		return renderQuitModal(a.width, a.height)
	}

	switch a.screen {
	case screenMenu:
		return a.menu.view(a.width, a.height)
	case screenSetup:
		return a.setup.view(a.width, a.height)
	case screenGenerate:
		return a.generate.view(a.width, a.height)
	case screenNarrative:
		return a.narrative.view(a.width, a.height)
	case screenGame:
		return a.game.view(a.width, a.height)
	default:
		return ""
	}
}

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fableterm/fableterm/internal/bridge"
	"github.com/fableterm/fableterm/internal/logger"
	"github.com/fableterm/fableterm/pkg/game"
	"github.com/fableterm/fableterm/pkg/state"
)

// ErrBusy reports a start attempt while the previous session is still
// starting or tearing down. The transition is short; callers retry once
// the phase settles instead of treating this as a failed start.
var ErrBusy = errors.New("previous session is still shutting down")

// Phase is the session lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseActive
	PhaseEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// Gateway is the slice of the backend bridge the orchestrator drives.
// Defined here so tests can substitute a fake.
type Gateway interface {
	StartGame(ctx context.Context, gameID string) (*state.GameState, error)
	GamePrompt(ctx context.Context, prompt string) (*state.GameState, error)
	CharacterPrompt(ctx context.Context, req bridge.CharacterPromptRequest) (*state.GameState, error)
	EndGame(ctx context.Context) error
}

// Orchestrator coordinates the session lifecycle against the backend:
// which calls are legal in which phase, optimistic local appends, and
// reconciling responses and push events into the state store.
//
// State replacements are applied in response-arrival order, not
// request-issue order. The backend is the single source of truth and
// the last write wins; a generation counter discards responses that
// belong to a session that has since ended.
type Orchestrator struct {
	mu      sync.Mutex
	phase   Phase
	gen     uint64
	games   *Store[*game.Game]
	states  *Store[*state.GameState]
	gateway Gateway
	logger  *slog.Logger
}

// NewOrchestrator returns an orchestrator in phase Idle with empty stores.
func NewOrchestrator(gateway Gateway, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		games:   NewStore[*game.Game](),
		states:  NewStore[*state.GameState](),
		gateway: gateway,
		logger:  logger,
	}
}

// Games is the game definition store. Set once per session.
func (o *Orchestrator) Games() *Store[*game.Game] { return o.games }

// States is the session state store. Replaced wholesale on every
// backend response or push event.
func (o *Orchestrator) States() *Store[*state.GameState] { return o.states }

// Phase returns the current session phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// StartGame begins a session for g. Starting while a session is Active
// is a caller bug, reported as a warning and ignored so that a stale
// screen racing a navigation cannot corrupt the running session.
// Starting while the previous session is still in transition returns
// ErrBusy so the caller can retry once the phase settles.
func (o *Orchestrator) StartGame(ctx context.Context, g *game.Game) error {
	o.mu.Lock()
	switch o.phase {
	case PhaseActive:
		o.logger.Warn("Ignoring start request while a session is active", "game_id", g.ID)
		o.mu.Unlock()
		return nil
	case PhaseStarting, PhaseEnding:
		o.logger.Debug("Deferring start until the previous session settles", "phase", o.phase.String(), "game_id", g.ID)
		o.mu.Unlock()
		return ErrBusy
	}
	o.phase = PhaseStarting
	o.games.Replace(g)
	gen := o.gen
	o.mu.Unlock()

	gs, err := o.gateway.StartGame(ctx, g.ID)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		o.logger.Debug("Discarding start response from superseded session", "game_id", g.ID)
		return nil
	}
	if err != nil {
		logger.WithError(o.logger, err).Error("Failed to start game", "game_id", g.ID)
		o.clearLocked()
		return err
	}
	o.phase = PhaseActive
	o.states.Replace(gs)
	return nil
}

// SendNarrativeMessage submits a free-text player action. The raw input
// is appended to the message log immediately for perceived
// responsiveness; the authoritative response then replaces the whole
// state, superseding the optimistic entry rather than merging with it.
func (o *Orchestrator) SendNarrativeMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	if o.phase != PhaseActive {
		o.logger.Warn("Ignoring narrative message outside active phase", "phase", o.phase.String())
		o.mu.Unlock()
		return nil
	}
	gen := o.gen
	optimistic := o.states.Get().Clone()
	if optimistic == nil {
		optimistic = &state.GameState{}
	}
	optimistic.Messages = append(optimistic.Messages, "Player: "+text)
	o.states.Replace(optimistic)
	o.mu.Unlock()

	gs, err := o.gateway.GamePrompt(ctx, text)
	return o.reconcile(gen, gs, err)
}

// SendCharacterMessage submits player dialog during an open character
// interaction. A pending trade blocks conversation input until resolved.
func (o *Orchestrator) SendCharacterMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	if o.phase != PhaseActive || !o.states.Get().InteractionOpen() {
		o.logger.Warn("Ignoring character message without an open interaction", "phase", o.phase.String())
		o.mu.Unlock()
		return nil
	}
	if o.states.Get().TradePending() {
		o.logger.Warn("Ignoring character message while a trade is pending")
		o.mu.Unlock()
		return nil
	}
	gen := o.gen
	o.mu.Unlock()

	gs, err := o.gateway.CharacterPrompt(ctx, bridge.CharacterPromptRequest{Message: text})
	return o.reconcile(gen, gs, err)
}

// RespondToTrade resolves the pending trade offer.
func (o *Orchestrator) RespondToTrade(ctx context.Context, accept bool) error {
	o.mu.Lock()
	if o.phase != PhaseActive || !o.states.Get().TradePending() {
		o.logger.Warn("Ignoring trade response without a pending trade", "phase", o.phase.String())
		o.mu.Unlock()
		return nil
	}
	gen := o.gen
	o.mu.Unlock()

	gs, err := o.gateway.CharacterPrompt(ctx, bridge.CharacterPromptRequest{TradeAccept: &accept})
	return o.reconcile(gen, gs, err)
}

// EndConversation closes the open character interaction. The local
// interaction is cleared before the backend confirms; the replacement
// state from the server should agree.
func (o *Orchestrator) EndConversation(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != PhaseActive || !o.states.Get().InteractionOpen() {
		o.logger.Warn("Ignoring end-conversation without an open interaction", "phase", o.phase.String())
		o.mu.Unlock()
		return nil
	}
	gen := o.gen
	optimistic := o.states.Get().Clone()
	optimistic.CharacterInteraction = nil
	o.states.Replace(optimistic)
	o.mu.Unlock()

	gs, err := o.gateway.CharacterPrompt(ctx, bridge.CharacterPromptRequest{EndConversation: true})
	return o.reconcile(gen, gs, err)
}

// EndGame terminates the session. The backend is notified best-effort;
// the player has already expressed intent to leave, so both stores are
// cleared and the phase returns to Idle regardless of the outcome.
// In-flight responses from the old session are discarded when they land.
func (o *Orchestrator) EndGame(ctx context.Context) error {
	o.mu.Lock()
	if o.phase == PhaseIdle {
		o.logger.Warn("Ignoring end request with no session")
		o.mu.Unlock()
		return nil
	}
	o.phase = PhaseEnding
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	err := o.gateway.EndGame(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		logger.WithError(o.logger, err).Warn("Backend did not acknowledge game end")
	}
	if o.gen == gen {
		o.clearLocked()
	}
	return nil
}

// ApplyPush applies an asynchronous full-state replacement from the
// backend event stream. Pushes arriving after the session has ended
// are discarded.
func (o *Orchestrator) ApplyPush(gs *state.GameState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseActive && o.phase != PhaseStarting {
		o.logger.Debug("Discarding pushed state outside a session", "phase", o.phase.String())
		return
	}
	o.states.Replace(gs)
}

// reconcile applies a call result in arrival order. Responses from a
// superseded session are discarded; a failed in-session call abandons
// the session, since the next replacement would have discarded any
// partial state anyway.
func (o *Orchestrator) reconcile(gen uint64, gs *state.GameState, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		o.logger.Debug("Discarding response from superseded session")
		return nil
	}
	if err != nil {
		logger.WithError(o.logger, err).Error("Backend call failed, abandoning session")
		o.clearLocked()
		return err
	}
	o.states.Replace(gs)
	return nil
}

// clearLocked resets to Idle and discards both stores. Callers hold o.mu.
func (o *Orchestrator) clearLocked() {
	o.gen++
	o.phase = PhaseIdle
	o.games.Replace(nil)
	o.states.Replace(nil)
}

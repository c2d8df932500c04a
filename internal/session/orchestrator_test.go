package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fableterm/fableterm/internal/bridge"
	"github.com/fableterm/fableterm/pkg/game"
	"github.com/fableterm/fableterm/pkg/state"
)

type fakeGateway struct {
	mu             sync.Mutex
	startCalls     int
	promptCalls    int
	characterCalls int
	endCalls       int

	startFn     func(gameID string) (*state.GameState, error)
	promptFn    func(prompt string) (*state.GameState, error)
	characterFn func(req bridge.CharacterPromptRequest) (*state.GameState, error)
	endFn       func() error
}

func (f *fakeGateway) StartGame(_ context.Context, gameID string) (*state.GameState, error) {
	f.mu.Lock()
	f.startCalls++
	f.mu.Unlock()
	if f.startFn != nil {
		return f.startFn(gameID)
	}
	return &state.GameState{CurrentSceneID: "s1"}, nil
}

func (f *fakeGateway) GamePrompt(_ context.Context, prompt string) (*state.GameState, error) {
	f.mu.Lock()
	f.promptCalls++
	f.mu.Unlock()
	if f.promptFn != nil {
		return f.promptFn(prompt)
	}
	return &state.GameState{}, nil
}

func (f *fakeGateway) CharacterPrompt(_ context.Context, req bridge.CharacterPromptRequest) (*state.GameState, error) {
	f.mu.Lock()
	f.characterCalls++
	f.mu.Unlock()
	if f.characterFn != nil {
		return f.characterFn(req)
	}
	return &state.GameState{}, nil
}

func (f *fakeGateway) EndGame(_ context.Context) error {
	f.mu.Lock()
	f.endCalls++
	f.mu.Unlock()
	if f.endFn != nil {
		return f.endFn()
	}
	return nil
}

func (f *fakeGateway) calls() (start, prompt, character, end int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.promptCalls, f.characterCalls, f.endCalls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGame() *game.Game {
	return &game.Game{
		ID:   "g1",
		Name: "The Hollow Lighthouse",
		Scenes: []game.Scene{
			{ID: "s1", Name: "The Shore"},
		},
	}
}

func startActive(t *testing.T, gw *fakeGateway) *Orchestrator {
	t.Helper()
	orch := NewOrchestrator(gw, testLogger())
	require.NoError(t, orch.StartGame(context.Background(), testGame()))
	require.Equal(t, PhaseActive, orch.Phase())
	return orch
}

func TestStartGame_InitialState(t *testing.T) {
	gw := &fakeGateway{
		startFn: func(gameID string) (*state.GameState, error) {
			require.Equal(t, "g1", gameID)
			return &state.GameState{
				CurrentSceneID: "s1",
				Messages:       []string{"Welcome"},
				Inventory:      []string{},
			}, nil
		},
	}
	orch := NewOrchestrator(gw, testLogger())

	err := orch.StartGame(context.Background(), testGame())
	require.NoError(t, err)

	assert.Equal(t, PhaseActive, orch.Phase())
	gs := orch.States().Get()
	require.NotNil(t, gs)
	assert.Equal(t, "s1", gs.CurrentSceneID)
	assert.Equal(t, []string{"Welcome"}, gs.Messages)
	assert.Nil(t, gs.CharacterInteraction)
	require.NotNil(t, orch.Games().Get())
	assert.Equal(t, "g1", orch.Games().Get().ID)
}

func TestStartGame_WhileActiveIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	orch := startActive(t, gw)
	before := orch.States().Get()

	err := orch.StartGame(context.Background(), testGame())
	require.NoError(t, err)

	start, _, _, _ := gw.calls()
	assert.Equal(t, 1, start, "no duplicate start call should be issued")
	assert.Equal(t, PhaseActive, orch.Phase())
	assert.Same(t, before, orch.States().Get(), "state store must be unchanged")
}

func TestStartGame_FailureReturnsToIdle(t *testing.T) {
	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return nil, bridge.ErrNotConnected
		},
	}
	orch := NewOrchestrator(gw, testLogger())

	err := orch.StartGame(context.Background(), testGame())
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.Nil(t, orch.States().Get())
	assert.Nil(t, orch.Games().Get())
}

func TestSendNarrativeMessage_OptimisticThenAuthoritative(t *testing.T) {
	serverLog := []string{"Welcome", "Player: go north", "You head north into the fog."}
	var seenOptimistic []string

	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return &state.GameState{Messages: []string{"Welcome"}}, nil
		},
	}
	orch := startActive(t, gw)
	gw.promptFn = func(prompt string) (*state.GameState, error) {
		// The optimistic append is visible while the call is in flight.
		seenOptimistic = orch.States().Get().Messages
		return &state.GameState{Messages: serverLog}, nil
	}

	err := orch.SendNarrativeMessage(context.Background(), "go north")
	require.NoError(t, err)

	assert.Equal(t, []string{"Welcome", "Player: go north"}, seenOptimistic)
	// The server log replaces the whole state; the optimistic entry is
	// never merged on top of it.
	assert.Equal(t, serverLog, orch.States().Get().Messages)
}

func TestSendNarrativeMessage_FailureAbandonsSession(t *testing.T) {
	gw := &fakeGateway{
		promptFn: func(string) (*state.GameState, error) {
			return nil, bridge.ErrTimeout
		},
	}
	orch := startActive(t, gw)

	err := orch.SendNarrativeMessage(context.Background(), "look around")
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.Nil(t, orch.States().Get())
}

func TestSendNarrativeMessage_OutsideActivePhaseIgnored(t *testing.T) {
	gw := &fakeGateway{}
	orch := NewOrchestrator(gw, testLogger())

	err := orch.SendNarrativeMessage(context.Background(), "hello?")
	require.NoError(t, err)
	_, prompt, _, _ := gw.calls()
	assert.Zero(t, prompt)
}

func TestReplacements_ApplyInArrivalOrder(t *testing.T) {
	entered := make(chan string, 2)
	release := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	responses := map[string]*state.GameState{
		"first":  {Messages: []string{"first response"}},
		"second": {Messages: []string{"second response"}},
	}

	gw := &fakeGateway{}
	orch := startActive(t, gw)
	gw.promptFn = func(prompt string) (*state.GameState, error) {
		entered <- prompt
		<-release[prompt]
		return responses[prompt], nil
	}

	done := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	for _, prompt := range []string{"first", "second"} {
		go func() {
			defer close(done[prompt])
			_ = orch.SendNarrativeMessage(context.Background(), prompt)
		}()
		<-entered // both calls in flight before either resolves
	}

	// Resolve out of issue order: second arrives first.
	close(release["second"])
	<-done["second"]
	assert.Equal(t, []string{"second response"}, orch.States().Get().Messages)

	close(release["first"])
	<-done["first"]
	// Last-arriving response wins, regardless of issue order.
	assert.Equal(t, []string{"first response"}, orch.States().Get().Messages)
}

func TestEndGame_ClearsEvenWhenBackendRejects(t *testing.T) {
	gw := &fakeGateway{
		endFn: func() error { return errors.New("backend says no") },
	}
	orch := startActive(t, gw)

	err := orch.EndGame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.Nil(t, orch.States().Get())
	assert.Nil(t, orch.Games().Get())
}

func TestEndGame_DiscardsInFlightResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	gw := &fakeGateway{}
	orch := startActive(t, gw)
	gw.promptFn = func(string) (*state.GameState, error) {
		close(entered)
		<-release
		return &state.GameState{Messages: []string{"too late"}}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orch.SendNarrativeMessage(context.Background(), "dig")
	}()
	<-entered

	require.NoError(t, orch.EndGame(context.Background()))
	close(release)
	<-done

	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.Nil(t, orch.States().Get(), "a response from an ended session must be discarded")
}

func TestCharacterCalls_RequireOpenInteraction(t *testing.T) {
	gw := &fakeGateway{}
	orch := startActive(t, gw)

	require.NoError(t, orch.SendCharacterMessage(context.Background(), "hello"))
	require.NoError(t, orch.RespondToTrade(context.Background(), true))
	require.NoError(t, orch.EndConversation(context.Background()))

	_, _, character, _ := gw.calls()
	assert.Zero(t, character, "character calls without an interaction must be ignored")
}

func TestSendCharacterMessage_BlockedWhileTradePending(t *testing.T) {
	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return &state.GameState{
				CharacterInteraction: &state.CharacterInteraction{
					CharacterID: "c1",
					Trade:       &state.CharacterTrade{ToPlayer: "sword"},
				},
			}, nil
		},
	}
	orch := startActive(t, gw)

	require.NoError(t, orch.SendCharacterMessage(context.Background(), "nice weather"))
	_, _, character, _ := gw.calls()
	assert.Zero(t, character)

	// Resolving the trade is the one legal character call.
	require.NoError(t, orch.RespondToTrade(context.Background(), true))
	_, _, character, _ = gw.calls()
	assert.Equal(t, 1, character)
}

func TestSendCharacterMessage_EmptyTradeDoesNotBlock(t *testing.T) {
	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return &state.GameState{
				CharacterInteraction: &state.CharacterInteraction{
					CharacterID: "c1",
					Trade:       &state.CharacterTrade{},
				},
			}, nil
		},
	}
	orch := startActive(t, gw)

	// A malformed offer with neither side set is never rendered, so it
	// must not block conversation input either.
	require.NoError(t, orch.SendCharacterMessage(context.Background(), "hello"))
	_, _, character, _ := gw.calls()
	assert.Equal(t, 1, character)
}

func TestRespondToTrade_EmptyTradeRefused(t *testing.T) {
	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return &state.GameState{
				CharacterInteraction: &state.CharacterInteraction{
					CharacterID: "c1",
					Trade:       &state.CharacterTrade{},
				},
			}, nil
		},
	}
	orch := startActive(t, gw)

	// Accepting an offer that was never shown to the player is refused.
	require.NoError(t, orch.RespondToTrade(context.Background(), true))
	_, _, character, _ := gw.calls()
	assert.Zero(t, character)
}

func TestStartGame_WhileEndingReturnsBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		endFn: func() error {
			close(entered)
			<-release
			return nil
		},
	}
	orch := startActive(t, gw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orch.EndGame(context.Background())
	}()
	<-entered

	err := orch.StartGame(context.Background(), testGame())
	assert.ErrorIs(t, err, ErrBusy)
	start, _, _, _ := gw.calls()
	assert.Equal(t, 1, start, "no start call while the previous session is ending")

	close(release)
	<-done

	// Once the teardown settles the same start succeeds.
	require.NoError(t, orch.StartGame(context.Background(), testGame()))
	assert.Equal(t, PhaseActive, orch.Phase())
}

func TestEndConversation_OptimisticallyClearsInteraction(t *testing.T) {
	var seenDuringCall *state.CharacterInteraction
	gw := &fakeGateway{
		startFn: func(string) (*state.GameState, error) {
			return &state.GameState{
				CharacterInteraction: &state.CharacterInteraction{CharacterID: "c1"},
			}, nil
		},
	}
	orch := startActive(t, gw)
	gw.characterFn = func(req bridge.CharacterPromptRequest) (*state.GameState, error) {
		require.True(t, req.EndConversation)
		seenDuringCall = orch.States().Get().CharacterInteraction
		return &state.GameState{}, nil
	}

	require.NoError(t, orch.EndConversation(context.Background()))
	assert.Nil(t, seenDuringCall, "interaction should be cleared before the server confirms")
	assert.Nil(t, orch.States().Get().CharacterInteraction)
}

func TestApplyPush(t *testing.T) {
	gw := &fakeGateway{}
	orch := startActive(t, gw)

	pushed := &state.GameState{Messages: []string{"the wind howls"}}
	orch.ApplyPush(pushed)
	assert.Same(t, pushed, orch.States().Get())

	require.NoError(t, orch.EndGame(context.Background()))
	orch.ApplyPush(&state.GameState{Messages: []string{"ghost push"}})
	assert.Nil(t, orch.States().Get(), "pushes outside a session are discarded")
}

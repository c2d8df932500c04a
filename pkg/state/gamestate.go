package state

// GameState is the mutable session state paired with one game.Game.
// The backend is the source of truth: every response and push event
// carries a full replacement, and the client only ever appends to
// Messages optimistically between replacements.
type GameState struct {
	// CurrentSceneID references a scene in the paired game definition.
	// Empty means no active scene, which is a legal resting state
	// between transitions.
	CurrentSceneID string `json:"current_scene_id"`

	// Messages is the narrative message log, oldest first.
	Messages []string `json:"messages"`

	// Inventory holds the item ids currently carried by the player.
	Inventory []string `json:"inventory"`

	// CharacterInteraction is the open NPC conversation, if any.
	CharacterInteraction *CharacterInteraction `json:"character_interaction"`

	// EndGame is non-empty once the story has concluded. It carries the
	// closing text shown to the player.
	EndGame string `json:"end_game,omitempty"`
}

// Clone returns a deep copy. Optimistic updates mutate a clone so the
// value already handed to subscribers stays untouched.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := &GameState{
		CurrentSceneID: gs.CurrentSceneID,
		EndGame:        gs.EndGame,
	}
	out.Messages = append([]string(nil), gs.Messages...)
	out.Inventory = append([]string(nil), gs.Inventory...)
	out.CharacterInteraction = gs.CharacterInteraction.Clone()
	return out
}

// Ended reports whether the backend has marked the story as concluded.
func (gs *GameState) Ended() bool {
	return gs != nil && gs.EndGame != ""
}

// InteractionOpen reports whether an NPC conversation is currently open.
func (gs *GameState) InteractionOpen() bool {
	return gs != nil && gs.CharacterInteraction != nil && !gs.CharacterInteraction.Closed
}

// TradePending reports whether the open interaction is blocked on an
// unresolved trade offer. A malformed offer with neither side set does
// not count: it is never rendered, so it must not block input either.
func (gs *GameState) TradePending() bool {
	return gs.InteractionOpen() && gs.CharacterInteraction.Trade.Validate() == nil
}

package state

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CharacterMessage is one line of an NPC conversation. Dialog lines
// render verbatim; non-dialog lines render as narration.
type CharacterMessage struct {
	Text     string `json:"text"`
	IsDialog bool   `json:"is_dialog"`
}

// CharacterTrade is a pending trade offer inside an interaction.
// At least one side must be set: ToPlayer is the item the character
// offers, FromPlayer is the item they want in return.
type CharacterTrade struct {
	ToPlayer   string `json:"to_player,omitempty"`
	FromPlayer string `json:"from_player,omitempty"`
}

// CharacterInteraction is a sub-session conversation with one NPC,
// nested inside the main narrative session. While a valid Trade is
// pending the interaction blocks further conversation input.
type CharacterInteraction struct {
	CharacterID string             `json:"character_id"`
	Messages    []CharacterMessage `json:"messages"`
	Trade       *CharacterTrade    `json:"trade"`
	Closed      bool               `json:"closed,omitempty"`
}

// Clone returns a deep copy of the interaction.
func (ci *CharacterInteraction) Clone() *CharacterInteraction {
	if ci == nil {
		return nil
	}
	out := &CharacterInteraction{
		CharacterID: ci.CharacterID,
		Closed:      ci.Closed,
	}
	out.Messages = append([]CharacterMessage(nil), ci.Messages...)
	if ci.Trade != nil {
		t := *ci.Trade
		out.Trade = &t
	}
	return out
}

var titleCaser = cases.Title(language.English)

// Validate rejects the empty trade form. An offer with neither side set
// carries no meaning and must not be rendered.
func (t *CharacterTrade) Validate() error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}
	if t.ToPlayer == "" && t.FromPlayer == "" {
		return fmt.Errorf("trade has neither an offered nor a requested item")
	}
	return nil
}

// Summary renders the trade offer as a prompt line. There are three
// variants: a gift, a request, and a swap.
func (t *CharacterTrade) Summary(characterName string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	switch {
	case t.FromPlayer == "":
		return fmt.Sprintf("%s offers to give you the %s.", characterName, titleCaser.String(t.ToPlayer)), nil
	case t.ToPlayer == "":
		return fmt.Sprintf("%s asks you for your %s.", characterName, titleCaser.String(t.FromPlayer)), nil
	default:
		return fmt.Sprintf("%s offers the %s in exchange for your %s.",
			characterName, titleCaser.String(t.ToPlayer), titleCaser.String(t.FromPlayer)), nil
	}
}

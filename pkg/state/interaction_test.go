package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterTrade_Validate(t *testing.T) {
	var nilTrade *CharacterTrade
	assert.Error(t, nilTrade.Validate())
	assert.Error(t, (&CharacterTrade{}).Validate())
	assert.NoError(t, (&CharacterTrade{ToPlayer: "lantern"}).Validate())
	assert.NoError(t, (&CharacterTrade{FromPlayer: "coin"}).Validate())
}

func TestCharacterTrade_Summary(t *testing.T) {
	tests := []struct {
		name  string
		trade CharacterTrade
		want  string
	}{
		{
			name:  "gift",
			trade: CharacterTrade{ToPlayer: "rusty lantern"},
			want:  "Maeve offers to give you the Rusty Lantern.",
		},
		{
			name:  "request",
			trade: CharacterTrade{FromPlayer: "silver coin"},
			want:  "Maeve asks you for your Silver Coin.",
		},
		{
			name:  "swap",
			trade: CharacterTrade{ToPlayer: "rusty lantern", FromPlayer: "silver coin"},
			want:  "Maeve offers the Rusty Lantern in exchange for your Silver Coin.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.trade.Summary("Maeve")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCharacterTrade_SummaryRejectsEmptyTrade(t *testing.T) {
	_, err := (&CharacterTrade{}).Summary("Maeve")
	assert.Error(t, err)
}

func TestCharacterInteraction_Clone(t *testing.T) {
	original := &CharacterInteraction{
		CharacterID: "c1",
		Messages: []CharacterMessage{
			{Text: "Hello, traveler.", IsDialog: true},
		},
		Trade: &CharacterTrade{ToPlayer: "lantern"},
	}

	clone := original.Clone()
	clone.Messages[0].Text = "changed"
	clone.Trade.ToPlayer = "changed"

	assert.Equal(t, "Hello, traveler.", original.Messages[0].Text)
	assert.Equal(t, "lantern", original.Trade.ToPlayer)

	var nilInteraction *CharacterInteraction
	assert.Nil(t, nilInteraction.Clone())
}

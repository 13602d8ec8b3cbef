package msgcat

import (
	"github.com/park285/cardchess/internal/cards"
	"github.com/park285/cardchess/internal/match"
)

// CardText is the display copy for one card.
type CardText struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Stages      []int  `json:"stages"`
}

// Card falls back to the card key when the catalog has no name.
func (c *Catalog) Card(t cards.Type) CardText {
	ct := CardText{ID: int(t), Key: t.Key(), Name: t.Key(), Stages: t.Spec().Stages}
	if v, ok := c.Text("cards." + t.Key() + ".name"); ok {
		ct.Name = v
	}
	if v, ok := c.Text("cards." + t.Key() + ".description"); ok {
		ct.Description = v
	}
	return ct
}

// Cards describes types in the given order.
func (c *Catalog) Cards(types []cards.Type) []CardText {
	out := make([]CardText, 0, len(types))
	for _, t := range types {
		out = append(out, c.Card(t))
	}
	return out
}

// Summary renders the one-line result for a finished match.
func (c *Catalog) Summary(rec match.Record) (string, error) {
	return c.Render("result."+string(rec.Reason), map[string]any{
		"Winner": rec.Winner.String(),
		"Loser":  rec.Winner.Opposite().String(),
		"Turns":  rec.Turns,
		"Room":   rec.RoomID,
	})
}

// BoardTitle renders the caption drawn above a board snapshot. card may be empty.
func (c *Catalog) BoardTitle(room string, turn int, player, card string) (string, error) {
	return c.Render("board.title", map[string]any{
		"Room":   room,
		"Turn":   turn,
		"Player": player,
		"Card":   card,
	})
}

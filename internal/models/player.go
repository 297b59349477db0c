package models

import (
	"github.com/google/uuid"
)

// Role is a player's side for the current round.
type Role string

const (
	RoleNone     Role = ""
	RoleLandlord Role = "landlord"
	RolePeasant  Role = "peasant"
)

// Player is one seat at the table. ID equals the player's channel identity,
// so a reconnecting guest reclaims the same seat.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []Card    `json:"hand"`
	Role Role      `json:"role"`

	// Beans is the running score balance across rounds.
	Beans int `json:"beans"`

	// LastAction is a display string only; it is never consulted by game logic.
	LastAction string `json:"lastAction"`

	IsBot     bool `json:"isBot"`
	Ready     bool `json:"ready"`
	Connected bool `json:"connected"`
}

// HasCard reports whether the player's hand holds the card with the given ID.
func (p *Player) HasCard(cardID int) bool {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// TakeCards removes the cards with the given IDs from the hand and returns
// them. It returns false if any ID is missing or duplicated.
func (p *Player) TakeCards(cardIDs []int) ([]Card, bool) {
	seen := make(map[int]bool, len(cardIDs))
	taken := make([]Card, 0, len(cardIDs))
	remaining := make([]Card, 0, len(p.Hand))

	for _, id := range cardIDs {
		if seen[id] {
			return nil, false
		}
		seen[id] = true
	}
	for _, c := range p.Hand {
		if seen[c.ID] {
			taken = append(taken, c)
			delete(seen, c.ID)
		} else {
			remaining = append(remaining, c)
		}
	}
	if len(seen) != 0 {
		return nil, false
	}
	p.Hand = remaining
	return taken, true
}

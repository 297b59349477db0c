// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"

	"doudizhu/internal/models"
)

// SeatState is one player's slice of a snapshot. Another seat's hand is
// carried as a count only; the viewer's own hand is revealed in full.
type SeatState struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Seat       int           `json:"seat"`
	Role       models.Role   `json:"role"`
	Beans      int           `json:"beans"`
	LastAction string        `json:"lastAction"`
	IsBot      bool          `json:"isBot"`
	Ready      bool          `json:"ready"`
	Connected  bool          `json:"connected"`
	HandSize   int           `json:"handSize"`
	Hand       []models.Card `json:"hand,omitempty"`
}

// Snapshot is the whole replicated GameState as broadcast to one viewer.
// Receipt replaces the guest's local state wholesale; a guest that misses a
// snapshot catches up on the next one. Seq is strictly increasing per room so
// an out-of-order arrival can be discarded.
type Snapshot struct {
	RoomID uuid.UUID `json:"roomId"`
	Code   string    `json:"code"`
	Seq    uint64    `json:"seq"`
	Phase  Phase     `json:"phase"`

	Players   []SeatState `json:"players"`
	SeatOrder []uuid.UUID `json:"seatOrder"`

	CurrentTurnIndex int       `json:"currentTurnIndex"`
	CurrentPlayerID  uuid.UUID `json:"currentPlayerId"`

	LandlordID uuid.UUID `json:"landlordId"`
	BaseBid    int       `json:"baseBid"`
	Multiplier int       `json:"multiplier"`

	LastPlayedCards []models.Card `json:"lastPlayedCards,omitempty"`
	LastPlayerID    uuid.UUID     `json:"lastPlayerId"`

	// KittyCards is revealed once the landlord is decided; before that only
	// the count is public.
	KittyCount int           `json:"kittyCount"`
	KittyCards []models.Card `json:"kittyCards,omitempty"`

	WinnerID  uuid.UUID         `json:"winnerId"`
	LaiziRank models.Rank       `json:"laiziRank"`
	Config    models.RoomConfig `json:"config"`
}

// SnapshotFor renders the room state from one viewer's perspective.
func (r *Room) SnapshotFor(viewerID uuid.UUID) Snapshot {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.snapshotLocked(viewerID)
}

// snapshotLocked builds a viewer-scoped snapshot. Assumes Mu held.
func (r *Room) snapshotLocked(viewerID uuid.UUID) Snapshot {
	snap := Snapshot{
		RoomID:           r.ID,
		Code:             r.Code,
		Seq:              r.seq,
		Phase:            r.Phase,
		CurrentTurnIndex: r.CurrentTurnIndex,
		LandlordID:       r.LandlordID,
		BaseBid:          r.BaseBid,
		Multiplier:       r.Multiplier,
		LastPlayerID:     r.LastPlayerID,
		KittyCount:       len(r.KittyCards),
		WinnerID:         r.WinnerID,
		LaiziRank:        r.LaiziRank,
		Config:           r.Config,
	}
	if len(r.LastPlayedCards) > 0 {
		snap.LastPlayedCards = append([]models.Card(nil), r.LastPlayedCards...)
	}
	if r.Phase == PhasePlaying || r.Phase == PhaseGameOver {
		snap.KittyCards = append([]models.Card(nil), r.KittyCards...)
	}
	if cur := r.currentPlayer(); cur != nil {
		snap.CurrentPlayerID = cur.ID
	}

	for i, p := range r.Players {
		seat := SeatState{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       i,
			Role:       p.Role,
			Beans:      p.Beans,
			LastAction: p.LastAction,
			IsBot:      p.IsBot,
			Ready:      p.Ready,
			Connected:  p.Connected,
			HandSize:   len(p.Hand),
		}
		if p.ID == viewerID {
			seat.Hand = append([]models.Card(nil), p.Hand...)
		}
		snap.Players = append(snap.Players, seat)
		snap.SeatOrder = append(snap.SeatOrder, p.ID)
	}
	return snap
}

// Package client holds the guest-side projection of the replicated game
// state. A guest never applies deltas: every broadcast carries the whole
// state, and the view swaps it in wholesale. Presentation layers read from
// here and emit only the same action messages a bot or remote player would.
package client

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"doudizhu/internal/game"
)

// View is the guest's local copy of the last applied snapshot.
type View struct {
	mu   sync.Mutex
	last *game.Snapshot
}

func NewView() *View {
	return &View{}
}

// Apply installs a snapshot, replacing whatever was held before. It returns
// false and discards the snapshot when its sequence number is at or below
// the last applied one, so a late out-of-order arrival cannot clobber newer
// state.
func (v *View) Apply(snap game.Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last != nil && snap.Seq <= v.last.Seq {
		return false
	}
	v.last = &snap
	return true
}

// Current returns a copy of the last applied snapshot, or false if none has
// arrived yet.
func (v *View) Current() (game.Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return game.Snapshot{}, false
	}
	return *v.last, true
}

// Reset drops the view, e.g. when the guest leaves the room.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = nil
}

// RelativeSeat resolves the player offset seats clockwise from self in the
// seating order. offset 1 is the next player to act after self, offset -1
// the previous one.
func RelativeSeat(seatOrder []uuid.UUID, selfID uuid.UUID, offset int) (uuid.UUID, error) {
	n := len(seatOrder)
	if n == 0 {
		return uuid.Nil, fmt.Errorf("empty seat order")
	}
	self := -1
	for i, id := range seatOrder {
		if id == selfID {
			self = i
			break
		}
	}
	if self < 0 {
		return uuid.Nil, fmt.Errorf("player %s not seated", selfID)
	}
	idx := ((self+offset)%n + n) % n
	return seatOrder[idx], nil
}

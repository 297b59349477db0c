package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/game"
)

func TestApplyDiscardsStaleSnapshots(t *testing.T) {
	v := NewView()

	_, ok := v.Current()
	assert.False(t, ok)

	assert.True(t, v.Apply(game.Snapshot{Seq: 5, Phase: game.PhaseBidding}))
	assert.True(t, v.Apply(game.Snapshot{Seq: 6, Phase: game.PhasePlaying}))

	// Late arrival of an older snapshot must not clobber newer state.
	assert.False(t, v.Apply(game.Snapshot{Seq: 5, Phase: game.PhaseBidding}))
	assert.False(t, v.Apply(game.Snapshot{Seq: 6, Phase: game.PhasePlaying}))

	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, game.PhasePlaying, cur.Phase)
	assert.Equal(t, uint64(6), cur.Seq)
}

func TestReset(t *testing.T) {
	v := NewView()
	require.True(t, v.Apply(game.Snapshot{Seq: 1}))
	v.Reset()

	_, ok := v.Current()
	assert.False(t, ok)
	// After a reset any sequence is acceptable again.
	assert.True(t, v.Apply(game.Snapshot{Seq: 1}))
}

func TestRelativeSeat(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	order := []uuid.UUID{a, b, c}

	next, err := RelativeSeat(order, a, 1)
	require.NoError(t, err)
	assert.Equal(t, b, next)

	prev, err := RelativeSeat(order, a, -1)
	require.NoError(t, err)
	assert.Equal(t, c, prev)

	wrap, err := RelativeSeat(order, c, 2)
	require.NoError(t, err)
	assert.Equal(t, b, wrap)

	self, err := RelativeSeat(order, b, 0)
	require.NoError(t, err)
	assert.Equal(t, b, self)

	_, err = RelativeSeat(order, uuid.New(), 1)
	assert.Error(t, err)

	_, err = RelativeSeat(nil, a, 1)
	assert.Error(t, err)
}

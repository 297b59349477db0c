package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/models"
	"doudizhu/internal/rules"
)

func mk(ranks ...models.Rank) []models.Card {
	cards := make([]models.Card, len(ranks))
	for i, r := range ranks {
		cards[i] = models.Card{ID: i, Rank: r, Label: r.Label(), Value: int(r)}
	}
	return cards
}

func TestBidAmountScaling(t *testing.T) {
	// Nothing above a queen bids zero.
	weak := mk(models.Rank3, models.Rank4, models.Rank5, models.Rank8, models.RankJ)
	assert.Equal(t, 0, BidAmount(weak))

	// Jokers, 2s and a bomb push the bid to the ceiling.
	strong := mk(
		models.RankBigJoker, models.RankSmallJoker,
		models.Rank2, models.Rank2,
		models.RankA, models.RankA,
		models.Rank9, models.Rank9, models.Rank9, models.Rank9,
	)
	assert.Equal(t, 3, BidAmount(strong))

	// A middling holding lands in between.
	mid := mk(models.Rank2, models.RankK, models.RankA, models.Rank7, models.Rank5)
	bid := BidAmount(mid)
	assert.GreaterOrEqual(t, bid, 1)
	assert.LessOrEqual(t, bid, 2)
}

func TestBidAmountMonotoneInHighCards(t *testing.T) {
	base := mk(models.Rank4, models.Rank5, models.Rank6)
	stronger := append(mk(models.Rank4, models.Rank5, models.Rank6), mk(models.Rank2, models.RankBigJoker)...)
	assert.GreaterOrEqual(t, BidAmount(stronger), BidAmount(base))
}

func TestChooseMoveLeadsLowestSingle(t *testing.T) {
	hand := mk(models.RankK, models.Rank4, models.Rank9)
	move := ChooseMove(hand, nil, models.RankNone)
	require.Len(t, move, 1)
	assert.Equal(t, int(models.Rank4), move[0].Value)
}

func TestChooseMoveBeatsWithCheapestGroup(t *testing.T) {
	hand := mk(
		models.Rank6, models.Rank6,
		models.Rank10, models.Rank10,
		models.Rank2, models.Rank2,
	)
	last := mk(models.Rank8, models.Rank8)

	move := ChooseMove(hand, last, models.RankNone)
	require.Len(t, move, 2)
	// Cheapest winning pair is the tens, not the twos.
	assert.Equal(t, int(models.Rank10), move[0].Value)
	assert.True(t, rules.IsValidPlay(move, last, models.RankNone))
}

func TestChooseMoveBombFallback(t *testing.T) {
	hand := mk(models.Rank5, models.Rank5, models.Rank5, models.Rank5, models.Rank3)
	last := mk(models.Rank2, models.Rank2)

	move := ChooseMove(hand, last, models.RankNone)
	require.Len(t, move, 4)
	assert.True(t, rules.IsValidPlay(move, last, models.RankNone))
}

func TestChooseMoveRocketFallback(t *testing.T) {
	hand := mk(models.RankSmallJoker, models.RankBigJoker, models.Rank4)
	last := mk(models.Rank2, models.Rank2, models.Rank2)

	move := ChooseMove(hand, last, models.RankNone)
	require.Len(t, move, 2)
	assert.True(t, rules.IsValidPlay(move, last, models.RankNone))
}

func TestChooseMovePassesWhenBeaten(t *testing.T) {
	hand := mk(models.Rank4, models.Rank5, models.Rank6)
	last := mk(models.Rank2, models.Rank2)
	assert.Nil(t, ChooseMove(hand, last, models.RankNone))

	// Nothing beats a rocket; always pass.
	rocket := mk(models.RankSmallJoker, models.RankBigJoker)
	strong := mk(models.Rank2, models.Rank2, models.Rank2, models.Rank2)
	assert.Nil(t, ChooseMove(strong, rocket, models.RankNone))
}

func TestChooseMoveEmptyHand(t *testing.T) {
	assert.Nil(t, ChooseMove(nil, nil, models.RankNone))
}

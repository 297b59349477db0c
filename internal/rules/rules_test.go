package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/models"
)

// mk builds cards of the given ranks with sequential IDs.
func mk(ranks ...models.Rank) []models.Card {
	cards := make([]models.Card, len(ranks))
	for i, r := range ranks {
		cards[i] = models.Card{ID: i, Rank: r, Label: r.Label(), Value: int(r)}
	}
	return cards
}

func TestClassifyBasicShapes(t *testing.T) {
	cases := []struct {
		name  string
		cards []models.Card
		kind  Kind
		value int
	}{
		{"single", mk(models.Rank7), KindSingle, 7},
		{"pair", mk(models.RankK, models.RankK), KindPair, 13},
		{"triple", mk(models.Rank2, models.Rank2, models.Rank2), KindTriple, 15},
		{"bomb", mk(models.Rank9, models.Rank9, models.Rank9, models.Rank9), KindBomb, 9},
		{"rocket", mk(models.RankSmallJoker, models.RankBigJoker), KindRocket, int(models.RankBigJoker)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			play, ok := Classify(tc.cards, models.RankNone)
			require.True(t, ok)
			assert.Equal(t, tc.kind, play.Kind)
			assert.Equal(t, tc.value, play.Value)
			assert.Equal(t, len(tc.cards), play.Size)
		})
	}
}

func TestClassifyRejectsMixedRanks(t *testing.T) {
	_, ok := Classify(mk(models.Rank5, models.Rank6), models.RankNone)
	assert.False(t, ok)

	_, ok = Classify(mk(models.Rank5, models.Rank5, models.Rank6), models.RankNone)
	assert.False(t, ok)

	// Two of the same joker cannot exist, but a joker pair with equal values
	// is not a rocket and not a pair of naturals either.
	_, ok = Classify(nil, models.RankNone)
	assert.False(t, ok)

	// Five or more uniform cards exceed every supported shape.
	_, ok = Classify(mk(models.Rank5, models.Rank5, models.Rank5, models.Rank5, models.Rank5), models.RankNone)
	assert.False(t, ok)
}

func TestClassifyPermutationInvariant(t *testing.T) {
	cards := mk(models.Rank8, models.Rank8, models.Rank8, models.Rank8)
	want, ok := Classify(cards, models.RankNone)
	require.True(t, ok)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(cards), func(a, b int) { cards[a], cards[b] = cards[b], cards[a] })
		got, ok := Classify(cards, models.RankNone)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestClassifyWildcardSubstitution(t *testing.T) {
	// 3 is wild this round: [K K 3] plays as a triple of kings.
	play, ok := Classify(mk(models.RankK, models.RankK, models.Rank3), models.Rank3)
	require.True(t, ok)
	assert.Equal(t, KindTriple, play.Kind)
	assert.Equal(t, int(models.RankK), play.Value)

	// Wildcard completing a bomb.
	play, ok = Classify(mk(models.Rank9, models.Rank9, models.Rank9, models.Rank3), models.Rank3)
	require.True(t, ok)
	assert.Equal(t, KindBomb, play.Kind)
	assert.Equal(t, 9, play.Value)

	// Pure wildcards play at their native value.
	play, ok = Classify(mk(models.Rank3, models.Rank3), models.Rank3)
	require.True(t, ok)
	assert.Equal(t, KindPair, play.Kind)
	assert.Equal(t, 3, play.Value)

	// Wildcards never build a rocket.
	play, ok = Classify(mk(models.Rank3, models.RankBigJoker), models.Rank3)
	require.True(t, ok)
	assert.Equal(t, KindPair, play.Kind)
	assert.Equal(t, int(models.RankBigJoker), play.Value)
	assert.NotEqual(t, KindRocket, play.Kind)

	// Naturals of mixed value stay invalid even with wilds present.
	_, ok = Classify(mk(models.Rank5, models.Rank6, models.Rank3), models.Rank3)
	assert.False(t, ok)
}

func TestIsValidPlayLeading(t *testing.T) {
	assert.True(t, IsValidPlay(mk(models.Rank4), nil, models.RankNone))
	assert.True(t, IsValidPlay(mk(models.Rank4, models.Rank4), nil, models.RankNone))
	// Unclassifiable sets cannot lead either.
	assert.False(t, IsValidPlay(mk(models.Rank4, models.Rank5), nil, models.RankNone))
	// Empty proposals are not validator input.
	assert.False(t, IsValidPlay(nil, nil, models.RankNone))
}

func TestIsValidPlayFollowing(t *testing.T) {
	pairKings := mk(models.RankK, models.RankK)

	// Same shape, higher value.
	assert.True(t, IsValidPlay(mk(models.Rank2, models.Rank2), pairKings, models.RankNone))
	// Same shape, lower value.
	assert.False(t, IsValidPlay(mk(models.Rank10, models.Rank10), pairKings, models.RankNone))
	// Equal value never beats.
	assert.False(t, IsValidPlay(mk(models.RankK, models.RankK), pairKings, models.RankNone))
	// Shape mismatch: a higher single does not beat a pair.
	assert.False(t, IsValidPlay(mk(models.Rank2), pairKings, models.RankNone))
	// Length mismatch: a triple does not beat a pair.
	assert.False(t, IsValidPlay(mk(models.Rank2, models.Rank2, models.Rank2), pairKings, models.RankNone))
}

func TestBombAndRocketLattice(t *testing.T) {
	pair := mk(models.RankA, models.RankA)
	bombNines := mk(models.Rank9, models.Rank9, models.Rank9, models.Rank9)
	bombTens := mk(models.Rank10, models.Rank10, models.Rank10, models.Rank10)
	rocket := mk(models.RankSmallJoker, models.RankBigJoker)

	// Bomb beats any non-bomb regardless of size.
	assert.True(t, IsValidPlay(bombNines, pair, models.RankNone))
	// Higher bomb beats lower bomb; not vice versa.
	assert.True(t, IsValidPlay(bombTens, bombNines, models.RankNone))
	assert.False(t, IsValidPlay(bombNines, bombTens, models.RankNone))
	// Rocket beats everything.
	assert.True(t, IsValidPlay(rocket, bombTens, models.RankNone))
	assert.True(t, IsValidPlay(rocket, pair, models.RankNone))
	// Nothing beats a rocket.
	assert.False(t, IsValidPlay(bombTens, rocket, models.RankNone))
	assert.False(t, IsValidPlay(mk(models.Rank2, models.Rank2, models.Rank2, models.Rank2), rocket, models.RankNone))
}

func TestWildcardBombBeatsNaturalPair(t *testing.T) {
	// [9 9 9 +wild] is still a bomb for comparison purposes.
	wildBomb := mk(models.Rank9, models.Rank9, models.Rank9, models.Rank3)
	assert.True(t, IsValidPlay(wildBomb, mk(models.RankA, models.RankA), models.Rank3))
}

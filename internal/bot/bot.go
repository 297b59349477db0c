// Package bot contains the decision policy for autonomous seats. Both
// functions are pure: given the same hand and table they always produce the
// same choice. The bot acts only through the same public actions a human
// uses; it never sees another player's hand.
//
// The policy treats a wildcard as an ordinary card of its native rank and
// never builds wildcard combinations.
package bot

import (
	"sort"

	"doudizhu/internal/models"
	"doudizhu/internal/rules"
)

// BidAmount scores the hand and maps the score to a bid in 0..3.
// High cards (2s and jokers) count 2, kings and aces 1, each natural bomb 3.
func BidAmount(hand []models.Card) int {
	score := 0
	counts := map[int]int{}
	for _, c := range hand {
		switch {
		case c.Value >= int(models.Rank2):
			score += 2
		case c.Value >= int(models.RankK):
			score++
		}
		counts[c.Value]++
	}
	for _, n := range counts {
		if n == 4 {
			score += 3
		}
	}

	switch {
	case score > 6:
		return 3
	case score > 4:
		return 2
	case score > 2:
		return 1
	default:
		return 0
	}
}

// ChooseMove picks the cards to play against lastPlayed, or nil to pass.
// Leading, it plays the single lowest card. Following, it searches for the
// cheapest group that beats the table, then falls back to a bomb, then the
// rocket, then passes.
func ChooseMove(hand, lastPlayed []models.Card, wildcard models.Rank) []models.Card {
	if len(hand) == 0 {
		return nil
	}

	if len(lastPlayed) == 0 {
		low := hand[0]
		for _, c := range hand[1:] {
			if c.Value < low.Value {
				low = c
			}
		}
		return []models.Card{low}
	}

	prev, ok := rules.Classify(lastPlayed, wildcard)
	if !ok || prev.Kind == rules.KindRocket {
		return nil
	}

	groups, values := groupByValue(hand)

	if prev.Kind != rules.KindBomb {
		for _, v := range values {
			if v > prev.Value && len(groups[v]) >= prev.Size {
				return groups[v][:prev.Size]
			}
		}
	}

	for _, v := range values {
		if len(groups[v]) == 4 && (prev.Kind != rules.KindBomb || v > prev.Value) {
			return groups[v]
		}
	}

	if rocket := findRocket(hand); rocket != nil {
		return rocket
	}
	return nil
}

// groupByValue buckets the hand by card value and returns the bucket values
// in ascending order.
func groupByValue(hand []models.Card) (map[int][]models.Card, []int) {
	groups := make(map[int][]models.Card)
	for _, c := range hand {
		groups[c.Value] = append(groups[c.Value], c)
	}
	values := make([]int, 0, len(groups))
	for v := range groups {
		values = append(values, v)
	}
	sort.Ints(values)
	return groups, values
}

// findRocket returns both jokers if the hand holds them, else nil.
func findRocket(hand []models.Card) []models.Card {
	var small, big *models.Card
	for i := range hand {
		switch hand[i].Rank {
		case models.RankSmallJoker:
			small = &hand[i]
		case models.RankBigJoker:
			big = &hand[i]
		}
	}
	if small == nil || big == nil {
		return nil
	}
	return []models.Card{*small, *big}
}

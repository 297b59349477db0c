// Package rules implements play classification and comparison for the
// landlord card game, including wildcard (Laizi) substitution. Everything in
// this package is pure and deterministic: the host and any validating client
// must reach the same verdict for the same inputs.
package rules

import (
	"doudizhu/internal/models"
)

// Kind is the shape of a classified play.
type Kind int

const (
	KindInvalid Kind = iota
	KindSingle
	KindPair
	KindTriple
	KindBomb
	KindRocket
)

// Play is the result of classifying a set of cards.
type Play struct {
	Kind Kind

	// Value is the comparison value of the play. For wildcard-completed
	// groups this is the value of the natural cards.
	Value int

	// Size is the number of cards played.
	Size int
}

// IsBomb reports whether the play beats any non-bomb.
func (p Play) IsBomb() bool {
	return p.Kind == KindBomb || p.Kind == KindRocket
}

// Classify determines the shape and comparison value of a proposed card set.
// wildcard is the rank substituting for others this round, or models.RankNone.
//
// Wildcard resolution: wildcard-rank cards count as extra copies of the
// natural cards' shared value, provided the natural cards are uniform. They
// never complete straights (unsupported here) and never form a rocket. A set
// of only wildcards is evaluated at the wildcard's own native value.
func Classify(cards []models.Card, wildcard models.Rank) (Play, bool) {
	n := len(cards)
	if n == 0 {
		return Play{}, false
	}

	if isRocket(cards) {
		return Play{Kind: KindRocket, Value: int(models.RankBigJoker), Size: 2}, true
	}

	var natural []models.Card
	wilds := 0
	for _, c := range cards {
		if wildcard != models.RankNone && c.Rank == wildcard {
			wilds++
		} else {
			natural = append(natural, c)
		}
	}

	var value int
	if len(natural) == 0 {
		// Only wildcards: they play at their native value.
		value = int(wildcard)
	} else {
		value = natural[0].Value
		for _, c := range natural[1:] {
			if c.Value != value {
				// Non-uniform naturals: no substitution is attempted.
				return Play{}, false
			}
		}
	}

	switch n {
	case 1:
		return Play{Kind: KindSingle, Value: value, Size: 1}, true
	case 2:
		return Play{Kind: KindPair, Value: value, Size: 2}, true
	case 3:
		return Play{Kind: KindTriple, Value: value, Size: 3}, true
	case 4:
		return Play{Kind: KindBomb, Value: value, Size: 4}, true
	default:
		return Play{}, false
	}
}

// isRocket reports whether cards are exactly the two jokers. Wildcards never
// form a rocket.
func isRocket(cards []models.Card) bool {
	if len(cards) != 2 {
		return false
	}
	return cards[0].Value >= int(models.RankSmallJoker) &&
		cards[1].Value >= int(models.RankSmallJoker) &&
		cards[0].Value != cards[1].Value
}

// IsValidPlay decides whether cards is a legal play against lastCards.
// An empty cards slice is invalid input here; "pass" is a state machine
// concern, not a validator one. An empty lastCards means the player leads.
func IsValidPlay(cards, lastCards []models.Card, wildcard models.Rank) bool {
	proposed, ok := Classify(cards, wildcard)
	if !ok {
		return false
	}

	// Leading: any classifiable set is legal.
	if len(lastCards) == 0 {
		return true
	}

	// Rocket beats anything on the table.
	if proposed.Kind == KindRocket {
		return true
	}

	prev, ok := Classify(lastCards, wildcard)
	if !ok {
		return false
	}
	if prev.Kind == KindRocket {
		return false
	}

	if proposed.Kind == KindBomb {
		if prev.Kind == KindBomb {
			return proposed.Value > prev.Value
		}
		return true
	}
	if prev.Kind == KindBomb {
		return false
	}

	// Non-bomb vs non-bomb: exact length match, strictly greater value.
	return proposed.Size == prev.Size && proposed.Value > prev.Value
}

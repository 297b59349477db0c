package models

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Suit identifies one of the four French suits. Jokers carry no suit.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitNone     Suit = ""
)

// Rank orders cards for trick comparison. Dou Dizhu ranks 3 lowest and 2
// highest among the naturals, with the jokers above everything.
type Rank int

const (
	RankNone Rank = 0

	Rank3  Rank = 3
	Rank4  Rank = 4
	Rank5  Rank = 5
	Rank6  Rank = 6
	Rank7  Rank = 7
	Rank8  Rank = 8
	Rank9  Rank = 9
	Rank10 Rank = 10
	RankJ  Rank = 11
	RankQ  Rank = 12
	RankK  Rank = 13
	RankA  Rank = 14
	Rank2  Rank = 15

	RankSmallJoker Rank = 16
	RankBigJoker   Rank = 17
)

var rankLabels = map[Rank]string{
	Rank3:          "3",
	Rank4:          "4",
	Rank5:          "5",
	Rank6:          "6",
	Rank7:          "7",
	Rank8:          "8",
	Rank9:          "9",
	Rank10:         "10",
	RankJ:          "J",
	RankQ:          "Q",
	RankK:          "K",
	RankA:          "A",
	Rank2:          "2",
	RankSmallJoker: "joker",
	RankBigJoker:   "JOKER",
}

// Label returns the display name for the rank, or "?" for RankNone.
func (r Rank) Label() string {
	if s, ok := rankLabels[r]; ok {
		return s
	}
	return "?"
}

// WildcardRanks lists the ranks eligible to be drawn as the round's wildcard.
// Jokers are never wild.
var WildcardRanks = []Rank{
	Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10,
	RankJ, RankQ, RankK, RankA, Rank2,
}

// Card is a single card in the 54-card deck. ID is stable across shuffles so
// clients can reference cards without echoing suit and rank back. Value
// mirrors Rank as an int for trick comparison.
type Card struct {
	ID    int    `json:"id"`
	Suit  Suit   `json:"suit"`
	Rank  Rank   `json:"rank"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

var deckSuits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// NewOrderedDeck builds the full 54-card deck in a fixed order: suits by
// rank ascending, then the two jokers. IDs run 0 through 53.
func NewOrderedDeck() []Card {
	deck := make([]Card, 0, 54)
	id := 0
	for r := Rank3; r <= Rank2; r++ {
		for _, s := range deckSuits {
			deck = append(deck, Card{
				ID:    id,
				Suit:  s,
				Rank:  r,
				Label: fmt.Sprintf("%s%s", s, r.Label()),
				Value: int(r),
			})
			id++
		}
	}
	deck = append(deck,
		Card{ID: id, Suit: SuitNone, Rank: RankSmallJoker, Label: RankSmallJoker.Label(), Value: int(RankSmallJoker)},
		Card{ID: id + 1, Suit: SuitNone, Rank: RankBigJoker, Label: RankBigJoker.Label(), Value: int(RankBigJoker)},
	)
	return deck
}

// NewDeck returns a freshly shuffled 54-card deck.
func NewDeck() []Card {
	deck := NewOrderedDeck()
	ShuffleDeck(deck)
	return deck
}

// ShuffleDeck shuffles in place.
func ShuffleDeck(deck []Card) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// SortHand orders a hand by value descending, the way hands are fanned out in
// play. The sort is stable so equal-value cards keep their deal order.
func SortHand(hand []Card) {
	sort.SliceStable(hand, func(i, j int) bool {
		return hand[i].Value > hand[j].Value
	})
}

package rating

import (
	"testing"

	"github.com/google/uuid"
)

func TestApplyRoundResultLandlordWin(t *testing.T) {
	landlord := NewPlayerRating(uuid.New())
	peasants := []PlayerRating{NewPlayerRating(uuid.New()), NewPlayerRating(uuid.New())}

	newL, newP := ApplyRoundResult(landlord, peasants, true)
	if newL.Elo <= landlord.Elo {
		t.Errorf("winning landlord's rating should have gone up, got %d", newL.Elo)
	}
	for i, p := range newP {
		if p.Elo >= peasants[i].Elo {
			t.Errorf("losing peasant %d's rating should have gone down, got %d", i, p.Elo)
		}
	}
}

func TestApplyRoundResultPeasantWin(t *testing.T) {
	landlord := NewPlayerRating(uuid.New())
	peasants := []PlayerRating{NewPlayerRating(uuid.New()), NewPlayerRating(uuid.New())}

	newL, newP := ApplyRoundResult(landlord, peasants, false)
	if newL.Elo >= landlord.Elo {
		t.Errorf("losing landlord's rating should have gone down, got %d", newL.Elo)
	}
	for i, p := range newP {
		if p.Elo <= peasants[i].Elo {
			t.Errorf("winning peasant %d's rating should have gone up, got %d", i, p.Elo)
		}
	}
}

func TestApplyRoundResultNoPeasants(t *testing.T) {
	landlord := NewPlayerRating(uuid.New())
	newL, newP := ApplyRoundResult(landlord, nil, true)
	if newL.Elo != landlord.Elo || len(newP) != 0 {
		t.Errorf("no opponents should mean no rating movement")
	}
}

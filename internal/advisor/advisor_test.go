package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/game"
	"doudizhu/internal/models"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	advice := c.Advise(context.Background(), nil, game.Snapshot{})
	assert.Equal(t, FallbackHint, advice)
}

func TestAdviseUsesModelResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Play the pair of tens."}}]}`))
	}))
	defer srv.Close()

	c := &Client{
		baseURL: srv.URL,
		apiKey:  "test-key",
		model:   "test-model",
		http:    &http.Client{Timeout: 5 * time.Second},
	}

	advice := c.Advise(context.Background(), nil, game.Snapshot{Phase: game.PhasePlaying, Multiplier: 1})
	assert.Equal(t, "Play the pair of tens.", advice)
}

func TestAdviseFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{
		baseURL: srv.URL,
		apiKey:  "test-key",
		model:   "test-model",
		http:    &http.Client{Timeout: 5 * time.Second},
	}

	advice := c.Advise(context.Background(), nil, game.Snapshot{Multiplier: 1})
	assert.Equal(t, FallbackHint, advice)
}

func TestDescribeSituationRevealsOnlyPublicState(t *testing.T) {
	hand := []models.Card{
		{ID: 1, Rank: models.RankK, Label: "SK", Value: int(models.RankK)},
		{ID: 2, Rank: models.Rank4, Label: "H4", Value: int(models.Rank4)},
	}
	snap := game.Snapshot{
		Phase:      game.PhasePlaying,
		Multiplier: 2,
		LaiziRank:  models.Rank7,
		LastPlayedCards: []models.Card{
			{ID: 9, Rank: models.Rank9, Label: "C9", Value: int(models.Rank9)},
		},
		Players: []game.SeatState{
			{Name: "ann", Role: models.RoleLandlord, HandSize: 15},
			{Name: "bo", Role: models.RolePeasant, HandSize: 17},
		},
	}

	text := describeSituation(hand, snap)
	require.NotEmpty(t, text)
	assert.Contains(t, text, "SK H4")
	assert.Contains(t, text, "C9")
	assert.Contains(t, text, "ann (landlord) holds 15 cards")
	assert.Contains(t, text, "Wildcard rank: 7")
	assert.Contains(t, text, "bo (peasant) holds 17 cards")
}

func TestDescribeSituationLeading(t *testing.T) {
	text := describeSituation(nil, game.Snapshot{Phase: game.PhasePlaying, Multiplier: 1})
	assert.True(t, strings.Contains(text, "leading the trick"))
	assert.Contains(t, text, "Your hand: none")
}

// Package advisor asks an OpenAI-compatible chat completions endpoint for a
// one-line play suggestion. The endpoint is optional; when it is not
// configured or a request fails, Advise returns a fixed fallback hint so the
// caller never has to branch on availability.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"doudizhu/internal/game"
	"doudizhu/internal/models"
)

// FallbackHint is returned whenever the model cannot be reached.
const FallbackHint = "No advice available right now. Lead low singles and save bombs for the endgame."

const systemPrompt = "You are a Dou Dizhu coach. Given a player's hand and the table state, reply with one short sentence suggesting their next move. Reply with plain text only."

// Client talks to a chat/completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewFromEnv builds a client from ADVISOR_API_BASE, ADVISOR_API_KEY and
// ADVISOR_MODEL. Returns nil when the key or model is unset.
func NewFromEnv() *Client {
	apiKey := strings.TrimSpace(os.Getenv("ADVISOR_API_KEY"))
	model := strings.TrimSpace(os.Getenv("ADVISOR_MODEL"))
	if apiKey == "" || model == "" {
		return nil
	}
	base := strings.TrimSpace(os.Getenv("ADVISOR_API_BASE"))
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Advise returns a short suggestion for the player holding hand. Never
// returns an empty string.
func (c *Client) Advise(ctx context.Context, hand []models.Card, snap game.Snapshot) string {
	if c == nil {
		return FallbackHint
	}
	text, err := c.complete(ctx, describeSituation(hand, snap))
	if err != nil {
		logrus.WithError(err).Warn("advisor request failed")
		return FallbackHint
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackHint
	}
	return text
}

func (c *Client) complete(ctx context.Context, user string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"max_tokens": 120,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("advisor http %d: %s", resp.StatusCode, truncate(buf.String(), 400))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(buf.Bytes(), &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return cc.Choices[0].Message.Content, nil
}

// describeSituation renders the prompt body. Only information the player can
// legitimately see goes in: their own hand, hand counts, and the table.
func describeSituation(hand []models.Card, snap game.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Phase: %s.\n", snap.Phase)
	fmt.Fprintf(&sb, "Your hand: %s.\n", cardLabels(hand))
	if snap.LaiziRank != 0 {
		fmt.Fprintf(&sb, "Wildcard rank: %s.\n", snap.LaiziRank.Label())
	}
	if len(snap.LastPlayedCards) > 0 {
		fmt.Fprintf(&sb, "Cards to beat: %s.\n", cardLabels(snap.LastPlayedCards))
	} else {
		sb.WriteString("You are leading the trick.\n")
	}
	for _, seat := range snap.Players {
		role := seat.Role
		if role == "" {
			role = "unassigned"
		}
		fmt.Fprintf(&sb, "%s (%s) holds %d cards.\n", seat.Name, role, seat.HandSize)
	}
	fmt.Fprintf(&sb, "Multiplier is %d.", snap.Multiplier)
	return sb.String()
}

func cardLabels(cards []models.Card) string {
	if len(cards) == 0 {
		return "none"
	}
	labels := make([]string, len(cards))
	for i, c := range cards {
		labels[i] = c.Label
	}
	return strings.Join(labels, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

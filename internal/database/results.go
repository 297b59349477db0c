// internal/database/results.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"doudizhu/internal/game"
	"doudizhu/internal/rating"
)

// RecordRoundResult persists a settled round: the round row, each player's
// bean delta, and a Glicko-2 rating update for the human seats. Bots are
// recorded in round_results but never rated.
func RecordRoundResult(ctx context.Context, res game.Result) error {
	if !Connected() {
		return fmt.Errorf("database not connected")
	}

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertRound := `
			INSERT INTO rounds (id, room_code, landlord_id, winner_id, base_bid, multiplier, landlord_won)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`
		if _, e := tx.Exec(ctx, upsertRound,
			res.RoundID, res.RoomCode, res.LandlordID, res.WinnerID,
			res.BaseBid, res.Multiplier, res.LandlordWon); e != nil {
			return e
		}

		for playerID, delta := range res.Deltas {
			q := `
				INSERT INTO round_results (round_id, player_id, bean_delta, was_landlord)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (round_id, player_id)
				DO UPDATE SET bean_delta=$3, was_landlord=$4
			`
			if _, e := tx.Exec(ctx, q, res.RoundID, playerID, delta, playerID == res.LandlordID); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert round or results: %w", err)
	}

	if err := updateRatings(ctx, res); err != nil {
		logrus.WithError(err).Warn("rating update failed")
	}
	return nil
}

// updateRatings applies the landlord-versus-peasants Glicko-2 step for the
// human seats. When the landlord or both peasants are bots there is no pairing
// to rate, so only the present humans move against the absent side's stored
// baseline.
func updateRatings(ctx context.Context, res game.Result) error {
	human := make(map[uuid.UUID]bool, len(res.Humans))
	for _, id := range res.Humans {
		human[id] = true
	}
	if len(human) == 0 {
		return nil
	}

	landlord, err := loadOrInitRating(ctx, res.LandlordID)
	if err != nil {
		return err
	}
	var peasants []rating.PlayerRating
	for playerID := range res.Deltas {
		if playerID == res.LandlordID {
			continue
		}
		pr, err := loadOrInitRating(ctx, playerID)
		if err != nil {
			return err
		}
		peasants = append(peasants, pr)
	}

	newLandlord, newPeasants := rating.ApplyRoundResult(landlord, peasants, res.LandlordWon)

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		all := append([]rating.PlayerRating{newLandlord}, newPeasants...)
		old := append([]rating.PlayerRating{landlord}, peasants...)
		for i, pr := range all {
			if !human[pr.ID] {
				continue
			}
			upd := `
				INSERT INTO player_ratings (player_id, elo, phi, sigma)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (player_id) DO UPDATE SET elo=$2, phi=$3, sigma=$4
			`
			if _, e := tx.Exec(ctx, upd, pr.ID, pr.Elo, pr.Phi, pr.Sigma); e != nil {
				return e
			}
			ins := `
				INSERT INTO rating_history (player_id, round_id, old_rating, new_rating)
				VALUES ($1, $2, $3, $4)
			`
			if _, e := tx.Exec(ctx, ins, pr.ID, res.RoundID, old[i].Elo, pr.Elo); e != nil {
				return e
			}
		}
		return nil
	})
}

// loadOrInitRating fetches a player's stored rating, falling back to the
// Glicko-2 baseline for players (and bots) with no rating row.
func loadOrInitRating(ctx context.Context, playerID uuid.UUID) (rating.PlayerRating, error) {
	pr := rating.NewPlayerRating(playerID)
	q := `SELECT elo, phi, sigma FROM player_ratings WHERE player_id = $1`
	err := DB.QueryRow(ctx, q, playerID).Scan(&pr.Elo, &pr.Phi, &pr.Sigma)
	if err == pgx.ErrNoRows {
		return pr, nil
	}
	if err != nil {
		return pr, err
	}
	return pr, nil
}

// InsertSnapshotRecord stores one historian snapshot row. Used by the drain
// worker, not the game service.
func InsertSnapshotRecord(ctx context.Context, roomCode string, seq uint64, phase string, actorID uuid.UUID, state []byte, ts int64) error {
	q := `
		INSERT INTO room_snapshots (room_code, seq, phase, actor_id, state, recorded_at)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6))
		ON CONFLICT (room_code, seq) DO NOTHING
	`
	_, err := DB.Exec(ctx, q, roomCode, seq, phase, actorID, state, ts)
	return err
}

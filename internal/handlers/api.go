// internal/handlers/api.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"doudizhu/internal/auth"
	"doudizhu/internal/game"
	"doudizhu/internal/models"
	"doudizhu/internal/protocol"
)

type createRoomRequest struct {
	EnableLaizi bool   `json:"enableLaizi"`
	IsDedicated bool   `json:"isDedicated"`
	Passcode    string `json:"passcode"`
}

type createRoomResponse struct {
	Code    string `json:"code"`
	Address string `json:"address"`
}

// CreateRoomHandler creates an in-memory room and returns its code plus the
// shareable room address.
func CreateRoomHandler(s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := EnsureGuestSession(w, r); err != nil {
			http.Error(w, "session failed", http.StatusInternalServerError)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			http.Error(w, "bad room request payload", http.StatusBadRequest)
			return
		}

		cfg := models.RoomConfig{
			EnableLaizi: req.EnableLaizi,
			IsDedicated: req.IsDedicated,
		}
		if req.Passcode != "" {
			hash, err := auth.HashPasscode(req.Passcode)
			if err != nil {
				http.Error(w, "failed to secure room", http.StatusInternalServerError)
				return
			}
			cfg.PasscodeHash = hash
		}

		room := s.CreateRoom(cfg)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createRoomResponse{
			Code:    room.Code,
			Address: protocol.RoomAddress(room.Code),
		})
	}
}

// ListRoomsHandler returns the in-memory room store for the lobby browser.
// Private rooms are listed but their passcode state is flagged.
func ListRoomsHandler(s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries := []game.RoomSummary{}
		for _, code := range s.Rooms.Codes() {
			if room, ok := s.Rooms.GetRoom(code); ok {
				summaries = append(summaries, room.Summary())
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	}
}

type addBotRequest struct {
	Name string `json:"name"`
}

// AddBotHandler seats a bot in a lobby-phase room. Only a seated participant
// may add one.
func AddBotHandler(s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guestID, err := EnsureGuestSession(w, r)
		if err != nil {
			http.Error(w, "session failed", http.StatusInternalServerError)
			return
		}

		code := strings.ToUpper(chi.URLParam(r, "code"))
		room, ok := s.Rooms.GetRoom(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if !room.HasPlayer(guestID) {
			http.Error(w, "not seated in this room", http.StatusForbidden)
			return
		}

		var req addBotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			http.Error(w, "bad bot request payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = "Bot"
		}
		room.AddBot(req.Name)

		w.WriteHeader(http.StatusNoContent)
	}
}

type adviseResponse struct {
	Advice string `json:"advice"`
}

// AdviseHandler asks the configured model for a hint on the caller's current
// position. Always answers 200 with some text; a missing or failing model
// yields the fallback hint.
func AdviseHandler(s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guestID, err := EnsureGuestSession(w, r)
		if err != nil {
			http.Error(w, "session failed", http.StatusInternalServerError)
			return
		}

		code := strings.ToUpper(chi.URLParam(r, "code"))
		room, ok := s.Rooms.GetRoom(code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if !room.HasPlayer(guestID) {
			http.Error(w, "not seated in this room", http.StatusForbidden)
			return
		}

		snap := room.SnapshotFor(guestID)
		var hand []models.Card
		for _, seat := range snap.Players {
			if seat.ID == guestID {
				hand = seat.Hand
				break
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
		defer cancel()
		advice := s.Advisor.Advise(ctx, hand, snap)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(adviseResponse{Advice: advice})
	}
}

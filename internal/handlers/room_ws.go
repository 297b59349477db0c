// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"doudizhu/internal/auth"
	"doudizhu/internal/game"
	"doudizhu/internal/middleware"
	"doudizhu/internal/protocol"
)

// wsSubprotocol is the only subprotocol the host speaks.
const wsSubprotocol = "doudizhu"

// joinDeadline bounds how long a fresh connection may sit silent before its
// join request arrives.
const joinDeadline = 10 * time.Second

// RoomWSHandler upgrades the HTTP connection to WebSocket for one room.
// The guest identity comes from the session cookie, the room from the URL
// (/room/ws/{code}), and the first message must be a join request. After the
// join is accepted the read loop routes actions into the room until the
// connection drops.
func RoomWSHandler(logger *logrus.Logger, s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		room, ok := s.Rooms.GetRoom(code)
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		// The session cookie must be set before the upgrade response is sent.
		guestID, err := EnsureGuestSession(w, r)
		if err != nil {
			logger.Warnf("guest session failed for room %s: %v", code, err)
			http.Error(w, "Session failed", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{wsSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", code, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != wsSubprotocol {
			logger.Warnf("client for room %s connected with invalid subprotocol: %s", code, c.Subprotocol())
			c.Close(websocket.StatusCode(BadSubprotocolError), "Client must use the 'doudizhu' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, code)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if !performJoin(ctx, c, room, guestID, logger) {
			return
		}

		s.registerConn(code, guestID, c)

		// The join broadcast went out before this connection was registered,
		// so deliver the opening snapshot directly.
		if data, err := protocol.Encode(protocol.StateUpdate(room.SnapshotFor(guestID))); err == nil {
			writeCtx, wcancel := context.WithTimeout(ctx, 3*time.Second)
			_ = c.Write(writeCtx, websocket.MessageText, data)
			wcancel()
		}

		readRoomMessages(ctx, c, room, guestID, logger)

		room.HandleDisconnect(guestID)
		s.unregisterConn(code, guestID, c)
		s.ReapRoom(code)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, code, nil)
	}
}

// performJoin consumes the opening join request, checks the passcode on
// private rooms, and seats (or reseats) the guest. Returns false when the
// connection was closed.
func performJoin(ctx context.Context, c *websocket.Conn, room *game.Room, guestID uuid.UUID, logger *logrus.Logger) bool {
	readCtx, cancel := context.WithTimeout(ctx, joinDeadline)
	defer cancel()

	_, data, err := c.Read(readCtx)
	if err != nil {
		logger.Warnf("room %s: no join request from %s: %v", room.Code, guestID, err)
		c.Close(websocket.StatusCode(MalformedPayloadError), "Expected a join request.")
		return false
	}
	env, err := protocol.Decode(data)
	if err != nil || env.Type != protocol.TypeJoinRequest {
		logger.Warnf("room %s: bad opening message from %s: %v", room.Code, guestID, err)
		c.Close(websocket.StatusCode(MalformedPayloadError), "Expected a join request.")
		return false
	}

	if room.Config.PasscodeHash != "" {
		match, err := auth.VerifyPasscode(env.Join.Passcode, room.Config.PasscodeHash)
		if err != nil || !match {
			logger.Warnf("room %s: passcode rejected for %s", room.Code, guestID)
			c.Close(websocket.StatusCode(InvalidPasscodeError), "Wrong passcode.")
			return false
		}
	}

	room.HandleJoin(guestID, env.Join.Name)
	if !room.HasPlayer(guestID) {
		c.Close(websocket.StatusTryAgainLater, "Room is full.")
		return false
	}
	return true
}

// readRoomMessages continuously reads envelopes from a guest connection and
// routes them into the room. Invalid traffic gets an error reply; the room
// itself treats illegal actions as silent no-ops.
func readRoomMessages(ctx context.Context, c *websocket.Conn, room *game.Room, guestID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for guest %s in room %s.", guestID, room.Code)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for guest %s in room %s.", guestID, room.Code)
			} else {
				logger.Warnf("error reading from WebSocket for guest %s in room %s: %v", guestID, room.Code, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("non-text message from guest %s in room %s, ignoring", guestID, room.Code)
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			logger.Warnf("invalid message from guest %s in room %s: %v", guestID, room.Code, err)
			sendWsError(c, err.Error())
			continue
		}

		switch env.Type {
		case protocol.TypeJoinRequest:
			// Duplicate join on a live connection is a reseat request.
			room.HandleJoin(guestID, env.Join.Name)
		case protocol.TypeActionBid:
			room.HandleBid(guestID, env.Bid.Amount)
		case protocol.TypeActionPlay:
			room.HandlePlay(guestID, env.Play.CardIDs)
		case protocol.TypeActionRestart:
			room.HandleRestart(guestID)
		case protocol.TypeGameStateUpdate:
			// Snapshots flow host to guest only.
			sendWsError(c, "guests cannot send state updates")
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// sendWsError sends a structured error message to the client with a write
// timeout, leaving connection failure detection to the read loop.
func sendWsError(c *websocket.Conn, errorMsg string) {
	msg, err := json.Marshal(map[string]string{
		"type":    "error",
		"message": errorMsg,
	})
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.Write(writeCtx, websocket.MessageText, msg)
}

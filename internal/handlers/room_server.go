// internal/handlers/room_server.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"doudizhu/internal/advisor"
	"doudizhu/internal/cache"
	"doudizhu/internal/database"
	"doudizhu/internal/game"
	"doudizhu/internal/models"
	"doudizhu/internal/protocol"
)

// RoomServer owns every live room plus the transport-side state the rooms
// themselves never see: which guest holds which WebSocket connection.
type RoomServer struct {
	Logger  *logrus.Logger
	Rooms   *game.RoomStore
	Advisor *advisor.Client

	mu    sync.Mutex
	conns map[string]map[uuid.UUID]*websocket.Conn
}

func NewRoomServer(logger *logrus.Logger) *RoomServer {
	return &RoomServer{
		Logger:  logger,
		Rooms:   game.NewRoomStore(),
		Advisor: advisor.NewFromEnv(),
		conns:   make(map[string]map[uuid.UUID]*websocket.Conn),
	}
}

// CreateRoom allocates a room under a fresh unused code and wires its
// broadcast and settlement hooks.
func (s *RoomServer) CreateRoom(cfg models.RoomConfig) *game.Room {
	var room *game.Room
	for {
		code := protocol.NewRoomCode()
		if _, exists := s.Rooms.GetRoom(code); exists {
			continue
		}
		room = game.NewRoom(code, cfg)
		break
	}
	room.BroadcastFn = s.createBroadcastFunc(room.Code)
	room.OnGameEnd = s.createGameEndFunc()
	s.Rooms.AddRoom(room)
	s.Logger.Infof("room %s created (laizi=%v dedicated=%v private=%v)",
		room.Code, cfg.EnableLaizi, cfg.IsDedicated, cfg.PasscodeHash != "")
	return room
}

// registerConn binds a guest's connection to a room code. A prior connection
// for the same seat is superseded.
func (s *RoomServer) registerConn(code string, playerID uuid.UUID, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[code] == nil {
		s.conns[code] = make(map[uuid.UUID]*websocket.Conn)
	}
	s.conns[code][playerID] = c
}

// unregisterConn removes the binding, but only if it still points at the
// same connection; a reconnect that already replaced it is left alone.
func (s *RoomServer) unregisterConn(code string, playerID uuid.UUID, c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[code][playerID] == c {
		delete(s.conns[code], playerID)
		if len(s.conns[code]) == 0 {
			delete(s.conns, code)
		}
	}
}

// createBroadcastFunc builds the fan-out hook for one room. The hook runs
// with the room lock held, so it snapshots the connection table and does all
// marshaling and writing on a separate goroutine.
func (s *RoomServer) createBroadcastFunc(code string) func(map[uuid.UUID]game.Snapshot, game.Snapshot) {
	return func(snaps map[uuid.UUID]game.Snapshot, table game.Snapshot) {
		targets := make(map[uuid.UUID]*websocket.Conn, len(snaps))
		s.mu.Lock()
		for playerID := range snaps {
			if c, ok := s.conns[code][playerID]; ok {
				targets[playerID] = c
			}
		}
		s.mu.Unlock()

		go func() {
			for playerID, c := range targets {
				data, err := protocol.Encode(protocol.StateUpdate(snaps[playerID]))
				if err != nil {
					s.Logger.Errorf("room %s: encode snapshot for %s: %v", code, playerID, err)
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				err = c.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.Logger.Warnf("room %s: write snapshot to %s: %v", code, playerID, err)
				}
			}
			s.publishSnapshot(table)
		}()
	}
}

// publishSnapshot ships the neutral table view to the historian queue.
// Best effort: a missing or failing Redis never affects gameplay.
func (s *RoomServer) publishSnapshot(table game.Snapshot) {
	if cache.Rdb == nil {
		return
	}
	state, err := protocol.Encode(protocol.StateUpdate(table))
	if err != nil {
		s.Logger.Errorf("room %s: encode historian snapshot: %v", table.Code, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	record := cache.SnapshotRecord{
		RoomCode:  table.Code,
		Seq:       table.Seq,
		Phase:     string(table.Phase),
		ActorID:   table.CurrentPlayerID,
		State:     state,
		Timestamp: time.Now().Unix(),
	}
	if err := cache.PublishSnapshot(ctx, record); err != nil {
		s.Logger.Warnf("room %s: publish snapshot seq %d: %v", table.Code, table.Seq, err)
	}
}

// createGameEndFunc builds the settlement hook. It runs with the room lock
// held, so persistence happens on its own goroutine.
func (s *RoomServer) createGameEndFunc() game.OnGameEndFunc {
	return func(res game.Result) {
		if !database.Connected() {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := database.RecordRoundResult(ctx, res); err != nil {
				s.Logger.Warnf("room %s: persist round %s: %v", res.RoomCode, res.RoundID, err)
			}
		}()
	}
}

// ReapRoom drops a room whose table has emptied out.
func (s *RoomServer) ReapRoom(code string) {
	room, ok := s.Rooms.GetRoom(code)
	if !ok {
		return
	}
	if room.Empty() {
		s.Rooms.DeleteRoom(code)
		s.Logger.Infof("room %s reaped", code)
	}
}

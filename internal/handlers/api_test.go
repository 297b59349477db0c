// internal/handlers/api_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/auth"
	"doudizhu/internal/game"
	"doudizhu/internal/models"
)

func testRouter(s *RoomServer) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/room/create", CreateRoomHandler(s))
	r.Get("/room/list", ListRoomsHandler(s))
	r.Post("/room/{code}/bot", AddBotHandler(s))
	return r
}

func newTestServer() *RoomServer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewRoomServer(logger)
}

func TestCreateRoomHandler(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	s := newTestServer()

	body := `{"enableLaizi":true,"passcode":"sesame"}`
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	testRouter(s).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp createRoomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Code, 6)
	assert.True(t, strings.HasPrefix(resp.Address, "ddz-room-"))

	room, ok := s.Rooms.GetRoom(resp.Code)
	require.True(t, ok)
	assert.True(t, room.Config.EnableLaizi)
	assert.NotEmpty(t, room.Config.PasscodeHash)

	// The guest session cookie is minted on first contact.
	cookies := w.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == sessionCookieName {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie")
}

func TestListRoomsHandler(t *testing.T) {
	auth.Init()
	s := newTestServer()
	s.CreateRoom(models.RoomConfig{})
	s.CreateRoom(models.RoomConfig{})

	req := httptest.NewRequest("GET", "/room/list", nil)
	w := httptest.NewRecorder()
	testRouter(s).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var rooms []game.RoomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Len(t, rooms, 2)
	for _, r := range rooms {
		assert.Equal(t, game.PhaseLobby, r.Phase)
		assert.Equal(t, 3, r.MaxSeats)
	}
}

func TestAddBotHandlerRequiresSeat(t *testing.T) {
	auth.Init()
	s := newTestServer()
	room := s.CreateRoom(models.RoomConfig{})

	// An unseated caller is rejected.
	req := httptest.NewRequest("POST", "/room/"+room.Code+"/bot", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	testRouter(s).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A seated guest can add bots.
	guestID := uuid.New()
	room.HandleJoin(guestID, "ann")
	token, err := auth.CreateSessionToken(guestID.String())
	require.NoError(t, err)

	req = httptest.NewRequest("POST", "/room/"+room.Code+"/bot", bytes.NewBufferString(`{"name":"Robo"}`))
	req.Header.Set("Cookie", sessionCookieName+"="+token)
	w = httptest.NewRecorder()
	testRouter(s).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 2, room.Summary().Seats)
}

func TestAddBotHandlerUnknownRoom(t *testing.T) {
	auth.Init()
	s := newTestServer()

	req := httptest.NewRequest("POST", "/room/ZZZZZZ/bot", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	testRouter(s).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doudizhu/internal/game"
)

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"action_cheat"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeRejectsMissingPayload(t *testing.T) {
	cases := []string{
		`{"type":"join_request"}`,
		`{"type":"action_bid"}`,
		`{"type":"action_play"}`,
		`{"type":"game_state_update"}`,
	}
	for _, raw := range cases {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, "payload-less %s must be rejected", raw)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	env := Envelope{Type: TypeActionPlay, Play: &ActionPlay{CardIDs: []int{3, 7, 12}}}
	data, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeActionPlay, got.Type)
	require.NotNil(t, got.Play)
	assert.Equal(t, []int{3, 7, 12}, got.Play.CardIDs)
}

func TestRestartNeedsNoPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"action_restart"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeActionRestart, env.Type)
}

func TestStateUpdateEnvelope(t *testing.T) {
	env := StateUpdate(game.Snapshot{Code: "ABCDEF", Seq: 9})
	data, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, got.State)
	assert.Equal(t, uint64(9), got.State.Seq)
	assert.Equal(t, "ABCDEF", got.State.Code)
}

func TestRoomCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewRoomCode()
		assert.Len(t, code, codeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, ch), "unexpected character %q", ch)
		}
	}
}

func TestRoomAddressRoundTrip(t *testing.T) {
	addr := RoomAddress("abc234")
	assert.Equal(t, "ddz-room-ABC234", addr)

	code, err := ParseRoomAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, "ABC234", code)
}

func TestParseRoomAddressRejectsGarbage(t *testing.T) {
	_, err := ParseRoomAddress("other-room-ABC234")
	assert.Error(t, err)

	_, err = ParseRoomAddress("ddz-room-TOOLONGCODE")
	assert.Error(t, err)
}

package protocol

import (
	"fmt"
	"math/rand"
	"strings"
)

// addressPrefix is the fixed transform between a human-shareable room code
// and the full channel address, so a guest can address a host without an
// out-of-band directory service.
const addressPrefix = "ddz-room-"

// codeAlphabet omits the easily-confused characters (0/O, 1/I).
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codeLength = 6

// NewRoomCode generates a short human-shareable room code.
func NewRoomCode() string {
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// RoomAddress maps a room code to its full channel address.
func RoomAddress(code string) string {
	return addressPrefix + strings.ToUpper(strings.TrimSpace(code))
}

// ParseRoomAddress recovers the room code from a channel address.
func ParseRoomAddress(addr string) (string, error) {
	if !strings.HasPrefix(addr, addressPrefix) {
		return "", fmt.Errorf("not a room address: %q", addr)
	}
	code := strings.TrimPrefix(addr, addressPrefix)
	if len(code) != codeLength {
		return "", fmt.Errorf("malformed room code in address: %q", addr)
	}
	return code, nil
}

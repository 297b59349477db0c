// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handlers. These give clients
// a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidSessionError   = 3001 // Guest session could not be established.
	InvalidRoomCodeError  = 3002 // Target room code in the WS URL does not exist.
	InvalidPasscodeError  = 3003 // Private room passcode was wrong or missing.
	MalformedPayloadError = 3004 // First message was not a well-formed join request.
)

package game

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const ROOM_CODE_LENGTH = 6

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// GenRoomCode derives a short uppercase code from a random UUID.
// Uniqueness against live rooms is the registry's job.
func GenRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:ROOM_CODE_LENGTH])
}

// CanonicalRoomCode normalizes user input for registry lookups.
func CanonicalRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("Failed to marshal: " + err.Error())
	}

	return data
}

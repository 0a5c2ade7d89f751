package service

import (
	"strings"

	"imposter-be/internal/service/game"
)

// 未提供自定义词库时使用
var DefaultWords = []string{"Apple", "Banana", "Car", "Dog", "Elephant"}

// allocRoomCode must be called with state.mu held for writing.
func (rs *RoomService) allocRoomCode() string {
	for {
		code := game.GenRoomCode()
		if _, exists := rs.state.rooms[code]; !exists {
			return code
		}
	}
}

// cleanWords trims entries and drops blanks.
func cleanWords(words []string) []string {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}

	return cleaned
}

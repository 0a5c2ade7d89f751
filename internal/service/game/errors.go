package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidState = errors.New("action not allowed in the current game state")
	ErrNameTaken    = errors.New("name already taken in this room")

	ErrInvalidName      = errors.New("player name must not be empty")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrInvalidTarget    = errors.New("vote target is not a player in this room")
	ErrNotEnoughPlayers = errors.New("not enough players to start the game")
	ErrAlreadyInRoom    = errors.New("already in a room")
	ErrRateLimited      = errors.New("too many requests, slow down")
)

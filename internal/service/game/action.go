package game

type CreateRoomRequest struct {
	PlayerName  string   `json:"playerName"`
	CustomWords []string `json:"customWords"`
}

type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId"`
}

// startGame / nextTurn / startVote / endGame / resetGame
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type SubmitVoteRequest struct {
	RoomID     string `json:"roomId"`
	VotedForID string `json:"votedForId"`
}

type SendMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type ConnectedResponse struct {
	PlayerID string `json:"playerId"`
}

// Command is what a GameMachine consumes: one intent from one player.
type Command struct {
	Type     string
	PlayerID string

	// joinRoom
	Name   string
	RespCh chan ResponseWrapper
	// submitVote
	TargetID string
	// sendMessage
	Text string

	result chan commandResult
}

type commandResult struct {
	snapshot *Room
	err      error
}

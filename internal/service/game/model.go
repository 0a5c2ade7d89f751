package game

import "encoding/json"

// 玩家身份
type Role string

const (
	ROLE_UNSET    Role = ""
	ROLE_IMPOSTER Role = "imposter"
	ROLE_CIVILIAN Role = "civilian"
)

// 未分配身份时序列化为 null
func (r Role) MarshalJSON() ([]byte, error) {
	if r == ROLE_UNSET {
		return []byte("null"), nil
	}

	return json.Marshal(string(r))
}

// 房间所处的游戏阶段
type GameState string

const (
	STATE_LOBBY   GameState = "lobby"
	STATE_PLAYING GameState = "playing"
	STATE_VOTING  GameState = "voting"
	STATE_ENDED   GameState = "ended"
)

// OptionalString is a string that encodes as null while empty.
type OptionalString string

func (s OptionalString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}

	return json.Marshal(string(s))
}

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Role   Role   `json:"role"`
}

type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	// Unix 毫秒
	Timestamp int64 `json:"timestamp"`
}

// Room is the authoritative state of one game session. It is owned by a
// single GameMachine and must not be shared; use Snapshot to hand it out.
type Room struct {
	ID               string            `json:"id"`
	Players          []Player          `json:"players"`
	GameState        GameState         `json:"gameState"`
	Words            []string          `json:"words"`
	CurrentWord      OptionalString    `json:"currentWord"`
	ImposterID       OptionalString    `json:"imposterId"`
	TurnOrder        []string          `json:"turnOrder"`
	CurrentTurnIndex int               `json:"currentTurnIndex"`
	Votes            map[string]string `json:"votes"`
	Messages         []ChatMessage     `json:"messages"`
}

func NewRoom(id, hostID, hostName string, words []string) *Room {
	return &Room{
		ID: id,
		Players: []Player{
			{ID: hostID, Name: hostName, IsHost: true},
		},
		GameState: STATE_LOBBY,
		Words:     append([]string(nil), words...),
		TurnOrder: make([]string, 0),
		Votes:     make(map[string]string),
		Messages:  make([]ChatMessage, 0),
	}
}

// Snapshot returns a deep copy that is safe to serialize on another goroutine.
func (r *Room) Snapshot() Room {
	snap := *r

	snap.Players = append(make([]Player, 0, len(r.Players)), r.Players...)
	snap.Words = append(make([]string, 0, len(r.Words)), r.Words...)
	snap.TurnOrder = append(make([]string, 0, len(r.TurnOrder)), r.TurnOrder...)
	snap.Messages = append(make([]ChatMessage, 0, len(r.Messages)), r.Messages...)

	snap.Votes = make(map[string]string, len(r.Votes))
	for voter, target := range r.Votes {
		snap.Votes[voter] = target
	}

	return snap
}

func (r *Room) GetPlayer(playerID string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return &r.Players[i], true
		}
	}

	return nil, false
}

func (r *Room) GetHost() *Player {
	for i := range r.Players {
		if r.Players[i].IsHost {
			return &r.Players[i]
		}
	}

	return nil
}

// CurrentTurnPlayerID returns "" when no turn order is active.
func (r *Room) CurrentTurnPlayerID() string {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.TurnOrder) {
		return ""
	}

	return r.TurnOrder[r.CurrentTurnIndex]
}

func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// 房间阶段流转：
// lobby -> playing (StartGame) -> voting (StartVote) -> ended (EndGame) -> lobby (ResetGame)
// ResetGame 在任何阶段都可以回到 lobby（中途放弃游戏）。
//
// 默认情况下除 Join 外不对阶段做校验；
// 更严格的校验通过 Rules 打开。

// Rules toggles the checks that the permissive default leaves out.
type Rules struct {
	// NextTurn only from the player whose turn it is
	StrictTurns bool
	// votes only while voting, and only for a current player
	StrictVotes bool
	// StartGame/StartVote/EndGame only from their source state
	StrictPhases bool
	// 0 disables the check
	MinPlayers int
	// non-join intents on an unknown room report ErrRoomNotFound instead of being ignored
	ReportMissingRoom bool
	// trim player names and reject blank ones
	StrictNames bool
}

// PlayerName applies the name policy. Without StrictNames the name is kept
// byte for byte.
func (rules Rules) PlayerName(name string) (string, error) {
	if !rules.StrictNames {
		return name, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}

	return name, nil
}

func (r *Room) requireState(strict bool, want GameState) error {
	if strict && r.GameState != want {
		return fmt.Errorf("%w: room is %s, expected %s", ErrInvalidState, r.GameState, want)
	}

	return nil
}

// Join appends a non-host player. Names are compared exactly.
func (r *Room) Join(playerID, name string, rules Rules) error {
	name, err := rules.PlayerName(name)
	if err != nil {
		return err
	}

	if r.GameState != STATE_LOBBY {
		return fmt.Errorf("%w: game already in progress", ErrInvalidState)
	}

	for _, p := range r.Players {
		if p.Name == name {
			return ErrNameTaken
		}
		if p.ID == playerID {
			return ErrAlreadyInRoom
		}
	}

	r.Players = append(r.Players, Player{
		ID:   playerID,
		Name: name,
	})

	return nil
}

// StartGame assigns one imposter, picks the secret word and shuffles the turn order.
func (r *Room) StartGame(rng *rand.Rand, rules Rules) error {
	if err := r.requireState(rules.StrictPhases, STATE_LOBBY); err != nil {
		return err
	}

	if rules.MinPlayers > 0 && len(r.Players) < rules.MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers, len(r.Players), rules.MinPlayers)
	}

	if len(r.Players) == 0 || len(r.Words) == 0 {
		return ErrInvalidState
	}

	for i := range r.Players {
		r.Players[i].Role = ROLE_UNSET
	}

	imposterIdx := rng.IntN(len(r.Players))
	for i := range r.Players {
		if i == imposterIdx {
			r.Players[i].Role = ROLE_IMPOSTER
		} else {
			r.Players[i].Role = ROLE_CIVILIAN
		}
	}
	r.ImposterID = OptionalString(r.Players[imposterIdx].ID)

	r.CurrentWord = OptionalString(r.Words[rng.IntN(len(r.Words))])

	r.TurnOrder = make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		r.TurnOrder = append(r.TurnOrder, p.ID)
	}
	rng.Shuffle(len(r.TurnOrder), func(i, j int) {
		r.TurnOrder[i], r.TurnOrder[j] = r.TurnOrder[j], r.TurnOrder[i]
	})
	r.CurrentTurnIndex = 0

	r.Votes = make(map[string]string)
	r.Messages = make([]ChatMessage, 0)

	r.GameState = STATE_PLAYING

	return nil
}

// NextTurn wraps around the turn order; the host ends the round with StartVote.
func (r *Room) NextTurn(actorID string, rules Rules) error {
	if len(r.TurnOrder) == 0 {
		return fmt.Errorf("%w: no turn order", ErrInvalidState)
	}

	if rules.StrictTurns {
		if r.GameState != STATE_PLAYING {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, r.GameState)
		}
		if actorID != r.CurrentTurnPlayerID() {
			return ErrNotYourTurn
		}
	}

	r.CurrentTurnIndex = (r.CurrentTurnIndex + 1) % len(r.TurnOrder)

	return nil
}

func (r *Room) StartVote(rules Rules) error {
	if err := r.requireState(rules.StrictPhases, STATE_PLAYING); err != nil {
		return err
	}

	r.GameState = STATE_VOTING
	r.Votes = make(map[string]string)

	return nil
}

// SubmitVote records voter -> target; a later vote by the same voter replaces the earlier one.
func (r *Room) SubmitVote(voterID, targetID string, rules Rules) error {
	if rules.StrictVotes {
		if r.GameState != STATE_VOTING {
			return fmt.Errorf("%w: room is %s", ErrInvalidState, r.GameState)
		}
		if _, ok := r.GetPlayer(targetID); !ok {
			return ErrInvalidTarget
		}
	}

	r.Votes[voterID] = targetID

	return nil
}

func (r *Room) EndGame(rules Rules) error {
	if err := r.requireState(rules.StrictPhases, STATE_VOTING); err != nil {
		return err
	}

	r.GameState = STATE_ENDED

	return nil
}

func (r *Room) ResetGame() {
	r.GameState = STATE_LOBBY
	r.CurrentWord = ""
	r.ImposterID = ""
	r.TurnOrder = make([]string, 0)
	r.CurrentTurnIndex = 0
	r.Votes = make(map[string]string)
	r.Messages = make([]ChatMessage, 0)

	for i := range r.Players {
		r.Players[i].Role = ROLE_UNSET
	}
}

// CanChat reports whether senderID may post right now. While playing only
// the current-turn player speaks.
func (r *Room) CanChat(senderID string) bool {
	switch r.GameState {
	case STATE_LOBBY, STATE_VOTING, STATE_ENDED:
		return true
	case STATE_PLAYING:
		return senderID == r.CurrentTurnPlayerID()
	default:
		return false
	}
}

// SendMessage appends a chat entry and reports whether it was accepted.
// Rejected messages are dropped without an error.
func (r *Room) SendMessage(senderID, text string, now time.Time) bool {
	sender, ok := r.GetPlayer(senderID)
	if !ok {
		return false
	}

	if !r.CanChat(senderID) {
		return false
	}

	r.Messages = append(r.Messages, ChatMessage{
		ID:         GenID(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Text:       text,
		Timestamp:  now.UnixMilli(),
	})

	return true
}

// RemovePlayer drops the player and hands the host flag to the earliest
// remaining joiner if needed. Returns false if the player was not present.
func (r *Room) RemovePlayer(playerID string) bool {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}

	if idx < 0 {
		return false
	}

	wasHost := r.Players[idx].IsHost
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if wasHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}

	return true
}

package game

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// GameContext is the state owned by one room goroutine.
type GameContext struct {
	Room  *Room
	Rules Rules

	// 玩家 ID 到其响应通道的映射，用于广播
	members map[string]chan ResponseWrapper

	rng *rand.Rand
	now func() time.Time
}

func (gc *GameContext) addMember(playerID string, respCh chan ResponseWrapper) {
	if respCh == nil {
		return
	}

	gc.members[playerID] = respCh
}

func (gc *GameContext) removeMember(playerID string) {
	delete(gc.members, playerID)
}

// BroadcastResp sends resp to every connected member without blocking;
// a member whose buffer is full misses this update.
func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	for _, p := range gc.Room.Players {
		respCh, ok := gc.members[p.ID]
		if !ok {
			continue
		}

		select {
		case respCh <- resp:
		default:
			zap.L().Warn(
				"broadcast dropped: response channel full",
				zap.String("room_id", gc.Room.ID),
				zap.String("player_id", p.ID),
			)
		}
	}
}

func (gc *GameContext) UnicastResp(playerID string, resp ResponseWrapper) {
	respCh, ok := gc.members[playerID]
	if !ok {
		zap.L().Warn(
			"unicast target not found",
			zap.String("room_id", gc.Room.ID),
			zap.String("player_id", playerID),
		)
		return
	}

	select {
	case respCh <- resp:
	default:
		zap.L().Warn(
			"unicast dropped: response channel full",
			zap.String("room_id", gc.Room.ID),
			zap.String("player_id", playerID),
		)
	}
}

func (gc *GameContext) broadcastSnapshot(respType string) {
	gc.BroadcastResp(WrapResponse(respType, gc.Room.Snapshot()))
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"imposter-be/internal/service/dto"
	"imposter-be/internal/service/game"

	"go.uber.org/zap"
)

// RoomService is the room registry: it owns every live GameMachine and
// routes intents to them. The lock only guards the map and is never held
// while talking to a room.
type RoomService struct {
	state *roomServiceState

	rules        game.Rules
	defaultWords []string
	machineOpts  []game.MachineOption
}

type roomServiceState struct {
	mu sync.RWMutex

	// 房间号到状态机的映射
	rooms map[string]*game.GameMachine
}

type RoomServiceOption func(*RoomService)

func WithRules(rules game.Rules) RoomServiceOption {
	return func(rs *RoomService) {
		rs.rules = rules
	}
}

func WithDefaultWords(words []string) RoomServiceOption {
	return func(rs *RoomService) {
		if cleaned := cleanWords(words); len(cleaned) > 0 {
			rs.defaultWords = cleaned
		}
	}
}

// WithMachineOptions is applied to every room created afterwards; tests use
// it to pin randomness.
func WithMachineOptions(opts ...game.MachineOption) RoomServiceOption {
	return func(rs *RoomService) {
		rs.machineOpts = append(rs.machineOpts, opts...)
	}
}

func NewRoomService(opts ...RoomServiceOption) *RoomService {
	rs := &RoomService{
		state: &roomServiceState{
			rooms: make(map[string]*game.GameMachine),
		},
		defaultWords: append([]string(nil), DefaultWords...),
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs
}

func (rs *RoomService) Rules() game.Rules {
	return rs.rules
}

// Close stops every room machine.
func (rs *RoomService) Close() {
	rs.state.mu.Lock()
	machines := make([]*game.GameMachine, 0, len(rs.state.rooms))
	for _, gm := range rs.state.rooms {
		machines = append(machines, gm)
	}
	rs.state.rooms = make(map[string]*game.GameMachine)
	rs.state.mu.Unlock()

	for _, gm := range machines {
		gm.Stop()
	}
}

// CreateRoom registers a new room with playerID as host and starts its
// machine. The host receives roomCreated on respCh.
func (rs *RoomService) CreateRoom(playerID string, req game.CreateRoomRequest, respCh chan game.ResponseWrapper) (game.Room, error) {
	name, err := rs.rules.PlayerName(req.PlayerName)
	if err != nil {
		return game.Room{}, err
	}

	words := cleanWords(req.CustomWords)
	if len(words) == 0 {
		words = rs.defaultWords
	}

	rs.state.mu.Lock()

	roomID := rs.allocRoomCode()
	room := game.NewRoom(roomID, playerID, name, words)

	opts := []game.MachineOption{
		game.WithRules(rs.rules),
		game.OnEmpty(rs.remove),
	}
	opts = append(opts, rs.machineOpts...)

	gm := game.NewGameMachine(room, respCh, opts...)
	rs.state.rooms[roomID] = gm

	// 快照必须在状态机启动前取，之后房间只归状态机所有
	snap := room.Snapshot()

	go gm.Start()

	rs.state.mu.Unlock()

	zap.S().Infof("room %s created by %s", roomID, name)

	return snap, nil
}

// JoinRoom adds playerID to the room identified by roomID (case-insensitive).
func (rs *RoomService) JoinRoom(ctx context.Context, playerID string, req game.JoinRoomRequest, respCh chan game.ResponseWrapper) (game.Room, error) {
	gm, ok := rs.Get(req.RoomID)
	if !ok {
		return game.Room{}, game.ErrRoomNotFound
	}

	snap, err := gm.Submit(ctx, game.Command{
		Type:     game.REQ_JOIN_ROOM,
		PlayerID: playerID,
		Name:     req.PlayerName,
		RespCh:   respCh,
	})
	if err != nil {
		zap.S().Debugf("room %s rejected %s: %v", gm.RoomID(), req.PlayerName, err)
		return game.Room{}, err
	}

	return snap, nil
}

// Dispatch routes an in-room intent. Unknown rooms yield ErrRoomNotFound;
// whether that reaches the client is the caller's decision.
func (rs *RoomService) Dispatch(ctx context.Context, roomID string, cmd game.Command) error {
	gm, ok := rs.Get(roomID)
	if !ok {
		return game.ErrRoomNotFound
	}

	_, err := gm.Submit(ctx, cmd)

	return err
}

// Leave removes playerID from the room. An emptied room removes itself.
func (rs *RoomService) Leave(ctx context.Context, roomID, playerID string) error {
	err := rs.Dispatch(ctx, roomID, game.Command{
		Type:     game.REQ_DISCONNECT,
		PlayerID: playerID,
	})
	if errors.Is(err, game.ErrRoomNotFound) {
		return nil
	}

	return err
}

func (rs *RoomService) Get(roomID string) (*game.GameMachine, bool) {
	code := game.CanonicalRoomCode(roomID)

	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	gm, ok := rs.state.rooms[code]
	return gm, ok
}

// Snapshot reads the current room state through its machine.
func (rs *RoomService) Snapshot(ctx context.Context, roomID string) (game.Room, error) {
	gm, ok := rs.Get(roomID)
	if !ok {
		return game.Room{}, game.ErrRoomNotFound
	}

	return gm.Submit(ctx, game.Command{Type: game.REQ_SNAPSHOT})
}

func (rs *RoomService) Summary(ctx context.Context, roomID string) (dto.RoomSummary, error) {
	snap, err := rs.Snapshot(ctx, roomID)
	if err != nil {
		return dto.RoomSummary{}, err
	}

	summary := dto.RoomSummary{
		RoomID:      snap.ID,
		PlayerCount: len(snap.Players),
		GameState:   string(snap.GameState),
	}
	if host := snap.GetHost(); host != nil {
		summary.HostName = host.Name
	}

	return summary, nil
}

func (rs *RoomService) RoomCount() int {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return len(rs.state.rooms)
}

// remove runs on the machine goroutine of the emptied room.
func (rs *RoomService) remove(roomID string) {
	rs.state.mu.Lock()
	delete(rs.state.rooms, roomID)
	rs.state.mu.Unlock()

	zap.S().Infof("room %s removed", roomID)
}

// RequestContext bounds how long a caller waits on a busy room.
func RequestContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, timeout)
}

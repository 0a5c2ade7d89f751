package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GameMachine 是单个房间的状态机，独占房间状态并串行处理所有请求。
// 同一房间的请求按到达顺序逐个执行，不同房间互不阻塞。
type GameMachine struct {
	ctx *GameContext

	// 所有玩家的请求汇总到这里；无缓冲，保证房间关闭后不会有请求滞留
	reqCh chan Command
	// 房间关闭后关闭
	doneCh chan struct{}
	// 外部要求停止
	stopCh chan struct{}

	onEmpty  func(roomID string)
	stopOnce sync.Once
}

type MachineOption func(*GameMachine)

func WithRules(rules Rules) MachineOption {
	return func(gm *GameMachine) {
		gm.ctx.Rules = rules
	}
}

func WithRand(rng *rand.Rand) MachineOption {
	return func(gm *GameMachine) {
		gm.ctx.rng = rng
	}
}

func WithClock(now func() time.Time) MachineOption {
	return func(gm *GameMachine) {
		gm.ctx.now = now
	}
}

// OnEmpty is called from the machine goroutine once the last player has left,
// before the machine stops accepting commands.
func OnEmpty(fn func(roomID string)) MachineOption {
	return func(gm *GameMachine) {
		gm.onEmpty = fn
	}
}

// NewGameMachine wraps a freshly created room whose only player is the host.
// hostCh receives the roomCreated notification when the machine starts.
func NewGameMachine(room *Room, hostCh chan ResponseWrapper, opts ...MachineOption) *GameMachine {
	ctx := &GameContext{
		Room:    room,
		members: make(map[string]chan ResponseWrapper),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:     time.Now,
	}

	if host := room.GetHost(); host != nil {
		ctx.addMember(host.ID, hostCh)
	}

	gm := &GameMachine{
		ctx:     ctx,
		reqCh:   make(chan Command),
		doneCh:  make(chan struct{}),
		stopCh:  make(chan struct{}),
		onEmpty: func(string) {},
	}

	for _, opt := range opts {
		opt(gm)
	}

	return gm
}

func (gm *GameMachine) RoomID() string {
	return gm.ctx.Room.ID
}

func (gm *GameMachine) Done() <-chan struct{} {
	return gm.doneCh
}

// Stop ends the event loop without waiting for the room to empty.
// Safe to call more than once and from several goroutines.
func (gm *GameMachine) Stop() {
	gm.stopOnce.Do(func() {
		close(gm.stopCh)
	})
}

// Submit hands cmd to the machine and waits for it to be applied. The
// returned snapshot is the room state right after the command.
func (gm *GameMachine) Submit(ctx context.Context, cmd Command) (Room, error) {
	cmd.result = make(chan commandResult, 1)

	select {
	case gm.reqCh <- cmd:
	case <-gm.doneCh:
		return Room{}, ErrRoomNotFound
	case <-ctx.Done():
		return Room{}, ctx.Err()
	}

	select {
	case res := <-cmd.result:
		if res.snapshot == nil {
			return Room{}, res.err
		}
		return *res.snapshot, res.err
	case <-ctx.Done():
		return Room{}, ctx.Err()
	}
}

func (gm *GameMachine) Start() {
	defer close(gm.doneCh)

	room := gm.ctx.Room

	// 创建者单独收到 roomCreated，保证它先于任何广播到达
	if host := room.GetHost(); host != nil {
		gm.ctx.UnicastResp(host.ID, WrapResponse(RESP_ROOM_CREATED, room.Snapshot()))
	}

	for {
		select {
		case cmd := <-gm.reqCh:
			err := gm.handle(cmd)
			if err != nil {
				zap.L().Debug(
					"request rejected",
					zap.String("room_id", room.ID),
					zap.String("request_type", cmd.Type),
					zap.String("player_id", cmd.PlayerID),
					zap.Error(err),
				)
			}

			snap := room.Snapshot()
			cmd.result <- commandResult{snapshot: &snap, err: err}

			if room.IsEmpty() {
				zap.L().Info("room is empty, closing", zap.String("room_id", room.ID))
				gm.onEmpty(room.ID)
				return
			}

		case <-gm.stopCh:
			zap.L().Info("room machine stopped", zap.String("room_id", room.ID))
			return
		}
	}
}

func (gm *GameMachine) handle(cmd Command) error {
	ctx := gm.ctx
	room := ctx.Room

	switch cmd.Type {
	case REQ_JOIN_ROOM:
		if err := room.Join(cmd.PlayerID, cmd.Name, ctx.Rules); err != nil {
			return err
		}
		ctx.addMember(cmd.PlayerID, cmd.RespCh)

		zap.L().Info(
			"player joined",
			zap.String("room_id", room.ID),
			zap.String("player_id", cmd.PlayerID),
			zap.String("player_name", cmd.Name),
		)

		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_START_GAME:
		if err := room.StartGame(ctx.rng, ctx.Rules); err != nil {
			return err
		}

		zap.L().Debug(
			"game started",
			zap.String("room_id", room.ID),
			zap.String("word", string(room.CurrentWord)),
			zap.String("imposter_id", string(room.ImposterID)),
		)

		ctx.broadcastSnapshot(RESP_GAME_STARTED)

	case REQ_NEXT_TURN:
		if err := room.NextTurn(cmd.PlayerID, ctx.Rules); err != nil {
			return err
		}
		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_START_VOTE:
		if err := room.StartVote(ctx.Rules); err != nil {
			return err
		}
		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_SUBMIT_VOTE:
		if err := room.SubmitVote(cmd.PlayerID, cmd.TargetID, ctx.Rules); err != nil {
			return err
		}
		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_END_GAME:
		if err := room.EndGame(ctx.Rules); err != nil {
			return err
		}
		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_RESET_GAME:
		room.ResetGame()
		ctx.broadcastSnapshot(RESP_UPDATE_ROOM)

	case REQ_SEND_MESSAGE:
		// 不允许发言时静默丢弃
		if room.SendMessage(cmd.PlayerID, cmd.Text, ctx.now()) {
			ctx.broadcastSnapshot(RESP_UPDATE_ROOM)
		}

	case REQ_DISCONNECT:
		if !room.RemovePlayer(cmd.PlayerID) {
			return nil
		}
		ctx.removeMember(cmd.PlayerID)

		zap.L().Info(
			"player left",
			zap.String("room_id", room.ID),
			zap.String("player_id", cmd.PlayerID),
		)

		if !room.IsEmpty() {
			ctx.broadcastSnapshot(RESP_UPDATE_ROOM)
		}

	case REQ_SNAPSHOT:
		// 只读，结果由 Submit 返回

	default:
		return ErrInvalidState
	}

	return nil
}

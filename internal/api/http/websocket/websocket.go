package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"imposter-be/internal/service"
	"imposter-be/internal/service/game"
	"imposter-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errInvalidRequest = errors.New("invalid request format")
	errUnknownRequest = errors.New("unknown request type")
)

// Gateway binds websocket connections to players and turns their frames
// into room intents.
type Gateway struct {
	rooms          *service.RoomService
	requestTimeout time.Duration
	rateLimit      rate.Limit
	rateBurst      int
}

func NewGateway(rooms *service.RoomService, requestTimeout time.Duration, rateLimit float64, rateBurst int) *Gateway {
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}
	if rateBurst <= 0 {
		rateBurst = 1
	}

	return &Gateway{
		rooms:          rooms,
		requestTimeout: requestTimeout,
		rateLimit:      limit,
		rateBurst:      rateBurst,
	}
}

func ServeGame(appState *state.AppState) iris.Handler {
	gw := NewGateway(
		appState.RoomSvc,
		appState.Cfg.RequestTimeout,
		appState.Cfg.RateLimit,
		appState.Cfg.RateBurst,
	)

	return func(ctx iris.Context) {
		gw.Serve(ctx.ResponseWriter(), ctx.Request())
	}
}

// session is the per-connection state. Only the read loop touches roomID.
type session struct {
	id       string
	roomID   string
	clientIP string

	respCh  chan game.ResponseWrapper
	limiter *rate.Limiter
}

func (s *session) send(resp game.ResponseWrapper) {
	select {
	case s.respCh <- resp:
	default:
		zap.L().Warn(
			"response dropped: channel full",
			zap.String("client_ip", s.clientIP),
			zap.String("player_id", s.id),
		)
	}
}

func (s *session) sendErr(err error) {
	s.send(game.WrapErrResponse(err.Error()))
}

func (gw *Gateway) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.String("client_ip", r.RemoteAddr), zap.Error(err))
		return
	}

	defer conn.Close()

	conn.SetReadLimit(MAX_MESSAGE_SIZE)
	conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
	conn.SetPongHandler(heartbeatHandler(conn))

	sess := &session{
		id:       game.GenID(),
		clientIP: r.RemoteAddr,
		respCh:   make(chan game.ResponseWrapper, RESP_BUFFER_SIZE),
		limiter:  rate.NewLimiter(gw.rateLimit, gw.rateBurst),
	}

	zap.L().Info(
		"client connected",
		zap.String("client_ip", sess.clientIP),
		zap.String("player_id", sess.id),
	)

	sess.send(game.WrapResponse(game.RESP_CONNECTED, game.ConnectedResponse{PlayerID: sess.id}))

	// 写协程的退出信号
	writeDoneCh := make(chan struct{})
	writerExited := make(chan struct{})

	go gw.writeLoop(conn, sess, writeDoneCh, writerExited)

	// 读取协程（主协程）
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				zap.L().Debug(
					"read failed",
					zap.String("client_ip", sess.clientIP),
					zap.Error(err),
				)
			}

			break
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			sess.sendErr(errInvalidRequest)
			continue
		}

		if !sess.limiter.Allow() {
			sess.sendErr(game.ErrRateLimited)
			continue
		}

		if err := gw.handle(r.Context(), sess, wrapper); err != nil {
			zap.L().Debug(
				"request failed",
				zap.String("player_id", sess.id),
				zap.String("request_type", wrapper.ReqType),
				zap.Error(err),
			)
			sess.sendErr(err)
		}
	}

	// 读循环退出即视为断线，从房间中移除玩家
	if sess.roomID != "" {
		ctx, cancel := service.RequestContext(context.Background(), gw.requestTimeout)
		if err := gw.rooms.Leave(ctx, sess.roomID, sess.id); err != nil {
			zap.L().Warn(
				"leave room failed",
				zap.String("room_id", sess.roomID),
				zap.String("player_id", sess.id),
				zap.Error(err),
			)
		}
		cancel()
	}

	close(writeDoneCh)
	<-writerExited

	zap.L().Info(
		"client disconnected",
		zap.String("client_ip", sess.clientIP),
		zap.String("player_id", sess.id),
	)
}

func (gw *Gateway) writeLoop(conn *websocket.Conn, sess *session, doneCh <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-doneCh:
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Debug("ping failed", zap.String("client_ip", sess.clientIP), zap.Error(err))
				// 让读协程尽快退出
				conn.Close()
				return
			}

		case resp := <-sess.respCh:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteJSON(resp); err != nil {
				zap.L().Debug("write failed", zap.String("client_ip", sess.clientIP), zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

func (gw *Gateway) handle(ctx context.Context, sess *session, wrapper game.RequestWrapper) error {
	ctx, cancel := service.RequestContext(ctx, gw.requestTimeout)
	defer cancel()

	switch wrapper.ReqType {
	case game.REQ_CREATE_ROOM:
		req := game.TryUnwrapCreateRoomRequest(wrapper)
		if req == nil {
			return errInvalidRequest
		}
		if sess.roomID != "" {
			return game.ErrAlreadyInRoom
		}

		snap, err := gw.rooms.CreateRoom(sess.id, *req, sess.respCh)
		if err != nil {
			return err
		}
		sess.roomID = snap.ID

		return nil

	case game.REQ_JOIN_ROOM:
		req := game.TryUnwrapJoinRoomRequest(wrapper)
		if req == nil {
			return errInvalidRequest
		}
		if sess.roomID != "" {
			return game.ErrAlreadyInRoom
		}

		snap, err := gw.rooms.JoinRoom(ctx, sess.id, *req, sess.respCh)
		if errors.Is(err, context.DeadlineExceeded) {
			// 超时不代表加入失败，需要向房间确认
			gw.confirmJoin(sess, req.RoomID)
		}
		if err != nil {
			return err
		}
		sess.roomID = snap.ID

		return nil

	case game.REQ_SUBMIT_VOTE:
		req := game.TryUnwrapSubmitVoteRequest(wrapper)
		if req == nil {
			return errInvalidRequest
		}

		return gw.dispatch(ctx, sess, req.RoomID, game.Command{
			Type:     game.REQ_SUBMIT_VOTE,
			PlayerID: sess.id,
			TargetID: req.VotedForID,
		})

	case game.REQ_SEND_MESSAGE:
		req := game.TryUnwrapSendMessageRequest(wrapper)
		if req == nil {
			return errInvalidRequest
		}

		return gw.dispatch(ctx, sess, req.RoomID, game.Command{
			Type:     game.REQ_SEND_MESSAGE,
			PlayerID: sess.id,
			Text:     req.Message,
		})
	}

	if req := game.TryUnwrapRoomRequest(wrapper); req != nil {
		return gw.dispatch(ctx, sess, req.RoomID, game.Command{
			Type:     wrapper.ReqType,
			PlayerID: sess.id,
		})
	}

	switch wrapper.ReqType {
	case game.REQ_START_GAME, game.REQ_NEXT_TURN, game.REQ_START_VOTE, game.REQ_END_GAME, game.REQ_RESET_GAME:
		return errInvalidRequest
	default:
		return errUnknownRequest
	}
}

// confirmJoin settles the session's room after a join whose outcome is
// unknown. A join that reached the room is applied before this snapshot.
// If the room cannot answer either, roomID is kept so that disconnect still
// tries to leave.
func (gw *Gateway) confirmJoin(sess *session, roomID string) {
	code := game.CanonicalRoomCode(roomID)

	ctx, cancel := service.RequestContext(context.Background(), gw.requestTimeout)
	defer cancel()

	snap, err := gw.rooms.Snapshot(ctx, code)
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		sess.roomID = ""
	case err != nil:
		zap.L().Warn(
			"join outcome unknown",
			zap.String("room_id", code),
			zap.String("player_id", sess.id),
			zap.Error(err),
		)
		sess.roomID = code
	default:
		if _, ok := snap.GetPlayer(sess.id); ok {
			sess.roomID = code
		} else {
			sess.roomID = ""
		}
	}
}

// dispatch sends an in-room intent. An empty roomId falls back to the
// connection's room; unknown rooms are ignored unless configured otherwise.
func (gw *Gateway) dispatch(ctx context.Context, sess *session, roomID string, cmd game.Command) error {
	if roomID == "" {
		roomID = sess.roomID
	}

	err := gw.rooms.Dispatch(ctx, roomID, cmd)
	if errors.Is(err, game.ErrRoomNotFound) && !gw.rooms.Rules().ReportMissingRoom {
		zap.L().Debug(
			"intent for missing room ignored",
			zap.String("room_id", roomID),
			zap.String("request_type", cmd.Type),
		)
		return nil
	}

	return err
}

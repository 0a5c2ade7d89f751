package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型，与客户端事件名保持一致
const (
	REQ_CREATE_ROOM  = "createRoom"
	REQ_JOIN_ROOM    = "joinRoom"
	REQ_START_GAME   = "startGame"
	REQ_NEXT_TURN    = "nextTurn"
	REQ_START_VOTE   = "startVote"
	REQ_SUBMIT_VOTE  = "submitVote"
	REQ_END_GAME     = "endGame"
	REQ_RESET_GAME   = "resetGame"
	REQ_SEND_MESSAGE = "sendMessage"

	// 仅服务端内部使用
	REQ_DISCONNECT = "disconnect"
	REQ_SNAPSHOT   = "snapshot"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`
}

// TryUnwrap decodes the payload when the wrapper carries reqType.
func TryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Debug(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

func TryUnwrapCreateRoomRequest(wrapper RequestWrapper) *CreateRoomRequest {
	return TryUnwrap[CreateRoomRequest](wrapper, REQ_CREATE_ROOM)
}

func TryUnwrapJoinRoomRequest(wrapper RequestWrapper) *JoinRoomRequest {
	return TryUnwrap[JoinRoomRequest](wrapper, REQ_JOIN_ROOM)
}

func TryUnwrapSubmitVoteRequest(wrapper RequestWrapper) *SubmitVoteRequest {
	return TryUnwrap[SubmitVoteRequest](wrapper, REQ_SUBMIT_VOTE)
}

func TryUnwrapSendMessageRequest(wrapper RequestWrapper) *SendMessageRequest {
	return TryUnwrap[SendMessageRequest](wrapper, REQ_SEND_MESSAGE)
}

// TryUnwrapRoomRequest covers the intents whose only payload is the room id.
func TryUnwrapRoomRequest(wrapper RequestWrapper) *RoomRequest {
	switch wrapper.ReqType {
	case REQ_START_GAME, REQ_NEXT_TURN, REQ_START_VOTE, REQ_END_GAME, REQ_RESET_GAME:
		return TryUnwrap[RoomRequest](wrapper, wrapper.ReqType)
	default:
		return nil
	}
}

// 响应类型
const (
	RESP_ERROR = "error"

	RESP_CONNECTED    = "connected"
	RESP_ROOM_CREATED = "roomCreated"
	RESP_UPDATE_ROOM  = "updateRoom"
	RESP_GAME_STARTED = "gameStarted"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}

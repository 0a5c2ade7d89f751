package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 来源限制交给 CORS 配置，这里允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间，超过后视为断线
	HEARTBEAT_TIMEOUT = 45 * time.Second
	// 单次写超时
	WRITE_TIMEOUT = 10 * time.Second

	// 每个连接的响应缓冲
	RESP_BUFFER_SIZE = 64
	// 单条消息上限
	MAX_MESSAGE_SIZE = 8 * 1024
)

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}

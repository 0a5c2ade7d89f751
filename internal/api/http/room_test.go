package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"imposter-be/internal/config"
	"imposter-be/internal/service"
	"imposter-be/internal/service/dto"
	"imposter-be/internal/service/game"
	"imposter-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*iris.Application, *service.RoomService) {
	t.Helper()

	cfg := &config.AppConfig{
		AllowedOrigin:  "*",
		PublicURL:      "http://example.com/",
		RequestTimeout: time.Second,
	}

	rooms := service.NewRoomService()
	t.Cleanup(rooms.Close)

	app := NewApp(state.NewAppState(cfg, rooms))
	require.NoError(t, app.Build())

	return app, rooms
}

func doGet(app *iris.Application, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	rec := doGet(app, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", rec.Body.String())
}

func TestGetRoom(t *testing.T) {
	app, rooms := newTestApp(t)

	rec := doGet(app, "/api/v1/rooms/NOPE00")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, game.ErrRoomNotFound.Error(), errResp.Error)

	created, err := rooms.CreateRoom("p1", game.CreateRoomRequest{PlayerName: "Alice"}, make(chan game.ResponseWrapper, 8))
	require.NoError(t, err)

	rec = doGet(app, "/api/v1/rooms/"+strings.ToLower(created.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary dto.RoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, dto.RoomSummary{
		RoomID:      created.ID,
		PlayerCount: 1,
		GameState:   "lobby",
		HostName:    "Alice",
	}, summary)

	// 概要信息不能泄露词语
	assert.NotContains(t, rec.Body.String(), "words")
}

func TestGetRoomQRCode(t *testing.T) {
	app, rooms := newTestApp(t)

	rec := doGet(app, "/api/v1/rooms/NOPE00/qrcode")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	created, err := rooms.CreateRoom("p1", game.CreateRoomRequest{PlayerName: "Alice"}, make(chan game.ResponseWrapper, 8))
	require.NoError(t, err)

	rec = doGet(app, "/api/v1/rooms/"+created.ID+"/qrcode")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "image/png"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestJoinLink(t *testing.T) {
	assert.Equal(t, "http://example.com/?room=ABC123", JoinLink("http://example.com/", "ABC123"))
	assert.Equal(t, "https://play.test/?room=XYZ789", JoinLink("https://play.test", "XYZ789"))
}

func TestGameSocketRoute(t *testing.T) {
	app, rooms := newTestApp(t)

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Origin", "http://client.test")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func() (string, json.RawMessage) {
		t.Helper()

		var frame struct {
			RespType string          `json:"response_type"`
			Data     json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&frame))

		return frame.RespType, frame.Data
	}

	respType, data := read()
	require.Equal(t, game.RESP_CONNECTED, respType)

	var connected game.ConnectedResponse
	require.NoError(t, json.Unmarshal(data, &connected))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"request_type":"createRoom","data":{"playerName":"Alice","customWords":["Sky"]}}`)))

	respType, data = read()
	require.Equal(t, game.RESP_ROOM_CREATED, respType)

	var room game.Room
	require.NoError(t, json.Unmarshal(data, &room))
	require.Len(t, room.Players, 1)
	assert.Equal(t, connected.PlayerID, room.Players[0].ID)
	assert.Equal(t, "Alice", room.Players[0].Name)
	assert.Equal(t, []string{"Sky"}, room.Words)

	_, ok := rooms.Get(room.ID)
	assert.True(t, ok)

	// 断线后房间随最后一名玩家一起移除
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return rooms.RoomCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

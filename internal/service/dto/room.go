package dto

// 通过 HTTP 查询房间时返回的概要信息，不包含词语和身份
type RoomSummary struct {
	RoomID      string `json:"roomId"`
	PlayerCount int    `json:"playerCount"`
	GameState   string `json:"gameState"`
	HostName    string `json:"hostName"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

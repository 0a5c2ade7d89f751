package main

import (
	"imposter-be/internal/api/http"
	"imposter-be/internal/config"
	"imposter-be/internal/logger"
	"imposter-be/internal/service"
	"imposter-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)

	// 组装应用状态
	roomSvc := service.NewRoomService(
		service.WithRules(state.RulesFromConfig(cfg.Rules)),
		service.WithDefaultWords(cfg.DefaultWords),
	)
	defer roomSvc.Close()

	appState := state.NewAppState(cfg, roomSvc)

	// 启动服务器
	http.RunServer(appState)
}

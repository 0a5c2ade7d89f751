package http

import (
	"fmt"

	"imposter-be/internal/api/http/websocket"
	"imposter-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/cors"
	"go.uber.org/zap"
)

// NewApp wires every route onto a fresh iris application.
func NewApp(appState *state.AppState) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("warn")

	app.UseRouter(
		cors.New().
			AllowOrigin(appState.Cfg.AllowedOrigin).
			Handler(),
	)

	app.Get("/health", func(ctx iris.Context) {
		ctx.WriteString("healthy")
	})

	api := app.Party("/api/v1")

	api.Get("/rooms/{code}", GetRoom(appState))
	api.Get("/rooms/{code}/qrcode", GetRoomQRCode(appState))

	api.Get("/ws", websocket.ServeGame(appState))

	// 生产环境托管前端单页应用
	if appState.Cfg.StaticDir != "" {
		app.HandleDir(
			"/",
			iris.Dir(appState.Cfg.StaticDir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	return app
}

func RunServer(appState *state.AppState) {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	zap.L().Info("server listening", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
	}
}

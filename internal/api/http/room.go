package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"imposter-be/internal/service"
	"imposter-be/internal/service/dto"
	"imposter-be/internal/service/game"
	"imposter-be/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const QR_CODE_SIZE = 256

func GetRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		reqCtx, cancel := service.RequestContext(ctx.Request().Context(), appState.Cfg.RequestTimeout)
		defer cancel()

		summary, err := appState.RoomSvc.Summary(reqCtx, ctx.Params().Get("code"))
		if err != nil {
			writeRoomError(ctx, err)
			return
		}

		ctx.JSON(summary)
	}
}

// GetRoomQRCode renders a PNG QR code pointing at the join link of the room.
func GetRoomQRCode(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gm, ok := appState.RoomSvc.Get(ctx.Params().Get("code"))
		if !ok {
			writeRoomError(ctx, game.ErrRoomNotFound)
			return
		}

		link := JoinLink(appState.Cfg.PublicURL, gm.RoomID())

		png, err := qrcode.Encode(link, qrcode.Medium, QR_CODE_SIZE)
		if err != nil {
			zap.L().Error("encode qr code failed", zap.String("room_id", gm.RoomID()), zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(dto.ErrorResponse{Error: "failed to render qr code"})
			return
		}

		ctx.ContentType("image/png")
		ctx.Write(png)
	}
}

func JoinLink(publicURL, roomID string) string {
	return fmt.Sprintf("%s/?room=%s", strings.TrimRight(publicURL, "/"), url.QueryEscape(roomID))
}

func writeRoomError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		ctx.StatusCode(iris.StatusNotFound)
	default:
		zap.L().Warn("room lookup failed", zap.Error(err))
		ctx.StatusCode(iris.StatusServiceUnavailable)
	}

	ctx.JSON(dto.ErrorResponse{Error: err.Error()})
}

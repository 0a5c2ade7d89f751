package state

import (
	"imposter-be/internal/config"
	"imposter-be/internal/service"
	"imposter-be/internal/service/game"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
	}
}

// RulesFromConfig maps the rules section of the config onto game.Rules.
func RulesFromConfig(cfg config.RulesConfig) game.Rules {
	return game.Rules{
		StrictTurns:       cfg.StrictTurns,
		StrictVotes:       cfg.StrictVotes,
		StrictPhases:      cfg.StrictPhases,
		MinPlayers:        cfg.MinPlayers,
		ReportMissingRoom: cfg.ReportMissingRoom,
		StrictNames:       cfg.StrictNames,
	}
}

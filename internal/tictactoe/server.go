package tictactoe

import (
	"log/slog"

	"github.com/rocketscienceinc/msgapps-backend/internal/app"
	"github.com/rocketscienceinc/msgapps-backend/internal/lobby"
)

// Server owns the matchmaking lobby for all tic tac toe sessions. The lobby
// starts with the server and is joined on Stop.
type Server struct {
	logger *slog.Logger
	lobby  *lobby.Lobby
}

func NewServer(logger *slog.Logger) *Server {
	lby := lobby.New(logger)
	lby.Start()

	return &Server{
		logger: logger.With("component", "tictactoe"),
		lobby:  lby,
	}
}

func (that *Server) Name() string { return "TicTacToe" }

func (that *Server) Description() string { return "Tic tac toe! Play alone or with others" }

func (that *Server) New(user, _ string, sender app.Sender) app.App {
	return &Session{
		logger: that.logger,
		user:   user,
		sender: sender,
		lobby:  that.lobby,
		state:  stateMainMenu,
	}
}

func (that *Server) Stop() {
	that.lobby.Stop()
}

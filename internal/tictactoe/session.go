package tictactoe

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/app"
	"github.com/rocketscienceinc/msgapps-backend/internal/game"
	"github.com/rocketscienceinc/msgapps-backend/internal/lobby"
)

type state string

const (
	stateMainMenu state = "MAINMENU"
	stateLobby    state = "LOBBY"
	stateGame     state = "GAME"
)

var moveRe = regexp.MustCompile(`^mark cell (\d+) (\d+)$`)

const helpMsg = `Commands:
    mark cell [x] [y] - mark cell (x, y)
        (where top left corner is (0,0), bottom right is (2, 2))
    forfeit - forfeit and quit`

// Session is the per-user tic tac toe state machine. Inbound messages, lobby
// pairing and board broadcasts arrive on different goroutines; the session
// never calls into a board while holding its own mutex, boards may call into
// the session while holding theirs.
type Session struct {
	logger *slog.Logger

	user   string
	sender app.Sender
	lobby  *lobby.Lobby

	mu      sync.Mutex
	state   state
	stopped bool
	board   *game.Board
	boardID int64
	seat    int
}

func (that *Session) Start() {
	that.send("Welcome to tic tac toe!")
	that.sendMainMenu()
}

func (that *Session) Recv(_ context.Context, text string) {
	that.mu.Lock()
	if that.stopped {
		that.mu.Unlock()
		return
	}
	current := that.state
	board := that.board
	seat := that.seat
	that.mu.Unlock()

	switch current {
	case stateMainMenu:
		that.recvMainMenu(text)
	case stateLobby:
		that.recvLobby(text)
	case stateGame:
		that.recvGame(text, board, seat)
	}
}

func (that *Session) recvMainMenu(text string) {
	switch text {
	case "a":
		that.mu.Lock()
		that.state = stateLobby
		that.mu.Unlock()

		that.lobby.Add(that)
		that.sendLobbyMsg()
	case "b":
		that.mu.Lock()
		that.state = stateLobby
		that.mu.Unlock()

		game.New(game.BotMatchID, [2]game.Participant{that, newBot()})
	default:
		that.sendMainMenu()
	}
}

func (that *Session) recvLobby(text string) {
	if text != "q" {
		that.sendLobbyMsg()
		return
	}

	that.lobby.Remove(that)

	// The lobby may have paired us in the meantime; only back out if the
	// withdrawal actually won.
	that.mu.Lock()
	if that.state == stateLobby {
		that.state = stateMainMenu
	}
	still := that.state == stateMainMenu
	that.mu.Unlock()

	if still {
		that.sendMainMenu()
	}
}

func (that *Session) recvGame(text string, board *game.Board, seat int) {
	if board == nil {
		return
	}

	if text == "forfeit" {
		board.Forfeit(seat)
		that.GameOver()
		return
	}

	if match := moveRe.FindStringSubmatch(text); match != nil {
		x, _ := strconv.Atoi(match[1])
		y, _ := strconv.Atoi(match[2])
		if err := board.Move(seat, x, y); err != nil {
			that.logger.Debug("rejected move", "user", that.user, "error", err)
		}
		return
	}

	that.send(helpMsg)
}

// User implements game.Participant.
func (that *Session) User() string {
	return that.user
}

// SetBoard implements game.Participant. A session that is stopped or no
// longer waiting in the lobby rejects the seat.
func (that *Session) SetBoard(board *game.Board, seat int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped || that.state != stateLobby {
		return false
	}

	that.board = board
	that.boardID = board.ID()
	that.seat = seat
	that.state = stateGame

	return true
}

// BoardSend implements game.Participant. Broadcasts from stale matches and
// broadcasts after Stop are dropped.
func (that *Session) BoardSend(matchID int64, text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped || that.board == nil || matchID != that.boardID {
		return
	}

	if err := that.sender.Send(that.user, text); err != nil {
		that.logger.Debug("failed to deliver board message", "user", that.user, "error", err)
	}
}

// GameOver implements game.Participant and returns the session to the main menu.
func (that *Session) GameOver() {
	that.mu.Lock()
	that.board = nil
	that.boardID = 0
	that.state = stateMainMenu
	stopped := that.stopped
	that.mu.Unlock()

	if !stopped {
		that.sendMainMenu()
	}
}

// Stop - marks the session inert; an in-progress match is forfeited to the
// opponent and a waiting session leaves the lobby.
func (that *Session) Stop() {
	that.mu.Lock()
	if that.stopped {
		that.mu.Unlock()
		return
	}
	that.stopped = true
	current := that.state
	board := that.board
	seat := that.seat
	that.board = nil
	that.mu.Unlock()

	switch current {
	case stateLobby:
		that.lobby.Remove(that)
	case stateGame:
		if board != nil {
			board.Forfeit(seat)
		}
	}
}

func (that *Session) Running() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return !that.stopped
}

func (that *Session) sendMainMenu() {
	that.send("Send (a) to join the lobby. Send (b) to play against a computer.")
}

func (that *Session) sendLobbyMsg() {
	that.send("You are currently in the lobby. Send 'q' to exit")
}

func (that *Session) send(text string) {
	if err := that.sender.Send(that.user, text); err != nil {
		that.logger.Debug("failed to deliver message", "user", that.user, "error", err)
	}
}

package tictactoe

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/game"
)

// bot is the synthetic opponent for solo matches. It ignores every broadcast
// except its own turn notice, to which it answers with a uniformly random
// legal move. Moves run on their own goroutine because broadcasts arrive
// while the board still holds its lock.
type bot struct {
	mu    sync.Mutex
	board *game.Board
	seat  int
}

func newBot() *bot {
	return &bot{}
}

func (that *bot) User() string {
	return "COM"
}

func (that *bot) SetBoard(board *game.Board, seat int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = board
	that.seat = seat

	return true
}

func (that *bot) BoardSend(_ int64, text string) {
	if !strings.Contains(text, "your turn") {
		return
	}

	go that.makeMove()
}

func (that *bot) GameOver() {}

func (that *bot) makeMove() {
	that.mu.Lock()
	board := that.board
	seat := that.seat
	that.mu.Unlock()

	if board == nil {
		return
	}

	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return
	}

	chosenCell := availableCells[rand.Intn(len(availableCells))] //nolint: gosec // it's ok

	// A lost race with a forfeit is fine, there is nobody to tell.
	_ = board.Move(seat, chosenCell%3, chosenCell/3)
}

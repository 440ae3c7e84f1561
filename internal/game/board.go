package game

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/apperror"
)

// BotMatchID marks matches started directly against the computer, which never
// go through a lobby and therefore have no lobby-issued id.
const BotMatchID int64 = -1

const emptyCell int8 = -1

var marks = [2]string{"X", "O"}

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Participant is the capability a Board needs from each seat. The board owns
// the match state, not the participants' lifecycles.
type Participant interface {
	User() string
	// SetBoard offers the participant a seat in a match. A participant that is
	// no longer eligible (stopped, or left the lobby) returns false; the board
	// treats that as an immediate forfeit of the offered seat.
	SetBoard(board *Board, seat int) bool
	BoardSend(matchID int64, text string)
	GameOver()
}

// Board holds the authoritative state of one match between exactly two seats.
// All mutations run under one mutex; a broadcast completes before the next
// move is accepted, and a finished match never becomes unfinished again.
type Board struct {
	id      int64
	players [2]Participant

	mu       sync.Mutex
	grid     [9]int8
	turn     int
	finished bool
	winner   int
	draw     bool
}

// New - registers both participants at seats 0 and 1 and broadcasts the empty
// board. Seats are offered to both participants before anything else happens,
// so a rejected seat forfeits in favor of an opponent that already holds its
// board reference.
func New(id int64, players [2]Participant) *Board {
	board := &Board{
		id:      id,
		players: players,
		winner:  -1,
	}

	for i := range board.grid {
		board.grid[i] = emptyCell
	}

	rejected := -1
	for idx, player := range players {
		if !player.SetBoard(board, idx) && rejected < 0 {
			rejected = idx
		}
	}

	if rejected >= 0 {
		board.Forfeit(rejected)
		return board
	}

	for _, player := range players {
		player.BoardSend(id, "Connected! Starting game.")
	}

	board.mu.Lock()
	defer board.mu.Unlock()

	board.broadcast()

	return board
}

func (that *Board) ID() int64 {
	return that.id
}

// Move - applies seat's mark to cell (x, y). An illegal move notifies only the
// caller, leaves the match untouched and reports why it was rejected.
func (that *Board) Move(seat, x, y int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.finished {
		that.players[seat].BoardSend(that.id, "The game is already over")
		return apperror.ErrGameFinished
	}

	if that.turn != seat {
		that.players[seat].BoardSend(that.id, "Please wait for your turn")
		return apperror.ErrNotYourTurn
	}

	if x < 0 || x > 2 || y < 0 || y > 2 {
		that.players[seat].BoardSend(that.id, "Invalid move")
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, x, y)
	}

	cell := y*3 + x
	if that.grid[cell] != emptyCell {
		that.players[seat].BoardSend(that.id, "Invalid move")
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, x, y)
	}

	that.grid[cell] = int8(seat)
	that.turn = (that.turn + 1) % 2

	that.broadcast()

	return nil
}

// Forfeit - ends the match in favor of the other seat. The forfeiting seat is
// not re-notified; the remaining seat gets exactly one win message. A second
// forfeit on a finished match is a no-op.
func (that *Board) Forfeit(seat int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.finished {
		return
	}

	other := (seat + 1) % 2
	that.finished = true
	that.winner = other

	that.players[other].BoardSend(that.id, "The other player has forfeited! You win!")
	that.players[other].GameOver()
}

// EmptyCells - returns the flat indices of unoccupied cells.
func (that *Board) EmptyCells() []int {
	that.mu.Lock()
	defer that.mu.Unlock()

	cells := make([]int, 0, len(that.grid))
	for i, cell := range that.grid {
		if cell == emptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// Result - reports the terminal state: the winning seat (-1 if none), whether
// the match drew, and whether it is over at all.
func (that *Board) Result() (winner int, draw, finished bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.winner, that.draw, that.finished
}

// broadcast - sends each seat the rendered grid plus its personalized status
// and, on a terminal state, the game-over signal. Callers hold the mutex.
func (that *Board) broadcast() {
	board := that.render()

	var statuses [2]string
	end := false

	switch winner := that.winnerSeat(); {
	case winner >= 0:
		end = true
		that.finished = true
		that.winner = winner
		loser := (winner + 1) % 2
		statuses[winner] = "Congratulations! You won!"
		statuses[loser] = "You lost, better luck next time!"
	case that.full():
		// A full grid with no winner must end the game, not leave both
		// players waiting on a move that can never come.
		end = true
		that.finished = true
		that.draw = true
		statuses[0] = "It's a draw! Good game."
		statuses[1] = "It's a draw! Good game."
	default:
		for idx := range that.players {
			if that.turn == idx {
				statuses[idx] = "It's your turn!"
			} else {
				statuses[idx] = "Please wait for the other player"
			}
		}
	}

	for idx, player := range that.players {
		player.BoardSend(that.id, board+"\n"+statuses[idx])
		if end {
			player.GameOver()
		}
	}
}

func (that *Board) render() string {
	var sb strings.Builder

	for i := 0; i < 3; i++ {
		sb.WriteString("|")
		for j := 0; j < 3; j++ {
			cell := that.grid[i*3+j]
			if cell == emptyCell {
				sb.WriteString(" ")
			} else {
				sb.WriteString(marks[cell])
			}
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (that *Board) winnerSeat() int {
	for _, combo := range WinCombos {
		a, b, c := that.grid[combo[0]], that.grid[combo[1]], that.grid[combo[2]]
		if a != emptyCell && a == b && b == c {
			return int(a)
		}
	}

	return -1
}

func (that *Board) full() bool {
	for _, cell := range that.grid {
		if cell == emptyCell {
			return false
		}
	}

	return true
}

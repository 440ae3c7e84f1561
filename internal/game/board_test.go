package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/msgapps-backend/internal/apperror"
)

type fakePlayer struct {
	user   string
	reject bool

	mu    sync.Mutex
	board *Board
	seat  int
	msgs  []string
	overs int
}

func (that *fakePlayer) User() string { return that.user }

func (that *fakePlayer) SetBoard(board *Board, seat int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.reject {
		return false
	}

	that.board = board
	that.seat = seat

	return true
}

func (that *fakePlayer) BoardSend(_ int64, text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.msgs = append(that.msgs, text)
}

func (that *fakePlayer) GameOver() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.overs++
}

func (that *fakePlayer) messages() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	msgs := make([]string, len(that.msgs))
	copy(msgs, that.msgs)

	return msgs
}

func (that *fakePlayer) last() string {
	msgs := that.messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (that *fakePlayer) gameOvers() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.overs
}

func newPair() (*fakePlayer, *fakePlayer, *Board) {
	p0 := &fakePlayer{user: "alice"}
	p1 := &fakePlayer{user: "bob"}
	board := New(1, [2]Participant{p0, p1})

	return p0, p1, board
}

func TestNewBoard(t *testing.T) {
	// Given: two participants
	// When: a board is created for them
	p0, p1, board := newPair()

	// Then: both are seated in order
	require.Equal(t, 0, p0.seat)
	require.Equal(t, 1, p1.seat)
	require.Equal(t, int64(1), board.ID())

	// Then: both got the starting notice and the initial board
	require.Contains(t, p0.messages()[0], "Connected! Starting game.")
	require.Contains(t, p1.messages()[0], "Connected! Starting game.")

	// Then: seat 0 moves first, seat 1 waits
	assert.Contains(t, p0.last(), "It's your turn!")
	assert.Contains(t, p1.last(), "Please wait for the other player")
}

func TestBoard_Move(t *testing.T) {
	// Given: a fresh board
	p0, p1, board := newPair()

	// When: seat 0 makes a legal move
	board.Move(0, 0, 0)

	// Then: both see the mark and the turn has passed to seat 1
	assert.Contains(t, p0.last(), "|X|")
	assert.Contains(t, p0.last(), "Please wait for the other player")
	assert.Contains(t, p1.last(), "|X|")
	assert.Contains(t, p1.last(), "It's your turn!")
	assert.Len(t, board.EmptyCells(), 8)
}

func TestBoard_Move_Illegal(t *testing.T) {
	t.Run("out of turn notifies only the caller", func(t *testing.T) {
		// Given: a fresh board where seat 0 moves first
		p0, p1, board := newPair()
		before := len(p0.messages())

		// When: seat 1 tries to move
		err := board.Move(1, 0, 0)

		// Then: only seat 1 is told to wait and the grid is untouched
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, "Please wait for your turn", p1.last())
		assert.Len(t, p0.messages(), before)
		assert.Len(t, board.EmptyCells(), 9)
	})

	t.Run("out of range cell", func(t *testing.T) {
		_, p1, board := newPair()
		before := len(p1.messages())

		err := board.Move(0, 3, 0)

		require.ErrorIs(t, err, apperror.ErrInvalidCell)
		_, _, finished := board.Result()
		assert.False(t, finished)
		assert.Len(t, board.EmptyCells(), 9)
		assert.Len(t, p1.messages(), before)
	})

	t.Run("occupied cell", func(t *testing.T) {
		p0, p1, board := newPair()
		board.Move(0, 1, 1)

		// When: seat 1 targets the same cell
		err := board.Move(1, 1, 1)

		// Then: seat 1 gets exactly one invalid notice and the mark stands
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, "Invalid move", p1.last())
		assert.Len(t, board.EmptyCells(), 8)
		assert.Contains(t, p0.last(), "|X|")
	})
}

func TestBoard_WinningLines(t *testing.T) {
	// Every one of the 8 winning lines must be detected for either seat.
	for _, combo := range WinCombos {
		for seat := int8(0); seat < 2; seat++ {
			board := &Board{winner: -1}
			for i := range board.grid {
				board.grid[i] = emptyCell
			}

			for _, cell := range combo {
				board.grid[cell] = seat
			}

			require.Equal(t, int(seat), board.winnerSeat(), "combo %v seat %d", combo, seat)
		}
	}
}

func TestBoard_NoWinner(t *testing.T) {
	// Given: an ongoing grid with no complete line
	board := &Board{winner: -1}
	for i := range board.grid {
		board.grid[i] = emptyCell
	}
	board.grid[0] = 0
	board.grid[4] = 1

	// Then: nobody has won and the grid is not full
	assert.Equal(t, -1, board.winnerSeat())
	assert.False(t, board.full())
}

func TestBoard_WinByMoves(t *testing.T) {
	// Given: a board played to a top-row win for seat 0
	p0, p1, board := newPair()

	board.Move(0, 0, 0)
	board.Move(1, 0, 1)
	board.Move(0, 1, 0)
	board.Move(1, 1, 1)
	board.Move(0, 2, 0)

	// Then: the match is over with seat 0 as the winner
	winner, draw, finished := board.Result()
	require.True(t, finished)
	require.False(t, draw)
	require.Equal(t, 0, winner)

	assert.Contains(t, p0.last(), "Congratulations! You won!")
	assert.Contains(t, p1.last(), "You lost, better luck next time!")
	assert.Equal(t, 1, p0.gameOvers())
	assert.Equal(t, 1, p1.gameOvers())

	// Then: the board stays terminal
	err := board.Move(1, 2, 2)
	assert.ErrorIs(t, err, apperror.ErrGameFinished)
	assert.Equal(t, "The game is already over", p1.last())
	winner, _, finished = board.Result()
	assert.True(t, finished)
	assert.Equal(t, 0, winner)
}

func TestBoard_DrawEndsGame(t *testing.T) {
	// A full grid with no winner must end the game, not leave both players
	// waiting on a move that can never come.
	p0, p1, board := newPair()

	// X O X
	// X O O
	// O X X
	moves := []struct {
		seat, cell int
	}{
		{0, 0}, {1, 1}, {0, 2}, {1, 4}, {0, 3}, {1, 5}, {0, 7}, {1, 6}, {0, 8},
	}
	for _, move := range moves {
		board.Move(move.seat, move.cell%3, move.cell/3)
	}

	winner, draw, finished := board.Result()
	require.True(t, finished)
	require.True(t, draw)
	require.Equal(t, -1, winner)

	assert.Contains(t, p0.last(), "It's a draw!")
	assert.Contains(t, p1.last(), "It's a draw!")
	assert.Equal(t, 1, p0.gameOvers())
	assert.Equal(t, 1, p1.gameOvers())
}

func TestBoard_Forfeit(t *testing.T) {
	// Given: an ongoing match
	p0, p1, board := newPair()
	p0Before := len(p0.messages())

	// When: seat 0 forfeits
	board.Forfeit(0)

	// Then: seat 1 gets exactly one win notice and the game-over signal
	assert.Equal(t, "The other player has forfeited! You win!", p1.last())
	assert.Equal(t, 1, p1.gameOvers())

	// Then: seat 0 is not re-notified
	assert.Len(t, p0.messages(), p0Before)
	assert.Equal(t, 0, p0.gameOvers())

	// Then: forfeiting again changes nothing
	board.Forfeit(1)
	winner, _, finished := board.Result()
	assert.True(t, finished)
	assert.Equal(t, 1, winner)
	assert.Equal(t, 1, p1.gameOvers())
}

func TestBoard_TurnAlternates(t *testing.T) {
	// Given: a sequence of legal moves
	p0, p1, board := newPair()

	moves := []struct {
		seat, x, y int
	}{
		{0, 0, 0}, {1, 1, 0}, {0, 0, 1}, {1, 1, 1},
	}

	remaining := 9
	for _, move := range moves {
		board.Move(move.seat, move.x, move.y)
		remaining--

		// Then: the grid only gains marks
		require.Len(t, board.EmptyCells(), remaining)
	}

	// Then: after an even number of moves it is seat 0's turn again
	assert.Contains(t, p0.last(), "It's your turn!")
	assert.Contains(t, p1.last(), "Please wait for the other player")
}

func TestNewBoard_RejectedSeat(t *testing.T) {
	// Given: a participant that is no longer eligible for a match
	p0 := &fakePlayer{user: "alice", reject: true}
	p1 := &fakePlayer{user: "bob"}

	// When: a board is created for the pair
	board := New(7, [2]Participant{p0, p1})

	// Then: the rejected seat forfeits in favor of the other participant
	winner, _, finished := board.Result()
	require.True(t, finished)
	require.Equal(t, 1, winner)
	assert.Equal(t, "The other player has forfeited! You win!", p1.last())
	assert.Equal(t, 1, p1.gameOvers())
	assert.Empty(t, p0.messages())
}

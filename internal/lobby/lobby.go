package lobby

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/game"
)

const queueSize = 128

// entry is one admission into the queue. The sequence number ties it to the
// Add call that produced it, so the matching loop can tell a live admission
// from one whose participant has since withdrawn or rejoined.
type entry struct {
	participant game.Participant
	seq         uint64
}

// Lobby pairs waiting participants into matches in FIFO admission order.
// Add, Remove and the matching loop may run concurrently; a participant
// removed after enqueueing is skipped and never placed into a match. The
// active set records the sequence of each participant's newest admission;
// queue entries carrying any other sequence are dead. Marking a participant
// inactive and committing it to a pair are mutually exclusive, so a Remove
// either lands before the pair commits or degrades to a no-op.
type Lobby struct {
	logger *slog.Logger

	queue chan entry
	done  chan struct{}

	mu     sync.Mutex
	active map[game.Participant]uint64
	seq    uint64
	nextID int64
}

func New(logger *slog.Logger) *Lobby {
	return &Lobby{
		logger: logger.With("component", "lobby"),
		queue:  make(chan entry, queueSize),
		done:   make(chan struct{}),
		active: make(map[game.Participant]uint64),
	}
}

// Start - launches the matching loop.
func (that *Lobby) Start() {
	go that.poll()
}

// Stop - enqueues the shutdown sentinel and blocks until the matching loop
// has drained and exited.
func (that *Lobby) Stop() {
	that.queue <- entry{}
	<-that.done
}

// Add - enqueues the participant under a fresh admission sequence. A
// participant already waiting is not enqueued twice; a participant that
// withdrew gets a new sequence, which invalidates any entry left in the
// queue from the earlier admission.
func (that *Lobby) Add(participant game.Participant) {
	that.mu.Lock()
	if _, ok := that.active[participant]; ok {
		that.mu.Unlock()
		return
	}
	that.seq++
	seq := that.seq
	that.active[participant] = seq
	that.mu.Unlock()

	that.queue <- entry{participant: participant, seq: seq}
}

// Remove - withdraws the participant from matchmaking. Removing a participant
// that is unknown, already matched or already removed is a no-op.
func (that *Lobby) Remove(participant game.Participant) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.active, participant)
}

func (that *Lobby) poll() {
	defer close(that.done)

	var pending entry

	for candidate := range that.queue {
		if candidate.participant == nil {
			return
		}

		that.mu.Lock()

		// The candidate might have withdrawn, or withdrawn and rejoined under
		// a newer admission, while this entry sat in the queue.
		if that.active[candidate.participant] != candidate.seq {
			that.mu.Unlock()
			continue
		}

		if pending.participant == nil {
			pending = candidate
			that.mu.Unlock()
			continue
		}

		// The first of the pair might have gone stale while we waited for a
		// second; the candidate takes its place.
		if that.active[pending.participant] != pending.seq {
			pending = candidate
			that.mu.Unlock()
			continue
		}

		delete(that.active, pending.participant)
		delete(that.active, candidate.participant)

		id := that.nextID
		that.nextID++

		first := pending.participant
		pending = entry{}

		that.mu.Unlock()

		that.logger.Info("starting match", "id", id, "player0", first.User(), "player1", candidate.participant.User())

		game.New(id, [2]game.Participant{first, candidate.participant})
	}
}

package mocks

import "sync"

// Sender records outbound messages per user for tests.
type Sender struct {
	mu   sync.Mutex
	err  error
	msgs map[string][]string
}

func NewSender() *Sender {
	return &Sender{
		msgs: make(map[string][]string),
	}
}

// FailWith - makes every following Send return err (nil restores delivery).
func (that *Sender) FailWith(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.err = err
}

func (that *Sender) Send(user, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.err != nil {
		return that.err
	}

	that.msgs[user] = append(that.msgs[user], text)

	return nil
}

// Messages - returns a copy of everything sent to user so far.
func (that *Sender) Messages(user string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	msgs := make([]string, len(that.msgs[user]))
	copy(msgs, that.msgs[user])

	return msgs
}

// Count - returns how many messages user has received.
func (that *Sender) Count(user string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.msgs[user])
}

// Last - returns the most recent message sent to user.
func (that *Sender) Last(user string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	msgs := that.msgs[user]
	if len(msgs) == 0 {
		return "", false
	}

	return msgs[len(msgs)-1], true
}

package controller

import (
	"context"
	"sync"
)

// State is the phase of a controller interaction.
type State int

const (
	Idle State = iota
	Collecting
	Requesting
	Succeeded
	Failed
	Stale
)

var stateNames = [...]string{"idle", "collecting", "requesting", "succeeded", "failed", "stale"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Sequencer hands out request tokens and decides which response may render.
// Only the most recently issued token is current; everything older is stale.
// The phase follows the current request only.
type Sequencer struct {
	mu      sync.Mutex
	latest  uint64
	pending bool
	state   State
}

// Collect marks the start of input collection.
func (s *Sequencer) Collect() {
	s.mu.Lock()
	if !s.pending {
		s.state = Collecting
	}
	s.mu.Unlock()
}

// Next issues a new token, making every earlier one stale, and then runs
// prepare under the sequencer lock. An older response cannot settle between
// the two, so whatever prepare puts on the page belongs to the new request.
func (s *Sequencer) Next(prepare func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.pending = true
	s.state = Requesting
	if prepare != nil {
		prepare()
	}
	return s.latest
}

// State returns the current phase.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settle completes the request holding token. When token is current, fn runs
// under the sequencer lock and its result is returned; otherwise fn is skipped
// and Stale is returned. No two settle functions of one sequencer overlap.
func (s *Sequencer) Settle(token uint64, fn func() State) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.latest {
		return Stale
	}
	result := fn()
	s.pending = false
	s.state = Idle
	return result
}

// Outcome is the final result of one request.
type Outcome struct {
	Token uint64
	State State
	Err   error
}

// Ticket tracks an asynchronous request.
type Ticket struct {
	Token uint64

	done chan struct{}
	out  Outcome
}

func newTicket(token uint64) *Ticket {
	return &Ticket{Token: token, done: make(chan struct{})}
}

func (t *Ticket) finish(out Outcome) {
	t.out = out
	close(t.done)
}

// Done is closed once the request has settled.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait blocks until the request settles or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.out, nil
	case <-ctx.Done():
		return Outcome{Token: t.Token}, ctx.Err()
	}
}

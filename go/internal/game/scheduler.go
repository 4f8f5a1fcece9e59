package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DeadlineKind distinguishes what a scheduled deadline is for.
type DeadlineKind string

const (
	DeadlineReveal   DeadlineKind = "reveal"
	DeadlineAnswer   DeadlineKind = "answer"
	DeadlineTeardown DeadlineKind = "teardown"
)

// DeadlineTag keys a deadline by (kind, questionIndex) so a stale expiry can
// be invalidated on any phase transition instead of tracked with manual
// dedupe timestamps.
type DeadlineTag struct {
	Kind          DeadlineKind
	QuestionIndex int
}

// Scheduler issues absolute deadlines for one room and fires exactly one
// expiry per scheduled deadline. Expiries are delivered through the fire
// callback, which enqueues them on the room's serialized queue so they can
// never race an in-flight client message.
type Scheduler struct {
	clock clockwork.Clock
	fire  func(tag DeadlineTag)

	mu      sync.Mutex
	pending map[DeadlineTag]*scheduledDeadline
}

type scheduledDeadline struct {
	timer clockwork.Timer
	stop  chan struct{}
}

// NewScheduler creates a scheduler on the given clock. Production uses
// clockwork.NewRealClock(); tests use a FakeClock.
func NewScheduler(clock clockwork.Clock, fire func(tag DeadlineTag)) *Scheduler {
	return &Scheduler{
		clock:   clock,
		fire:    fire,
		pending: make(map[DeadlineTag]*scheduledDeadline),
	}
}

// Schedule arms a deadline at an absolute time, replacing any pending
// deadline with the same tag.
func (s *Scheduler) Schedule(tag DeadlineTag, at time.Time) {
	s.mu.Lock()
	if old, ok := s.pending[tag]; ok {
		close(old.stop)
	}
	wait := at.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	sd := &scheduledDeadline{
		timer: s.clock.NewTimer(wait),
		stop:  make(chan struct{}),
	}
	s.pending[tag] = sd
	s.mu.Unlock()

	go func() {
		select {
		case <-sd.timer.Chan():
			s.expire(tag, sd)
		case <-sd.stop:
			sd.timer.Stop()
		}
	}()
}

// Cancel disarms a pending deadline. Canceling an unknown tag is a no-op.
func (s *Scheduler) Cancel(tag DeadlineTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sd, ok := s.pending[tag]; ok {
		close(sd.stop)
		delete(s.pending, tag)
	}
}

// CancelAll disarms every pending deadline; used on room teardown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tag, sd := range s.pending {
		close(sd.stop)
		delete(s.pending, tag)
	}
}

// expire removes the deadline and fires it, provided it was not replaced or
// canceled while the timer was in flight. The map check is what guarantees
// at most one firing per scheduled deadline.
func (s *Scheduler) expire(tag DeadlineTag, sd *scheduledDeadline) {
	s.mu.Lock()
	current, ok := s.pending[tag]
	if !ok || current != sd {
		s.mu.Unlock()
		return
	}
	delete(s.pending, tag)
	s.mu.Unlock()

	log.Debug().
		Str("kind", string(tag.Kind)).
		Int("question_index", tag.QuestionIndex).
		Msg("deadline fired")
	s.fire(tag)
}

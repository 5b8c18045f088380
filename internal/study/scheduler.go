package study

import (
	"fmt"
	"math/rand"
	"time"

	"flashdeck/internal/models"
)

// Decision is the user's verdict on a presented card
type Decision int

const (
	// DecisionKnown retires the card for the rest of the session.
	DecisionKnown Decision = iota + 1
	// DecisionReviewAgain holds the card back for the next round.
	DecisionReviewAgain
)

func (d Decision) String() string {
	switch d {
	case DecisionKnown:
		return "known"
	case DecisionReviewAgain:
		return "review_again"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Valid reports whether d is one of the recognized decisions
func (d Decision) Valid() bool {
	return d == DecisionKnown || d == DecisionReviewAgain
}

// ParseDecision converts hosting-layer input into a Decision. Only the
// exact strings "known" and "review_again" are recognized.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "known":
		return DecisionKnown, nil
	case "review_again":
		return DecisionReviewAgain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
}

// Phase is the scheduler's position in its state machine
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingDraw
	PhaseCardShown
	PhaseSessionComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingDraw:
		return "awaiting_draw"
	case PhaseCardShown:
		return "card_shown"
	case PhaseSessionComplete:
		return "session_complete"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// DrawKind says what DrawNext produced
type DrawKind int

const (
	// DrawCard carries the next card to present.
	DrawCard DrawKind = iota + 1
	// DrawRoundComplete signals that a new round has begun; draw again for
	// its first card.
	DrawRoundComplete
	// DrawSessionComplete signals that no cards remain.
	DrawSessionComplete
)

// Draw is the result of DrawNext or Next
type Draw struct {
	Kind  DrawKind
	Card  models.Card
	Index int
	Round int

	// NewRound is set by Next when a round boundary was crossed before
	// this draw.
	NewRound bool
}

// Status is a read-only progress summary
type Status struct {
	Phase           Phase `json:"-"`
	Round           int   `json:"round"`
	RemainingActive int   `json:"remaining_active"`
	RemainingRetry  int   `json:"remaining_retry"`
	Known           int   `json:"known"`
	Total           int   `json:"total"`
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRand sets the random source used to pick cards
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

// WithSeed seeds the random source, giving a reproducible draw order
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// Scheduler owns the mutable state of one study session.
//
// Cards live in two buckets. The active bucket is drained in random order
// during a round while review_again decisions go into the other bucket, so
// a retried card cannot come back before the next round. At a round
// boundary the buckets swap roles.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	snapshot *Snapshot
	rng      *rand.Rand

	phase   Phase
	round   int
	buckets [2][]int
	active  Bucket
	current int
	known   int
}

// NewScheduler creates a scheduler that has not been started
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{current: -1}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Start begins round 1 with every card of snapshot in bucket A.
// Any previous session held by the scheduler is discarded.
func (s *Scheduler) Start(snapshot *Snapshot) error {
	if snapshot == nil || snapshot.Size() == 0 {
		return ErrEmptyDeck
	}

	all := make([]int, snapshot.Size())
	for i := range all {
		all[i] = i
	}

	s.snapshot = snapshot
	s.phase = PhaseAwaitingDraw
	s.round = 1
	s.buckets = [2][]int{all, nil}
	s.active = BucketA
	s.current = -1
	s.known = 0
	return nil
}

// Snapshot returns the deck the session was started with
func (s *Scheduler) Snapshot() *Snapshot {
	return s.snapshot
}

// Phase returns the current state machine phase
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// Round returns the current round number (0 before Start)
func (s *Scheduler) Round() int {
	return s.round
}

// DrawNext picks the next card uniformly at random from the active bucket.
// When the active bucket is exhausted and the retry bucket is not, it
// swaps buckets, increments the round, and returns DrawRoundComplete; the
// caller draws again for the first card of the new round.
func (s *Scheduler) DrawNext() (Draw, error) {
	switch s.phase {
	case PhaseNotStarted:
		return Draw{}, fmt.Errorf("%w: draw before start", ErrInvalidState)
	case PhaseCardShown:
		return Draw{}, fmt.Errorf("%w: a card is awaiting a decision", ErrInvalidState)
	case PhaseSessionComplete:
		return Draw{Kind: DrawSessionComplete, Index: -1, Round: s.round}, nil
	}

	active := s.buckets[s.active]
	if len(active) > 0 {
		pos := s.rng.Intn(len(active))
		idx := active[pos]
		card, err := s.snapshot.At(idx)
		if err != nil {
			return Draw{}, err
		}

		last := len(active) - 1
		active[pos] = active[last]
		s.buckets[s.active] = active[:last]

		s.current = idx
		s.phase = PhaseCardShown
		return Draw{Kind: DrawCard, Card: card, Index: idx, Round: s.round}, nil
	}

	retry := s.active.Other()
	if len(s.buckets[retry]) > 0 {
		s.buckets[s.active] = nil
		s.active = retry
		s.round++
		return Draw{Kind: DrawRoundComplete, Index: -1, Round: s.round}, nil
	}

	s.phase = PhaseSessionComplete
	return Draw{Kind: DrawSessionComplete, Index: -1, Round: s.round}, nil
}

// Next is DrawNext with round boundaries chained: it returns either a card
// or DrawSessionComplete, with NewRound set if a boundary was crossed.
func (s *Scheduler) Next() (Draw, error) {
	crossed := false
	for {
		d, err := s.DrawNext()
		if err != nil {
			return Draw{}, err
		}
		if d.Kind != DrawRoundComplete {
			d.NewRound = crossed
			return d, nil
		}
		crossed = true
	}
}

// Current returns the card awaiting a decision
func (s *Scheduler) Current() (models.Card, int, bool) {
	if s.phase != PhaseCardShown {
		return models.Card{}, -1, false
	}
	card, err := s.snapshot.At(s.current)
	if err != nil {
		return models.Card{}, -1, false
	}
	return card, s.current, true
}

// RecordDecision applies the user's decision to the card currently shown.
// Known cards are retired; review_again cards go into the inactive bucket.
func (s *Scheduler) RecordDecision(d Decision) error {
	if s.phase != PhaseCardShown || s.current < 0 {
		return fmt.Errorf("%w: no card is awaiting a decision", ErrInvalidState)
	}
	if !d.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidDecision, d)
	}

	switch d {
	case DecisionKnown:
		s.known++
	case DecisionReviewAgain:
		retry := s.active.Other()
		s.buckets[retry] = append(s.buckets[retry], s.current)
	}

	s.current = -1
	s.phase = PhaseAwaitingDraw
	return nil
}

// Status reports progress for display
func (s *Scheduler) Status() Status {
	st := Status{
		Phase:           s.phase,
		Round:           s.round,
		RemainingActive: len(s.buckets[s.active]),
		RemainingRetry:  len(s.buckets[s.active.Other()]),
		Known:           s.known,
	}
	if s.snapshot != nil {
		st.Total = s.snapshot.Size()
	}
	return st
}

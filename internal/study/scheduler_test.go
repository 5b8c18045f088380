package study

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func startedScheduler(t *testing.T, n int, seed int64) *Scheduler {
	t.Helper()
	snap, err := Load("test", testCards(n))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := NewScheduler(WithSeed(seed))
	if err := s.Start(snap); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func mustDraw(t *testing.T, s *Scheduler) Draw {
	t.Helper()
	d, err := s.DrawNext()
	if err != nil {
		t.Fatalf("DrawNext() error = %v", err)
	}
	return d
}

func mustDecide(t *testing.T, s *Scheduler, d Decision) {
	t.Helper()
	if err := s.RecordDecision(d); err != nil {
		t.Fatalf("RecordDecision(%v) error = %v", d, err)
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		input   string
		want    Decision
		wantErr bool
	}{
		{input: "known", want: DecisionKnown},
		{input: "review_again", want: DecisionReviewAgain},
		{input: "again", wantErr: true},
		{input: " known", wantErr: true},
		{input: "Known", wantErr: true},
		{input: "REVIEW_AGAIN", wantErr: true},
		{input: "", wantErr: true},
		{input: "skip", wantErr: true},
		{input: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecision(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDecision) {
					t.Fatalf("ParseDecision(%q) error = %v, want ErrInvalidDecision", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecision(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStartEmptyDeck(t *testing.T) {
	s := NewScheduler()
	if err := s.Start(nil); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("Start(nil) error = %v, want ErrEmptyDeck", err)
	}
	if s.Phase() != PhaseNotStarted {
		t.Errorf("Phase() = %v, want not_started", s.Phase())
	}
	if _, err := s.State(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("State() error = %v, want ErrInvalidState", err)
	}
}

func TestStartInitializesRoundOne(t *testing.T) {
	s := startedScheduler(t, 4, 1)

	want := Status{Phase: PhaseAwaitingDraw, Round: 1, RemainingActive: 4, Total: 4}
	if diff := cmp.Diff(want, s.Status()); diff != "" {
		t.Errorf("Status() mismatch (-want +got):\n%s", diff)
	}

	st, err := s.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if st.ActiveBucket != BucketA {
		t.Errorf("ActiveBucket = %v, want A", st.ActiveBucket)
	}
	if len(st.Retry) != 0 {
		t.Errorf("Retry = %v, want empty", st.Retry)
	}
}

func TestOutOfSequenceCalls(t *testing.T) {
	t.Run("draw before start", func(t *testing.T) {
		s := NewScheduler()
		if _, err := s.DrawNext(); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("DrawNext() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("decision before any draw", func(t *testing.T) {
		s := startedScheduler(t, 3, 1)
		if err := s.RecordDecision(DecisionKnown); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("RecordDecision() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("decision before start", func(t *testing.T) {
		s := NewScheduler()
		if err := s.RecordDecision(DecisionKnown); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("RecordDecision() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("second decision for one card", func(t *testing.T) {
		s := startedScheduler(t, 3, 1)
		mustDraw(t, s)
		mustDecide(t, s, DecisionKnown)
		if err := s.RecordDecision(DecisionKnown); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("RecordDecision() error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("draw while a card is shown", func(t *testing.T) {
		s := startedScheduler(t, 3, 1)
		mustDraw(t, s)
		if _, err := s.DrawNext(); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("DrawNext() error = %v, want ErrInvalidState", err)
		}
		if s.Phase() != PhaseCardShown {
			t.Errorf("Phase() = %v, want card_shown", s.Phase())
		}
	})
}

func TestInvalidDecisionDoesNotMutate(t *testing.T) {
	s := startedScheduler(t, 3, 7)
	mustDraw(t, s)

	before, err := s.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}

	if err := s.RecordDecision(Decision(42)); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("RecordDecision(42) error = %v, want ErrInvalidDecision", err)
	}

	after, err := s.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("state changed after invalid decision (-before +after):\n%s", diff)
	}
}

func TestScenarioOneCardRetried(t *testing.T) {
	s := startedScheduler(t, 3, 3)

	first := mustDraw(t, s)
	if first.Kind != DrawCard || first.Round != 1 {
		t.Fatalf("first draw = %+v, want a round 1 card", first)
	}
	mustDecide(t, s, DecisionReviewAgain)

	for i := 0; i < 2; i++ {
		d := mustDraw(t, s)
		if d.Kind != DrawCard {
			t.Fatalf("draw %d kind = %v, want card", i+2, d.Kind)
		}
		if d.Index == first.Index {
			t.Fatalf("retried card %d resurfaced in round 1", first.Index)
		}
		mustDecide(t, s, DecisionKnown)
	}

	boundary := mustDraw(t, s)
	if boundary.Kind != DrawRoundComplete || boundary.Round != 2 {
		t.Fatalf("boundary = %+v, want round 2 signal", boundary)
	}

	retried := mustDraw(t, s)
	if retried.Kind != DrawCard || retried.Index != first.Index {
		t.Fatalf("round 2 draw = %+v, want card %d", retried, first.Index)
	}
	mustDecide(t, s, DecisionKnown)

	done := mustDraw(t, s)
	if done.Kind != DrawSessionComplete {
		t.Fatalf("final draw kind = %v, want session complete", done.Kind)
	}
	if s.Round() != 2 {
		t.Errorf("Round() = %d, want 2", s.Round())
	}
	if s.Status().Known != 3 {
		t.Errorf("Known = %d, want 3", s.Status().Known)
	}
}

func TestScenarioAllKnownInRoundOne(t *testing.T) {
	s := startedScheduler(t, 3, 5)

	for i := 0; i < 3; i++ {
		d := mustDraw(t, s)
		if d.Kind != DrawCard {
			t.Fatalf("draw %d kind = %v, want card", i+1, d.Kind)
		}
		mustDecide(t, s, DecisionKnown)
	}

	d := mustDraw(t, s)
	if d.Kind != DrawSessionComplete {
		t.Fatalf("draw kind = %v, want session complete", d.Kind)
	}
	if s.Round() != 1 {
		t.Errorf("Round() = %d, want 1", s.Round())
	}

	again := mustDraw(t, s)
	if again.Kind != DrawSessionComplete {
		t.Errorf("draw after completion kind = %v, want session complete", again.Kind)
	}
}

func TestNextChainsRoundBoundary(t *testing.T) {
	s := startedScheduler(t, 2, 11)

	d, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	mustDecide(t, s, DecisionReviewAgain)
	retried := d.Index

	d, err = s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if d.NewRound {
		t.Error("second card of round 1 should not report a new round")
	}
	mustDecide(t, s, DecisionKnown)

	d, err = s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if d.Kind != DrawCard || !d.NewRound || d.Round != 2 || d.Index != retried {
		t.Fatalf("Next() = %+v, want card %d opening round 2", d, retried)
	}
}

func TestRestartAfterCompletion(t *testing.T) {
	s := startedScheduler(t, 1, 1)
	mustDraw(t, s)
	mustDecide(t, s, DecisionKnown)
	if d := mustDraw(t, s); d.Kind != DrawSessionComplete {
		t.Fatalf("draw kind = %v, want session complete", d.Kind)
	}

	snap, _ := Load("other", testCards(2))
	if err := s.Start(snap); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := s.Status(); got.Round != 1 || got.RemainingActive != 2 || got.Known != 0 {
		t.Errorf("Status() after restart = %+v", got)
	}
}

// runSession drives a scheduler to completion using decide to choose each
// decision, checking the scheduler's invariants along the way.
func runSession(t *testing.T, s *Scheduler, decide func(round int, d Draw) Decision) (rounds int, knownCount map[int]int) {
	t.Helper()

	total := s.Status().Total
	knownCount = make(map[int]int)
	seenThisRound := make(map[int]bool)
	round := 1
	limit := total * total * 100

	for steps := 0; ; steps++ {
		if steps > limit {
			t.Fatalf("session did not terminate after %d steps", limit)
		}

		d := mustDraw(t, s)
		switch d.Kind {
		case DrawSessionComplete:
			return round, knownCount
		case DrawRoundComplete:
			if d.Round != round+1 {
				t.Fatalf("round went from %d to %d", round, d.Round)
			}
			round = d.Round
			seenThisRound = make(map[int]bool)
			continue
		}

		if seenThisRound[d.Index] {
			t.Fatalf("card %d drawn twice in round %d", d.Index, round)
		}
		seenThisRound[d.Index] = true
		if knownCount[d.Index] > 0 {
			t.Fatalf("card %d drawn after being marked known", d.Index)
		}

		st := s.Status()
		if st.Known+st.RemainingActive+st.RemainingRetry+1 != total {
			t.Fatalf("cards lost or duplicated: %+v with one card shown", st)
		}

		dec := decide(round, d)
		mustDecide(t, s, dec)
		if dec == DecisionKnown {
			knownCount[d.Index]++
		}
	}
}

func TestRandomSessionsKeepInvariants(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		size := 1 + rng.Intn(25)
		s := startedScheduler(t, size, seed)

		rounds, knownCount := runSession(t, s, func(int, Draw) Decision {
			if rng.Intn(2) == 0 {
				return DecisionReviewAgain
			}
			return DecisionKnown
		})

		if len(knownCount) != size {
			t.Fatalf("seed %d: %d of %d cards marked known", seed, len(knownCount), size)
		}
		for idx, n := range knownCount {
			if n != 1 {
				t.Fatalf("seed %d: card %d marked known %d times", seed, idx, n)
			}
		}
		if rounds != s.Round() {
			t.Fatalf("seed %d: observed %d rounds, scheduler reports %d", seed, rounds, s.Round())
		}
	}
}

func TestWorstCaseOneCardPerRound(t *testing.T) {
	const size = 6
	s := startedScheduler(t, size, 99)

	firstOfRound := 0
	rounds, knownCount := runSession(t, s, func(round int, d Draw) Decision {
		if round != firstOfRound {
			firstOfRound = round
			return DecisionKnown
		}
		return DecisionReviewAgain
	})

	if rounds != size {
		t.Errorf("rounds = %d, want %d", rounds, size)
	}
	if len(knownCount) != size {
		t.Errorf("known cards = %d, want %d", len(knownCount), size)
	}
}

func TestRetriedCardWaitsForNextRound(t *testing.T) {
	// Retry every card in round 1: none may reappear until round 2.
	s := startedScheduler(t, 5, 21)

	retried := make(map[int]bool)
	for i := 0; i < 5; i++ {
		d := mustDraw(t, s)
		if d.Kind != DrawCard {
			t.Fatalf("draw %d kind = %v, want card", i+1, d.Kind)
		}
		if retried[d.Index] {
			t.Fatalf("card %d resurfaced in the round it was retried", d.Index)
		}
		retried[d.Index] = true
		mustDecide(t, s, DecisionReviewAgain)
	}

	if st := s.Status(); st.RemainingActive != 0 || st.RemainingRetry != 5 {
		t.Fatalf("Status() = %+v, want 0 active and 5 retry", st)
	}
	if d := mustDraw(t, s); d.Kind != DrawRoundComplete {
		t.Fatalf("draw kind = %v, want round complete", d.Kind)
	}
	st, _ := s.State()
	if st.ActiveBucket != BucketB {
		t.Errorf("ActiveBucket = %v, want B after first boundary", st.ActiveBucket)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := startedScheduler(t, 5, 13)
	mustDraw(t, s)
	mustDecide(t, s, DecisionReviewAgain)
	mustDraw(t, s)
	mustDecide(t, s, DecisionKnown)
	shown := mustDraw(t, s)

	st, err := s.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(st, decoded); diff != "" {
		t.Fatalf("state changed through JSON (-want +got):\n%s", diff)
	}

	resumed := NewScheduler(WithSeed(1))
	if err := resumed.Restore(s.Snapshot(), decoded); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if diff := cmp.Diff(s.Status(), resumed.Status()); diff != "" {
		t.Errorf("Status() mismatch after restore (-want +got):\n%s", diff)
	}

	card, idx, ok := resumed.Current()
	if !ok || idx != shown.Index || card != shown.Card {
		t.Errorf("Current() = %v, %d, %v; want card %d", card, idx, ok, shown.Index)
	}
	mustDecide(t, resumed, DecisionKnown)
}

func TestRestoreRejectsCorruptState(t *testing.T) {
	snap, _ := Load("deck", testCards(3))
	two := 2
	five := 5

	tests := []struct {
		name    string
		state   State
		wantErr error
	}{
		{
			name:    "round zero",
			state:   State{Round: 0, Active: []int{0, 1, 2}},
			wantErr: ErrInvalidState,
		},
		{
			name:    "bad bucket",
			state:   State{Round: 1, Active: []int{0, 1, 2}, ActiveBucket: Bucket(7)},
			wantErr: ErrInvalidState,
		},
		{
			name:    "index out of range",
			state:   State{Round: 1, Active: []int{0, 1, 3}},
			wantErr: ErrUnknownIndex,
		},
		{
			name:    "current out of range",
			state:   State{Round: 1, Active: []int{0, 1}, Current: &five, Known: 0},
			wantErr: ErrUnknownIndex,
		},
		{
			name:    "index in both buckets",
			state:   State{Round: 2, Active: []int{0}, Retry: []int{0}, Known: 2},
			wantErr: ErrUnknownIndex,
		},
		{
			name:    "current also queued",
			state:   State{Round: 1, Active: []int{0, 2}, Current: &two, Known: 1},
			wantErr: ErrUnknownIndex,
		},
		{
			name:    "known count mismatch",
			state:   State{Round: 1, Active: []int{0}, Known: 0},
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler()
			err := s.Restore(snap, tt.state)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restore() error = %v, want %v", err, tt.wantErr)
			}
			if s.Phase() != PhaseNotStarted {
				t.Errorf("Phase() = %v, want scheduler left untouched", s.Phase())
			}
		})
	}
}

func TestRestoreCompletedState(t *testing.T) {
	snap, _ := Load("deck", testCards(2))
	s := NewScheduler()
	if err := s.Restore(snap, State{Round: 3, Known: 2, ActiveBucket: BucketB}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if s.Phase() != PhaseSessionComplete {
		t.Errorf("Phase() = %v, want session_complete", s.Phase())
	}
}

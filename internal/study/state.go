package study

import (
	"fmt"
)

// Bucket tags one of the scheduler's two card buckets
type Bucket int

const (
	BucketA Bucket = iota
	BucketB
)

// Other returns the opposite bucket
func (b Bucket) Other() Bucket {
	return 1 - b
}

func (b Bucket) String() string {
	if b == BucketB {
		return "B"
	}
	return "A"
}

// ParseBucket parses "A" or "B"
func ParseBucket(s string) (Bucket, error) {
	switch s {
	case "A", "a":
		return BucketA, nil
	case "B", "b":
		return BucketB, nil
	default:
		return 0, fmt.Errorf("%w: bucket %q", ErrInvalidState, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// State is the serializable form of a scheduler session. Active holds the
// contents of the active bucket and Retry the contents of the other one.
type State struct {
	Round        int    `json:"round"`
	Active       []int  `json:"active"`
	Retry        []int  `json:"retry"`
	Current      *int   `json:"current,omitempty"`
	ActiveBucket Bucket `json:"active_bucket"`
	Known        int    `json:"known"`
}

// State exports the session for persistence. It fails before Start.
func (s *Scheduler) State() (State, error) {
	if s.phase == PhaseNotStarted {
		return State{}, fmt.Errorf("%w: scheduler not started", ErrInvalidState)
	}

	st := State{
		Round:        s.round,
		Active:       append([]int{}, s.buckets[s.active]...),
		Retry:        append([]int{}, s.buckets[s.active.Other()]...),
		ActiveBucket: s.active,
		Known:        s.known,
	}
	if s.phase == PhaseCardShown {
		cur := s.current
		st.Current = &cur
	}
	return st, nil
}

// Restore resumes a session from persisted state. The state is checked
// against the snapshot before anything is applied; on error the scheduler
// is left unchanged.
func (s *Scheduler) Restore(snapshot *Snapshot, st State) error {
	if snapshot == nil || snapshot.Size() == 0 {
		return ErrEmptyDeck
	}
	if st.Round < 1 {
		return fmt.Errorf("%w: round %d", ErrInvalidState, st.Round)
	}
	if st.ActiveBucket != BucketA && st.ActiveBucket != BucketB {
		return fmt.Errorf("%w: bucket %d", ErrInvalidState, int(st.ActiveBucket))
	}

	size := snapshot.Size()
	seen := make(map[int]bool, size)
	check := func(idx int) error {
		if idx < 0 || idx >= size {
			return fmt.Errorf("%w: %d (deck size %d)", ErrUnknownIndex, idx, size)
		}
		if seen[idx] {
			return fmt.Errorf("%w: %d appears more than once", ErrUnknownIndex, idx)
		}
		seen[idx] = true
		return nil
	}
	for _, idx := range st.Active {
		if err := check(idx); err != nil {
			return err
		}
	}
	for _, idx := range st.Retry {
		if err := check(idx); err != nil {
			return err
		}
	}
	if st.Current != nil {
		if err := check(*st.Current); err != nil {
			return err
		}
	}
	if st.Known != size-len(seen) {
		return fmt.Errorf("%w: known count %d does not match %d retired cards", ErrInvalidState, st.Known, size-len(seen))
	}

	s.snapshot = snapshot
	s.round = st.Round
	s.active = st.ActiveBucket
	s.buckets[s.active] = append([]int{}, st.Active...)
	s.buckets[s.active.Other()] = append([]int{}, st.Retry...)
	s.known = st.Known
	s.current = -1

	switch {
	case st.Current != nil:
		s.current = *st.Current
		s.phase = PhaseCardShown
	case len(st.Active) == 0 && len(st.Retry) == 0:
		s.phase = PhaseSessionComplete
	default:
		s.phase = PhaseAwaitingDraw
	}
	return nil
}

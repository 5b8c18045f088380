package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"flashdeck/internal/models"
	"flashdeck/internal/repository"
	"flashdeck/internal/study"
)

// ErrSessionNotFound is returned for unknown, expired or finished sessions
var ErrSessionNotFound = repository.ErrSessionNotFound

// ErrStaleDecision is returned when a decision names a card other than the
// one currently shown, such as a repeated form submission
var ErrStaleDecision = fmt.Errorf("%w: decision is for a card that is no longer shown", study.ErrInvalidState)

// DeckLibrary lists and loads decks
type DeckLibrary interface {
	List() ([]models.DeckInfo, error)
	Load(name string) ([]models.Card, error)
}

// SessionStore persists live study sessions
type SessionStore interface {
	Save(s *study.Session) error
	Get(id string) (*study.Session, error)
	List(limit int) ([]study.Session, error)
	Delete(id string) error
	DeleteIdle(before time.Time) (int64, error)
}

// HistoryStore records finished sessions
type HistoryStore interface {
	Record(c *models.CompletedSession) error
	GetBySessionID(sessionID string) (*models.CompletedSession, error)
	Recent(limit int) ([]models.CompletedSession, error)
	DeckSummary(deckName string) (*models.DeckSummary, error)
}

// View is what a client needs to render a study session. CardIndex
// identifies the shown card and must be echoed back with a decision; it is
// -1 when no card is shown.
type View struct {
	SessionID    string
	DeckName     string
	Card         models.Card
	CardIndex    int
	HasCard      bool
	ShowAnswer   bool
	RoundStarted bool
	Finished     bool
	Status       study.Status
}

// StudyOption configures a StudyService
type StudyOption func(*StudyService)

// WithSeed makes card order reproducible
func WithSeed(seed int64) StudyOption {
	return func(s *StudyService) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) StudyOption {
	return func(s *StudyService) {
		s.now = now
	}
}

// StudyService runs study sessions on behalf of the web and terminal
// front ends. Every session is rebuilt from the store on each call and
// saved back, so requests for one session are serialized with a per-ID lock.
type StudyService struct {
	library DeckLibrary
	store   SessionStore
	history HistoryStore

	locks sessionLocks
	now   func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewStudyService creates a new study service
func NewStudyService(library DeckLibrary, store SessionStore, history HistoryStore, opts ...StudyOption) *StudyService {
	s := &StudyService{
		library: library,
		store:   store,
		history: history,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Decks lists the decks available to study
func (s *StudyService) Decks() ([]models.DeckInfo, error) {
	return s.library.List()
}

// Start loads a deck, draws its first card and stores the new session
func (s *StudyService) Start(deckName string) (*study.Session, error) {
	cards, err := s.library.Load(deckName)
	if err != nil {
		return nil, err
	}
	snap, err := study.Load(deckName, cards)
	if err != nil {
		return nil, err
	}

	sched := s.newScheduler()
	if err := sched.Start(snap); err != nil {
		return nil, err
	}
	if _, err := sched.Next(); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &study.Session{
		ID:        uuid.New().String(),
		DeckName:  snap.Name(),
		Cards:     snap.Cards(),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := sess.Capture(sched); err != nil {
		return nil, err
	}
	if err := s.store.Save(sess); err != nil {
		return nil, err
	}

	log.Printf("Started study session %s on deck %q (%d cards)", sess.ID, sess.DeckName, len(sess.Cards))
	return sess, nil
}

// Current returns the card awaiting a decision
func (s *StudyService) Current(id string) (*View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, sched, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return buildView(sess, sched), nil
}

// ShowAnswer reveals the back of the current card
func (s *StudyService) ShowAnswer(id string) (*View, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, sched, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !sess.ShowAnswer {
		sess.ShowAnswer = true
		sess.UpdatedAt = s.now()
		if err := s.store.Save(sess); err != nil {
			return nil, err
		}
	}
	return buildView(sess, sched), nil
}

// Decide records the decision for the card at index shown and draws the
// next one. A decision for any card but the one currently shown fails with
// ErrStaleDecision and leaves the session unchanged. When no cards remain
// the session is moved to history and the returned view has Finished set.
func (s *StudyService) Decide(id, decision string, shown int) (*View, error) {
	d, err := study.ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	sess, sched, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if _, current, ok := sched.Current(); !ok || current != shown {
		return nil, fmt.Errorf("%w: card %d", ErrStaleDecision, shown)
	}
	if err := sched.RecordDecision(d); err != nil {
		return nil, err
	}
	if d == study.DecisionReviewAgain {
		sess.Reviews++
	}

	draw, err := sched.Next()
	if err != nil {
		return nil, err
	}
	now := s.now()

	if draw.Kind == study.DrawSessionComplete {
		return s.finish(sess, sched, now)
	}

	if err := sess.Capture(sched); err != nil {
		return nil, err
	}
	sess.ShowAnswer = false
	sess.RoundStarted = draw.NewRound
	sess.UpdatedAt = now
	if err := s.store.Save(sess); err != nil {
		return nil, err
	}
	return buildView(sess, sched), nil
}

func (s *StudyService) finish(sess *study.Session, sched *study.Scheduler, now time.Time) (*View, error) {
	completed := &models.CompletedSession{
		SessionID:   sess.ID,
		DeckName:    sess.DeckName,
		TotalCards:  len(sess.Cards),
		Rounds:      sched.Round(),
		Reviews:     sess.Reviews,
		StartedAt:   sess.StartedAt,
		CompletedAt: now,
	}
	if err := s.history.Record(completed); err != nil {
		return nil, err
	}
	if err := s.store.Delete(sess.ID); err != nil {
		log.Printf("Failed to delete finished session %s: %v", sess.ID, err)
	}

	log.Printf("Finished study session %s on deck %q in %d rounds", sess.ID, sess.DeckName, completed.Rounds)
	return &View{
		SessionID: sess.ID,
		DeckName:  sess.DeckName,
		CardIndex: -1,
		Finished:  true,
		Status:    sched.Status(),
	}, nil
}

// Status reports progress of a live session
func (s *StudyService) Status(id string) (study.Status, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	_, sched, err := s.load(id)
	if err != nil {
		return study.Status{}, err
	}
	return sched.Status(), nil
}

// Completed returns the history record of a finished session
func (s *StudyService) Completed(id string) (*models.CompletedSession, error) {
	return s.history.GetBySessionID(id)
}

// Abandon discards a live session
func (s *StudyService) Abandon(id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Delete(id); err != nil {
		return err
	}
	log.Printf("Abandoned study session %s", id)
	return nil
}

// History returns recently finished sessions
func (s *StudyService) History(limit int) ([]models.CompletedSession, error) {
	return s.history.Recent(limit)
}

// DeckSummary aggregates the history of one deck
func (s *StudyService) DeckSummary(deckName string) (*models.DeckSummary, error) {
	return s.history.DeckSummary(deckName)
}

// Sessions returns live sessions, most recently active first
func (s *StudyService) Sessions(limit int) ([]study.Session, error) {
	return s.store.List(limit)
}

// CleanupIdleSessions removes sessions inactive for longer than maxIdle
func (s *StudyService) CleanupIdleSessions(maxIdle time.Duration) (int64, error) {
	n, err := s.store.DeleteIdle(s.now().Add(-maxIdle))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Removed %d idle study sessions", n)
	}
	return n, nil
}

func (s *StudyService) newScheduler() *study.Scheduler {
	s.rngMu.Lock()
	seed := s.rng.Int63()
	s.rngMu.Unlock()
	return study.NewScheduler(study.WithSeed(seed))
}

// load fetches a session and rebuilds its scheduler
func (s *StudyService) load(id string) (*study.Session, *study.Scheduler, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, nil, err
	}

	sched := s.newScheduler()
	if err := sess.Resume(sched); err != nil {
		return nil, nil, fmt.Errorf("session %s: %w", id, err)
	}
	return sess, sched, nil
}

func buildView(sess *study.Session, sched *study.Scheduler) *View {
	v := &View{
		SessionID:    sess.ID,
		DeckName:     sess.DeckName,
		CardIndex:    -1,
		ShowAnswer:   sess.ShowAnswer,
		RoundStarted: sess.RoundStarted,
		Status:       sched.Status(),
	}
	if card, idx, ok := sched.Current(); ok {
		v.Card = card
		v.CardIndex = idx
		v.HasCard = true
	}
	v.Finished = sched.Phase() == study.PhaseSessionComplete
	return v
}

// IsClientError reports whether err was caused by bad input rather than a
// server fault
func IsClientError(err error) bool {
	return errors.Is(err, study.ErrInvalidDecision) ||
		errors.Is(err, study.ErrInvalidState) ||
		errors.Is(err, study.ErrEmptyDeck)
}

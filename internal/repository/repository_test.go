package repository

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flashdeck/internal/database"
	"flashdeck/internal/models"
	"flashdeck/internal/study"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func sampleSession(id string, updated time.Time) *study.Session {
	cur := 2
	return &study.Session{
		ID:       id,
		DeckName: "verbs",
		Cards: []models.Card{
			{ID: 1, Front: "go", Back: "가다"},
			{ID: 2, Front: "eat", Back: "먹다", Example: "I eat rice."},
			{ID: 3, Front: "see", Back: "보다", Explanation: "to look at"},
		},
		State: study.State{
			Round:        2,
			Active:       []int{0},
			Retry:        []int{},
			Current:      &cur,
			ActiveBucket: study.BucketB,
			Known:        1,
		},
		Reviews:    2,
		ShowAnswer: true,
		StartedAt:  updated.Add(-time.Hour),
		UpdatedAt:  updated,
	}
}

// sessionStore is the behavior shared by both store implementations
type sessionStore interface {
	Save(s *study.Session) error
	Get(id string) (*study.Session, error)
	List(limit int) ([]study.Session, error)
	Delete(id string) error
	DeleteIdle(before time.Time) (int64, error)
}

func storeImplementations(t *testing.T) map[string]sessionStore {
	t.Helper()
	stores := map[string]sessionStore{
		"memory": NewMemorySessionStore(),
	}
	if !testing.Short() {
		stores["sql"] = NewStudySessionRepository(openTestDB(t))
	}
	return stores
}

var timeEqual = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })

func TestSessionStoreRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSession("5b0e3f2a-8c1d-4f6e-9a7b-2c3d4e5f6a7b", now)
			if err := store.Save(want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Get(want.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if diff := cmp.Diff(want, got, timeEqual); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}

			// Update the mutable fields
			want.State.Current = nil
			want.State.Active = []int{}
			want.State.Retry = []int{2}
			want.State.Known = 1
			want.Reviews = 3
			want.RoundStarted = true
			want.ShowAnswer = false
			want.UpdatedAt = now.Add(time.Minute)
			if err := store.Save(want); err != nil {
				t.Fatalf("Save() update error = %v", err)
			}
			got, err = store.Get(want.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if diff := cmp.Diff(want, got, timeEqual); diff != "" {
				t.Errorf("Get() after update mismatch (-want +got):\n%s", diff)
			}

			if err := store.Delete(want.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(want.ID); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
			}
		})
	}
}

func TestSessionStoreDeleteIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			sessions := []*study.Session{
				sampleSession("old-1", now.Add(-48*time.Hour)),
				sampleSession("old-2", now.Add(-7*time.Hour)),
				sampleSession("fresh", now.Add(-time.Hour)),
			}
			for _, s := range sessions {
				if err := store.Save(s); err != nil {
					t.Fatalf("Save(%s) error = %v", s.ID, err)
				}
			}

			n, err := store.DeleteIdle(now.Add(-6 * time.Hour))
			if err != nil {
				t.Fatalf("DeleteIdle() error = %v", err)
			}
			if n != 2 {
				t.Errorf("DeleteIdle() removed %d sessions, want 2", n)
			}

			remaining, err := store.List(10)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(remaining) != 1 || remaining[0].ID != "fresh" {
				t.Errorf("List() after DeleteIdle = %v, want only fresh", remaining)
			}
		})
	}
}

func TestStateColumnLayout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	repo := NewStudySessionRepository(db)
	s := sampleSession("layout", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s.RoundStarted = true
	if err := repo.Save(s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var raw string
	if err := db.QueryRow("SELECT state_json FROM study_sessions WHERE id = ?", s.ID).Scan(&raw); err != nil {
		t.Fatalf("failed to read state_json: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("state_json is not JSON: %v", err)
	}

	want := map[string]interface{}{
		"round":         float64(2),
		"active":        []interface{}{float64(0)},
		"retry":         []interface{}{},
		"current":       float64(2),
		"active_bucket": "B",
		"known":         float64(1),
		"round_started": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state_json mismatch (-want +got):\n%s", diff)
	}
}

func TestMemorySessionStoreCopies(t *testing.T) {
	store := NewMemorySessionStore()
	s := sampleSession("copy", time.Now())
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}

	s.State.Active[0] = 99
	*s.State.Current = 99
	s.Cards[0].Front = "changed"

	got, err := store.Get("copy")
	if err != nil {
		t.Fatal(err)
	}
	if got.State.Active[0] != 0 || *got.State.Current != 2 || got.Cards[0].Front != "go" {
		t.Errorf("stored session changed with caller's copy: %+v", got)
	}
}

func TestHistoryRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo := NewHistoryRepository(openTestDB(t))
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	summary, err := repo.DeckSummary("verbs")
	if err != nil {
		t.Fatalf("DeckSummary() error = %v", err)
	}
	if summary.Sessions != 0 || summary.LastStudied != nil {
		t.Errorf("DeckSummary() on empty history = %+v", summary)
	}

	records := []*models.CompletedSession{
		{SessionID: "s1", DeckName: "verbs", TotalCards: 10, Rounds: 2, Reviews: 3, StartedAt: base, CompletedAt: base.Add(10 * time.Minute)},
		{SessionID: "s2", DeckName: "nouns", TotalCards: 5, Rounds: 1, StartedAt: base, CompletedAt: base.Add(20 * time.Minute)},
		{SessionID: "s3", DeckName: "verbs", TotalCards: 10, Rounds: 4, Reviews: 8, StartedAt: base, CompletedAt: base.Add(30 * time.Minute)},
	}
	for _, r := range records {
		if err := repo.Record(r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if r.ID == 0 {
			t.Errorf("Record() did not set ID for %s", r.SessionID)
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	var ids []string
	for _, r := range recent {
		ids = append(ids, r.SessionID)
	}
	if diff := cmp.Diff([]string{"s3", "s2"}, ids); diff != "" {
		t.Errorf("Recent() order mismatch (-want +got):\n%s", diff)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 3 || all[0].SessionID != "s1" {
		t.Errorf("All() = %v", all)
	}

	summary, err = repo.DeckSummary("verbs")
	if err != nil {
		t.Fatalf("DeckSummary() error = %v", err)
	}
	if summary.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", summary.Sessions)
	}
	if summary.AvgRounds != 3 {
		t.Errorf("AvgRounds = %v, want 3", summary.AvgRounds)
	}
	if summary.LastStudied == nil || !summary.LastStudied.Equal(base.Add(30*time.Minute)) {
		t.Errorf("LastStudied = %v, want %v", summary.LastStudied, base.Add(30*time.Minute))
	}

	got, err := repo.GetBySessionID("s3")
	if err != nil {
		t.Fatalf("GetBySessionID() error = %v", err)
	}
	if got.Rounds != 4 || got.Duration() != 30*time.Minute {
		t.Errorf("GetBySessionID() = %+v", got)
	}
	if _, err := repo.GetBySessionID("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetBySessionID(missing) error = %v, want ErrSessionNotFound", err)
	}

	exists, err := repo.Exists("s2")
	if err != nil || !exists {
		t.Errorf("Exists(s2) = %v, %v", exists, err)
	}
	exists, err = repo.Exists("missing")
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v", exists, err)
	}
}

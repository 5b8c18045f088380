package study

import (
	"errors"
	"testing"

	"flashdeck/internal/models"
)

func testCards(n int) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{
			ID:    int64(i + 1),
			Front: string(rune('A' + i%26)),
			Back:  "back",
		}
	}
	return cards
}

func TestLoadEmptyDeck(t *testing.T) {
	tests := []struct {
		name  string
		cards []models.Card
	}{
		{name: "nil slice", cards: nil},
		{name: "empty slice", cards: []models.Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Load("empty", tt.cards)
			if !errors.Is(err, ErrEmptyDeck) {
				t.Fatalf("Load() error = %v, want ErrEmptyDeck", err)
			}
			if snap != nil {
				t.Error("Load() should not return a snapshot for an empty deck")
			}
		})
	}
}

func TestSnapshotAt(t *testing.T) {
	snap, err := Load("letters", testCards(3))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if snap.Size() != 3 {
		t.Errorf("Size() = %d, want 3", snap.Size())
	}
	if snap.Name() != "letters" {
		t.Errorf("Name() = %q, want letters", snap.Name())
	}

	card, err := snap.At(1)
	if err != nil {
		t.Fatalf("At(1) error = %v", err)
	}
	if card.Front != "B" {
		t.Errorf("At(1).Front = %q, want B", card.Front)
	}

	for _, idx := range []int{-1, 3, 100} {
		if _, err := snap.At(idx); !errors.Is(err, ErrUnknownIndex) {
			t.Errorf("At(%d) error = %v, want ErrUnknownIndex", idx, err)
		}
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	cards := testCards(2)
	snap, err := Load("deck", cards)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cards[0].Front = "changed"
	got, _ := snap.At(0)
	if got.Front != "A" {
		t.Errorf("snapshot changed with its input: Front = %q", got.Front)
	}

	out := snap.Cards()
	out[1].Front = "changed"
	got, _ = snap.At(1)
	if got.Front != "B" {
		t.Errorf("snapshot changed through Cards(): Front = %q", got.Front)
	}
}

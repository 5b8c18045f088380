// Package study implements the adaptive study-queue scheduler: cards are
// drawn in random order, cards marked for review are held back for the next
// round, and the session ends once every card has been marked known.
package study

import (
	"fmt"

	"flashdeck/internal/models"
)

// Snapshot is an immutable, indexed view of a deck's cards taken when a
// study session starts.
type Snapshot struct {
	name  string
	cards []models.Card
}

// Load builds a snapshot from an ordered list of cards. The cards are
// copied, so later changes to the slice do not leak into the session.
func Load(name string, cards []models.Card) (*Snapshot, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyDeck
	}
	c := make([]models.Card, len(cards))
	copy(c, cards)
	return &Snapshot{name: name, cards: c}, nil
}

// Name returns the deck name
func (s *Snapshot) Name() string {
	return s.name
}

// Size returns the number of cards
func (s *Snapshot) Size() int {
	return len(s.cards)
}

// At returns the card at index
func (s *Snapshot) At(index int) (models.Card, error) {
	if index < 0 || index >= len(s.cards) {
		return models.Card{}, fmt.Errorf("%w: %d (deck size %d)", ErrUnknownIndex, index, len(s.cards))
	}
	return s.cards[index], nil
}

// Cards returns a copy of all cards in snapshot order
func (s *Snapshot) Cards() []models.Card {
	c := make([]models.Card, len(s.cards))
	copy(c, s.cards)
	return c
}

package study

import "errors"

var (
	// ErrEmptyDeck is returned when a session is started without cards.
	ErrEmptyDeck = errors.New("deck has no cards")
	// ErrInvalidState is returned when an operation is called out of sequence.
	ErrInvalidState = errors.New("invalid scheduler state")
	// ErrInvalidDecision is returned for a decision other than known or review_again.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrUnknownIndex means session state references a card the snapshot does
	// not have. It indicates corrupted state, never a user mistake.
	ErrUnknownIndex = errors.New("unknown card index")
)

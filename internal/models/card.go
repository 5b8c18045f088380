package models

import "time"

// Card represents one flashcard loaded from a deck file
type Card struct {
	ID          int64  `json:"id"`
	Front       string `json:"front"`
	Back        string `json:"back"`
	Explanation string `json:"explanation,omitempty"`
	Example     string `json:"example,omitempty"`
}

// DeckInfo describes a deck file available in the deck folder
type DeckInfo struct {
	Name    string
	Path    string
	Format  string // "xlsx" or "csv"
	ModTime time.Time
}

// Package decks discovers deck files in a folder and reads their cards.
package decks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flashdeck/internal/models"
	"flashdeck/internal/validation"
)

var (
	ErrDeckNotFound    = errors.New("deck not found")
	ErrInvalidDeckName = errors.New("invalid deck name")
	ErrMissingColumns  = errors.New("deck is missing required columns")
	ErrInvalidCardID   = errors.New("invalid card id")
	ErrNoCards         = errors.New("deck has no usable cards")
)

// RequiredColumns are the header cells every deck must have
var RequiredColumns = []string{"id", "front", "back", "explanation", "example"}

// formats maps file extensions to the reader for that format, in lookup order
var formats = []struct {
	ext  string
	name string
	read func(path string) ([][]string, error)
}{
	{ext: ".xlsx", name: "xlsx", read: readXLSX},
	{ext: ".csv", name: "csv", read: readCSV},
}

// Library reads decks from a folder
type Library struct {
	dir string
}

// NewLibrary creates a library rooted at dir
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the deck folder
func (l *Library) Dir() string {
	return l.dir
}

// List returns all decks in the folder sorted by name, creating the
// folder if it does not exist yet.
func (l *Library) List() ([]models.DeckInfo, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create deck folder: %w", err)
	}
	return l.scan()
}

// scan returns one entry per deck name. An .xlsx file shadows a .csv file
// of the same name; extensions match regardless of case.
func (l *Library) scan() ([]models.DeckInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck folder: %w", err)
	}

	byName := make(map[string]int)
	var decks []models.DeckInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		rank := formatRank(entry.Name())
		if rank < 0 {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		deck := models.DeckInfo{
			Name:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:    filepath.Join(l.dir, entry.Name()),
			Format:  formats[rank].name,
			ModTime: info.ModTime(),
		}

		if i, ok := byName[deck.Name]; ok {
			if rank < formatRank(decks[i].Path) {
				decks[i] = deck
			}
			continue
		}
		byName[deck.Name] = len(decks)
		decks = append(decks, deck)
	}

	sort.Slice(decks, func(i, j int) bool {
		return decks[i].Name < decks[j].Name
	})
	return decks, nil
}

// Load reads the cards of the named deck from the same file List reports
// for that name.
func (l *Library) Load(name string) ([]models.Card, error) {
	if err := validation.ValidateDeckName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeckName, err)
	}

	deck, err := l.find(name)
	if err != nil {
		return nil, err
	}
	rows, err := formats[formatRank(deck.Path)].read(deck.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %s: %w", name, err)
	}
	return parseRows(rows)
}

func (l *Library) find(name string) (models.DeckInfo, error) {
	decks, err := l.scan()
	if errors.Is(err, os.ErrNotExist) {
		return models.DeckInfo{}, fmt.Errorf("%w: %s", ErrDeckNotFound, name)
	}
	if err != nil {
		return models.DeckInfo{}, err
	}
	for _, d := range decks {
		if d.Name == name {
			return d, nil
		}
	}
	return models.DeckInfo{}, fmt.Errorf("%w: %s", ErrDeckNotFound, name)
}

// formatRank returns the index into formats for a file name, or -1
func formatRank(filename string) int {
	ext := strings.ToLower(filepath.Ext(filename))
	for i, f := range formats {
		if ext == f.ext {
			return i
		}
	}
	return -1
}

// Count returns the number of usable cards in the named deck
func (l *Library) Count(name string) (int, error) {
	cards, err := l.Load(name)
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

// Package deck defines question/answer cards and loads them from YAML or
// JSON study files.
package deck

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDeck is returned when a deck file contains no cards.
	ErrEmptyDeck = errors.New("deck has no cards")

	// ErrDuplicateCardID is returned when two cards share an id.
	ErrDuplicateCardID = errors.New("duplicate card id")
)

// Card is a single question/answer pair. When Distractors is non-empty the
// options are authoritative and synthesis is skipped.
type Card struct {
	ID          string   `yaml:"id" json:"id"`
	Question    string   `yaml:"question" json:"question"`
	Answer      string   `yaml:"answer" json:"answer"`
	Distractors []string `yaml:"distractors,omitempty" json:"distractors,omitempty"`
}

// Deck is a named, ordered set of cards.
type Deck struct {
	Title string `yaml:"title" json:"title"`
	Cards []Card `yaml:"cards" json:"cards"`
}

// Card returns the card with the given id.
func (d *Deck) Card(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// normalize fills missing ids and checks id uniqueness.
func (d *Deck) normalize() error {
	if len(d.Cards) == 0 {
		return ErrEmptyDeck
	}
	seen := make(map[string]int, len(d.Cards))
	for i := range d.Cards {
		c := &d.Cards[i]
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = fmt.Sprintf("card-%d", i+1)
		}
		if prev, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: %q (cards %d and %d)", ErrDuplicateCardID, c.ID, prev+1, i+1)
		}
		seen[c.ID] = i
	}
	return nil
}

// Pool returns the cards other than the one with excludeID, in order.
func Pool(cards []Card, excludeID string) []Card {
	pool := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != excludeID {
			pool = append(pool, c)
		}
	}
	return pool
}

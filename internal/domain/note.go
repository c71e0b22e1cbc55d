package domain

import "time"

// DateLayout is the calendar-date format used everywhere in the app.
// Fixed-width and zero-padded, so string comparison of two dates is
// calendar comparison.
const DateLayout = "2006-01-02"

// DateKey returns the local calendar date of t as a YYYY-MM-DD string.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Note is an authored container of theory content plus its flashcards.
// A note exclusively owns its cards: deleting the note deletes them all.
// Card order is insertion order and matters for display, not scheduling.
type Note struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	CreatedAt  string `json:"createdAt"`
	Flashcards []Card `json:"flashcards"`
}

// Clone returns a deep copy of the note. Cards are plain values, so
// copying the slice detaches the clone from the live note completely.
func (n *Note) Clone() *Note {
	c := *n
	c.Flashcards = append([]Card(nil), n.Flashcards...)
	return &c
}

// FindCard returns a pointer to the card with the given id, or nil.
func (n *Note) FindCard(cardID string) *Card {
	for i := range n.Flashcards {
		if n.Flashcards[i].ID == cardID {
			return &n.Flashcards[i]
		}
	}
	return nil
}

// Package learning holds the knowledge base of notes and flashcards, the
// due-set selector over it, and the review session state machine.
package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ultiflow/ultiflow/internal/domain"
	"github.com/ultiflow/ultiflow/internal/srs"
)

// DefaultCategory is used when a note is created without one.
const DefaultCategory = "General"

// KnowledgeBase is the collection of all notes, newest first. It is an
// explicit container: construct it once at startup from durable storage
// and thread it through; there is no process-wide singleton. All
// operations are synchronous and in-memory. Persisting the result is the
// caller's concern and its failure never rolls the in-memory state back.
type KnowledgeBase struct {
	notes []*domain.Note

	// Now supplies the local calendar date for due checks and new due
	// dates. Override it in tests for determinism.
	Now func() time.Time
}

// NewKnowledgeBase builds a knowledge base over notes loaded from durable
// storage. A nil or empty slice is a fresh library.
func NewKnowledgeBase(notes []*domain.Note) *KnowledgeBase {
	return &KnowledgeBase{notes: notes, Now: time.Now}
}

// Notes returns the notes in display order (newest first by insertion).
func (kb *KnowledgeBase) Notes() []*domain.Note {
	return kb.notes
}

// Snapshot returns a deep copy of the notes. Use it when the notes will
// be read outside whatever synchronizes access to the knowledge base,
// for example on a background persistence goroutine.
func (kb *KnowledgeBase) Snapshot() []*domain.Note {
	notes := make([]*domain.Note, len(kb.notes))
	for i, n := range kb.notes {
		notes[i] = n.Clone()
	}
	return notes
}

// Today returns the current local date key.
func (kb *KnowledgeBase) Today() string {
	return domain.DateKey(kb.Now())
}

// CreateNote authors a new empty note at the front of the library.
// The title must be non-blank; the category defaults when omitted.
func (kb *KnowledgeBase) CreateNote(title, category string) (*domain.Note, error) {
	note, err := kb.newNote(title, category)
	if err != nil {
		return nil, err
	}
	kb.notes = append([]*domain.Note{note}, kb.notes...)
	return note, nil
}

// ImportNote is CreateNote for batch imports: the note goes to the back
// of the library, so a multi-file import keeps its file order instead of
// landing reversed.
func (kb *KnowledgeBase) ImportNote(title, category string) (*domain.Note, error) {
	note, err := kb.newNote(title, category)
	if err != nil {
		return nil, err
	}
	kb.notes = append(kb.notes, note)
	return note, nil
}

func (kb *KnowledgeBase) newNote(title, category string) (*domain.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	return &domain.Note{
		ID:        uuid.New().String(),
		Title:     title,
		Category:  category,
		CreatedAt: kb.Today(),
	}, nil
}

// DeleteNote removes a note and every card it owns. Deleting an absent id
// is a no-op: the end state is the same either way. Any confirmation
// prompt belongs to the caller, not here.
func (kb *KnowledgeBase) DeleteNote(noteID string) {
	for i, n := range kb.notes {
		if n.ID == noteID {
			kb.notes = append(kb.notes[:i], kb.notes[i+1:]...)
			return
		}
	}
}

// FindNote returns the note with the given id, or nil.
func (kb *KnowledgeBase) FindNote(noteID string) *domain.Note {
	for _, n := range kb.notes {
		if n.ID == noteID {
			return n
		}
	}
	return nil
}

// RenameNote updates a note's title in place.
func (kb *KnowledgeBase) RenameNote(noteID, title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	note := kb.FindNote(noteID)
	if note == nil {
		return ErrNotFound
	}
	note.Title = title
	return nil
}

// UpdateNoteContent replaces a note's theory content in place.
func (kb *KnowledgeBase) UpdateNoteContent(noteID, content string) error {
	note := kb.FindNote(noteID)
	if note == nil {
		return ErrNotFound
	}
	note.Content = content
	return nil
}

// AddCard appends a new flashcard to a note. The card starts at stage 0
// and is due today, so it appears in the very next due-set.
func (kb *KnowledgeBase) AddCard(noteID, question, answer string) (*domain.Card, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &ValidationError{Field: "question", Message: "must not be empty"}
	}
	if strings.TrimSpace(answer) == "" {
		return nil, &ValidationError{Field: "answer", Message: "must not be empty"}
	}
	note := kb.FindNote(noteID)
	if note == nil {
		return nil, ErrNotFound
	}
	card := domain.Card{
		ID:             uuid.New().String(),
		Question:       question,
		Answer:         answer,
		Stage:          0,
		NextReviewDate: kb.Today(),
	}
	note.Flashcards = append(note.Flashcards, card)
	return &note.Flashcards[len(note.Flashcards)-1], nil
}

// DeleteCard removes one card from one note. Absent ids are a no-op,
// matching DeleteNote.
func (kb *KnowledgeBase) DeleteCard(noteID, cardID string) {
	note := kb.FindNote(noteID)
	if note == nil {
		return
	}
	for i := range note.Flashcards {
		if note.Flashcards[i].ID == cardID {
			note.Flashcards = append(note.Flashcards[:i], note.Flashcards[i+1:]...)
			return
		}
	}
}

// TotalCards counts every card across the library.
func (kb *KnowledgeBase) TotalCards() int {
	total := 0
	for _, n := range kb.notes {
		total += len(n.Flashcards)
	}
	return total
}

// DueCard pairs a due card with the note that owns it, so a review
// outcome can be written back to the right place.
type DueCard struct {
	Note *domain.Note
	Card *domain.Card
}

// DueCards returns every card whose review date has arrived as of the
// given YYYY-MM-DD date, iterating notes in library order and cards in
// note order. It does not mutate anything; repeated calls on the same
// state return the same sequence.
func (kb *KnowledgeBase) DueCards(asOf string) []DueCard {
	var due []DueCard
	for _, n := range kb.notes {
		for i := range n.Flashcards {
			if n.Flashcards[i].Due(asOf) {
				due = append(due, DueCard{Note: n, Card: &n.Flashcards[i]})
			}
		}
	}
	return due
}

// CountDue is the due-set's length. It is defined as len(DueCards) so a
// dashboard badge can never disagree with the cards actually reviewable.
func (kb *KnowledgeBase) CountDue(asOf string) int {
	return len(kb.DueCards(asOf))
}

// applyReview writes a review outcome through to a card in the knowledge
// base. reviewedAt is the moment of answering, not the card's prior due
// date.
func (kb *KnowledgeBase) applyReview(dc DueCard, success bool, reviewedAt time.Time) error {
	note := kb.FindNote(dc.Note.ID)
	if note == nil {
		return ErrNotFound
	}
	card := note.FindCard(dc.Card.ID)
	if card == nil {
		return ErrNotFound
	}
	card.Stage, card.NextReviewDate = srs.Transition(card.Stage, success, reviewedAt)
	card.LastReviewed = domain.DateKey(reviewedAt)
	return nil
}

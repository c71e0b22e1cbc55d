package learning

import (
	"errors"
	"fmt"

	"github.com/ultiflow/ultiflow/internal/domain"
)

// Session replays a snapshot of due cards one at a time. It is ephemeral:
// it lives only as long as the user keeps reviewing, is never persisted,
// and abandoning it costs nothing, because every answer is written
// through to the knowledge base immediately.
//
// The queue snapshot is only used for display (question, answer, id);
// scheduling state always comes from the knowledge base at answer time.
type Session struct {
	kb       *KnowledgeBase
	queue    []DueCard
	position int
	revealed bool
}

// NewSession starts a review over the given due cards. An empty due-set
// refuses to start with ErrNothingDue.
func (kb *KnowledgeBase) NewSession(due []DueCard) (*Session, error) {
	if len(due) == 0 {
		return nil, ErrNothingDue
	}
	queue := make([]DueCard, len(due))
	copy(queue, due)
	return &Session{kb: kb, queue: queue}, nil
}

// Current returns the card being shown. Nil once the session is complete.
func (s *Session) Current() *domain.Card {
	if s.Complete() {
		return nil
	}
	return s.queue[s.position].Card
}

// Position is the zero-based index of the current card.
func (s *Session) Position() int { return s.position }

// Len is the number of cards snapshotted at session start.
func (s *Session) Len() int { return len(s.queue) }

// Revealed reports whether the current card's answer is showing.
func (s *Session) Revealed() bool { return s.revealed }

// Complete reports whether every card in the queue has been answered.
func (s *Session) Complete() bool { return s.position >= len(s.queue) }

// Reveal flips the current card to show its answer. Calling it on a
// completed session or an already-revealed card is out of sequence.
func (s *Session) Reveal() error {
	if s.Complete() {
		return fmt.Errorf("%w: reveal after completion", ErrInvalidState)
	}
	if s.revealed {
		return fmt.Errorf("%w: answer already revealed", ErrInvalidState)
	}
	s.revealed = true
	return nil
}

// Answer records the recall outcome for the current card and advances the
// queue. It is only legal after Reveal. The interval policy is applied
// with the knowledge base's current date as the review date, and the new
// stage, due date and lastReviewed are written into the owning note
// before the session moves on. The user cannot skip a card, but if its
// note or card was deleted since the session started, the outcome has
// nowhere to land and the queue advances without a write.
func (s *Session) Answer(success bool) error {
	if s.Complete() {
		return fmt.Errorf("%w: answer after completion", ErrInvalidState)
	}
	if !s.revealed {
		return fmt.Errorf("%w: answer before reveal", ErrInvalidState)
	}
	if err := s.kb.applyReview(s.queue[s.position], success, s.kb.Now()); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	s.position++
	s.revealed = false
	return nil
}

package learning

import (
	"errors"
	"testing"
	"time"

	"github.com/ultiflow/ultiflow/internal/domain"
)

// fixedClock pins the knowledge base to 2024-06-01 for deterministic dates.
func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func newTestKB(t *testing.T, notes ...*domain.Note) *KnowledgeBase {
	t.Helper()
	kb := NewKnowledgeBase(notes)
	kb.Now = fixedClock
	return kb
}

func TestCreateNote(t *testing.T) {
	kb := newTestKB(t)

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := kb.CreateNote("   ", "Go")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(kb.Notes()) != 0 {
			t.Error("rejected note should not be added")
		}
	})

	t.Run("category defaults", func(t *testing.T) {
		note, err := kb.CreateNote("TCP basics", "")
		if err != nil {
			t.Fatal(err)
		}
		if note.Category != DefaultCategory {
			t.Errorf("category: got %q, want %q", note.Category, DefaultCategory)
		}
		if note.CreatedAt != "2024-06-01" {
			t.Errorf("createdAt: got %q, want 2024-06-01", note.CreatedAt)
		}
	})

	t.Run("newest note first", func(t *testing.T) {
		second, err := kb.CreateNote("HTTP basics", "Networking")
		if err != nil {
			t.Fatal(err)
		}
		if kb.Notes()[0].ID != second.ID {
			t.Error("new note should be inserted at the front")
		}
	})
}

func TestDeleteNoteRemovesCards(t *testing.T) {
	kb := newTestKB(t)
	note, _ := kb.CreateNote("Doomed", "")
	if _, err := kb.AddCard(note.ID, "q", "a"); err != nil {
		t.Fatal(err)
	}

	kb.DeleteNote(note.ID)
	if kb.FindNote(note.ID) != nil {
		t.Error("note should be gone")
	}
	if kb.TotalCards() != 0 {
		t.Error("deleting a note should delete its cards")
	}

	// Deleting again is a harmless no-op.
	kb.DeleteNote(note.ID)
}

func TestRenameAndUpdateContent(t *testing.T) {
	kb := newTestKB(t)
	note, _ := kb.CreateNote("Old title", "")

	if err := kb.RenameNote(note.ID, "New title"); err != nil {
		t.Fatal(err)
	}
	if note.Title != "New title" {
		t.Errorf("title: got %q", note.Title)
	}

	if err := kb.UpdateNoteContent(note.ID, "theory"); err != nil {
		t.Fatal(err)
	}
	if note.Content != "theory" {
		t.Errorf("content: got %q", note.Content)
	}

	if err := kb.RenameNote("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename missing note: got %v, want ErrNotFound", err)
	}
	if err := kb.UpdateNoteContent("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing note: got %v, want ErrNotFound", err)
	}
}

func TestAddCard(t *testing.T) {
	kb := newTestKB(t)
	note, _ := kb.CreateNote("Go", "")

	t.Run("blank question or answer rejected", func(t *testing.T) {
		var verr *ValidationError
		if _, err := kb.AddCard(note.ID, "  ", "a"); !errors.As(err, &verr) {
			t.Errorf("blank question: got %v", err)
		}
		if _, err := kb.AddCard(note.ID, "q", "\t"); !errors.As(err, &verr) {
			t.Errorf("blank answer: got %v", err)
		}
	})

	t.Run("unknown note", func(t *testing.T) {
		if _, err := kb.AddCard("missing", "q", "a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("new card is due immediately", func(t *testing.T) {
		card, err := kb.AddCard(note.ID, "what is a goroutine?", "a lightweight thread")
		if err != nil {
			t.Fatal(err)
		}
		if card.Stage != 0 {
			t.Errorf("stage: got %d, want 0", card.Stage)
		}
		if card.NextReviewDate != "2024-06-01" {
			t.Errorf("nextReviewDate: got %q, want 2024-06-01", card.NextReviewDate)
		}
		if card.LastReviewed != "" {
			t.Errorf("lastReviewed should be empty for a never-reviewed card")
		}
		if kb.CountDue("2024-06-01") != 1 {
			t.Error("new card should appear in the same-day due set")
		}
	})
}

func TestDeleteCard(t *testing.T) {
	kb := newTestKB(t)
	note, _ := kb.CreateNote("Go", "")
	card, _ := kb.AddCard(note.ID, "q", "a")

	kb.DeleteCard(note.ID, card.ID)
	if len(note.Flashcards) != 0 {
		t.Error("card should be gone")
	}
	// Absent ids are no-ops.
	kb.DeleteCard(note.ID, card.ID)
	kb.DeleteCard("missing", card.ID)
}

func TestImportNoteAppends(t *testing.T) {
	kb := newTestKB(t)
	kb.CreateNote("Authored", "")
	kb.ImportNote("First deck", "")
	kb.ImportNote("Second deck", "")

	got := make([]string, 0, 3)
	for _, n := range kb.Notes() {
		got = append(got, n.Title)
	}
	want := []string{"Authored", "First deck", "Second deck"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("library order: got %v, want %v", got, want)
		}
	}

	if _, err := kb.ImportNote("  ", ""); err == nil {
		t.Error("blank title should be rejected like CreateNote")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	kb := newTestKB(t)
	note, _ := kb.CreateNote("Go", "")
	kb.AddCard(note.ID, "q", "a")

	snap := kb.Snapshot()
	note.Title = "renamed"
	note.Flashcards[0].Stage = 3
	kb.AddCard(note.ID, "q2", "a2")

	if snap[0].Title != "Go" {
		t.Errorf("snapshot title: %q", snap[0].Title)
	}
	if len(snap[0].Flashcards) != 1 || snap[0].Flashcards[0].Stage != 0 {
		t.Errorf("snapshot cards must not see later mutations: %+v", snap[0].Flashcards)
	}
}

func TestDueCards(t *testing.T) {
	early := &domain.Note{ID: "n1", Title: "early", Flashcards: []domain.Card{
		{ID: "c1", Question: "q1", Answer: "a1", NextReviewDate: "2024-05-30"},
	}}
	late := &domain.Note{ID: "n2", Title: "late", Flashcards: []domain.Card{
		{ID: "c2", Question: "q2", Answer: "a2", NextReviewDate: "2024-06-02"},
	}}
	kb := newTestKB(t, early, late)

	due := kb.DueCards("2024-06-01")
	if len(due) != 1 {
		t.Fatalf("due set: got %d cards, want 1", len(due))
	}
	if due[0].Card.ID != "c1" || due[0].Note.ID != "n1" {
		t.Errorf("due card should be c1 of n1, got %s of %s", due[0].Card.ID, due[0].Note.ID)
	}
	if kb.CountDue("2024-06-01") != len(due) {
		t.Error("CountDue must equal len(DueCards)")
	}

	// A card due exactly today is due.
	if got := kb.CountDue("2024-06-02"); got != 2 {
		t.Errorf("count as of 2024-06-02: got %d, want 2", got)
	}
}

func TestDueCardsDeterministicOrder(t *testing.T) {
	kb := newTestKB(t)
	for _, title := range []string{"a", "b", "c"} {
		note, _ := kb.CreateNote(title, "")
		kb.AddCard(note.ID, title+"1", "x")
		kb.AddCard(note.ID, title+"2", "x")
	}

	first := kb.DueCards("2024-06-01")
	second := kb.DueCards("2024-06-01")
	if len(first) != 6 || len(second) != 6 {
		t.Fatalf("due counts: %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Card.ID != second[i].Card.ID {
			t.Fatalf("order differs at %d", i)
		}
	}
	// Library order: newest note first, then card insertion order.
	if first[0].Card.Question != "c1" || first[1].Card.Question != "c2" {
		t.Errorf("expected note c's cards first, got %q, %q", first[0].Card.Question, first[1].Card.Question)
	}
}

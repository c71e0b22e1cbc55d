package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ultiflow/ultiflow/internal/learning"
)

func writeDeck(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func importTestKB() *learning.KnowledgeBase {
	kb := learning.NewKnowledgeBase(nil)
	kb.Now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return kb
}

func TestImportDirCreatesNotesAndCards(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "go.md", "# Go Basics\nQ: q1?\nA: a1\n---\nQ: q2?\nA: a2\n")
	writeDeck(t, dir, "networking/tcp.md", "Q: q3?\nA: a3\n")
	writeDeck(t, dir, "notes.txt", "Q: not markdown\nA: ignored\n")

	kb := importTestKB()
	stats, err := ImportDir(kb, dir)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Files != 2 {
		t.Errorf("files: got %d, want 2", stats.Files)
	}
	if stats.NotesAdded != 2 || stats.CardsAdded != 3 {
		t.Errorf("added: %d notes, %d cards; want 2, 3", stats.NotesAdded, stats.CardsAdded)
	}

	var tcp, goBasics bool
	for _, n := range kb.Notes() {
		switch n.Title {
		case "tcp":
			tcp = true
			if n.Category != "networking" {
				t.Errorf("tcp category: %q", n.Category)
			}
		case "Go Basics":
			goBasics = true
			if n.Category != ImportCategory {
				t.Errorf("Go Basics category: %q", n.Category)
			}
			if len(n.Flashcards) != 2 {
				t.Errorf("Go Basics card count: %d", len(n.Flashcards))
			}
		}
	}
	if !tcp || !goBasics {
		t.Error("expected notes for both decks")
	}

	// Imported cards are brand new: immediately due.
	if kb.CountDue("2024-06-01") != 3 {
		t.Errorf("due count: %d, want 3", kb.CountDue("2024-06-01"))
	}
}

func TestImportDirKeepsWalkOrder(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "alpha.md", "Q: q?\nA: a\n")
	writeDeck(t, dir, "beta.md", "Q: q?\nA: a\n")
	writeDeck(t, dir, "gamma.md", "Q: q?\nA: a\n")

	kb := importTestKB()
	authored, err := kb.CreateNote("Authored", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ImportDir(kb, dir); err != nil {
		t.Fatal(err)
	}

	// The authored note keeps its place and the decks land after it in
	// walk order, not reversed.
	want := []string{authored.Title, "alpha", "beta", "gamma"}
	notes := kb.Notes()
	if len(notes) != len(want) {
		t.Fatalf("note count: %d, want %d", len(notes), len(want))
	}
	for i, n := range notes {
		if n.Title != want[i] {
			t.Fatalf("order at %d: got %q, want %q", i, n.Title, want[i])
		}
	}
}

func TestImportDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, "go.md", "# Go Basics\nQ: q1?\nA: a1\n")

	kb := importTestKB()
	if _, err := ImportDir(kb, dir); err != nil {
		t.Fatal(err)
	}

	// Simulate a review before the second import.
	note := kb.Notes()[0]
	note.Flashcards[0].Stage = 3
	note.Flashcards[0].NextReviewDate = "2024-06-08"

	stats, err := ImportDir(kb, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.CardsAdded != 0 || stats.Skipped != 1 {
		t.Errorf("re-import added %d, skipped %d; want 0, 1", stats.CardsAdded, stats.Skipped)
	}
	if note.Flashcards[0].Stage != 3 {
		t.Error("re-import must not touch scheduling state")
	}
}

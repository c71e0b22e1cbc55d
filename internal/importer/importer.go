package importer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ultiflow/ultiflow/internal/domain"
	"github.com/ultiflow/ultiflow/internal/learning"
)

// ImportCategory is assigned to notes created from files at the root of
// an imported directory; files in a subdirectory use its name instead.
const ImportCategory = "Imported"

// Stats summarizes one import run.
type Stats struct {
	Files      int
	NotesAdded int
	CardsAdded int
	Skipped    int
	Errors     []error
}

// ImportDir walks dir for markdown decks and merges them into the
// knowledge base. Notes are matched by title; cards by content
// fingerprint. New notes land at the back of the library in walk order,
// and new cards start at stage 0, due today, like any authored card.
func ImportDir(kb *learning.KnowledgeBase, dir string) (Stats, error) {
	var stats Stats

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		stats.Files++
		deck, parseErr := ParseFile(path)
		if parseErr != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		if len(deck.Cards) == 0 {
			return nil
		}

		if deck.Title == "" {
			deck.Title = titleFromFilename(path)
		}
		mergeDeck(kb, deck, categoryFor(dir, path), &stats)
		return nil
	})

	if walkErr != nil {
		return stats, fmt.Errorf("walking %s: %w", dir, walkErr)
	}

	slog.Info("import complete",
		"dir", dir,
		"files", stats.Files,
		"notes_added", stats.NotesAdded,
		"cards_added", stats.CardsAdded,
		"skipped", stats.Skipped,
		"errors", len(stats.Errors),
	)
	return stats, nil
}

func mergeDeck(kb *learning.KnowledgeBase, deck Deck, category string, stats *Stats) {
	note := findNoteByTitle(kb, deck.Title)
	if note == nil {
		created, err := kb.ImportNote(deck.Title, category)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("creating note %q: %w", deck.Title, err))
			return
		}
		note = created
		stats.NotesAdded++
	}

	existing := make(map[string]bool, len(note.Flashcards))
	for _, card := range note.Flashcards {
		existing[Fingerprint(card.Question, card.Answer)] = true
	}

	for _, dc := range deck.Cards {
		if existing[Fingerprint(dc.Question, dc.Answer)] {
			stats.Skipped++
			continue
		}
		if _, err := kb.AddCard(note.ID, dc.Question, dc.Answer); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("adding card to %q: %w", deck.Title, err))
			continue
		}
		stats.CardsAdded++
	}
}

func findNoteByTitle(kb *learning.KnowledgeBase, title string) *domain.Note {
	for _, n := range kb.Notes() {
		if n.Title == title {
			return n
		}
	}
	return nil
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// categoryFor derives a note category from the deck's top-level folder
// under the import root.
func categoryFor(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ImportCategory
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return ImportCategory
}

// Package storage persists the knowledge base to a local SQLite file.
// The in-memory knowledge base is the authority while the process runs;
// this layer only loads it at startup and snapshots it after mutations.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/ultiflow/ultiflow/internal/domain"
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadNotes reads the whole library in stored display order. A fresh
// database yields an empty slice.
func (db *DB) LoadNotes() ([]*domain.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, content, category, created_at
		FROM notes ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read note rows: %w", err)
	}

	for _, note := range notes {
		cards, err := db.loadCards(note.ID)
		if err != nil {
			return nil, err
		}
		note.Flashcards = cards
	}
	return notes, nil
}

func (db *DB) loadCards(noteID string) ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT id, question, answer, stage, next_review_date, last_reviewed
		FROM cards WHERE note_id = ? ORDER BY position
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards for note %s: %w", noteID, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		var lastReviewed sql.NullString
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.Stage, &c.NextReviewDate, &lastReviewed); err != nil {
			return nil, fmt.Errorf("failed to scan card row for note %s: %w", noteID, err)
		}
		if lastReviewed.Valid {
			c.LastReviewed = lastReviewed.String
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read card rows for note %s: %w", noteID, err)
	}
	return cards, nil
}

// SaveNotes snapshots the whole library in one transaction, replacing the
// previous snapshot. Either the new state lands completely or the old one
// stays intact.
func (db *DB) SaveNotes(notes []*domain.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards`); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}

	for pos, note := range notes {
		if _, err := tx.Exec(`
			INSERT INTO notes (id, title, content, category, created_at, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, note.ID, note.Title, note.Content, note.Category, note.CreatedAt, pos); err != nil {
			return fmt.Errorf("failed to insert note %s: %w", note.ID, err)
		}

		for cpos, card := range note.Flashcards {
			lastReviewed := sql.NullString{String: card.LastReviewed, Valid: card.LastReviewed != ""}
			if _, err := tx.Exec(`
				INSERT INTO cards (id, note_id, question, answer, stage, next_review_date, last_reviewed, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, card.ID, note.ID, card.Question, card.Answer, card.Stage, card.NextReviewDate, lastReviewed, cpos); err != nil {
				return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save transaction: %w", err)
	}
	return nil
}

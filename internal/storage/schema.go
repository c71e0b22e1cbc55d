package storage

const schema = `
-- Notes are the authored containers; position preserves library order
-- (newest first) across restarts.
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'General',
    created_at TEXT NOT NULL,
    position INTEGER NOT NULL
);

-- Cards belong to exactly one note and are deleted with it. Dates are
-- YYYY-MM-DD strings; last_reviewed is NULL until the first review.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    note_id TEXT NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    stage INTEGER NOT NULL DEFAULT 0,
    next_review_date TEXT NOT NULL,
    last_reviewed TEXT,
    position INTEGER NOT NULL,

    FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
);
`

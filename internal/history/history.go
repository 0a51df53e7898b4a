// Package history keeps a local log of generation requests in SQLite, so
// past prompts and responses survive outside the conversation trees.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/FergusFettes/command-line-loom/internal/util"
)

// Entry is one logged generation.
type Entry struct {
	ID        int64
	Chat      string
	Model     string
	Prompt    string
	Response  string
	Choice    int
	CreatedMs int64
}

// Log records generations in a SQLite database.
type Log struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt TEXT NOT NULL,
	response TEXT NOT NULL,
	choice INTEGER NOT NULL DEFAULT -1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generations_chat ON generations(chat);
`

// Open opens or creates the history database at {dir}/history.db.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record logs one generation. Candidates are stored joined, and choice is
// the index the user picked, or -1 when none was.
func (l *Log) Record(chat, model, prompt string, candidates []string, choice int) error {
	_, err := l.db.Exec(
		`INSERT INTO generations (chat, model, prompt, response, choice, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		chat, model, prompt, strings.Join(candidates, "\n---\n"), choice, util.NowMs(),
	)
	if err != nil {
		return fmt.Errorf("recording generation: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a chat, most recent first. An empty
// chat name matches every chat.
func (l *Log) Recent(chat string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, chat, model, prompt, response, choice, created_at
		FROM generations`
	args := []interface{}{}
	if chat != "" {
		query += ` WHERE chat = ?`
		args = append(args, chat)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Chat, &e.Model, &e.Prompt, &e.Response, &e.Choice, &e.CreatedMs); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of logged generations for a chat, or for all
// chats when the name is empty.
func (l *Log) Count(chat string) (int64, error) {
	var n int64
	var err error
	if chat == "" {
		err = l.db.QueryRow(`SELECT COUNT(*) FROM generations`).Scan(&n)
	} else {
		err = l.db.QueryRow(`SELECT COUNT(*) FROM generations WHERE chat = ?`, chat).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}

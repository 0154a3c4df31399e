package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/guruchat/internal/logger"
)

// SQLiteJournal persists history entries to a SQLite database. Deleted
// entries are kept as tombstones so their ids are never minted again.
type SQLiteJournal struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and makes sure
// the entries table exists.
func OpenSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS history_entries (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        grp TEXT NOT NULL,
        title TEXT NOT NULL,
        deleted INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME,
        updated_at DATETIME
    );`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS history_messages (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        id TEXT NOT NULL,
        role TEXT NOT NULL,
        author TEXT,
        content TEXT NOT NULL,
        created_at DATETIME
    );`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}
	logger.L.Info("sqlite history DB initialized", "path", path)
	return &SQLiteJournal{db: db}, nil
}

// Load returns every journaled entry in creation order.
func (j *SQLiteJournal) Load() ([]Record, error) {
	rows, err := j.db.Query(`SELECT id, grp, title, deleted FROM history_entries ORDER BY seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var grp string
		var deleted int
		if err := rows.Scan(&r.ID, &grp, &r.Title, &deleted); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.Group = Group(grp)
		r.Deleted = deleted != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Append stores a newly created entry.
func (j *SQLiteJournal) Append(e Entry) error {
	now := time.Now().UTC()
	_, err := j.db.Exec(`INSERT INTO history_entries (id, grp, title, created_at, updated_at) VALUES (?,?,?,?,?);`,
		e.ID, string(e.Group), e.Title, now, now)
	return err
}

// Rename updates the title of a live entry.
func (j *SQLiteJournal) Rename(id, title string) error {
	_, err := j.db.Exec(`UPDATE history_entries SET title = ?, updated_at = ? WHERE id = ? AND deleted = 0;`,
		title, time.Now().UTC(), id)
	return err
}

// Delete tombstones an entry.
func (j *SQLiteJournal) Delete(id string) error {
	_, err := j.db.Exec(`UPDATE history_entries SET deleted = 1, updated_at = ? WHERE id = ?;`,
		time.Now().UTC(), id)
	return err
}

// LoadMessages returns every session message in append order.
func (j *SQLiteJournal) LoadMessages() ([]MessageRecord, error) {
	rows, err := j.db.Query(`SELECT session_id, id, role, author, content FROM history_messages ORDER BY seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var r MessageRecord
		var role string
		var author sql.NullString
		if err := rows.Scan(&r.SessionID, &r.ID, &role, &author, &r.Text); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		r.Role = Role(role)
		r.Author = author.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendMessage stores a message of session sessionID.
func (j *SQLiteJournal) AppendMessage(sessionID string, m Message) error {
	_, err := j.db.Exec(`INSERT INTO history_messages (session_id, id, role, author, content, created_at) VALUES (?,?,?,?,?,?);`,
		sessionID, m.ID, string(m.Role), m.Author, m.Text, time.Now().UTC())
	return err
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

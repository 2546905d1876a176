package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dbqr-qa/grader/internal/services"
)

// SQLiteStore is the alternative persistence driver. It keeps the same
// logical layout as the file store but serializes writers through a mutex
// and rewrites a user's score rows inside one transaction, closing the
// lost-update window the plain file store accepts.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		username TEXT PRIMARY KEY,
		display  TEXT NOT NULL,
		token    TEXT NOT NULL UNIQUE,
		email    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		username     TEXT NOT NULL,
		entry        INTEGER NOT NULL,
		submitted    TEXT NOT NULL,
		timestamp    TEXT NOT NULL,
		stage        TEXT NOT NULL,
		status       TEXT NOT NULL,
		grader_score REAL NOT NULL,
		gpt_score    TEXT NOT NULL DEFAULT '-',
		human_score  TEXT NOT NULL DEFAULT '-',
		PRIMARY KEY (username, entry)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		username  TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		body      BLOB NOT NULL,
		PRIMARY KEY (username, timestamp)
	)`,
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Open is a convenience for wiring from config.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return NewSQLiteStore(db)
}

func encodeSecondary(s services.SecondaryScore) string {
	if !s.Set {
		return "-"
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

func decodeSecondary(v string) services.SecondaryScore {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return services.SecondaryScore{}
	}
	return services.SecondaryScore{Value: f, Set: true}
}

func (s *SQLiteStore) ListUsernames() ([]string, error) {
	rows, err := s.db.Query(`SELECT username FROM accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) GetAccount(username string) (*services.Account, error) {
	row := s.db.QueryRow(
		`SELECT username, display, token, email FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func (s *SQLiteStore) FindAccountByToken(token string) (*services.Account, error) {
	if token == "" {
		return nil, nil
	}
	row := s.db.QueryRow(
		`SELECT username, display, token, email FROM accounts WHERE token = ?`, token)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*services.Account, error) {
	var a services.Account
	err := row.Scan(&a.Username, &a.Display, &a.Token, &a.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) SaveAccount(a *services.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO accounts (username, display, token, email) VALUES (?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET display = excluded.display,
		 token = excluded.token, email = excluded.email`,
		a.Username, a.Display, a.Token, a.Email)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadScores(username string) ([]services.ScoreRecord, error) {
	rows, err := s.db.Query(
		`SELECT entry, submitted, timestamp, stage, status, grader_score, gpt_score, human_score
		 FROM scores WHERE username = ? ORDER BY entry`, username)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()
	var records []services.ScoreRecord
	for rows.Next() {
		var rec services.ScoreRecord
		var gpt, human string
		if err := rows.Scan(&rec.Entry, &rec.Submitted, &rec.Timestamp, &rec.Stage,
			&rec.Status, &rec.GraderScore, &gpt, &human); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		rec.GPTScore = decodeSecondary(gpt)
		rec.HumanScore = decodeSecondary(human)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveScores rewrites the user's whole sequence in one transaction,
// matching the file store's whole-document semantics.
func (s *SQLiteStore) SaveScores(username string, records []services.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save scores: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM scores WHERE username = ?`, username); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	for _, rec := range records {
		_, err := tx.Exec(
			`INSERT INTO scores (username, entry, submitted, timestamp, stage, status,
			 grader_score, gpt_score, human_score) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			username, rec.Entry, rec.Submitted, rec.Timestamp, rec.Stage, rec.Status,
			rec.GraderScore, encodeSecondary(rec.GPTScore), encodeSecondary(rec.HumanScore))
		if err != nil {
			return fmt.Errorf("insert score record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveAnswers(username, timestamp string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO answers (username, timestamp, body) VALUES (?, ?, ?)
		 ON CONFLICT(username, timestamp) DO UPDATE SET body = excluded.body`,
		username, timestamp, data)
	if err != nil {
		return fmt.Errorf("save answer file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReadAnswers(username, timestamp string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(
		`SELECT body FROM answers WHERE username = ? AND timestamp = ?`,
		username, timestamp).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read answer file: %w", err)
	}
	return body, nil
}

func (s *SQLiteStore) DeleteAnswers(username, timestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(
		`DELETE FROM answers WHERE username = ? AND timestamp = ?`, username, timestamp); err != nil {
		return fmt.Errorf("delete answer file: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

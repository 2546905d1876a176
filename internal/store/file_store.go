package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dbqr-qa/grader/internal/services"
)

// FileStore keeps every user under its own directory:
//
//	<root>/users/<username>/account.json
//	<root>/users/<username>/scores.json
//	<root>/users/<username>/answers/<timestamp>.json
//
// Score documents are rewritten in full on every append. That is safe under
// the at-most-one-writer-per-user assumption only; see the SQLite driver
// for the alternative.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) usersDir() string { return filepath.Join(s.root, "users") }

func (s *FileStore) userDir(username string) string {
	return filepath.Join(s.usersDir(), username)
}

func (s *FileStore) accountPath(username string) string {
	return filepath.Join(s.userDir(username), "account.json")
}

func (s *FileStore) scoresPath(username string) string {
	return filepath.Join(s.userDir(username), "scores.json")
}

func (s *FileStore) answersPath(username, timestamp string) string {
	return filepath.Join(s.userDir(username), "answers", timestamp+".json")
}

// ListUsernames enumerates user directories. os.ReadDir returns entries
// sorted by name, which fixes the enumeration order the leaderboard's
// stable sort preserves.
func (s *FileStore) ListUsernames() ([]string, error) {
	entries, err := os.ReadDir(s.usersDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read users dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *FileStore) GetAccount(username string) (*services.Account, error) {
	data, err := os.ReadFile(s.accountPath(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read account: %w", err)
	}
	var account services.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode account for %s: %w", username, err)
	}
	account.Username = username
	return &account, nil
}

func (s *FileStore) FindAccountByToken(token string) (*services.Account, error) {
	if token == "" {
		return nil, nil
	}
	usernames, err := s.ListUsernames()
	if err != nil {
		return nil, err
	}
	for _, username := range usernames {
		account, err := s.GetAccount(username)
		if err != nil || account == nil {
			continue
		}
		if account.Token == token {
			return account, nil
		}
	}
	return nil, nil
}

func (s *FileStore) SaveAccount(a *services.Account) error {
	if err := os.MkdirAll(s.userDir(a.Username), 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := os.WriteFile(s.accountPath(a.Username), data, 0o644); err != nil {
		return fmt.Errorf("write account: %w", err)
	}
	return nil
}

func (s *FileStore) LoadScores(username string) ([]services.ScoreRecord, error) {
	data, err := os.ReadFile(s.scoresPath(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scores: %w", err)
	}
	var records []services.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode scores for %s: %w", username, err)
	}
	return records, nil
}

func (s *FileStore) SaveScores(username string, records []services.ScoreRecord) error {
	if err := os.MkdirAll(s.userDir(username), 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := os.WriteFile(s.scoresPath(username), data, 0o644); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

func (s *FileStore) SaveAnswers(username, timestamp string, data []byte) error {
	dir := filepath.Join(s.userDir(username), "answers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create answers dir: %w", err)
	}
	if err := os.WriteFile(s.answersPath(username, timestamp), data, 0o644); err != nil {
		return fmt.Errorf("write answer file: %w", err)
	}
	return nil
}

func (s *FileStore) ReadAnswers(username, timestamp string) ([]byte, error) {
	data, err := os.ReadFile(s.answersPath(username, timestamp))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read answer file: %w", err)
	}
	return data, nil
}

func (s *FileStore) DeleteAnswers(username, timestamp string) error {
	err := os.Remove(s.answersPath(username, timestamp))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete answer file: %w", err)
	}
	return nil
}

// Package store provides the persistence drivers behind the grader
// services. The file store is the primary substrate (per-user JSON
// documents, full rewrite on every append); the SQLite store is the opt-in
// driver for deployments that need same-user writes serialized.
package store

import "github.com/dbqr-qa/grader/internal/services"

// Store is the union of the narrow per-service interfaces declared in the
// services package. Lookup methods return (nil, nil) for absent accounts
// and an empty slice for users without history.
type Store interface {
	ListUsernames() ([]string, error)
	GetAccount(username string) (*services.Account, error)
	FindAccountByToken(token string) (*services.Account, error)
	SaveAccount(a *services.Account) error

	LoadScores(username string) ([]services.ScoreRecord, error)
	SaveScores(username string, records []services.ScoreRecord) error

	SaveAnswers(username, timestamp string, data []byte) error
	ReadAnswers(username, timestamp string) ([]byte, error)
	DeleteAnswers(username, timestamp string) error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)

	_ services.SubmissionStore  = (Store)(nil)
	_ services.HistoryStore     = (Store)(nil)
	_ services.LeaderboardStore = (Store)(nil)
	_ services.AccountStore     = (Store)(nil)
	_ services.ReviewStore      = (Store)(nil)
)

package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// AccountStore abstracts persistence operations required by AccountService.
type AccountStore interface {
	FindAccountByToken(token string) (*Account, error)
	GetAccount(username string) (*Account, error)
	SaveAccount(a *Account) error
	LoadScores(username string) ([]ScoreRecord, error)
}

// Usernames become directory names in the answer store, so they are
// restricted to a filesystem-safe alphabet.
var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// AccountService resolves tokens to accounts and handles the thin account
// operations around the submission core: activation, display-name changes,
// quota lookup, and admin provisioning.
type AccountService struct {
	store    AccountStore
	quota    *QuotaTracker
	tokenGen func() string
}

func NewAccountService(store AccountStore, quota *QuotaTracker) *AccountService {
	return &AccountService{
		store:    store,
		quota:    quota,
		tokenGen: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Activate resolves a token to its account record.
func (s *AccountService) Activate(token string) (*Account, error) {
	account, err := s.store.FindAccountByToken(token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if account == nil {
		return nil, NewInvalidTokenError()
	}
	return account, nil
}

// Rename updates the account's display name and persists it.
func (s *AccountService) Rename(token, name string) (*Account, error) {
	account, err := s.Activate(token)
	if err != nil {
		return nil, err
	}
	account.Display = name
	if err := s.store.SaveAccount(account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// Remaining reports the caller's quota for the current calendar day.
func (s *AccountService) Remaining(token string) (int, error) {
	account, err := s.Activate(token)
	if err != nil {
		return 0, err
	}
	history, err := s.store.LoadScores(account.Username)
	if err != nil {
		return 0, fmt.Errorf("load score history: %w", err)
	}
	return s.quota.Remaining(history), nil
}

// Create provisions a participant account with a freshly generated opaque
// token. Admin-only; the username must be new and filesystem-safe.
func (s *AccountService) Create(username, display, email string) (*Account, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, NewInvalidError("username must be lowercase alphanumeric with - or _")
	}
	existing, err := s.store.GetAccount(username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, NewConflictError("username exists")
	}
	if strings.TrimSpace(display) == "" {
		display = username
	}
	account := &Account{
		Username: username,
		Display:  display,
		Token:    s.tokenGen(),
		Email:    strings.TrimSpace(email),
	}
	if err := s.store.SaveAccount(account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

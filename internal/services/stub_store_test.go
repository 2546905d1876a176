package services

import (
	"errors"
	"sort"
)

// stubStore is an in-memory implementation of every narrow store interface
// the services declare, shared across the service tests.
type stubStore struct {
	accounts map[string]*Account // keyed by username
	scores   map[string][]ScoreRecord
	answers  map[string][]byte // keyed by username+"/"+timestamp

	failSaveScores bool
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts: map[string]*Account{},
		scores:   map[string][]ScoreRecord{},
		answers:  map[string][]byte{},
	}
}

func (s *stubStore) addAccount(username, token string) {
	s.accounts[username] = &Account{Username: username, Display: username, Token: token}
}

func (s *stubStore) ListUsernames() ([]string, error) {
	names := make([]string, 0, len(s.accounts))
	for name := range s.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *stubStore) GetAccount(username string) (*Account, error) {
	if a, ok := s.accounts[username]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) FindAccountByToken(token string) (*Account, error) {
	for _, a := range s.accounts {
		if a.Token == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) SaveAccount(a *Account) error {
	cp := *a
	s.accounts[a.Username] = &cp
	return nil
}

func (s *stubStore) LoadScores(username string) ([]ScoreRecord, error) {
	return append([]ScoreRecord(nil), s.scores[username]...), nil
}

func (s *stubStore) SaveScores(username string, records []ScoreRecord) error {
	if s.failSaveScores {
		return errors.New("disk full")
	}
	s.scores[username] = append([]ScoreRecord(nil), records...)
	return nil
}

func (s *stubStore) SaveAnswers(username, timestamp string, data []byte) error {
	s.answers[username+"/"+timestamp] = data
	return nil
}

func (s *stubStore) ReadAnswers(username, timestamp string) ([]byte, error) {
	return s.answers[username+"/"+timestamp], nil
}

func (s *stubStore) DeleteAnswers(username, timestamp string) error {
	delete(s.answers, username+"/"+timestamp)
	return nil
}

// goldStub satisfies GoldLoader.
type goldStub struct {
	labels GoldLabelSet
	err    error
}

func (g *goldStub) LoadGold(string) (GoldLabelSet, error) { return g.labels, g.err }

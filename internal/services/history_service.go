package services

import "fmt"

// HistoryStore abstracts persistence operations required by HistoryService.
type HistoryStore interface {
	LoadScores(username string) ([]ScoreRecord, error)
}

// HistoryPage is one page of a user's submission history, newest first,
// with the freshly recomputed daily quota.
type HistoryPage struct {
	History   []ScoreRecord `json:"history"`
	Records   int           `json:"records"`
	Page      int           `json:"page"`
	PageCount int           `json:"pageCount"`
	PageSize  int           `json:"pageSize"`
	Remaining int           `json:"remaining"`
}

// HistoryService paginates persisted score records.
type HistoryService struct {
	store    HistoryStore
	quota    *QuotaTracker
	pageSize int
}

func NewHistoryService(store HistoryStore, quota *QuotaTracker, pageSize int) *HistoryService {
	return &HistoryService{store: store, quota: quota, pageSize: pageSize}
}

// Page returns the requested page, 1-based. Out-of-range page numbers are
// clamped into [1, pageCount]; pageCount is at least 1 even with zero
// records, in which case the page is empty.
func (s *HistoryService) Page(username string, page int) (*HistoryPage, error) {
	records, err := s.store.LoadScores(username)
	if err != nil {
		return nil, fmt.Errorf("load score history: %w", err)
	}

	remaining := s.quota.Remaining(records)

	// Newest first.
	reversed := make([]ScoreRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}

	pageCount := (len(reversed) + s.pageSize - 1) / s.pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(reversed) {
		start = len(reversed)
	}
	if end > len(reversed) {
		end = len(reversed)
	}

	return &HistoryPage{
		History:   reversed[start:end],
		Records:   len(reversed),
		Page:      page,
		PageCount: pageCount,
		PageSize:  s.pageSize,
		Remaining: remaining,
	}, nil
}

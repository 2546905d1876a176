package services

import "fmt"

// ReviewStore abstracts persistence operations required by ReviewService.
type ReviewStore interface {
	GetAccount(username string) (*Account, error)
	LoadScores(username string) ([]ScoreRecord, error)
	SaveScores(username string, records []ScoreRecord) error
}

// ReviewService applies the results of the out-of-band secondary
// evaluations (GPT and human review) to committed score records. The two
// secondary slots are the only fields of a record that may change after
// commit.
type ReviewService struct {
	store ReviewStore
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store}
}

// SetSecondaryScores overwrites the gptScore and/or humanScore slots of the
// record addressed by username and timestamp. A nil score leaves its slot
// untouched.
func (s *ReviewService) SetSecondaryScores(username, timestamp string, gptScore, humanScore *float64) (*ScoreRecord, error) {
	account, err := s.store.GetAccount(username)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account == nil {
		return nil, NewNotFoundError("unknown user")
	}

	records, err := s.store.LoadScores(username)
	if err != nil {
		return nil, fmt.Errorf("load score history: %w", err)
	}

	idx := -1
	for i, rec := range records {
		if rec.Timestamp == timestamp {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewNotFoundError("no record for that timestamp")
	}

	if gptScore != nil {
		records[idx].GPTScore = SecondaryScore{Value: *gptScore, Set: true}
	}
	if humanScore != nil {
		records[idx].HumanScore = SecondaryScore{Value: *humanScore, Set: true}
	}

	if err := s.store.SaveScores(username, records); err != nil {
		return nil, fmt.Errorf("save score history: %w", err)
	}
	rec := records[idx]
	return &rec, nil
}

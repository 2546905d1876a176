package services

import (
	"fmt"
	"sort"
	"strings"
)

// LeaderboardStore abstracts persistence operations required by the
// leaderboard aggregator.
type LeaderboardStore interface {
	ListUsernames() ([]string, error)
	GetAccount(username string) (*Account, error)
	LoadScores(username string) ([]ScoreRecord, error)
}

// LeaderboardRow is one qualifying user's entry for a stage: the score
// fields come from their best submission, Last from their most recent one.
type LeaderboardRow struct {
	Name        string         `json:"name"`
	Entries     int            `json:"entries"`
	GraderScore float64        `json:"graderScore"`
	GPTScore    SecondaryScore `json:"gptScore"`
	HumanScore  SecondaryScore `json:"humanScore"`
	Last        string         `json:"last"`
}

// LeaderboardService builds the ranked per-stage tables across all users.
type LeaderboardService struct {
	store  LeaderboardStore
	stages []Stage
}

func NewLeaderboardService(store LeaderboardStore, stages []Stage) *LeaderboardService {
	return &LeaderboardService{store: store, stages: stages}
}

// Table returns, per stage, one row per user with at least one matching
// record. The representative entry is the first record holding the maximum
// grader score, so among equal top scores the earliest submission wins.
// Rows are ordered by grader score descending; the stable sort preserves
// the store's user enumeration order among ties.
func (s *LeaderboardService) Table() (map[string][]LeaderboardRow, error) {
	usernames, err := s.store.ListUsernames()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	table := make(map[string][]LeaderboardRow, len(s.stages))

	for _, stage := range s.stages {
		rows := []LeaderboardRow{}

		for _, username := range usernames {
			history, err := s.store.LoadScores(username)
			if err != nil {
				return nil, fmt.Errorf("load score history for %s: %w", username, err)
			}

			matched := make([]ScoreRecord, 0, len(history))
			for _, rec := range history {
				if strings.EqualFold(rec.Stage, stage.Name) {
					matched = append(matched, rec)
				}
			}
			if len(matched) == 0 {
				continue
			}

			account, err := s.store.GetAccount(username)
			if err != nil {
				return nil, fmt.Errorf("load account for %s: %w", username, err)
			}

			best := matched[0]
			for _, rec := range matched[1:] {
				if rec.GraderScore > best.GraderScore {
					best = rec
				}
			}

			rows = append(rows, LeaderboardRow{
				Name:        account.Display,
				Entries:     len(matched),
				GraderScore: best.GraderScore,
				GPTScore:    best.GPTScore,
				HumanScore:  best.HumanScore,
				Last:        matched[len(matched)-1].Submitted,
			})
		}

		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].GraderScore > rows[j].GraderScore
		})
		table[stage.Name] = rows
	}

	return table, nil
}

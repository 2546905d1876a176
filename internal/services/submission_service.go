package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// SubmissionStore abstracts persistence operations required by the
// submission pipeline.
type SubmissionStore interface {
	FindAccountByToken(token string) (*Account, error)
	LoadScores(username string) ([]ScoreRecord, error)
	SaveScores(username string, records []ScoreRecord) error
	SaveAnswers(username, timestamp string, data []byte) error
	DeleteAnswers(username, timestamp string) error
}

// GoldLoader reads the hidden gold label set for a stage.
type GoldLoader interface {
	LoadGold(stage string) (GoldLabelSet, error)
}

// SubmissionRequest carries one upload through the pipeline. File is nil
// when the request had no file attached.
type SubmissionRequest struct {
	Token    string
	Filename string
	File     io.Reader
}

// SubmissionService is the linear state machine at the center of the
// grader: authenticate, validate, check quota, persist the raw upload,
// parse, classify, score, commit. Any failure short-circuits; every failure
// after the raw file is written deletes it again, so a submission either
// reaches commit or leaves no trace beyond the error envelope.
type SubmissionService struct {
	store      SubmissionStore
	gold       GoldLoader
	classifier *StageClassifier
	quota      *QuotaTracker
	evaluator  *Evaluator
	now        func() time.Time
}

func NewSubmissionService(
	store SubmissionStore,
	gold GoldLoader,
	classifier *StageClassifier,
	quota *QuotaTracker,
	evaluator *Evaluator,
) *SubmissionService {
	return &SubmissionService{
		store:      store,
		gold:       gold,
		classifier: classifier,
		quota:      quota,
		evaluator:  evaluator,
		now:        time.Now,
	}
}

const (
	timestampLayout = "2006-01-02_15-04-05"
	submittedLayout = "2006-01-02 15:04:05"
)

// timestampID produces the sortable per-user identifier that also keys the
// stored raw answer file. Sub-second (microsecond) resolution keeps ids
// unique for a single writer.
func timestampID(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format(timestampLayout), t.Nanosecond()/1000)
}

// Submit runs the full pipeline for one upload.
func (s *SubmissionService) Submit(req SubmissionRequest) error {
	account, err := s.store.FindAccountByToken(req.Token)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	if account == nil {
		return NewInvalidTokenError()
	}
	username := account.Username

	if req.File == nil {
		return NewNoFileError()
	}
	if !strings.HasSuffix(req.Filename, ".json") {
		return NewInvalidFileTypeError()
	}

	history, err := s.store.LoadScores(username)
	if err != nil {
		return fmt.Errorf("load score history: %w", err)
	}
	// Quota is spent on attempted, type-valid submissions; the gate sits
	// before the file is even parsed.
	if s.quota.Remaining(history) == 0 {
		return NewSubmissionLimitError()
	}

	now := s.now()
	timestamp := timestampID(now)
	submitted := now.Format(submittedLayout)

	body, err := io.ReadAll(req.File)
	if err != nil {
		return NewIncorrectFileError()
	}

	// Durability first: the raw artifact is written before parsing so it
	// survives for audit even when a later stage rejects it. Failures past
	// this point must delete it again.
	if err := s.store.SaveAnswers(username, timestamp, body); err != nil {
		return fmt.Errorf("store answer file: %w", err)
	}

	var answers AnswerSet
	if err := json.Unmarshal(body, &answers); err != nil {
		return s.discard(username, timestamp, NewIncorrectFileError())
	}

	stage, ok := s.classifier.Classify(answers)
	if !ok {
		msg := fmt.Sprintf("The answers do not match any of stages (%s).", s.classifier.NamesJoined())
		return s.discard(username, timestamp, NewStageNotFoundError(msg))
	}

	labels, err := s.gold.LoadGold(stage.Name)
	if err != nil {
		return s.discard(username, timestamp, NewEvaluationFailedError())
	}

	score, err := s.evaluator.Evaluate(answers, labels)
	if err != nil {
		if err == ErrMissingAnswers {
			return s.discard(username, timestamp, NewMissingAnswersError())
		}
		return s.discard(username, timestamp, NewEvaluationFailedError())
	}

	// Commit re-reads the history so the entry number reflects the latest
	// document. Not safe against a concurrent writer for the same user; see
	// DESIGN.md for the accepted single-writer assumption.
	records, err := s.store.LoadScores(username)
	if err != nil {
		return s.discard(username, timestamp, fmt.Errorf("load score history: %w", err))
	}
	records = append(records, ScoreRecord{
		Entry:       len(records) + 1,
		Submitted:   submitted,
		Timestamp:   timestamp,
		Stage:       capitalize(stage.Name),
		Status:      "Success",
		GraderScore: score,
	})
	if err := s.store.SaveScores(username, records); err != nil {
		return s.discard(username, timestamp, fmt.Errorf("save score history: %w", err))
	}

	return nil
}

// discard removes the orphaned raw answer file and returns cause. Cleanup
// failure is deliberately swallowed: the caller's error is the one worth
// reporting.
func (s *SubmissionService) discard(username, timestamp string, cause error) error {
	_ = s.store.DeleteAnswers(username, timestamp)
	return cause
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

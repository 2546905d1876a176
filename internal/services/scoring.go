package services

import (
	"errors"
	"fmt"
)

// Heuristic scores one submitted answer against its gold label. It must be
// pure and deterministic and return a bounded value; the engine treats it as
// an opaque external function.
type Heuristic func(answer, label any) float64

// ErrMissingAnswers signals that at least one gold conversation or question
// is absent from the answer set. No partial credit is given.
var ErrMissingAnswers = errors.New("missing answers")

// Evaluator compares an answer set against a gold label set and aggregates
// per-item heuristic scores.
type Evaluator struct {
	heuristic Heuristic
}

func NewEvaluator(h Heuristic) *Evaluator {
	return &Evaluator{heuristic: h}
}

// Evaluate returns the flattened arithmetic mean over every (conversation,
// question) pair in the gold set: conversations with more questions weigh
// proportionally more. Any absent conversation or question fails with
// ErrMissingAnswers immediately.
//
// A panic inside the heuristic is recovered and returned as an error; the
// pipeline must never crash because of a misbehaving scoring function. The
// gold set is required to be non-empty; that is a caller precondition, not a
// runtime check.
func (e *Evaluator) Evaluate(answers AnswerSet, labels GoldLabelSet) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("heuristic panic: %v", r)
		}
	}()

	var sum float64
	var n int

	for conv, samples := range labels {
		submitted, ok := answers[conv]
		if !ok {
			return 0, ErrMissingAnswers
		}
		for qid, label := range samples {
			answer, ok := submitted[qid]
			if !ok {
				return 0, ErrMissingAnswers
			}
			sum += e.heuristic(answer, label)
			n++
		}
	}

	return sum / float64(n), nil
}

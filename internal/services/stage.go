package services

import "strings"

// Stage is one evaluation phase with a fixed expected conversation count.
type Stage struct {
	Name    string
	Samples int
}

// DefaultStages returns the reference deployment's stages in classification
// precedence order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "practice", Samples: 5},
		{Name: "training", Samples: 20},
		{Name: "test", Samples: 15},
	}
}

// StageClassifier infers the target stage of an answer set purely from its
// top-level cardinality. The first configured stage whose expected count
// matches wins; precedence order is observable behavior and must stay fixed.
type StageClassifier struct {
	stages []Stage
}

func NewStageClassifier(stages []Stage) *StageClassifier {
	return &StageClassifier{stages: stages}
}

// Classify returns the matching stage, or false when no expected count
// equals the answer set's conversation count. Matching is exact.
func (c *StageClassifier) Classify(answers AnswerSet) (Stage, bool) {
	for _, stage := range c.stages {
		if len(answers) == stage.Samples {
			return stage, true
		}
	}
	return Stage{}, false
}

// Names lists the configured stage names in precedence order.
func (c *StageClassifier) Names() []string {
	names := make([]string, 0, len(c.stages))
	for _, stage := range c.stages {
		names = append(names, stage.Name)
	}
	return names
}

// NamesJoined renders the stage names for user-facing messages, e.g.
// "practice/training/test".
func (c *StageClassifier) NamesJoined() string {
	return strings.Join(c.Names(), "/")
}

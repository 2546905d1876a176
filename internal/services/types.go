package services

import (
	"encoding/json"
	"fmt"
)

// AnswerSet maps conversation id -> question id -> submitted answer. It
// exists only as the parsed body of one submission; the raw upload is kept
// separately, keyed by timestamp.
type AnswerSet map[string]map[string]any

// GoldLabelSet mirrors AnswerSet for the hidden reference answers of one
// stage. Loaded read-only, never mutated.
type GoldLabelSet map[string]map[string]any

// Account is a participant identity. Username is the stable filesystem-safe
// key; Display is user-chosen and mutable; Token is opaque and immutable
// once issued.
type Account struct {
	Username string `json:"username"`
	Display  string `json:"display"`
	Token    string `json:"token"`
	Email    string `json:"email,omitempty"`
}

// ScoreRecord is one persisted outcome of an accepted submission. Entry
// numbers are contiguous from 1 in append order per user; Timestamp doubles
// as the key of the stored raw answer file. Only the two secondary score
// slots may change after commit.
type ScoreRecord struct {
	Entry       int            `json:"entry"`
	Submitted   string         `json:"submitted"`
	Timestamp   string         `json:"timestamp"`
	Stage       string         `json:"stage"`
	Status      string         `json:"status"`
	GraderScore float64        `json:"graderScore"`
	GPTScore    SecondaryScore `json:"gptScore"`
	HumanScore  SecondaryScore `json:"humanScore"`
}

// SecondaryScore is a score slot filled in later by an out-of-band
// evaluation pass. Until set it serializes as the "-" placeholder used in
// the stored documents.
type SecondaryScore struct {
	Value float64
	Set   bool
}

func (s SecondaryScore) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte(`"-"`), nil
	}
	return json.Marshal(s.Value)
}

func (s *SecondaryScore) UnmarshalJSON(b []byte) error {
	var num float64
	if err := json.Unmarshal(b, &num); err == nil {
		s.Value = num
		s.Set = true
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = SecondaryScore{}
		return nil
	}
	return fmt.Errorf("secondary score: unsupported value %s", string(b))
}

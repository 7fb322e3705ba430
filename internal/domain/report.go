package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Report is the assembled analysis for one blueprint.
// Sections whose tasks failed are absent rather than empty.
type Report struct {
	SystemTranslations       map[string]string `json:"system_translations"`
	LawAnalyses              map[string]string `json:"law_analyses"`
	GateAnalyses             map[int]string    `json:"gate_analyses"`
	Intelligence             map[string]string `json:"intelligence"`
	Synthesis                string            `json:"synthesis,omitempty"`
	ConsciousnessIntegration string            `json:"consciousness_integration,omitempty"`
	PracticalApplication     string            `json:"practical_application,omitempty"`
	TotalWordCount           int               `json:"total_word_count"`
	TotalCharCount           int               `json:"total_char_count"`
}

// SectionCount returns how many sections carry content.
func (r *Report) SectionCount() int {
	n := len(r.SystemTranslations) + len(r.LawAnalyses) + len(r.GateAnalyses) + len(r.Intelligence)
	for _, s := range []string{r.Synthesis, r.ConsciousnessIntegration, r.PracticalApplication} {
		if s != "" {
			n++
		}
	}
	return n
}

// Value implements the driver.Valuer interface for database serialization.
func (r Report) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (r *Report) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Report")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, r)
}

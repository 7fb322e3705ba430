package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// PhaseName names one stage of the report pipeline.
type PhaseName string

const (
	PhaseSystemTranslation      PhaseName = "system_translation"
	PhaseLawAnalysis            PhaseName = "law_analysis"
	PhaseGateAnalysis           PhaseName = "gate_analysis"
	PhaseIntelligenceExtraction PhaseName = "intelligence_extraction"
	PhaseSynthesis              PhaseName = "synthesis"
	PhaseReportAssembly         PhaseName = "report_assembly"
	PhaseQuoteGeneration        PhaseName = "quote_generation"
)

// PhaseMetrics summarises one phase run.
type PhaseMetrics struct {
	Phase        PhaseName `json:"phase"`
	TaskCount    int       `json:"task_count"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	WordCount    int       `json:"word_count"`
	DurationMs   int64     `json:"duration_ms"`
	TimedOut     bool      `json:"timed_out"`
}

// PhaseMetricsList is stored as a JSON array in the database.
type PhaseMetricsList []PhaseMetrics

// Value implements the driver.Valuer interface for database serialization.
func (l PhaseMetricsList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *PhaseMetricsList) Scan(value interface{}) error {
	if value == nil {
		*l = PhaseMetricsList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan PhaseMetricsList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

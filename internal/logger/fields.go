package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing Fields (Context level)
// Propagated through the call chain of one job
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the report job ID
	FieldJobID = "job_id"

	// FieldPhase is the pipeline phase name
	FieldPhase = "phase"

	// FieldAgent is the agent kind a task is executed with
	FieldAgent = "agent"

	// FieldTaskKey identifies a task inside its phase (law name, gate number, ...)
	FieldTaskKey = "task_key"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Metric Fields (Entry level)
// Used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldAttempt is the 1-based attempt number of an external call
	FieldAttempt = "attempt"

	// FieldWordCount is the number of words produced
	FieldWordCount = "word_count"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is a response size in bytes
	FieldSize = "size"
)

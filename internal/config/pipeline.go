package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMaxRetries   = 3
	DefaultAPICallDelay = "2000ms"
	DefaultPhaseTimeout = "5m"
	DefaultJobTimeout   = "45m"
	DefaultStaleAfter   = "60m"
)

// DefaultRetryDelays is the backoff schedule; the last entry repeats.
var DefaultRetryDelays = []string{"1s", "3s", "5s"}

// PipelineConfig holds the raw pipeline settings as read from file or env.
// Durations accept Go syntax ("3s", "2m") or bare integers meaning milliseconds.
type PipelineConfig struct {
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryDelays  []string `mapstructure:"retry_delays"`
	APICallDelay string   `mapstructure:"api_call_delay"`
	PhaseTimeout string   `mapstructure:"phase_timeout"`
	JobTimeout   string   `mapstructure:"job_timeout"`
	StaleAfter   string   `mapstructure:"stale_after"`
	QueueSize    int      `mapstructure:"queue_size"`
}

// PipelineSettings is the validated, typed form of PipelineConfig.
type PipelineSettings struct {
	MaxRetries   int
	RetryDelays  []time.Duration
	APICallDelay time.Duration
	PhaseTimeout time.Duration
	JobTimeout   time.Duration
	StaleAfter   time.Duration
	QueueSize    int
}

// Settings validates the raw values and resolves them into durations.
// Returns:
//   - PipelineSettings: resolved settings.
//   - error: non-nil describing the first invalid value.
func (c *PipelineConfig) Settings() (PipelineSettings, error) {
	s := PipelineSettings{
		MaxRetries: c.MaxRetries,
		QueueSize:  c.QueueSize,
	}
	if s.MaxRetries <= 0 {
		return s, fmt.Errorf("pipeline: max_retries must be positive, got %d", c.MaxRetries)
	}
	if s.QueueSize <= 0 {
		s.QueueSize = 1
	}

	raw := c.RetryDelays
	if len(raw) == 0 {
		raw = DefaultRetryDelays
	}
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := ParseDuration(part)
			if err != nil {
				return s, fmt.Errorf("pipeline: retry_delays: %w", err)
			}
			s.RetryDelays = append(s.RetryDelays, d)
		}
	}

	var err error
	if s.APICallDelay, err = parseOr(c.APICallDelay, DefaultAPICallDelay); err != nil {
		return s, fmt.Errorf("pipeline: api_call_delay: %w", err)
	}
	if s.PhaseTimeout, err = parseOr(c.PhaseTimeout, DefaultPhaseTimeout); err != nil {
		return s, fmt.Errorf("pipeline: phase_timeout: %w", err)
	}
	if s.JobTimeout, err = parseOr(c.JobTimeout, DefaultJobTimeout); err != nil {
		return s, fmt.Errorf("pipeline: job_timeout: %w", err)
	}
	if s.StaleAfter, err = parseOr(c.StaleAfter, DefaultStaleAfter); err != nil {
		return s, fmt.Errorf("pipeline: stale_after: %w", err)
	}
	if s.PhaseTimeout <= 0 {
		return s, fmt.Errorf("pipeline: phase_timeout must be positive")
	}

	return s, nil
}

// ParseDuration parses Go duration syntax, treating a bare integer as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func parseOr(value, fallback string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return ParseDuration(value)
}

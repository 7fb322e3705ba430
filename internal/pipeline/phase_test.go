package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/soulsync/internal/domain"
)

func TestPhaseRunner_DropsFailedTasks(t *testing.T) {
	gen := newStub()
	gen.fail = func(agent domain.AgentKind, key string) bool { return key == "polarity" || key == "gender" }
	runner := NewPhaseRunner(newTestExecutor(gen, 2), NewPacer(0), time.Second)

	tasks := LawTasks(domain.Blueprint(`{"a":1}`))
	out := runner.Run(context.Background(), domain.PhaseLawAnalysis, tasks)

	assert.LessOrEqual(t, len(out.Results), len(tasks))
	assert.Len(t, out.Results, 5)
	for _, r := range out.Results {
		assert.NotEqual(t, "polarity", r.Key)
		assert.NotEqual(t, "gender", r.Key)
		assert.NotEmpty(t, r.Content)
	}

	m := out.Metrics
	assert.Equal(t, domain.PhaseLawAnalysis, m.Phase)
	assert.Equal(t, 7, m.TaskCount)
	assert.Equal(t, 5, m.SuccessCount)
	assert.Equal(t, 2, m.FailureCount)
	assert.False(t, m.TimedOut)

	words := 0
	for _, r := range out.Results {
		words += r.WordCount
	}
	assert.Equal(t, words, m.WordCount)
	// two attempts for each failing law
	assert.Equal(t, 2, gen.count(domain.AgentLawPolarity))
}

func TestPhaseRunner_TimeoutKeepsPartialOutput(t *testing.T) {
	gen := newStub()
	gen.delay = func(agent domain.AgentKind) time.Duration {
		if agent == domain.AgentSystemAstrology {
			return time.Second
		}
		return 0
	}
	runner := NewPhaseRunner(newTestExecutor(gen, 1), NewPacer(0), 50*time.Millisecond)

	start := time.Now()
	out := runner.Run(context.Background(), domain.PhaseSystemTranslation, SystemTasks(domain.Blueprint(`{}`)))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, out.Metrics.TimedOut)
	assert.Len(t, out.Results, 4)
	_, ok := out.Content("astrology")
	assert.False(t, ok)
}

func TestPhaseRunner_NoTasks(t *testing.T) {
	runner := NewPhaseRunner(newTestExecutor(newStub(), 1), NewPacer(time.Second), time.Second)
	out := runner.Run(context.Background(), domain.PhaseGateAnalysis, nil)

	assert.Empty(t, out.Results)
	assert.Equal(t, 0, out.Metrics.TaskCount)
	assert.False(t, out.Metrics.TimedOut)
}

func TestPhaseOutput_Helpers(t *testing.T) {
	out := &PhaseOutput{Results: []domain.TaskResult{
		{Key: "mentalism", Content: "mind"},
		{Key: "rhythm", Content: "swing"},
	}}

	assert.Equal(t, map[string]string{"mentalism": "mind", "rhythm": "swing"}, out.ByKey())
	assert.Equal(t, "## mentalism\nmind\n\n## rhythm\nswing", out.Text())

	content, ok := out.Content("rhythm")
	require.True(t, ok)
	assert.Equal(t, "swing", content)

	var missing *PhaseOutput
	assert.Empty(t, missing.Text())
	assert.Empty(t, missing.ByKey())
}

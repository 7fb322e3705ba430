package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/repository"
)

type testPipeline struct {
	orch   *Orchestrator
	jobs   *repository.JobRepository
	quotes *repository.QuoteRepository
	gen    *stubGenerator
}

func newTestPipeline(t *testing.T, gen *stubGenerator, store func(*repository.JobRepository) JobStore) *testPipeline {
	t.Helper()
	db := openTestDB(t)
	jobs := repository.NewJobRepository(db)
	quotes := repository.NewQuoteRepository(db)

	var js JobStore = jobs
	if store != nil {
		js = store(jobs)
	}
	runner := NewPhaseRunner(newTestExecutor(gen, 3), NewPacer(0), time.Second)
	return &testPipeline{
		orch:   NewOrchestrator(js, runner, WithQuoteStore(quotes)),
		jobs:   jobs,
		quotes: quotes,
		gen:    gen,
	}
}

func (p *testPipeline) submit(t *testing.T, id, blueprint string) {
	t.Helper()
	require.NoError(t, p.jobs.Create(context.Background(), &domain.ReportJob{
		ID:        id,
		Blueprint: domain.Blueprint(blueprint),
	}))
}

func (p *testPipeline) get(t *testing.T, id string) *domain.ReportJob {
	t.Helper()
	job, err := p.jobs.Get(context.Background(), id)
	require.NoError(t, err)
	return job
}

func TestOrchestrator_ThreeGatesCompletes(t *testing.T) {
	p := newTestPipeline(t, newStub(), nil)
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, PhaseCompleted, job.Phase)
	assert.Empty(t, job.ErrorMessage)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	require.NotNil(t, job.Result)
	r := job.Result
	assert.Len(t, r.GateAnalyses, 3)
	assert.Contains(t, r.GateAnalyses, 10)
	assert.Contains(t, r.GateAnalyses, 34)
	assert.Contains(t, r.GateAnalyses, 57)
	assert.Len(t, r.SystemTranslations, 5)
	assert.Len(t, r.LawAnalyses, 7)
	assert.Len(t, r.Intelligence, 13)
	assert.NotEmpty(t, r.Synthesis)
	assert.NotEmpty(t, r.ConsciousnessIntegration)
	assert.NotEmpty(t, r.PracticalApplication)
	assert.Positive(t, r.TotalWordCount)
	assert.Positive(t, r.TotalCharCount)

	require.Len(t, job.PhaseMetrics, 6)
	assert.Equal(t, domain.PhaseSystemTranslation, job.PhaseMetrics[0].Phase)
	assert.Equal(t, domain.PhaseQuoteGeneration, job.PhaseMetrics[5].Phase)
	assert.Equal(t, 3, job.PhaseMetrics[2].TaskCount)

	quotes, err := p.quotes.ListByJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "growth", quotes[0].Category)
}

func TestOrchestrator_AllCallsFailStillCompletes(t *testing.T) {
	gen := newStub()
	gen.fail = func(domain.AgentKind, string) bool { return true }
	p := newTestPipeline(t, gen, nil)
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Result)
	assert.Equal(t, 0, job.Result.SectionCount())
	assert.Equal(t, 0, job.Result.TotalWordCount)

	for _, m := range job.PhaseMetrics {
		assert.Equal(t, 0, m.SuccessCount, m.Phase)
	}
	// systems, laws, gates and synthesis each tried three times; intelligence and quotes had no input
	assert.Equal(t, (5+7+3+3)*3, gen.total())
	assert.Equal(t, 0, gen.count(domain.AgentIntelligence))
	assert.Equal(t, 0, gen.count(domain.AgentQuoteGenerator))
}

func TestOrchestrator_OneFamilyFails(t *testing.T) {
	tests := []struct {
		name  string
		agent domain.AgentKind
		check func(t *testing.T, r *domain.Report)
	}{
		{
			name:  "gate analyses",
			agent: domain.AgentGateAnalyst,
			check: func(t *testing.T, r *domain.Report) {
				assert.Empty(t, r.GateAnalyses)
				assert.Len(t, r.SystemTranslations, 5)
				assert.Len(t, r.LawAnalyses, 7)
				assert.Len(t, r.Intelligence, 13)
			},
		},
		{
			name:  "astrology translation",
			agent: domain.AgentSystemAstrology,
			check: func(t *testing.T, r *domain.Report) {
				assert.Len(t, r.SystemTranslations, 4)
				assert.NotContains(t, r.SystemTranslations, "astrology")
				assert.Len(t, r.GateAnalyses, 3)
				assert.Len(t, r.LawAnalyses, 7)
			},
		},
		{
			name:  "consciousness integration",
			agent: domain.AgentConsciousnessIntegration,
			check: func(t *testing.T, r *domain.Report) {
				assert.Empty(t, r.ConsciousnessIntegration)
				assert.NotEmpty(t, r.Synthesis)
				assert.NotEmpty(t, r.PracticalApplication)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newStub()
			gen.fail = func(agent domain.AgentKind, _ string) bool { return agent == tt.agent }
			p := newTestPipeline(t, gen, nil)
			p.submit(t, "job-1", threeGateBlueprint)

			require.NoError(t, p.orch.Run(context.Background(), "job-1"))

			job := p.get(t, "job-1")
			assert.Equal(t, domain.JobStatusCompleted, job.Status)
			require.NotNil(t, job.Result)
			tt.check(t, job.Result)
		})
	}
}

func TestOrchestrator_GateOrderIndependent(t *testing.T) {
	p := newTestPipeline(t, newStub(), nil)
	p.submit(t, "a", `{"gates": ["34.3", "10.1", "57.2"]}`)
	p.submit(t, "b", `{"gates": ["57.2", "10.1", "34.6", "34.3"]}`)

	require.NoError(t, p.orch.Run(context.Background(), "a"))
	require.NoError(t, p.orch.Run(context.Background(), "b"))

	assert.Equal(t, p.get(t, "a").Result.GateAnalyses, p.get(t, "b").Result.GateAnalyses)
}

func TestOrchestrator_ClaimOnce(t *testing.T) {
	p := newTestPipeline(t, newStub(), nil)
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))
	err := p.orch.Run(context.Background(), "job-1")
	assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)

	err = p.orch.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestOrchestrator_MalformedBlueprintFails(t *testing.T) {
	gen := newStub()
	p := newTestPipeline(t, gen, nil)
	p.submit(t, "job-1", `[1, 2, 3]`)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "malformed job")
	assert.Nil(t, job.Result)
	assert.Less(t, job.Progress, 100)
	assert.Equal(t, 0, gen.total())
}

// recordingStore records every progress value written.
type recordingStore struct {
	JobStore
	mu       sync.Mutex
	progress []int
	phases   []string
}

func (s *recordingStore) Update(ctx context.Context, id string, upd repository.JobUpdate) error {
	s.mu.Lock()
	if upd.Progress != nil {
		s.progress = append(s.progress, *upd.Progress)
	}
	if upd.Phase != nil {
		s.phases = append(s.phases, *upd.Phase)
	}
	s.mu.Unlock()
	return s.JobStore.Update(ctx, id, upd)
}

func TestOrchestrator_ProgressAndPhasesInOrder(t *testing.T) {
	var rec *recordingStore
	p := newTestPipeline(t, newStub(), func(r *repository.JobRepository) JobStore {
		rec = &recordingStore{JobStore: r}
		return rec
	})
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))

	assert.Equal(t, []int{15, 20, 60, 65, 85, 90, 95}, rec.progress)
	assert.Equal(t, []string{
		string(domain.PhaseSystemTranslation),
		string(domain.PhaseLawAnalysis),
		string(domain.PhaseGateAnalysis),
		string(domain.PhaseIntelligenceExtraction),
		string(domain.PhaseSynthesis),
		string(domain.PhaseReportAssembly),
		string(domain.PhaseQuoteGeneration),
		PhaseCompleted,
	}, rec.phases)
	assert.Equal(t, 100, p.get(t, "job-1").Progress)
}

// brokenStore claims through the repository but cannot write afterwards.
type brokenStore struct {
	JobStore
	updates int
}

func (s *brokenStore) Update(context.Context, string, repository.JobUpdate) error {
	s.updates++
	return errors.New("database unreachable")
}

func TestOrchestrator_StoreUnreachableLeavesRunning(t *testing.T) {
	var broken *brokenStore
	p := newTestPipeline(t, newStub(), func(r *repository.JobRepository) JobStore {
		broken = &brokenStore{JobStore: r}
		return broken
	})
	p.submit(t, "job-1", threeGateBlueprint)

	err := p.orch.Run(context.Background(), "job-1")
	assert.ErrorIs(t, err, ErrJobLeftRunning)
	// the phase update failed, then exactly one attempt to record the failure
	assert.Equal(t, 2, broken.updates)

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusRunning, job.Status)
}

// panicStore panics when the gate phase starts.
type panicStore struct {
	JobStore
}

func (s *panicStore) Update(ctx context.Context, id string, upd repository.JobUpdate) error {
	if upd.Phase != nil && *upd.Phase == string(domain.PhaseGateAnalysis) {
		panic("store exploded")
	}
	return s.JobStore.Update(ctx, id, upd)
}

func TestOrchestrator_PanicBecomesFailure(t *testing.T) {
	p := newTestPipeline(t, newStub(), func(r *repository.JobRepository) JobStore {
		return &panicStore{JobStore: r}
	})
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(context.Background(), "job-1"))

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "store exploded")
	assert.Equal(t, 20, job.Progress)
}

func TestOrchestrator_JobDeadlineFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := newStub()
	gen.fail = func(agent domain.AgentKind, _ string) bool {
		cancel()
		return false
	}
	p := newTestPipeline(t, gen, nil)
	p.submit(t, "job-1", threeGateBlueprint)

	require.NoError(t, p.orch.Run(ctx, "job-1"))

	job := p.get(t, "job-1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
}

func TestOrchestrator_PhaseTimeoutContinues(t *testing.T) {
	gen := newStub()
	gen.delay = func(agent domain.AgentKind) time.Duration {
		if agent == domain.AgentGateAnalyst {
			return 2 * time.Second
		}
		return 0
	}
	db := openTestDB(t)
	jobs := repository.NewJobRepository(db)
	runner := NewPhaseRunner(newTestExecutor(gen, 1), NewPacer(0), 100*time.Millisecond)
	orch := NewOrchestrator(jobs, runner)

	require.NoError(t, jobs.Create(context.Background(), &domain.ReportJob{
		ID:        "job-1",
		Blueprint: domain.Blueprint(threeGateBlueprint),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, orch.Run(ctx, "job-1"))

	job, err := jobs.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Empty(t, job.Result.GateAnalyses)
	assert.Len(t, job.Result.LawAnalyses, 7)
	assert.True(t, job.PhaseMetrics[2].TimedOut)
	assert.False(t, job.PhaseMetrics[1].TimedOut)
}

type memoryArchiver struct {
	reports map[string]*domain.Report
	err     error
}

func (a *memoryArchiver) Archive(_ context.Context, jobID string, report *domain.Report) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.reports[jobID] = report
	return "reports/" + jobID + ".json", nil
}

func TestOrchestrator_Archives(t *testing.T) {
	for _, archiveErr := range []error{nil, errors.New("bucket gone")} {
		db := openTestDB(t)
		jobs := repository.NewJobRepository(db)
		archiver := &memoryArchiver{reports: map[string]*domain.Report{}, err: archiveErr}
		runner := NewPhaseRunner(newTestExecutor(newStub(), 1), NewPacer(0), time.Second)
		orch := NewOrchestrator(jobs, runner, WithArchiver(archiver))

		require.NoError(t, jobs.Create(context.Background(), &domain.ReportJob{
			ID:        "job-1",
			Blueprint: domain.Blueprint(threeGateBlueprint),
		}))
		require.NoError(t, orch.Run(context.Background(), "job-1"))

		job, err := jobs.Get(context.Background(), "job-1")
		require.NoError(t, err)
		// archive failures never fail the job
		assert.Equal(t, domain.JobStatusCompleted, job.Status)
		if archiveErr == nil {
			assert.Equal(t, job.Result, archiver.reports["job-1"])
		}
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/timmy/soulsync/internal/config"
	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/repository"
)

var errStub = errors.New("stub failure")

// testRender passes agent and key straight through so stubs can see them.
func testRender(agent domain.AgentKind, key, _ string) (string, string, error) {
	return string(agent), key, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

// stubGenerator answers deterministically from the agent and key it receives.
type stubGenerator struct {
	mu    sync.Mutex
	calls map[domain.AgentKind]int
	fail  func(agent domain.AgentKind, key string) bool
	delay func(agent domain.AgentKind) time.Duration
}

func newStub() *stubGenerator {
	return &stubGenerator{calls: make(map[domain.AgentKind]int)}
}

func (s *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	agent := domain.AgentKind(system)
	s.mu.Lock()
	s.calls[agent]++
	s.mu.Unlock()

	if s.delay != nil {
		if d := s.delay(agent); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if s.fail != nil && s.fail(agent, user) {
		return "", errStub
	}
	if agent == domain.AgentQuoteGenerator {
		return "growth: Keep walking your own path\nlove: Open the door you keep closed", nil
	}
	return fmt.Sprintf("%s analysis for %s", agent, user), nil
}

func (s *stubGenerator) count(agent domain.AgentKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[agent]
}

func (s *stubGenerator) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func newTestExecutor(gen Generator, maxRetries int) *Executor {
	e := NewExecutor(gen, maxRetries, []time.Duration{time.Second, 3 * time.Second, 5 * time.Second})
	e.render = testRender
	e.sleep = noSleep
	return e
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		AutoMigrate:  true,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

const threeGateBlueprint = `{
	"name": "Test Subject",
	"mbti": {"type": "INFJ"},
	"human_design": {
		"type": "Projector",
		"gates": {
			"conscious_personality": ["34.3", "10.1"],
			"unconscious_design": ["57.2", "34.6"]
		}
	}
}`

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/soulsync/internal/domain"
)

func TestRender_AllAgentsKnown(t *testing.T) {
	agents := append([]domain.AgentKind{}, domain.SystemAgents...)
	agents = append(agents, domain.LawAgents...)
	agents = append(agents,
		domain.AgentGateAnalyst,
		domain.AgentIntelligence,
		domain.AgentSynthesis,
		domain.AgentConsciousnessIntegration,
		domain.AgentPracticalApplication,
		domain.AgentQuoteGenerator,
	)

	for _, agent := range agents {
		t.Run(string(agent), func(t *testing.T) {
			system, user, err := Render(agent, "k", `{"a":1}`)
			require.NoError(t, err)
			assert.Contains(t, system, VerifiedDataRule)
			assert.NotEmpty(t, user)
		})
	}
}

func TestRender_GateAndDimension(t *testing.T) {
	_, user, err := Render(domain.AgentGateAnalyst, "34", `{"gates":["34.3"]}`)
	require.NoError(t, err)
	assert.Contains(t, user, "gate 34")
	assert.Contains(t, user, `"34.3"`)

	system, _, err := Render(domain.AgentIntelligence, "behavioral_triggers", "law text")
	require.NoError(t, err)
	assert.Contains(t, system, "behavioral triggers")
}

func TestRender_UnknownAgent(t *testing.T) {
	_, _, err := Render(domain.AgentKind("nope"), "", "")
	assert.Error(t, err)
}

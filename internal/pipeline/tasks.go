package pipeline

import (
	"strconv"
	"strings"

	"github.com/timmy/soulsync/internal/domain"
)

// SystemTasks builds one translation task per personality system.
func SystemTasks(bp domain.Blueprint) []domain.Task {
	tasks := make([]domain.Task, 0, len(domain.SystemAgents))
	for _, agent := range domain.SystemAgents {
		tasks = append(tasks, domain.Task{
			Agent: agent,
			Key:   strings.TrimPrefix(string(agent), "system_"),
			Input: bp.String(),
		})
	}
	return tasks
}

// LawTasks builds one analysis task per hermetic law.
func LawTasks(bp domain.Blueprint) []domain.Task {
	tasks := make([]domain.Task, 0, len(domain.LawAgents))
	for _, agent := range domain.LawAgents {
		tasks = append(tasks, domain.Task{
			Agent: agent,
			Key:   strings.TrimPrefix(string(agent), "law_"),
			Input: bp.String(),
		})
	}
	return tasks
}

// GateTasks builds one task per distinct gate found in the blueprint.
func GateTasks(bp domain.Blueprint) []domain.Task {
	gates := ExtractGates(bp)
	tasks := make([]domain.Task, 0, len(gates))
	for _, gate := range gates {
		tasks = append(tasks, domain.Task{
			Agent: domain.AgentGateAnalyst,
			Key:   strconv.Itoa(gate),
			Input: bp.String(),
		})
	}
	return tasks
}

// IntelligenceTasks builds one extraction task per dimension, all reading the law analyses.
// No law analysis survived means there is nothing to extract from.
func IntelligenceTasks(laws *PhaseOutput) []domain.Task {
	input := laws.Text()
	if input == "" {
		return nil
	}
	tasks := make([]domain.Task, 0, len(domain.IntelligenceDimensions))
	for _, dim := range domain.IntelligenceDimensions {
		tasks = append(tasks, domain.Task{
			Agent: domain.AgentIntelligence,
			Key:   dim,
			Input: input,
		})
	}
	return tasks
}

var synthesisAgents = []domain.AgentKind{
	domain.AgentSynthesis,
	domain.AgentConsciousnessIntegration,
	domain.AgentPracticalApplication,
}

// SynthesisTasks builds the three narrative tasks over everything produced so far.
func SynthesisTasks(bp domain.Blueprint, out *Outputs) []domain.Task {
	input := priorText(out)
	if input == "" {
		input = bp.String()
	}
	tasks := make([]domain.Task, 0, len(synthesisAgents))
	for _, agent := range synthesisAgents {
		tasks = append(tasks, domain.Task{
			Agent: agent,
			Key:   string(agent),
			Input: input,
		})
	}
	return tasks
}

// QuoteTasks builds the quote generation task from the report's narratives.
func QuoteTasks(report *domain.Report) []domain.Task {
	input := report.Synthesis
	if input == "" {
		input = report.PracticalApplication
	}
	if input == "" {
		return nil
	}
	return []domain.Task{{
		Agent: domain.AgentQuoteGenerator,
		Key:   string(domain.AgentQuoteGenerator),
		Input: input,
	}}
}

func priorText(out *Outputs) string {
	sections := []struct {
		title string
		phase *PhaseOutput
	}{
		{"System translations", out.Systems},
		{"Hermetic law analyses", out.Laws},
		{"Gate analyses", out.Gates},
		{"Intelligence profile", out.Intelligence},
	}

	var parts []string
	for _, s := range sections {
		if text := s.phase.Text(); text != "" {
			parts = append(parts, "# "+s.title+"\n\n"+text)
		}
	}
	return strings.Join(parts, "\n\n")
}

package pipeline

import (
	"slices"
	"strconv"
	"strings"

	"github.com/timmy/soulsync/internal/domain"
)

// Assemble folds the phase outputs into a report. It performs no I/O.
// Sections whose task failed are absent; the maps are never nil.
func Assemble(out *Outputs) *domain.Report {
	report := &domain.Report{
		SystemTranslations: agentSection(out.Systems, domain.SystemAgents, "system_"),
		LawAnalyses:        agentSection(out.Laws, domain.LawAgents, "law_"),
		GateAnalyses:       make(map[int]string),
		Intelligence:       dimensionSection(out.Intelligence),
	}

	if out.Gates != nil {
		for _, r := range out.Gates.Results {
			if r.Agent != domain.AgentGateAnalyst || r.Content == "" {
				continue
			}
			gate, err := strconv.Atoi(r.Key)
			if err != nil {
				continue
			}
			report.GateAnalyses[gate] = r.Content
		}
	}

	if out.Synthesis != nil {
		for _, r := range out.Synthesis.Results {
			switch r.Agent {
			case domain.AgentSynthesis:
				report.Synthesis = r.Content
			case domain.AgentConsciousnessIntegration:
				report.ConsciousnessIntegration = r.Content
			case domain.AgentPracticalApplication:
				report.PracticalApplication = r.Content
			}
		}
	}

	for _, text := range reportTexts(report) {
		report.TotalWordCount += domain.CountWords(text)
		report.TotalCharCount += domain.CountChars(text)
	}
	return report
}

// agentSection picks the results of the given agents, keyed by agent name without prefix.
func agentSection(phase *PhaseOutput, agents []domain.AgentKind, prefix string) map[string]string {
	out := make(map[string]string)
	if phase == nil {
		return out
	}
	for _, r := range phase.Results {
		if r.Content == "" || !slices.Contains(agents, r.Agent) {
			continue
		}
		out[strings.TrimPrefix(string(r.Agent), prefix)] = r.Content
	}
	return out
}

func dimensionSection(phase *PhaseOutput) map[string]string {
	out := make(map[string]string)
	if phase == nil {
		return out
	}
	for _, r := range phase.Results {
		if r.Agent == domain.AgentIntelligence && r.Content != "" &&
			slices.Contains(domain.IntelligenceDimensions, r.Key) {
			out[r.Key] = r.Content
		}
	}
	return out
}

func reportTexts(r *domain.Report) []string {
	var texts []string
	for _, m := range []map[string]string{r.SystemTranslations, r.LawAnalyses, r.Intelligence} {
		for _, v := range m {
			texts = append(texts, v)
		}
	}
	for _, v := range r.GateAnalyses {
		texts = append(texts, v)
	}
	return append(texts, r.Synthesis, r.ConsciousnessIntegration, r.PracticalApplication)
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timmy/soulsync/internal/domain"
)

func result(agent domain.AgentKind, key, content string) domain.TaskResult {
	return domain.NewTaskResult(domain.Task{Agent: agent, Key: key}, content)
}

func sampleOutputs() *Outputs {
	return &Outputs{
		Systems: &PhaseOutput{Results: []domain.TaskResult{
			result(domain.AgentSystemMBTI, "mbti", "quiet strategist"),
			result(domain.AgentSystemChinese, "chinese_zodiac", "water tiger"),
		}},
		Laws: &PhaseOutput{Results: []domain.TaskResult{
			result(domain.AgentLawMentalism, "mentalism", "thought first"),
		}},
		Gates: &PhaseOutput{Results: []domain.TaskResult{
			result(domain.AgentGateAnalyst, "34", "power of the great"),
			result(domain.AgentGateAnalyst, "10", "self love"),
		}},
		Intelligence: &PhaseOutput{Results: []domain.TaskResult{
			result(domain.AgentIntelligence, "attachment_style", "secure"),
			result(domain.AgentIntelligence, "unknown_dimension", "ignored"),
		}},
		Synthesis: &PhaseOutput{Results: []domain.TaskResult{
			result(domain.AgentSynthesis, "synthesis", "one whole"),
			result(domain.AgentPracticalApplication, "practical_application", "walk daily"),
		}},
	}
}

func TestAssemble(t *testing.T) {
	r := Assemble(sampleOutputs())

	assert.Equal(t, map[string]string{"mbti": "quiet strategist", "chinese_zodiac": "water tiger"}, r.SystemTranslations)
	assert.Equal(t, map[string]string{"mentalism": "thought first"}, r.LawAnalyses)
	assert.Equal(t, map[int]string{34: "power of the great", 10: "self love"}, r.GateAnalyses)
	assert.Equal(t, map[string]string{"attachment_style": "secure"}, r.Intelligence)
	assert.Equal(t, "one whole", r.Synthesis)
	assert.Empty(t, r.ConsciousnessIntegration)
	assert.Equal(t, "walk daily", r.PracticalApplication)

	// 2+2+2+4+2+1+2+2 words
	assert.Equal(t, 17, r.TotalWordCount)
	assert.Equal(t, len("quiet strategist")+len("water tiger")+len("thought first")+
		len("power of the great")+len("self love")+len("secure")+len("one whole")+len("walk daily"),
		r.TotalCharCount)
	assert.Equal(t, 8, r.SectionCount())
}

func TestAssemble_Pure(t *testing.T) {
	out := sampleOutputs()
	first := Assemble(out)
	second := Assemble(out)
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestAssemble_EmptyOutputs(t *testing.T) {
	r := Assemble(&Outputs{})
	assert.NotNil(t, r.SystemTranslations)
	assert.NotNil(t, r.GateAnalyses)
	assert.Equal(t, 0, r.SectionCount())
	assert.Equal(t, 0, r.TotalWordCount)
	assert.Equal(t, 0, r.TotalCharCount)
}

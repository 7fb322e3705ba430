package domain

import (
	"strings"
	"unicode/utf8"
)

// AgentKind selects the prompt role a task is executed with.
type AgentKind string

// System translation agents, one per personality system.
const (
	AgentSystemMBTI        AgentKind = "system_mbti"
	AgentSystemHumanDesign AgentKind = "system_human_design"
	AgentSystemAstrology   AgentKind = "system_astrology"
	AgentSystemNumerology  AgentKind = "system_numerology"
	AgentSystemChinese     AgentKind = "system_chinese_zodiac"
)

// Hermetic law agents.
const (
	AgentLawMentalism      AgentKind = "law_mentalism"
	AgentLawCorrespondence AgentKind = "law_correspondence"
	AgentLawVibration      AgentKind = "law_vibration"
	AgentLawPolarity       AgentKind = "law_polarity"
	AgentLawRhythm         AgentKind = "law_rhythm"
	AgentLawCauseEffect    AgentKind = "law_cause_effect"
	AgentLawGender         AgentKind = "law_gender"
)

// Single-task agents.
const (
	AgentGateAnalyst              AgentKind = "gate_analyst"
	AgentIntelligence             AgentKind = "intelligence_extractor"
	AgentSynthesis                AgentKind = "synthesis"
	AgentConsciousnessIntegration AgentKind = "consciousness_integration"
	AgentPracticalApplication     AgentKind = "practical_application"
	AgentQuoteGenerator           AgentKind = "quote_generator"
)

// SystemAgents lists the system translation agents in report order.
var SystemAgents = []AgentKind{
	AgentSystemMBTI,
	AgentSystemHumanDesign,
	AgentSystemAstrology,
	AgentSystemNumerology,
	AgentSystemChinese,
}

// LawAgents lists the hermetic law agents in report order.
var LawAgents = []AgentKind{
	AgentLawMentalism,
	AgentLawCorrespondence,
	AgentLawVibration,
	AgentLawPolarity,
	AgentLawRhythm,
	AgentLawCauseEffect,
	AgentLawGender,
}

// IntelligenceDimensions lists the dimensions extracted from the law analyses.
var IntelligenceDimensions = []string{
	"identity_constructs",
	"behavioral_triggers",
	"execution_bias",
	"internal_conflicts",
	"spiritual_dimension",
	"adaptive_feedback",
	"temporal_biology",
	"metacognitive_biases",
	"attachment_style",
	"goal_archetypes",
	"crisis_handling",
	"identity_flexibility",
	"linguistic_fingerprint",
}

// Task is one unit of work for the text-generation service.
// Key identifies the task inside its phase (system name, law name, gate number, dimension).
type Task struct {
	Agent AgentKind
	Key   string
	Input string
}

// TaskResult is the content produced by a successful task.
type TaskResult struct {
	Agent     AgentKind `json:"agent"`
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
}

// NewTaskResult builds a result for task with derived word count.
func NewTaskResult(task Task, content string) TaskResult {
	return TaskResult{
		Agent:     task.Agent,
		Key:       task.Key,
		Content:   content,
		WordCount: CountWords(content),
	}
}

// CountWords counts whitespace separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountChars counts characters (runes), not bytes.
func CountChars(s string) int {
	return utf8.RuneCountInString(s)
}

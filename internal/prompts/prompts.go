package prompts

import (
	"fmt"
	"strings"

	"github.com/timmy/soulsync/internal/domain"
)

// ============================================================================
// Shared Guidance
// ============================================================================

// VerifiedDataRule is appended to every system prompt. Blueprint numbers are
// computed upstream and must never be recalculated by the model.
const VerifiedDataRule = `The blueprint data you receive is VERIFIED. Do NOT recalculate any numerology, astrology or Human Design values. Work only from what is given.`

// ToneRule keeps every section in the same voice.
const ToneRule = `Write in a warm, grounded and empowering tone. Use flowing prose, no numbered lists, no headings.`

// ============================================================================
// System Translation Prompts
// ============================================================================

var systemNames = map[domain.AgentKind]string{
	domain.AgentSystemMBTI:        "MBTI cognitive functions",
	domain.AgentSystemHumanDesign: "Human Design",
	domain.AgentSystemAstrology:   "Western astrology",
	domain.AgentSystemNumerology:  "numerology",
	domain.AgentSystemChinese:     "the Chinese zodiac",
}

const systemTranslationPrompt = `You are a translator between esoteric personality systems and everyday psychology. Your task is to translate the person's %s data into plain, practical language: what it says about how they think, decide, relate and recover.`

// ============================================================================
// Hermetic Law Prompts
// ============================================================================

var lawDescriptions = map[domain.AgentKind]string{
	domain.AgentLawMentalism:      "Mentalism (the All is Mind; reality is shaped by thought)",
	domain.AgentLawCorrespondence: "Correspondence (as above, so below; inner and outer mirror each other)",
	domain.AgentLawVibration:      "Vibration (nothing rests; everything moves and vibrates)",
	domain.AgentLawPolarity:       "Polarity (everything is dual; opposites are degrees of the same thing)",
	domain.AgentLawRhythm:         "Rhythm (everything flows out and in; the pendulum swing)",
	domain.AgentLawCauseEffect:    "Cause and Effect (every cause has its effect; nothing happens by chance)",
	domain.AgentLawGender:         "Gender (masculine and feminine principles exist in everything)",
}

const lawAnalysisPrompt = `You are a hermetic philosopher analysing a personal blueprint through the Law of %s. Show how this law expresses itself in the person's patterns, where they work with it and where they resist it.`

// ============================================================================
// Gate, Intelligence and Synthesis Prompts
// ============================================================================

const gateAnalystPrompt = `You are a Human Design specialist. Analyse one activated gate of this person's bodygraph in depth: its gift, its shadow, how it shows up in relationships and work, and how it interacts with the rest of the blueprint.`

const intelligencePrompt = `You are a behavioural analyst building a psychological profile. From the hermetic law analyses provided, extract the person's %s. Be concrete and specific; name observable behaviours.`

const synthesisPrompt = `You are a reflective soul guide. Synthesize all of the analyses provided into one cohesive life blueprint, highlighting strengths, shadows and the threads that connect the systems.`

const consciousnessIntegrationPrompt = `You are a consciousness integration coach. From the analyses provided, describe how the person can integrate their conscious personality with their unconscious design, naming the inner conflicts and how they resolve.`

const practicalApplicationPrompt = `You are a practical life coach. Turn the analyses provided into concrete daily practices, decision strategies and growth exercises the person can start this week.`

// QuoteGeneratorPrompt asks for one quote per line so the output can be split without parsing.
const QuoteGeneratorPrompt = `You write short personalized quotes that capture a person's blueprint. Write exactly 10 quotes, one per line. Each line has the form "category: quote". Categories are one word, for example: growth, love, purpose, resilience, wisdom. Do not number the lines.`

// ============================================================================
// Rendering
// ============================================================================

// Render returns the system and user prompt for a task.
// Parameters:
//   - agent: agent kind selecting the prompt role.
//   - key: task key inside its phase (gate number, dimension name, ...).
//   - input: payload text, usually blueprint JSON or concatenated prior outputs.
//
// Returns:
//   - string: system prompt.
//   - string: user prompt.
//   - error: non-nil for an unknown agent kind.
func Render(agent domain.AgentKind, key, input string) (string, string, error) {
	role, err := rolePrompt(agent, key)
	if err != nil {
		return "", "", err
	}

	system := strings.Join([]string{role, VerifiedDataRule, ToneRule}, "\n\n")
	return system, userPrompt(agent, key, input), nil
}

func rolePrompt(agent domain.AgentKind, key string) (string, error) {
	if name, ok := systemNames[agent]; ok {
		return fmt.Sprintf(systemTranslationPrompt, name), nil
	}
	if law, ok := lawDescriptions[agent]; ok {
		return fmt.Sprintf(lawAnalysisPrompt, law), nil
	}

	switch agent {
	case domain.AgentGateAnalyst:
		return gateAnalystPrompt, nil
	case domain.AgentIntelligence:
		return fmt.Sprintf(intelligencePrompt, strings.ReplaceAll(key, "_", " ")), nil
	case domain.AgentSynthesis:
		return synthesisPrompt, nil
	case domain.AgentConsciousnessIntegration:
		return consciousnessIntegrationPrompt, nil
	case domain.AgentPracticalApplication:
		return practicalApplicationPrompt, nil
	case domain.AgentQuoteGenerator:
		return QuoteGeneratorPrompt, nil
	}
	return "", fmt.Errorf("unknown agent kind %q", agent)
}

func userPrompt(agent domain.AgentKind, key, input string) string {
	switch agent {
	case domain.AgentGateAnalyst:
		return fmt.Sprintf("Analyse gate %s.\n\nBlueprint:\n%s", key, input)
	case domain.AgentIntelligence, domain.AgentSynthesis,
		domain.AgentConsciousnessIntegration, domain.AgentPracticalApplication:
		return "Analyses:\n" + input
	case domain.AgentQuoteGenerator:
		return "Synthesis:\n" + input
	default:
		return "Blueprint:\n" + input
	}
}

package ai

import (
	"fmt"
	"strings"
)

// PromptTemplate bundles the instructions given to the counselor model.
type PromptTemplate struct {
	SystemPrompt string
	ContextRules []string
}

var counselorTemplate = PromptTemplate{
	SystemPrompt: "You are a warm, patient counselor talking with a young person who came here to talk about how they feel. " +
		"Listen first, reflect their feelings back in simple words and ask at most one gentle follow-up question per reply.",
	ContextRules: []string{
		"Never diagnose and never prescribe medication.",
		"Keep replies short: three or four sentences.",
		"Do not judge, lecture or minimize what the user shares.",
		"Reply in the language the user writes in.",
	},
}

// BuildSystemPrompt renders the counselor prompt. When the user mentions
// self-harm, suicide or immediate danger the model must include marker
// verbatim somewhere in its reply.
func BuildSystemPrompt(marker string) string {
	return fmt.Sprintf(`%s

Conversation rules:
- %s

Safety rule:
If the user expresses thoughts of self-harm, suicide, or being in immediate danger, respond with care and include the exact text %s once in your reply. Never include it otherwise.`,
		counselorTemplate.SystemPrompt,
		strings.Join(counselorTemplate.ContextRules, "\n- "),
		marker,
	)
}

// SummarySystemPrompt instructs the summary model to answer with the
// EmotionSummary JSON object only.
const SummarySystemPrompt = "You analyse counseling conversations. Read the transcript and answer with a single JSON object and nothing else. " +
	"Fields: emotion_tags (array of short emotion words felt by the user), dominant_emotion (the single strongest emotion), " +
	"repeated_topics (array of topics the user came back to), risk_flag (true only when there are signs of self-harm, suicide or danger), " +
	"intensity_score (number between 0 and 1 for overall emotional intensity)."

// SummaryUserPrompt prefixes the serialized transcript.
const SummaryUserPrompt = "Analyse and summarise the following conversation:\n\n"

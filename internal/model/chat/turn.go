package chat

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in a session transcript. Turns are never modified
// after they are appended.
type Turn struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"content"`
}

// UserTurn builds a user utterance.
func UserTurn(text string) Turn {
	return Turn{Speaker: SpeakerUser, Text: text}
}

// AssistantTurn builds a counselor utterance.
func AssistantTurn(text string) Turn {
	return Turn{Speaker: SpeakerAssistant, Text: text}
}

// Package types holds the request and message shapes shared by providers,
// routing and the gateway handlers.
package types

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in an ordered conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a fully-formed request to a text-generation provider.
// Message order is conversation order and must be preserved.
type ChatRequest struct {
	Messages  []Message
	System    string
	Model     string
	MaxTokens int
}

// LastUserMessage returns the most recent message with the user role,
// or false when the transcript has none.
func LastUserMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i], true
		}
	}
	return Message{}, false
}

// SplitSystem separates an inline system-role entry from the chat turns.
// The ElevenLabs custom-LLM integration sends the system prompt as the
// first element of messages rather than a dedicated field.
func SplitSystem(messages []Message) (system string, rest []Message) {
	rest = make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem && system == "" {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

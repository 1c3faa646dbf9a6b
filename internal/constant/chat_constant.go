package constant

const (
	ChatMessageRoleSystem    = "system"
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Placeholder title until the first user message arrives.
	DefaultConversationTitle = "새로운 대화"

	// Fallback when the first prompt yields no usable title.
	FallbackConversationTitle = "대화"

	// Max rune length applied when deriving a title from the first prompt.
	MaxDerivedTitleLength = 40
)

func IsValidRole(role string) bool {
	switch role {
	case ChatMessageRoleSystem, ChatMessageRoleUser, ChatMessageRoleAssistant:
		return true
	}
	return false
}

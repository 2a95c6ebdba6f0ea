package entity

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type HistoryEntry struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

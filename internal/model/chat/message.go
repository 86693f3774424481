package chat

import "time"

// 对话消息的角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 是会话历史中的一轮发言。
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

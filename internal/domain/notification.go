package domain

// NotificationLevel is the severity shown to the user.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a user-visible message.
type Notification struct {
	ID        uint64            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt int64             `json:"createdAt"` // Unix ms
}

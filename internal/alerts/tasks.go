package alerts

import "time"

// Task type constants
const (
	TaskEmailSend      = "email:send"
	TaskEmailBroadcast = "email:broadcast"
	TaskPushNotify     = "push:notify"
)

// EmailEnvelope is the common payload for a single outbound email.
type EmailEnvelope struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// BroadcastPayload carries one batch of a bulk email send. Large audiences
// are split into batches upstream so a single task stays small and a failed
// batch retries without resending the whole audience.
type BroadcastPayload struct {
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

// PushPayload carries a push notification for a set of users.
type PushPayload struct {
	UserIDs []string  `json:"user_ids"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Details describes an in-app notification.
type Details struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Payload string `json:"payload,omitempty"`
}

package bid

import "time"

// Status is a bid's position in its lifecycle. Transitions are explicit; a
// bid never moves between states the table below does not allow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in-progress"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

// A rejected bid may be revived by the client accepting it later; cancelled
// and completed bids never move again.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusDelivered, StatusRejected, StatusCancelled},
	StatusDelivered:  {StatusCompleted},
	StatusRejected:   {StatusAccepted},
}

// CanTransition reports whether a bid may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the bid is no longer live from the artisan's
// side. A rejected bid counts as terminal even though the client can still
// revive it.
func Terminal(s Status) bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// Valid reports whether s is a known status.
func Valid(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusDelivered,
		StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

type Bid struct {
	ID            string     `json:"id"`
	JobID         string     `json:"job_id"`
	ArtisanID     string     `json:"artisan_id"`
	ClientID      string     `json:"client_id"`
	ChatID        string     `json:"chat_id"`
	Price         float64    `json:"price"`
	Status        Status     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	DateDelivered *time.Time `json:"date_delivered,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Available reports whether the bid is still live from the artisan's side.
// Terminal bids never come back.
func (b Bid) Available() bool {
	return !Terminal(b.Status)
}

package bid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to accepted", StatusPending, StatusAccepted, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to delivered", StatusPending, StatusDelivered, false},
		{"accepted to in-progress", StatusAccepted, StatusInProgress, true},
		{"accepted to rejected", StatusAccepted, StatusRejected, true},
		{"accepted to completed", StatusAccepted, StatusCompleted, false},
		{"in-progress to delivered", StatusInProgress, StatusDelivered, true},
		{"in-progress to cancelled", StatusInProgress, StatusCancelled, true},
		{"delivered to completed", StatusDelivered, StatusCompleted, true},
		{"delivered to rejected", StatusDelivered, StatusRejected, false},
		{"rejected revived to accepted", StatusRejected, StatusAccepted, true},
		{"cancelled is final", StatusCancelled, StatusPending, false},
		{"completed is final", StatusCompleted, StatusInProgress, false},
		{"no self transition", StatusPending, StatusPending, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalAndAvailable(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		assert.True(t, Terminal(s), string(s))
		assert.False(t, Bid{Status: s}.Available(), string(s))
	}
	for _, s := range []Status{StatusPending, StatusAccepted, StatusInProgress, StatusDelivered} {
		assert.False(t, Terminal(s), string(s))
		assert.True(t, Bid{Status: s}.Available(), string(s))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(StatusInProgress))
	assert.False(t, Valid(Status("paused")))
	assert.False(t, Valid(Status("")))
}

package job

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
		{"pending to assigned", StatusPending, StatusAssigned, true},
		{"pending straight to accepted", StatusPending, StatusAccepted, false},
		{"assigned to accepted", StatusAssigned, StatusAccepted, true},
		{"assigned back to pending on cancel", StatusAssigned, StatusPending, true},
		{"accepted to in-progress", StatusAccepted, StatusInProgress, true},
		{"accepted straight to completed", StatusAccepted, StatusCompleted, true},
		{"in-progress to completed", StatusInProgress, StatusCompleted, true},
		{"in-progress back to pending on cancel", StatusInProgress, StatusPending, true},
		{"completed flips back to in-progress", StatusCompleted, StatusInProgress, true},
		{"completed never back to pending", StatusCompleted, StatusPending, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestClientUpdatable(t *testing.T) {
	// nothing to drive before an artisan has accepted
	assert.False(t, ClientUpdatable(StatusPending, StatusCompleted))
	assert.False(t, ClientUpdatable(StatusAssigned, StatusInProgress))

	assert.True(t, ClientUpdatable(StatusAccepted, StatusInProgress))
	assert.True(t, ClientUpdatable(StatusInProgress, StatusCompleted))
	assert.True(t, ClientUpdatable(StatusCompleted, StatusInProgress))

	// clients never drive a job back to pending directly
	assert.False(t, ClientUpdatable(StatusInProgress, StatusPending))
	assert.False(t, ClientUpdatable(StatusAccepted, StatusAssigned))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(StatusAssigned))
	assert.False(t, Valid(Status("archived")))
}

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talenter-ng/talenter/internal/bid"
	"github.com/talenter-ng/talenter/internal/job"
)

func TestCanApply(t *testing.T) {
	assert.NoError(t, CanApply(job.StatusPending, false, true))
	assert.ErrorIs(t, CanApply(job.StatusPending, true, true), errOwnBid)
	assert.ErrorIs(t, CanApply(job.StatusAssigned, false, true), errJobClosed)
	assert.ErrorIs(t, CanApply(job.StatusCompleted, false, true), errJobClosed)
	assert.ErrorIs(t, CanApply(job.StatusPending, false, false), errSkillMismatch)
}

func TestCanAcceptBid(t *testing.T) {
	assert.NoError(t, CanAcceptBid(bid.StatusPending))
	assert.NoError(t, CanAcceptBid(bid.StatusRejected))
	assert.ErrorIs(t, CanAcceptBid(bid.StatusAccepted), errBidNotSelectable)
	assert.ErrorIs(t, CanAcceptBid(bid.StatusInProgress), errBidNotSelectable)
	assert.ErrorIs(t, CanAcceptBid(bid.StatusCancelled), errBidNotSelectable)
}

func TestCanAcceptJob(t *testing.T) {
	assert.NoError(t, CanAcceptJob(bid.StatusAccepted))
	assert.ErrorIs(t, CanAcceptJob(bid.StatusPending), errBidNotAccepted)
	assert.ErrorIs(t, CanAcceptJob(bid.StatusInProgress), errBidNotAccepted)
}

func TestPenaltyRequired(t *testing.T) {
	held := "bid-1"
	assert.True(t, PenaltyRequired(&held, "bid-1"))
	assert.False(t, PenaltyRequired(&held, "bid-2"))
	assert.False(t, PenaltyRequired(nil, "bid-1"))
}

func TestCanUpdatePrice(t *testing.T) {
	assert.NoError(t, CanUpdatePrice(bid.StatusPending))
	assert.ErrorIs(t, CanUpdatePrice(bid.StatusAccepted), errPriceLocked)
	assert.ErrorIs(t, CanUpdatePrice(bid.StatusDelivered), errPriceLocked)
}

func TestCanDeliver(t *testing.T) {
	assert.NoError(t, CanDeliver(bid.StatusInProgress))
	assert.ErrorIs(t, CanDeliver(bid.StatusDelivered), errAlreadyDelivered)
	assert.ErrorIs(t, CanDeliver(bid.StatusPending), errBidNotInProgress)
}

func TestCanReject(t *testing.T) {
	assert.NoError(t, CanReject(bid.StatusPending))
	assert.NoError(t, CanReject(bid.StatusAccepted))
	assert.NoError(t, CanReject(bid.StatusInProgress))
	assert.ErrorIs(t, CanReject(bid.StatusDelivered), errAlreadyDelivered)
	assert.ErrorIs(t, CanReject(bid.StatusCompleted), errBidFinal)
	assert.ErrorIs(t, CanReject(bid.StatusCancelled), errBidFinal)
}

func TestShouldPayout(t *testing.T) {
	// first completion pays out
	assert.True(t, ShouldPayout(job.StatusCompleted, bid.StatusDelivered))
	assert.True(t, ShouldPayout(job.StatusCompleted, bid.StatusInProgress))

	// flipping back and completing again must not pay twice
	assert.False(t, ShouldPayout(job.StatusCompleted, bid.StatusCompleted))
	assert.False(t, ShouldPayout(job.StatusInProgress, bid.StatusCompleted))
	assert.False(t, ShouldPayout(job.StatusInProgress, bid.StatusDelivered))
}

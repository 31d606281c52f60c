package match

import (
	"github.com/talenter-ng/talenter/internal/bid"
	"github.com/talenter-ng/talenter/internal/job"
)

// The guards are pure so every branch of the orchestrator's decision making
// can be exercised without a database.

// CanApply reports whether an artisan may place a bid on a job.
func CanApply(jobStatus job.Status, isOwner, hasSkill bool) error {
	if isOwner {
		return errOwnBid
	}
	if jobStatus != job.StatusPending {
		return errJobClosed
	}
	if !hasSkill {
		return errSkillMismatch
	}
	return nil
}

// CanAcceptBid reports whether the client may select this bid. A previously
// rejected bid can be selected again.
func CanAcceptBid(s bid.Status) error {
	if s != bid.StatusPending && s != bid.StatusRejected {
		return errBidNotSelectable
	}
	return nil
}

// CanAcceptJob reports whether the artisan may accept the engagement. The
// client must already have selected the bid.
func CanAcceptJob(s bid.Status) error {
	if s != bid.StatusAccepted {
		return errBidNotAccepted
	}
	return nil
}

// PenaltyRequired reports whether cancelling the given bid must unwind the
// escrow. Money moved only if this bid is the one the job holds.
func PenaltyRequired(heldBidID *string, bidID string) bool {
	return heldBidID != nil && *heldBidID == bidID
}

// CanUpdatePrice reports whether the bid's price may still change.
func CanUpdatePrice(s bid.Status) error {
	if s != bid.StatusPending {
		return errPriceLocked
	}
	return nil
}

// CanDeliver reports whether the artisan may mark the bid delivered.
func CanDeliver(s bid.Status) error {
	if s == bid.StatusDelivered {
		return errAlreadyDelivered
	}
	if s != bid.StatusInProgress {
		return errBidNotInProgress
	}
	return nil
}

// CanReject reports whether the bid may be rejected by the client.
func CanReject(s bid.Status) error {
	if s == bid.StatusDelivered {
		return errAlreadyDelivered
	}
	if !bid.CanTransition(s, bid.StatusRejected) {
		return errBidFinal
	}
	return nil
}

// ShouldPayout reports whether a job status change releases the escrow. The
// payout fires only on the first transition to completed: once the held bid
// is completed it never fires again.
func ShouldPayout(to job.Status, heldBidStatus bid.Status) bool {
	return to == job.StatusCompleted && heldBidStatus != bid.StatusCompleted
}

package match

import "github.com/talenter-ng/talenter/internal/apperr"

var (
	errOwnBid           = apperr.E(apperr.KindForbidden, "you cannot bid on your own job")
	errJobClosed        = apperr.E(apperr.KindForbidden, "job is no longer open for bids")
	errSkillMismatch    = apperr.E(apperr.KindForbidden, "you do not have the skills this job requires")
	errBidNotSelectable = apperr.E(apperr.KindForbidden, "bid can no longer be accepted")
	errBidNotAccepted   = apperr.E(apperr.KindForbidden, "the client has not accepted this bid")
	errHeldBid          = apperr.E(apperr.KindConflict, "job has an accepted bid already")
	errPriceLocked      = apperr.E(apperr.KindForbidden, "price can only be changed while the bid is pending")
	errAlreadyDelivered = apperr.E(apperr.KindForbidden, "bid can no longer be updated once delivered")
	errBidNotInProgress = apperr.E(apperr.KindForbidden, "bid is not in progress")
	errBidFinal         = apperr.E(apperr.KindForbidden, "bid is already closed")
)

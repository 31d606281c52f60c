package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/bid"
	"github.com/talenter-ng/talenter/internal/chat"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/job"
	"github.com/talenter-ng/talenter/internal/wallet"
)

// The orchestrator owns every cross-entity mutation of the job/bid/wallet
// triangle. Each operation commits its state changes in a single transaction;
// chat messages and notifications run after commit and never roll it back.
// The one exception is the first message of an application, which is blocking
// because the bid requires its chat reference.

const bidCols = `id, job_id, artisan_id, client_id, chat_id, price, status,
	COALESCE(transaction_id::text, ''), date_delivered, created_at, updated_at`

type bidScanner interface {
	Scan(dest ...any) error
}

func scanBid(row bidScanner) (bid.Bid, error) {
	var b bid.Bid
	err := row.Scan(&b.ID, &b.JobID, &b.ArtisanID, &b.ClientID, &b.ChatID, &b.Price,
		&b.Status, &b.TransactionID, &b.DateDelivered, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBid loads one bid.
func GetBid(ctx context.Context, id string) (bid.Bid, error) {
	b, err := scanBid(db.Conn.QueryRow(ctx, `SELECT `+bidCols+` FROM bids WHERE id = $1`, id))
	if err != nil {
		return bid.Bid{}, apperr.E(apperr.KindNotFound, "bid does not exist")
	}
	return b, nil
}

func bidForUpdate(ctx context.Context, tx pgx.Tx, id string) (bid.Bid, error) {
	b, err := scanBid(tx.QueryRow(ctx, `SELECT `+bidCols+` FROM bids WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return bid.Bid{}, apperr.E(apperr.KindNotFound, "bid does not exist")
	}
	return b, nil
}

// rejectSiblings force-rejects every other live bid on the job.
func rejectSiblings(ctx context.Context, tx pgx.Tx, jobID, keepBidID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE bids SET status = 'rejected', updated_at = NOW()
		WHERE job_id = $1 AND id <> $2 AND status IN ('pending', 'accepted')`,
		jobID, keepBidID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not reject sibling bids", err)
	}
	return nil
}

// Apply places an artisan's bid on a pending job. The opening chat message
// is sent first and is blocking: a bid without its chat thread is useless to
// both sides.
func Apply(ctx context.Context, artisanID, jobID string, price float64) (bid.Bid, error) {
	if price <= 0 {
		return bid.Bid{}, apperr.E(apperr.KindInvalid, "bid price must be positive")
	}
	j, err := job.GetByID(ctx, jobID)
	if err != nil {
		return bid.Bid{}, err
	}

	var skills []string
	if err := db.Conn.QueryRow(ctx, `SELECT skills FROM users WHERE id = $1`, artisanID).Scan(&skills); err != nil {
		return bid.Bid{}, apperr.E(apperr.KindNotFound, "user does not exist")
	}
	hasSkill := false
	for _, have := range skills {
		for _, want := range j.Skills {
			if have == want {
				hasSkill = true
			}
		}
	}
	if err := CanApply(j.Status, j.CreatedBy == artisanID, hasSkill); err != nil {
		return bid.Bid{}, err
	}

	chatID, err := chat.SendMessage(ctx, artisanID, []string{j.CreatedBy},
		fmt.Sprintf("I have applied to your job: %s", j.Service), "text")
	if err != nil {
		return bid.Bid{}, err
	}

	b, err := scanBid(db.Conn.QueryRow(ctx, `
		INSERT INTO bids (job_id, artisan_id, client_id, chat_id, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+bidCols,
		jobID, artisanID, j.CreatedBy, chatID, price))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return bid.Bid{}, apperr.E(apperr.KindConflict, "you already have a bid on this job")
		}
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not create bid", err)
	}

	_ = alerts.Notify(ctx, []string{j.CreatedBy}, alerts.Details{
		Type:    "Bid",
		Title:   "New Bid",
		Message: fmt.Sprintf("You have a new bid on %s", j.Service),
		Payload: b.ID,
	}, "", true)
	return b, nil
}

// AcceptBid is the client selecting a bid. No money moves yet: the client's
// balance is only pre-checked so they learn about a shortfall before the
// artisan commits.
func AcceptBid(ctx context.Context, clientID, bidID string) (bid.Bid, error) {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	b, err := bidForUpdate(ctx, tx, bidID)
	if err != nil {
		return bid.Bid{}, err
	}
	if b.ClientID != clientID {
		return bid.Bid{}, apperr.E(apperr.KindForbidden, "you can only accept bids on your own job")
	}
	if err := CanAcceptBid(b.Status); err != nil {
		return bid.Bid{}, err
	}
	j, err := job.GetByIDTx(ctx, tx, b.JobID)
	if err != nil {
		return bid.Bid{}, err
	}
	if j.BidID != nil {
		return bid.Bid{}, errHeldBid
	}
	if _, err := wallet.CheckBalance(ctx, b.Price, clientID); err != nil {
		return bid.Bid{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bids SET status = 'accepted', updated_at = NOW() WHERE id = $1`, b.ID); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
	}
	if err := rejectSiblings(ctx, tx, j.ID, b.ID); err != nil {
		return bid.Bid{}, err
	}
	if j.Status == job.StatusPending {
		if _, err := tx.Exec(ctx,
			`UPDATE jobs SET status = 'assigned', updated_at = NOW() WHERE id = $1`, j.ID); err != nil {
			return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update job", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}

	b.Status = bid.StatusAccepted
	_ = alerts.Notify(ctx, []string{b.ArtisanID}, alerts.Details{
		Type:    "Bid",
		Title:   "Bid Accepted",
		Message: fmt.Sprintf("Your bid on %s was accepted, you can now accept the job", j.Service),
		Payload: b.ID,
	}, "", true)
	return b, nil
}

// AcceptJob is the artisan committing to a client-selected bid. This is the
// point where money moves: the client pays into escrow and the job is locked
// to this bid. Two artisans racing on the same job are serialized by the
// conditional update on jobs.bid_id.
func AcceptJob(ctx context.Context, artisanID, bidID string) (bid.Bid, error) {
	var j job.Job
	var b bid.Bid

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	b, err = bidForUpdate(ctx, tx, bidID)
	if err != nil {
		return bid.Bid{}, err
	}
	if b.ArtisanID != artisanID {
		return bid.Bid{}, apperr.E(apperr.KindForbidden, "you can only accept your own bid")
	}
	if err := CanAcceptJob(b.Status); err != nil {
		return bid.Bid{}, err
	}
	j, err = job.GetByIDTx(ctx, tx, b.JobID)
	if err != nil {
		return bid.Bid{}, err
	}
	if j.BidID != nil {
		return bid.Bid{}, errHeldBid
	}

	res, err := wallet.TransferTx(ctx, tx, b.ClientID, b.ArtisanID, b.Price,
		fmt.Sprintf("Payment for %s", j.Service))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInsufficientBalance {
			// abort with no state change, but tell both sides why
			_ = alerts.Notify(ctx, []string{b.ClientID}, alerts.Details{
				Type:    "Wallet",
				Title:   "Insufficient Balance",
				Message: fmt.Sprintf("Top up your wallet to engage the artisan for %s", j.Service),
				Payload: j.ID,
			}, "", true)
			_ = alerts.Notify(ctx, []string{b.ArtisanID}, alerts.Details{
				Type:    "Bid",
				Title:   "Engagement On Hold",
				Message: fmt.Sprintf("The client needs to fund their wallet before %s can start", j.Service),
				Payload: b.ID,
			}, "", true)
		}
		return bid.Bid{}, err
	}

	claim, err := tx.Exec(ctx, `
		UPDATE jobs SET bid_id = $1, assigned_to = $2, price = $3, initial_charge = $4,
			status = 'accepted', updated_at = NOW()
		WHERE id = $5 AND bid_id IS NULL`,
		b.ID, b.ArtisanID, b.Price, res.InitialCharge, j.ID)
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update job", err)
	}
	if claim.RowsAffected() == 0 {
		return bid.Bid{}, errHeldBid
	}

	b, err = scanBid(tx.QueryRow(ctx, `
		UPDATE bids SET status = 'in-progress', transaction_id = $1, updated_at = NOW()
		WHERE id = $2 RETURNING `+bidCols,
		res.DebitEntryID, b.ID))
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
	}
	if err := rejectSiblings(ctx, tx, j.ID, b.ID); err != nil {
		return bid.Bid{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}

	_, _ = chat.SendMessage(ctx, artisanID, []string{b.ClientID},
		fmt.Sprintf("I have accepted the job: %s. Work starts now.", j.Service), "text")
	_ = alerts.Notify(ctx, []string{b.ClientID}, alerts.Details{
		Type:    "Job",
		Title:   "Job Accepted",
		Message: fmt.Sprintf("The artisan has accepted %s and your payment is held in escrow", j.Service),
		Payload: j.ID,
	}, "", true)
	return b, nil
}

// CancelBid is the artisan withdrawing. Before escrow it is a plain status
// flip; after escrow the artisan pays the cancellation penalty, the client is
// refunded in full and the job goes back to the open pool.
func CancelBid(ctx context.Context, artisanID, bidID string) (bid.Bid, error) {
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	b, err := bidForUpdate(ctx, tx, bidID)
	if err != nil {
		return bid.Bid{}, err
	}
	if b.ArtisanID != artisanID {
		return bid.Bid{}, apperr.E(apperr.KindForbidden, "you can only cancel your own bid")
	}
	if !bid.CanTransition(b.Status, bid.StatusCancelled) {
		return bid.Bid{}, errBidFinal
	}
	j, err := job.GetByIDTx(ctx, tx, b.JobID)
	if err != nil {
		return bid.Bid{}, err
	}

	penalised := PenaltyRequired(j.BidID, b.ID)
	if penalised {
		if _, err := wallet.TransferWithPenaltyTx(ctx, tx, b.ArtisanID, b.ClientID,
			*j.Price, fmt.Sprintf("Refund for %s", j.Service), *j.InitialCharge); err != nil {
			return bid.Bid{}, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = 'pending', bid_id = NULL, assigned_to = NULL,
				price = NULL, initial_charge = NULL, updated_at = NOW()
			WHERE id = $1`, j.ID); err != nil {
			return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not release job", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE bids SET status = 'cancelled', updated_at = NOW() WHERE id = $1`, b.ID); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}

	b.Status = bid.StatusCancelled
	_ = alerts.Notify(ctx, []string{b.ClientID}, alerts.Details{
		Type:    "Bid",
		Title:   "Bid Cancelled",
		Message: fmt.Sprintf("The artisan has withdrawn from %s", j.Service),
		Payload: j.ID,
	}, "", true)
	if penalised {
		// the job is open again; re-run matching as if freshly posted
		j.Status = job.StatusPending
		job.NotifyMatchingArtisans(ctx, j)
	}
	return b, nil
}

// UpdateBidParams carries the partial update of a bid.
type UpdateBidParams struct {
	Price  *float64    `json:"price"`
	Status *bid.Status `json:"status"`
}

// UpdateBid applies a price change (artisan, pending only), a rejection
// (client only) or a delivery (artisan, in-progress only).
func UpdateBid(ctx context.Context, actorID, bidID string, p UpdateBidParams) (bid.Bid, error) {
	if p.Price == nil && p.Status == nil {
		return bid.Bid{}, apperr.E(apperr.KindInvalid, "nothing to update")
	}
	if p.Status != nil && *p.Status != bid.StatusRejected && *p.Status != bid.StatusDelivered {
		return bid.Bid{}, apperr.E(apperr.KindInvalid, "bid status can only be set to rejected or delivered")
	}
	if p.Price != nil && *p.Price <= 0 {
		return bid.Bid{}, apperr.E(apperr.KindInvalid, "bid price must be positive")
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	b, err := bidForUpdate(ctx, tx, bidID)
	if err != nil {
		return bid.Bid{}, err
	}

	if p.Price != nil {
		if b.ArtisanID != actorID {
			return bid.Bid{}, apperr.E(apperr.KindForbidden, "you can only change the price of your own bid")
		}
		if err := CanUpdatePrice(b.Status); err != nil {
			return bid.Bid{}, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bids SET price = $1, updated_at = NOW() WHERE id = $2`, *p.Price, b.ID); err != nil {
			return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
		}
	}
	if p.Status != nil {
		switch *p.Status {
		case bid.StatusRejected:
			if b.ClientID != actorID {
				return bid.Bid{}, apperr.E(apperr.KindForbidden, "only the job owner can reject a bid")
			}
			if err := CanReject(b.Status); err != nil {
				return bid.Bid{}, err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE bids SET status = 'rejected', updated_at = NOW() WHERE id = $1`, b.ID); err != nil {
				return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
			}
		case bid.StatusDelivered:
			if b.ArtisanID != actorID {
				return bid.Bid{}, apperr.E(apperr.KindForbidden, "only the artisan can deliver a bid")
			}
			if err := CanDeliver(b.Status); err != nil {
				return bid.Bid{}, err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE bids SET status = 'delivered', date_delivered = NOW(), updated_at = NOW()
				 WHERE id = $1`, b.ID); err != nil {
				return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
			}
		}
	}

	b, err = scanBid(tx.QueryRow(ctx, `SELECT `+bidCols+` FROM bids WHERE id = $1`, b.ID))
	if err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "could not reload bid", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return bid.Bid{}, apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}

	if p.Status != nil && *p.Status == bid.StatusDelivered {
		_ = alerts.Notify(ctx, []string{b.ClientID}, alerts.Details{
			Type:    "Bid",
			Title:   "Work Delivered",
			Message: "The artisan has delivered, review and complete the job to release payment",
			Payload: b.ID,
		}, "", true)
	}
	return b, nil
}

// UpdateJobStatus lets the client drive an engaged job between in-progress
// and completed. The escrow payout fires exactly once, on the first
// transition to completed.
func UpdateJobStatus(ctx context.Context, clientID, jobID string, to job.Status) (job.Job, error) {
	if !job.Valid(to) {
		return job.Job{}, apperr.Ef(apperr.KindInvalid, "unknown job status %q", to)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return job.Job{}, apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	j, err := job.GetByIDTx(ctx, tx, jobID)
	if err != nil {
		return job.Job{}, err
	}
	if j.CreatedBy != clientID {
		return job.Job{}, apperr.E(apperr.KindForbidden, "you can only update your own job")
	}
	if !job.ClientUpdatable(j.Status, to) {
		return job.Job{}, apperr.Ef(apperr.KindForbidden, "job cannot move from %s to %s", j.Status, to)
	}
	if j.BidID == nil || j.AssignedTo == nil {
		return job.Job{}, apperr.E(apperr.KindInternal, "job has no held bid")
	}

	b, err := bidForUpdate(ctx, tx, *j.BidID)
	if err != nil {
		return job.Job{}, err
	}

	payout := ShouldPayout(to, b.Status)
	if payout {
		if _, err := wallet.ReleaseTx(ctx, tx, *j.AssignedTo, *j.Price,
			fmt.Sprintf("Earnings for %s", j.Service), *j.InitialCharge); err != nil {
			return job.Job{}, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bids SET status = 'completed', updated_at = NOW() WHERE id = $1`, b.ID); err != nil {
			return job.Job{}, apperr.Wrap(apperr.KindInternal, "could not update bid", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET projects = projects + 1 WHERE id = $1`, *j.AssignedTo); err != nil {
			return job.Job{}, apperr.Wrap(apperr.KindInternal, "could not update artisan profile", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`, to, j.ID); err != nil {
		return job.Job{}, apperr.Wrap(apperr.KindInternal, "could not update job", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return job.Job{}, apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}

	j.Status = to
	if payout {
		_ = alerts.Notify(ctx, []string{*j.AssignedTo}, alerts.Details{
			Type:    "Wallet",
			Title:   "Payment Released",
			Message: fmt.Sprintf("Your earnings for %s are now available in your wallet", j.Service),
			Payload: j.ID,
		}, "", true)
	}
	return j, nil
}

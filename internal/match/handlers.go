package match

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/bid"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/job"
)

func userID(c echo.Context) (string, error) {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return "", apperr.E(apperr.KindUnauthorized, "unauthorized")
	}
	return uid, nil
}

func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.E(apperr.KindInvalid, "invalid id")
	}
	return id, nil
}

type applyRequest struct {
	JobID string  `json:"job_id"`
	Price float64 `json:"price"`
}

// HandleApply places the caller's bid on a job.
func HandleApply(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req applyRequest
	if err := c.Bind(&req); err != nil || req.JobID == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "job_id and price are required"))
	}
	b, err := Apply(c.Request().Context(), uid, req.JobID, req.Price)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Created(c, "Bid placed", b)
}

// HandleAcceptBid is the client selecting a bid.
func HandleAcceptBid(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b, err := AcceptBid(c.Request().Context(), uid, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Bid accepted", b)
}

// HandleAcceptJob is the artisan committing to a selected bid.
func HandleAcceptJob(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b, err := AcceptJob(c.Request().Context(), uid, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Job accepted", b)
}

// HandleCancelBid is the artisan withdrawing from a bid.
func HandleCancelBid(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b, err := CancelBid(c.Request().Context(), uid, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Bid cancelled", b)
}

// HandleUpdateBid applies a price change, rejection or delivery.
func HandleUpdateBid(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req UpdateBidParams
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b, err := UpdateBid(c.Request().Context(), uid, id, req)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Bid updated", b)
}

type jobStatusRequest struct {
	Status job.Status `json:"status"`
}

// HandleUpdateJobStatus drives an engaged job between in-progress and
// completed.
func HandleUpdateJobStatus(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req jobStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "status is required"))
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	j, err := UpdateJobStatus(c.Request().Context(), uid, id, req.Status)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Job updated", j)
}

// HandleGetBid returns one bid to either of its parties.
func HandleGetBid(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b, err := GetBid(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if b.ArtisanID != uid && b.ClientID != uid {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you are not part of this bid"))
	}
	return apperr.OK(c, "Bid", b)
}

// HandleListJobBids returns every bid on one of the caller's jobs.
func HandleListJobBids(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	ctx := c.Request().Context()
	j, err := job.GetByID(ctx, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if j.CreatedBy != uid {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you can only view bids on your own job"))
	}
	bids, err := listBids(c, `SELECT `+bidCols+` FROM bids WHERE job_id = $1 ORDER BY created_at DESC`, j.ID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Bids", bids)
}

// HandleListMyBids returns the caller's bids across jobs.
func HandleListMyBids(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	bids, err := listBids(c, `SELECT `+bidCols+` FROM bids WHERE artisan_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Bids", bids)
}

func listBids(c echo.Context, query string, args ...any) ([]bid.Bid, error) {
	rows, err := db.Conn.Query(c.Request().Context(), query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not fetch bids", err)
	}
	defer rows.Close()

	bids := make([]bid.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not read bids", err)
		}
		bids = append(bids, b)
	}
	return bids, nil
}

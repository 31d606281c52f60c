package review

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/job"
)

type Review struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	ArtisanID string    `json:"artisan_id"`
	ClientID  string    `json:"client_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type createRequest struct {
	JobID   string `json:"job_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create leaves a review on a completed job. Only the job's owner may review
// and each job carries at most one review.
func Create(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req createRequest
	if err := c.Bind(&req); err != nil || req.JobID == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "job_id and rating are required"))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "rating must be between 1 and 5"))
	}
	ctx := c.Request().Context()

	j, err := job.GetByID(ctx, req.JobID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if j.CreatedBy != uid {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you can only review your own job"))
	}
	if j.Status != job.StatusCompleted || j.AssignedTo == nil {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "only completed jobs can be reviewed"))
	}

	var r Review
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO reviews (job_id, artisan_id, client_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, job_id, artisan_id, client_id, rating, COALESCE(comment, ''), created_at`,
		j.ID, *j.AssignedTo, uid, req.Rating, req.Comment).
		Scan(&r.ID, &r.JobID, &r.ArtisanID, &r.ClientID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Respond(c, apperr.E(apperr.KindConflict, "this job has already been reviewed"))
		}
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not create review", err))
	}
	return apperr.Created(c, "Review created", r)
}

// ForArtisan returns an artisan's reviews with their average rating.
func ForArtisan(c echo.Context) error {
	artisanID := c.Param("id")
	ctx := c.Request().Context()

	rows, err := db.Conn.Query(ctx, `
		SELECT id, job_id, artisan_id, client_id, rating, COALESCE(comment, ''), created_at
		FROM reviews WHERE artisan_id = $1 ORDER BY created_at DESC`, artisanID)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch reviews", err))
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	var sum int
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.JobID, &r.ArtisanID, &r.ClientID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read reviews", err))
		}
		sum += r.Rating
		reviews = append(reviews, r)
	}
	var average float64
	if len(reviews) > 0 {
		average = float64(sum) / float64(len(reviews))
	}
	return apperr.OK(c, "Reviews", echo.Map{
		"reviews": reviews,
		"average": average,
		"count":   len(reviews),
	})
}

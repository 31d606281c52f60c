package job

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
)

// Status is a job's position in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// A completed job may be flipped back to in-progress by the client; the
// escrow payout only ever fires on the first completion. Assigned jobs fall
// back to pending when the held bid is cancelled.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAssigned},
	StatusAssigned:   {StatusAccepted, StatusPending},
	StatusAccepted:   {StatusInProgress, StatusCompleted, StatusPending},
	StatusInProgress: {StatusCompleted, StatusPending},
	StatusCompleted:  {StatusInProgress},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClientUpdatable reports whether the client may drive the job to the given
// status directly. Nothing is updatable before an artisan has accepted.
func ClientUpdatable(from, to Status) bool {
	if from == StatusPending || from == StatusAssigned {
		return false
	}
	if to != StatusInProgress && to != StatusCompleted {
		return false
	}
	return CanTransition(from, to)
}

// Valid reports whether s is a known status.
func Valid(s Status) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusAccepted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Job struct {
	ID            string    `json:"id"`
	Service       string    `json:"service"`
	Description   string    `json:"description"`
	CreatedBy     string    `json:"created_by"`
	Currency      string    `json:"currency"`
	Budget        float64   `json:"budget"`
	Status        Status    `json:"status"`
	AssignedTo    *string   `json:"assigned_to,omitempty"`
	BidID         *string   `json:"bid_id,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	InitialCharge *float64  `json:"initial_charge,omitempty"`
	Skills        []string  `json:"skills"`
	Images        []string  `json:"images"`
	Location      string    `json:"location,omitempty"`
	PlaceID       string    `json:"place_id,omitempty"`
	Latitude      float64   `json:"latitude,omitempty"`
	Longitude     float64   `json:"longitude,omitempty"`
	Country       string    `json:"country"`
	SavedBy       []string  `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Saved is derived per viewer, not stored.
	Saved bool `json:"saved"`
}

const selectCols = `id, service, description, created_by, currency, budget, status,
	assigned_to, bid_id, price, initial_charge, skills, images,
	COALESCE(location, ''), COALESCE(place_id, ''),
	COALESCE(latitude, 0), COALESCE(longitude, 0), country, saved_by,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Service, &j.Description, &j.CreatedBy, &j.Currency,
		&j.Budget, &j.Status, &j.AssignedTo, &j.BidID, &j.Price, &j.InitialCharge,
		&j.Skills, &j.Images, &j.Location, &j.PlaceID, &j.Latitude, &j.Longitude,
		&j.Country, &j.SavedBy, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (j *Job) markSaved(viewer string) {
	for _, id := range j.SavedBy {
		if id == viewer {
			j.Saved = true
			return
		}
	}
}

// GetByID loads one job.
func GetByID(ctx context.Context, id string) (Job, error) {
	j, err := scanJob(db.Conn.QueryRow(ctx, `SELECT `+selectCols+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return Job{}, apperr.E(apperr.KindNotFound, "job does not exist")
	}
	return j, nil
}

// GetByIDTx loads and row-locks one job inside the caller's transaction.
func GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (Job, error) {
	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+selectCols+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Job{}, apperr.E(apperr.KindNotFound, "job does not exist")
	}
	return j, nil
}

// ListFilter narrows job listings. Nil fields are ignored.
type ListFilter struct {
	Status    *Status
	CreatedBy *string
	Skill     *string
	Search    *string
	Limit     int
}

// List returns jobs matching the filter, newest first.
func List(ctx context.Context, f ListFilter) ([]Job, error) {
	query := `SELECT ` + selectCols + ` FROM jobs WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, v any) {
		n++
		args = append(args, v)
		query += clause
	}
	if f.Status != nil {
		add(` AND status = $`+strconv.Itoa(n+1), *f.Status)
	}
	if f.CreatedBy != nil {
		add(` AND created_by = $`+strconv.Itoa(n+1), *f.CreatedBy)
	}
	if f.Skill != nil {
		add(` AND $`+strconv.Itoa(n+1)+` = ANY(skills)`, *f.Skill)
	}
	if f.Search != nil {
		add(` AND (service ILIKE '%' || $`+strconv.Itoa(n+1)+` || '%' OR description ILIKE '%' || $`+strconv.Itoa(n+1)+` || '%')`, *f.Search)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not fetch jobs", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "could not read jobs", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}


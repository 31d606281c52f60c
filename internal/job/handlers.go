package job

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/geo"
	"github.com/talenter-ng/talenter/internal/settings"
)

type createRequest struct {
	Service     string   `json:"service"`
	Description string   `json:"description"`
	Currency    string   `json:"currency"`
	Budget      float64  `json:"budget"`
	Skills      []string `json:"skills"`
	Images      []string `json:"images"`
	Location    string   `json:"location"`
	PlaceID     string   `json:"place_id"`
}

// Create posts a new job and alerts artisans whose skills and location match.
func Create(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	if req.Service == "" || req.Description == "" || req.Budget <= 0 || len(req.Skills) == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "service, description, budget and skills are required"))
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	ctx := c.Request().Context()

	// Geocoding is best-effort; a job without coordinates still matches.
	var lat, lng float64
	if req.PlaceID != "" {
		if la, ln, err := geo.PlaceCoordinates(ctx, req.PlaceID); err == nil {
			lat, lng = la, ln
		}
	}

	j, err := scanJob(db.Conn.QueryRow(ctx, `
		INSERT INTO jobs (service, description, created_by, currency, budget, skills, images,
			location, place_id, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, 0), NULLIF($11, 0))
		RETURNING `+selectCols,
		req.Service, req.Description, uid, req.Currency, req.Budget,
		req.Skills, req.Images, req.Location, req.PlaceID, lat, lng))
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not create job", err))
	}

	NotifyMatchingArtisans(ctx, j)
	return apperr.Created(c, "Job created", j)
}

// NotifyMatchingArtisans alerts active artisans who share a skill with the
// job and are within the platform matching radius. Best-effort.
func NotifyMatchingArtisans(ctx context.Context, j Job) {
	rows, err := db.Conn.Query(ctx, `
		SELECT id, COALESCE(latitude, 0), COALESCE(longitude, 0)
		FROM users WHERE type = 'artisan' AND is_active AND skills && $1 AND id <> $2`,
		j.Skills, j.CreatedBy)
	if err != nil {
		return
	}
	defer rows.Close()

	s, err := settings.Get(ctx)
	if err != nil {
		return
	}
	var matched []string
	for rows.Next() {
		var id string
		var lat, lng float64
		if err := rows.Scan(&id, &lat, &lng); err != nil {
			return
		}
		if geo.Within(j.Latitude, j.Longitude, lat, lng, s.Distance) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return
	}
	_ = alerts.Notify(ctx, matched, alerts.Details{
		Type:    "Job",
		Title:   "New Job Available",
		Message: j.Service + " was just posted near you",
		Payload: j.ID,
	}, "", true)
}

// Get returns one job with the viewer's saved flag.
func Get(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	j, err := GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	j.markSaved(uid)
	return apperr.OK(c, "Job", j)
}

// ListOpen returns pending jobs matching the artisan's skills, filtered to
// the platform radius around the artisan when coordinates are known.
func ListOpen(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	ctx := c.Request().Context()

	var skills []string
	var lat, lng float64
	err := db.Conn.QueryRow(ctx,
		`SELECT skills, COALESCE(latitude, 0), COALESCE(longitude, 0) FROM users WHERE id = $1`, uid).
		Scan(&skills, &lat, &lng)
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "user does not exist"))
	}

	pending := StatusPending
	jobs, err := List(ctx, ListFilter{Status: &pending})
	if err != nil {
		return apperr.Respond(c, err)
	}

	s, err := settings.Get(ctx)
	if err != nil {
		return apperr.Respond(c, err)
	}
	skillSet := make(map[string]bool, len(skills))
	for _, sk := range skills {
		skillSet[sk] = true
	}
	matched := make([]Job, 0)
	for _, j := range jobs {
		if j.CreatedBy == uid {
			continue
		}
		ok := false
		for _, sk := range j.Skills {
			if skillSet[sk] {
				ok = true
				break
			}
		}
		if !ok || !geo.Within(j.Latitude, j.Longitude, lat, lng, s.Distance) {
			continue
		}
		j.markSaved(uid)
		matched = append(matched, j)
	}
	return apperr.OK(c, "Jobs", matched)
}

// ListMine returns the caller's own jobs, optionally narrowed by status.
func ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	f := ListFilter{CreatedBy: &uid}
	if raw := c.QueryParam("status"); raw != "" {
		s := Status(raw)
		if !Valid(s) {
			return apperr.Respond(c, apperr.Ef(apperr.KindInvalid, "unknown job status %q", raw))
		}
		f.Status = &s
	}
	jobs, err := List(c.Request().Context(), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Jobs", jobs)
}

// Search finds jobs by service or description text.
func Search(c echo.Context) error {
	text := c.QueryParam("text")
	if text == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "search text is required"))
	}
	uid, _ := c.Get("user_id").(string)
	jobs, err := List(c.Request().Context(), ListFilter{Search: &text, Limit: 50})
	if err != nil {
		return apperr.Respond(c, err)
	}
	for i := range jobs {
		jobs[i].markSaved(uid)
	}
	return apperr.OK(c, "Jobs", jobs)
}

// Save bookmarks a job for the caller; Unsave removes the bookmark.
func Save(c echo.Context) error {
	return toggleSaved(c, true)
}

func Unsave(c echo.Context) error {
	return toggleSaved(c, false)
}

func toggleSaved(c echo.Context, save bool) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	ctx := c.Request().Context()

	query := `UPDATE jobs SET saved_by = array_append(saved_by, $1) WHERE id = $2 AND NOT ($1 = ANY(saved_by))`
	msg := "Job saved"
	if !save {
		query = `UPDATE jobs SET saved_by = array_remove(saved_by, $1) WHERE id = $2`
		msg = "Job removed from saved"
	}
	res, err := db.Conn.Exec(ctx, query, uid, c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update saved jobs", err))
	}
	if save && res.RowsAffected() == 0 {
		if _, err := GetByID(ctx, c.Param("id")); err != nil {
			return apperr.Respond(c, err)
		}
	}
	return apperr.OK(c, msg, nil)
}

// Saved lists the caller's bookmarked jobs.
func Saved(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	rows, err := db.Conn.Query(c.Request().Context(),
		`SELECT `+selectCols+` FROM jobs WHERE $1 = ANY(saved_by) ORDER BY created_at DESC`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch saved jobs", err))
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read saved jobs", err))
		}
		j.Saved = true
		jobs = append(jobs, j)
	}
	return apperr.OK(c, "Saved jobs", jobs)
}

type updateRequest struct {
	Service     *string   `json:"service"`
	Description *string   `json:"description"`
	Budget      *float64  `json:"budget"`
	Skills      *[]string `json:"skills"`
	Images      *[]string `json:"images"`
	Location    *string   `json:"location"`
	PlaceID     *string   `json:"place_id"`
}

// Update edits a job. Only the owner may edit, and only while pending.
func Update(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	if req.Budget != nil && *req.Budget <= 0 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "budget must be positive"))
	}
	ctx := c.Request().Context()

	j, err := GetByID(ctx, c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	if j.CreatedBy != uid {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you can only edit your own job"))
	}
	if j.Status != StatusPending {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "job can no longer be edited"))
	}

	var lat, lng *float64
	if req.PlaceID != nil && *req.PlaceID != "" && *req.PlaceID != j.PlaceID {
		if la, ln, err := geo.PlaceCoordinates(ctx, *req.PlaceID); err == nil {
			lat, lng = &la, &ln
		}
	}

	j, err = scanJob(db.Conn.QueryRow(ctx, `
		UPDATE jobs SET
			service = COALESCE($1, service),
			description = COALESCE($2, description),
			budget = COALESCE($3, budget),
			skills = COALESCE($4, skills),
			images = COALESCE($5, images),
			location = COALESCE($6, location),
			place_id = COALESCE($7, place_id),
			latitude = COALESCE($8, latitude),
			longitude = COALESCE($9, longitude),
			updated_at = NOW()
		WHERE id = $10
		RETURNING `+selectCols,
		req.Service, req.Description, req.Budget, req.Skills, req.Images,
		req.Location, req.PlaceID, lat, lng, j.ID))
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update job", err))
	}
	return apperr.OK(c, "Job updated", j)
}

// Delete removes a job. Owners may delete while pending or completed;
// admins may delete any job.
func Delete(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	ctx := c.Request().Context()

	j, err := GetByID(ctx, c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	if role != "admin" {
		if j.CreatedBy != uid {
			return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you can only delete your own job"))
		}
		if j.Status != StatusPending && j.Status != StatusCompleted {
			return apperr.Respond(c, apperr.E(apperr.KindForbidden, "job can only be deleted while pending or completed"))
		}
	}
	if _, err := db.Conn.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, j.ID); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not delete job", err))
	}
	return apperr.OK(c, "Job deleted", nil)
}

// Report returns the caller's job counts grouped by status.
func Report(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	rows, err := db.Conn.Query(c.Request().Context(),
		`SELECT status, COUNT(*) FROM jobs WHERE created_by = $1 GROUP BY status`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch job report", err))
	}
	defer rows.Close()

	counts := map[string]int64{}
	var total int64
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read job report", err))
		}
		counts[status] = n
		total += n
	}
	counts["total"] = total
	return apperr.OK(c, "Job report", counts)
}

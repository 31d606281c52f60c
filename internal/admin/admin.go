package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/settings"
)

// GetSettings returns the platform configuration.
func GetSettings(c echo.Context) error {
	s, err := settings.Get(c.Request().Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Settings", s)
}

// UpdateSettings applies a partial settings update.
func UpdateSettings(c echo.Context) error {
	var req settings.UpdateParams
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	s, err := settings.Update(c.Request().Context(), req)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Settings updated", s)
}

// Stats returns platform counters: users by type, jobs by status, wallet
// totals.
func Stats(c echo.Context) error {
	ctx := c.Request().Context()
	stats := echo.Map{}

	users := map[string]int64{}
	rows, err := db.Conn.Query(ctx, `SELECT type, COUNT(*) FROM users GROUP BY type`)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch stats", err))
	}
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read stats", err))
		}
		users[t] = n
	}
	rows.Close()
	stats["users"] = users

	jobs := map[string]int64{}
	rows, err = db.Conn.Query(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch stats", err))
	}
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			rows.Close()
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read stats", err))
		}
		jobs[s] = n
	}
	rows.Close()
	stats["jobs"] = jobs

	var totalCurrent, totalPending float64
	err = db.Conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(current_balance), 0), COALESCE(SUM(pending_balance), 0) FROM wallets`).
		Scan(&totalCurrent, &totalPending)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch stats", err))
	}
	stats["wallets"] = echo.Map{"current": totalCurrent, "pending": totalPending}

	return apperr.OK(c, "Stats", stats)
}

type broadcastRequest struct {
	Audience string `json:"audience"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Broadcast emails every client, artisan or everyone. The send is queued in
// batches; the request returns as soon as the batches are enqueued.
func Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := c.Bind(&req); err != nil || req.Subject == "" || req.Body == "" {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "audience, subject and body are required"))
	}
	query := `SELECT email FROM users WHERE is_active`
	switch req.Audience {
	case "client", "artisan":
		query += ` AND type = '` + req.Audience + `'`
	case "all", "":
	default:
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "audience must be client, artisan or all"))
	}

	rows, err := db.Conn.Query(c.Request().Context(), query)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch recipients", err))
	}
	defer rows.Close()

	var recipients []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read recipients", err))
		}
		recipients = append(recipients, email)
	}
	if err := alerts.EnqueueBroadcast(recipients, req.Subject, req.Body); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not queue broadcast", err))
	}
	return apperr.OK(c, "Broadcast queued", echo.Map{"recipients": len(recipients)})
}

// SetUserActive suspends or reactivates an account.
func SetUserActive(c echo.Context) error {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "invalid request body"))
	}
	res, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE users SET is_active = $1 WHERE id = $2 AND type <> 'admin'`, req.Active, c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update user", err))
	}
	if res.RowsAffected() == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "user does not exist"))
	}
	msg := "User suspended"
	if req.Active {
		msg = "User activated"
	}
	return apperr.OK(c, msg, nil)
}

// ListUsers returns users, optionally filtered by type.
func ListUsers(c echo.Context) error {
	query := `SELECT id, first_name, last_name, email, type, projects, is_active, created_at
		FROM users`
	args := []any{}
	if t := c.QueryParam("type"); t != "" {
		if t != "client" && t != "artisan" && t != "admin" {
			return apperr.Respond(c, apperr.E(apperr.KindInvalid, "type must be client, artisan or admin"))
		}
		query += ` WHERE type = $1`
		args = append(args, t)
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(c.Request().Context(), query, args...)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch users", err))
	}
	defer rows.Close()

	items := make([]echo.Map, 0)
	for rows.Next() {
		var id, firstName, lastName, email, userType string
		var projects int
		var isActive bool
		var createdAt any
		if err := rows.Scan(&id, &firstName, &lastName, &email, &userType, &projects, &isActive, &createdAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read users", err))
		}
		items = append(items, echo.Map{
			"id": id, "first_name": firstName, "last_name": lastName, "email": email,
			"type": userType, "projects": projects, "is_active": isActive, "created_at": createdAt,
		})
	}
	return apperr.OK(c, "Users", items)
}

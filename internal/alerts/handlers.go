package alerts

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
)

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Payload   *string   `json:"payload,omitempty"`
	Channel   string    `json:"channel"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	rows, err := db.Conn.Query(c.Request().Context(), `
		SELECT id, type, title, COALESCE(message, ''), payload, channel, read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT 100`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch notifications", err))
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Payload, &n.Channel, &n.Read, &n.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read notifications", err))
		}
		items = append(items, n)
	}
	return apperr.OK(c, "Notifications", items)
}

// MarkRead marks one notification as read.
func MarkRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	res, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, c.Param("id"), uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update notification", err))
	}
	if res.RowsAffected() == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "notification does not exist"))
	}
	return apperr.OK(c, "Notification marked as read", nil)
}

// MarkAllRead marks every unread notification of the caller as read.
func MarkAllRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	_, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not update notifications", err))
	}
	return apperr.OK(c, "All notifications marked as read", nil)
}

// DeleteNotification removes one notification.
func DeleteNotification(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	res, err := db.Conn.Exec(c.Request().Context(),
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, c.Param("id"), uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not delete notification", err))
	}
	if res.RowsAffected() == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "notification does not exist"))
	}
	return apperr.OK(c, "Notification deleted", nil)
}

package chat

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
)

type Thread struct {
	ID              string     `json:"id"`
	Participants    []string   `json:"participants"`
	LastMessage     *string    `json:"last_message,omitempty"`
	LastMessageBy   *string    `json:"last_message_by,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	NewMessageCount int        `json:"new_message_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ListThreads returns the caller's chats, most recently active first.
func ListThreads(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	rows, err := db.Conn.Query(c.Request().Context(), `
		SELECT ch.id,
			(SELECT array_agg(cu2.user_id::text) FROM chat_users cu2 WHERE cu2.chat_id = ch.id),
			(SELECT m.content FROM messages m WHERE m.id = ch.last_message_id),
			ch.last_message_by, ch.last_message_at, ch.new_message_count, ch.created_at
		FROM chats ch
		JOIN chat_users cu ON cu.chat_id = ch.id AND cu.user_id = $1
		ORDER BY ch.last_message_at DESC NULLS LAST`, uid)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch chats", err))
	}
	defer rows.Close()

	threads := make([]Thread, 0)
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Participants, &t.LastMessage, &t.LastMessageBy,
			&t.LastMessageAt, &t.NewMessageCount, &t.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read chats", err))
		}
		threads = append(threads, t)
	}
	return apperr.OK(c, "Chats", threads)
}

// Messages returns a thread's messages, oldest first. Only participants may
// read a thread.
func Messages(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	chatID := c.Param("id")
	ctx := c.Request().Context()

	var member bool
	err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_users WHERE chat_id = $1 AND user_id = $2)`,
		chatID, uid).Scan(&member)
	if err != nil || !member {
		return apperr.Respond(c, apperr.E(apperr.KindForbidden, "you are not part of this chat"))
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	rows, err := db.Conn.Query(ctx, `
		SELECT id, chat_id, sender_id, type, content, created_at
		FROM messages WHERE chat_id = $1 ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`, chatID, limit, offset)
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not fetch messages", err))
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "could not read messages", err))
		}
		msgs = append(msgs, m)
	}

	_, _ = db.Conn.Exec(ctx, `UPDATE chats SET new_message_count = 0 WHERE id = $1`, chatID)
	return apperr.OK(c, "Messages", msgs)
}

type sendRequest struct {
	Recipients []string `json:"recipients"`
	Content    string   `json:"content"`
	Type       string   `json:"type"`
}

// Send posts a message to the thread shared with the recipients.
func Send(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "unauthorized"))
	}
	var req sendRequest
	if err := c.Bind(&req); err != nil || len(req.Recipients) == 0 {
		return apperr.Respond(c, apperr.E(apperr.KindInvalid, "recipients and content are required"))
	}
	chatID, err := SendMessage(c.Request().Context(), uid, req.Recipients, req.Content, req.Type)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.Created(c, "Message sent", echo.Map{"chat_id": chatID})
}

package chat

import (
	"context"
	"sort"
	"strings"

	"github.com/talenter-ng/talenter/internal/apperr"
	"github.com/talenter-ng/talenter/internal/db"
)

// FindOrCreateThread returns the chat shared by exactly the given
// participants, creating it when none exists. Participant order does not
// matter.
func FindOrCreateThread(ctx context.Context, participants []string) (string, error) {
	uniq := dedupe(participants)
	if len(uniq) < 2 {
		return "", apperr.E(apperr.KindInvalid, "a chat needs at least two participants")
	}

	var chatID string
	err := db.Conn.QueryRow(ctx, `
		SELECT chat_id FROM chat_users
		GROUP BY chat_id
		HAVING array_agg(user_id::text ORDER BY user_id) = $1`,
		uniq).Scan(&chatID)
	if err == nil {
		return chatID, nil
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "transaction start failed", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO chats DEFAULT VALUES RETURNING id`).Scan(&chatID); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not create chat", err)
	}
	for _, uid := range uniq {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_users (chat_id, user_id) VALUES ($1, $2)`, chatID, uid); err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "could not add chat participant", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "commit failed", err)
	}
	return chatID, nil
}

// SendMessage posts a message from sender to the thread shared with the
// recipients, creating the thread on first contact. Returns the chat id.
func SendMessage(ctx context.Context, senderID string, recipientIDs []string, content, kind string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.E(apperr.KindInvalid, "message content is required")
	}
	if kind == "" {
		kind = "text"
	}
	chatID, err := FindOrCreateThread(ctx, append([]string{senderID}, recipientIDs...))
	if err != nil {
		return "", err
	}

	var messageID string
	err = db.Conn.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, type, content)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		chatID, senderID, kind, content).Scan(&messageID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not send message", err)
	}
	_, _ = db.Conn.Exec(ctx, `
		UPDATE chats SET last_message_id = $1, last_message_by = $2,
			last_message_at = NOW(), new_message_count = new_message_count + 1
		WHERE id = $3`, messageID, senderID, chatID)
	return chatID, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)
	return uniq
}

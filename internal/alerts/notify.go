package alerts

import (
	"context"

	"github.com/talenter-ng/talenter/internal/db"
)

// Notify writes an in-app notification row for each user and, when push is
// set, enqueues a push notification. Callers treat it as fire-and-forget:
// authoritative state has already committed by the time this runs.
func Notify(ctx context.Context, userIDs []string, d Details, channel string, push bool) error {
	if len(userIDs) == 0 {
		return nil
	}
	if channel == "" {
		channel = "in-app"
	}
	for _, uid := range userIDs {
		_, err := db.Conn.Exec(ctx, `
			INSERT INTO notifications (user_id, type, title, message, payload, channel)
			VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6)`,
			uid, d.Type, d.Title, d.Message, d.Payload, channel)
		if err != nil {
			return err
		}
	}
	if push {
		return enqueuePush(userIDs, d.Title, d.Message)
	}
	return nil
}

package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// OneSignal delivers mobile push. Users are addressed by their external user
// id, which the apps register as the platform user id on login.

const oneSignalURL = "https://onesignal.com/api/v1/notifications"

var pushClient = &http.Client{Timeout: 10 * time.Second}

func sendPush(ctx context.Context, userIDs []string, title, message string) error {
	appID := os.Getenv("ONESIGNAL_APP_ID")
	apiKey := os.Getenv("ONESIGNAL_API_KEY")
	if appID == "" || apiKey == "" {
		return fmt.Errorf("onesignal not configured: set ONESIGNAL_APP_ID, ONESIGNAL_API_KEY")
	}

	body, err := json.Marshal(map[string]any{
		"app_id":                    appID,
		"include_external_user_ids": userIDs,
		"headings":                  map[string]string{"en": title},
		"contents":                  map[string]string{"en": message},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oneSignalURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := pushClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("onesignal request failed with status %d", resp.StatusCode)
	}
	return nil
}

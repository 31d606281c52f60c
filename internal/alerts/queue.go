package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailSend, handleEmailSend)
	mux.HandleFunc(TaskEmailBroadcast, handleEmailBroadcast)
	mux.HandleFunc(TaskPushNotify, handlePushNotify)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
			"push":   5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases the client and stops the server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueEmail schedules a single email.
func EnqueueEmail(to, subject, body string) error {
	payload := EmailEnvelope{To: to, Subject: subject, Body: body, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	_, err := ensureClient().Enqueue(asynq.NewTask(TaskEmailSend, b), asynq.Queue("emails"))
	return err
}

// broadcastBatchSize keeps a single broadcast task small enough to retry
// without resending the whole audience.
const broadcastBatchSize = 500

// EnqueueBroadcast schedules a bulk email, one task per batch of recipients.
func EnqueueBroadcast(recipients []string, subject, body string) error {
	for start := 0; start < len(recipients); start += broadcastBatchSize {
		end := start + broadcastBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		payload := BroadcastPayload{Recipients: recipients[start:end], Subject: subject, Body: body, SentAt: time.Now()}
		b, _ := json.Marshal(payload)
		if _, err := ensureClient().Enqueue(asynq.NewTask(TaskEmailBroadcast, b), asynq.Queue("emails")); err != nil {
			return err
		}
	}
	return nil
}

func enqueuePush(userIDs []string, title, message string) error {
	payload := PushPayload{UserIDs: userIDs, Title: title, Message: message, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	_, err := ensureClient().Enqueue(asynq.NewTask(TaskPushNotify, b), asynq.Queue("push"))
	return err
}

func handleEmailSend(_ context.Context, t *asynq.Task) error {
	var p EmailEnvelope
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.To, p.Subject, p.Body); err != nil {
		log.Printf("[notify][ERROR] email send failed: %v", err)
		return err
	}
	log.Printf("[notify] email sent -> to=%s", p.To)
	return nil
}

func handleEmailBroadcast(_ context.Context, t *asynq.Task) error {
	var p BroadcastPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	var failed int
	for _, to := range p.Recipients {
		if err := SendEmail(to, p.Subject, p.Body); err != nil {
			failed++
			log.Printf("[notify][ERROR] broadcast send failed: to=%s err=%v", to, err)
		}
	}
	log.Printf("[notify] broadcast batch done -> sent=%d failed=%d", len(p.Recipients)-failed, failed)
	return nil
}

func handlePushNotify(ctx context.Context, t *asynq.Task) error {
	var p PushPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := sendPush(ctx, p.UserIDs, p.Title, p.Message); err != nil {
		log.Printf("[notify][ERROR] push send failed: %v", err)
		return err
	}
	log.Printf("[notify] push sent -> users=%d", len(p.UserIDs))
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"prepsheet/internal/domain/model"
	"prepsheet/internal/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureMailer struct {
	mu      sync.Mutex
	sent    chan string // recipients
	failing bool
}

func (m *captureMailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("smtp down")
	}
	m.sent <- to
	return nil
}

func startTestWorker(t *testing.T) (*redis.Client, *captureMailer, context.CancelFunc) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.AppConfig = &config.Config{MailQueueName: "mail_jobs_queue"}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := &captureMailer{sent: make(chan string, 10)}
	w := NewMailWorker(rdb, m, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	return rdb, m, cancel
}

func enqueue(t *testing.T, rdb *redis.Client, job model.MailJob) {
	t.Helper()
	payload, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, rdb.LPush(context.Background(), config.AppConfig.MailQueueName, payload).Err())
}

func TestMailWorkerDeliversWelcome(t *testing.T) {
	rdb, m, cancel := startTestWorker(t)
	defer cancel()

	enqueue(t, rdb, model.MailJob{Type: model.MailTypeWelcome, To: "new@user.dev", Username: "newbie"})

	select {
	case to := <-m.sent:
		require.Equal(t, "new@user.dev", to)
	case <-time.After(3 * time.Second):
		t.Fatal("welcome mail was not sent")
	}
}

func TestMailWorkerDropsBadPayloadAndContinues(t *testing.T) {
	rdb, m, cancel := startTestWorker(t)
	defer cancel()

	require.NoError(t, rdb.LPush(context.Background(), config.AppConfig.MailQueueName, "{not json").Err())
	enqueue(t, rdb, model.MailJob{Type: model.MailTypeWelcome, To: "ok@user.dev", Username: "ok"})

	select {
	case to := <-m.sent:
		require.Equal(t, "ok@user.dev", to)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not recover from bad payload")
	}
}

func TestMailWorkerDropsUnknownJobType(t *testing.T) {
	rdb, m, cancel := startTestWorker(t)
	defer cancel()

	enqueue(t, rdb, model.MailJob{Type: "newsletter", To: "a@b.c"})
	enqueue(t, rdb, model.MailJob{Type: model.MailTypeWelcome, To: "b@c.d", Username: "b"})

	select {
	case to := <-m.sent:
		require.Equal(t, "b@c.d", to)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not skip unknown job type")
	}
}

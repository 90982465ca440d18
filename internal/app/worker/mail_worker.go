package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prepsheet/internal/domain/model"
	"prepsheet/internal/platform/config"
	"prepsheet/internal/platform/mailer"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MailWorker drains the Redis mail queue and delivers over SMTP. Delivery is
// best-effort: a failed send is logged and the job dropped, never retried.
type MailWorker struct {
	rdb    *redis.Client
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewMailWorker(rdb *redis.Client, m mailer.Mailer, log *zap.Logger) *MailWorker {
	return &MailWorker{rdb: rdb, mailer: m, log: log}
}

const welcomeMailTemplate = `
	<h2>Welcome to PrepSheet, %s!</h2>
	<p>Your account is ready. Pick a sheet and start ticking off problems.</p>
	<p>Happy grinding.</p>`

func (w *MailWorker) Start(ctx context.Context) {
	queue := config.AppConfig.MailQueueName
	w.log.Info("mail worker started", zap.String("queue", queue))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("mail worker stopping")
			return
		default:
			// Blocking pop; 0 means wait forever.
			result, err := w.rdb.BRPop(ctx, 0*time.Second, queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					time.Sleep(1 * time.Second)
					continue
				}
				w.log.Error("failed to pop from mail queue", zap.String("queue", queue), zap.Error(err))
				time.Sleep(5 * time.Second)
				continue
			}

			// result is [queueName, value]
			if len(result) < 2 || result[1] == "" {
				w.log.Warn("mail queue returned empty payload")
				continue
			}
			w.process(result[1])
		}
	}
}

func (w *MailWorker) process(payload string) {
	var job model.MailJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		w.log.Error("failed to unmarshal mail job, dropping", zap.Error(err))
		return
	}

	var subject, body string
	switch job.Type {
	case model.MailTypeWelcome:
		subject = "Welcome to PrepSheet"
		body = fmt.Sprintf(welcomeMailTemplate, job.Username)
	default:
		w.log.Warn("unknown mail job type, dropping", zap.String("type", job.Type))
		return
	}

	if err := w.mailer.Send(job.To, subject, body); err != nil {
		w.log.Error("failed to send mail",
			zap.String("type", job.Type), zap.String("to", job.To), zap.Error(err))
		return
	}
	w.log.Info("mail sent", zap.String("type", job.Type), zap.String("to", job.To))
}

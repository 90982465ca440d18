package service

import (
	"context"
	"encoding/json"

	"prepsheet/internal/domain/model"
	"prepsheet/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MailService enqueues outbound mail jobs for the background worker.
// Enqueueing is best-effort: a Redis hiccup must never fail the request
// that triggered the mail.
type MailService struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewMailService(rdb *redis.Client, log *zap.Logger) *MailService {
	return &MailService{rdb: rdb, log: log}
}

func (s *MailService) EnqueueWelcome(ctx context.Context, to, username string) {
	job := model.MailJob{Type: model.MailTypeWelcome, To: to, Username: username}
	payload, err := json.Marshal(job)
	if err != nil {
		s.log.Error("marshal welcome mail job", zap.Error(err))
		return
	}
	if err := s.rdb.LPush(ctx, config.AppConfig.MailQueueName, payload).Err(); err != nil {
		s.log.Warn("enqueue welcome mail failed",
			zap.String("to", to), zap.Error(err))
	}
}

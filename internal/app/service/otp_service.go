package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"prepsheet/internal/common"
	"prepsheet/internal/platform/config"
	"prepsheet/internal/platform/mailer"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const otpKeyPrefix = "otp:"

const otpMailTemplate = `<html><body>
<h2>Your verification code</h2>
<p>Use the code below to verify your email address. It expires in %d minutes.</p>
<h1 style="letter-spacing: 4px;">%s</h1>
<p>If you did not request this, you can ignore this email.</p>
</body></html>`

// OTPService manages one-time email verification codes in Redis. The code
// lives under a TTL'd hash per email; the attempt counter caps retries at
// OTPMaxAttempts independent of expiry.
type OTPService struct {
	rdb    *redis.Client
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewOTPService(rdb *redis.Client, m mailer.Mailer, log *zap.Logger) *OTPService {
	return &OTPService{rdb: rdb, mailer: m, log: log}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestCode generates and stores a fresh code, then emails it. The send is
// synchronous: a failed delivery surfaces to the caller.
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	key := otpKeyPrefix + email
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code", code, "attempts", 0)
	pipe.Expire(ctx, key, config.AppConfig.OTPTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp for %s: %w", email, err)
	}

	body := fmt.Sprintf(otpMailTemplate, int(config.AppConfig.OTPTTL.Minutes()), code)
	if err := s.mailer.Send(email, "Verify your email", body); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	s.log.Info("verification code sent", zap.String("email", email))
	return nil
}

// VerifyAndConsume checks the submitted code. Every call counts as an
// attempt; past the cap the code is rejected even if it would have matched.
// A successful match deletes the code so it can be used exactly once.
func (s *OTPService) VerifyAndConsume(ctx context.Context, email, code string) error {
	key := otpKeyPrefix + email

	stored, err := s.rdb.HGet(ctx, key, "code").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return common.ErrCodeExpired
		}
		return fmt.Errorf("load otp for %s: %w", email, err)
	}

	attempts, err := s.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt for %s: %w", email, err)
	}
	if attempts > int64(config.AppConfig.OTPMaxAttempts) {
		return common.ErrTooManyAttempts
	}

	if stored != code {
		return common.ErrCodeMismatch
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume otp for %s: %w", email, err)
	}
	return nil
}

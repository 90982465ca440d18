package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"prepsheet/internal/common"
	"prepsheet/internal/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	sent    []string // recipients
	failing bool
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	if f.failing {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newOTPTestService(t *testing.T) (*OTPService, *miniredis.Miniredis, *fakeMailer) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.AppConfig = &config.Config{
		OTPTTL:         10 * time.Minute,
		OTPMaxAttempts: 5,
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := &fakeMailer{}
	return NewOTPService(rdb, m, zap.NewNop()), mr, m
}

func storedCode(t *testing.T, mr *miniredis.Miniredis, email string) string {
	t.Helper()
	code := mr.HGet(otpKeyPrefix+email, "code")
	require.Len(t, code, 6)
	return code
}

func TestOTPRequestThenVerifyConsumes(t *testing.T) {
	svc, mr, m := newOTPTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "a@b.c"))
	require.Equal(t, []string{"a@b.c"}, m.sent)

	code := storedCode(t, mr, "a@b.c")
	require.NoError(t, svc.VerifyAndConsume(ctx, "a@b.c", code))

	// The code is single-use; a second verification finds nothing.
	err := svc.VerifyAndConsume(ctx, "a@b.c", code)
	require.ErrorIs(t, err, common.ErrCodeExpired)
}

func TestOTPAttemptCap(t *testing.T) {
	svc, mr, _ := newOTPTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "a@b.c"))
	code := storedCode(t, mr, "a@b.c")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 5; i++ {
		err := svc.VerifyAndConsume(ctx, "a@b.c", wrong)
		require.ErrorIs(t, err, common.ErrCodeMismatch)
	}

	// Even the correct code is rejected once the cap is spent.
	err := svc.VerifyAndConsume(ctx, "a@b.c", code)
	require.ErrorIs(t, err, common.ErrTooManyAttempts)
}

func TestOTPExpires(t *testing.T) {
	svc, mr, _ := newOTPTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "a@b.c"))
	code := storedCode(t, mr, "a@b.c")

	mr.FastForward(11 * time.Minute)

	err := svc.VerifyAndConsume(ctx, "a@b.c", code)
	require.ErrorIs(t, err, common.ErrCodeExpired)
}

func TestOTPRequestFailsWhenMailerFails(t *testing.T) {
	svc, _, m := newOTPTestService(t)
	m.failing = true

	err := svc.RequestCode(context.Background(), "a@b.c")
	require.Error(t, err)
}

func TestOTPNewRequestReplacesOldCode(t *testing.T) {
	svc, mr, _ := newOTPTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "a@b.c"))
	first := storedCode(t, mr, "a@b.c")

	// Burn some attempts, then request again: counter and code reset.
	_ = svc.VerifyAndConsume(ctx, "a@b.c", "999999")
	require.NoError(t, svc.RequestCode(ctx, "a@b.c"))

	second := storedCode(t, mr, "a@b.c")
	if first == second {
		// Codes are random; a collision is possible but attempts must reset.
		t.Log("same code generated twice")
	}
	require.Equal(t, "0", mr.HGet(otpKeyPrefix+"a@b.c", "attempts"))
}

package service

import (
	"context"
	"testing"
	"time"

	"prepsheet/internal/common"
	"prepsheet/internal/common/security"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"
	"prepsheet/internal/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memUserRepo struct {
	repository.UserRepository
	byID map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*model.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return common.ErrConflict
		}
	}
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func newAuthTestService(t *testing.T) (*AuthService, *memUserRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.AppConfig = &config.Config{
		JWTKey:         []byte("test-secret"),
		JWTExp:         time.Hour,
		OTPTTL:         10 * time.Minute,
		OTPMaxAttempts: 5,
		MailQueueName:  "mail_jobs_queue",
	}
	security.InitJWT()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	users := newMemUserRepo()
	otp := NewOTPService(rdb, &fakeMailer{}, zap.NewNop())
	mail := NewMailService(rdb, zap.NewNop())
	return NewAuthService(users, otp, mail, zap.NewNop()), users, mr
}

func seedOTP(t *testing.T, mr *miniredis.Miniredis, email, code string) {
	t.Helper()
	mr.HSet(otpKeyPrefix+email, "code", code)
	mr.HSet(otpKeyPrefix+email, "attempts", "0")
	mr.SetTTL(otpKeyPrefix+email, 10*time.Minute)
}

func TestSignupHappyPath(t *testing.T) {
	svc, users, mr := newAuthTestService(t)
	seedOTP(t, mr, "alice@dev.io", "123456")

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@dev.io", Password: "hunter22hunter22", Code: "123456",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, model.RoleUser, resp.User.Role)
	require.Empty(t, resp.User.HashedPassword)
	require.Len(t, users.byID, 1)

	// The welcome job landed on the mail queue.
	jobs, err := mr.List(config.AppConfig.MailQueueName)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Contains(t, jobs[0], "alice@dev.io")
}

func TestSignupRejectsWrongCode(t *testing.T) {
	svc, users, mr := newAuthTestService(t)
	seedOTP(t, mr, "alice@dev.io", "123456")

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@dev.io", Password: "hunter22hunter22", Code: "654321",
	})
	require.ErrorIs(t, err, common.ErrCodeMismatch)
	require.Empty(t, users.byID)
}

func TestSignupRejectsMissingCode(t *testing.T) {
	svc, _, _ := newAuthTestService(t)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "alice", Email: "alice@dev.io", Password: "hunter22hunter22", Code: "123456",
	})
	require.ErrorIs(t, err, common.ErrCodeExpired)
}

func TestLoginByEmailOrUsername(t *testing.T) {
	svc, _, mr := newAuthTestService(t)
	seedOTP(t, mr, "alice@dev.io", "123456")
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{
		Username: "alice", Email: "alice@dev.io", Password: "hunter22hunter22", Code: "123456",
	})
	require.NoError(t, err)

	byEmail, err := svc.Login(ctx, LoginRequest{LoginField: "alice@dev.io", Password: "hunter22hunter22"})
	require.NoError(t, err)
	require.NotEmpty(t, byEmail.Token)

	byUsername, err := svc.Login(ctx, LoginRequest{LoginField: "alice", Password: "hunter22hunter22"})
	require.NoError(t, err)
	require.Equal(t, byEmail.User.ID, byUsername.User.ID)
}

func TestLoginBadCredentialsAreGeneric(t *testing.T) {
	svc, _, mr := newAuthTestService(t)
	seedOTP(t, mr, "alice@dev.io", "123456")
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{
		Username: "alice", Email: "alice@dev.io", Password: "hunter22hunter22", Code: "123456",
	})
	require.NoError(t, err)

	// Unknown account and wrong password return the same error.
	_, errUnknown := svc.Login(ctx, LoginRequest{LoginField: "nobody", Password: "whatever1"})
	_, errWrongPw := svc.Login(ctx, LoginRequest{LoginField: "alice", Password: "wrongwrong"})
	require.ErrorIs(t, errUnknown, common.ErrUnauthorized)
	require.ErrorIs(t, errWrongPw, common.ErrUnauthorized)
	require.Equal(t, errUnknown, errWrongPw)
}

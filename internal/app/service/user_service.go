package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"
	"prepsheet/internal/platform/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo       repository.UserRepository
	progressRepo   repository.ProgressRepository
	submissionRepo repository.SubmissionRepository
	blogRepo       repository.BlogRepository
	storage        storage.ObjectStorage
	db             *sql.DB
	log            *zap.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	submissionRepo repository.SubmissionRepository,
	blogRepo repository.BlogRepository,
	objectStorage storage.ObjectStorage,
	db *sql.DB,
	log *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		blogRepo:       blogRepo,
		storage:        objectStorage,
		db:             db,
		log:            log,
	}
}

type UpdateProfileRequest struct {
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=100"`
	GithubURL   *string `json:"github_url,omitempty" validate:"omitempty,url"`
	LinkedinURL *string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	TwitterURL  *string `json:"twitter_url,omitempty" validate:"omitempty,url"`
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Location != nil {
		user.Location = req.Location
	}
	if req.GithubURL != nil {
		user.GithubURL = req.GithubURL
	}
	if req.LinkedinURL != nil {
		user.LinkedinURL = req.LinkedinURL
	}
	if req.TwitterURL != nil {
		user.TwitterURL = req.TwitterURL
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// UploadAvatar stores the image and records its public URL on the account.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, reader io.Reader, sizeBytes int64) (string, error) {
	ext := path.Ext(filename)
	objectKey := userID + "/" + uuid.NewString() + ext

	url, err := s.storage.Upload(ctx, objectKey, reader, sizeBytes, contentType)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

// DeleteAccount removes the account and everything hanging off it in one
// transaction, so a mid-way failure leaves no orphaned records.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.progressRepo.DeleteByUser(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.submissionRepo.DeleteByUser(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.blogRepo.DeleteReadsByUser(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("account deleted", zap.String("user_id", userID))
	return nil
}

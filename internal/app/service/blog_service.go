package service

import (
	"context"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type BlogService struct {
	blogRepo repository.BlogRepository
	log      *zap.Logger
}

func NewBlogService(blogRepo repository.BlogRepository, log *zap.Logger) *BlogService {
	return &BlogService{blogRepo: blogRepo, log: log}
}

type CreatePostRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=160"`
	Content   string `json:"content" validate:"required"`
	Published bool   `json:"published"`
}

func (s *BlogService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*model.BlogPost, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	post := &model.BlogPost{
		ID:        uuid.NewString(),
		Slug:      slug.Make(req.Title),
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  &authorID,
		Published: req.Published,
	}
	if err := s.blogRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info("blog post created", zap.String("post_id", post.ID), zap.String("slug", post.Slug))
	return s.blogRepo.FindPostByID(ctx, post.ID)
}

func (s *BlogService) UpdatePost(ctx context.Context, postSlug string, req CreatePostRequest) (*model.BlogPost, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	post, err := s.blogRepo.FindPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	post.Title = req.Title
	post.Slug = slug.Make(req.Title)
	post.Content = req.Content
	post.Published = req.Published

	if err := s.blogRepo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.blogRepo.FindPostByID(ctx, post.ID)
}

func (s *BlogService) DeletePost(ctx context.Context, postSlug string) error {
	post, err := s.blogRepo.FindPostBySlug(ctx, postSlug)
	if err != nil {
		return err
	}
	if err := s.blogRepo.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	s.log.Info("blog post deleted", zap.String("post_id", post.ID))
	return nil
}

// GetPost resolves a published post by slug. A signed-in viewer also gets
// their read flag; unpublished posts are only visible to admins.
func (s *BlogService) GetPost(ctx context.Context, viewer *model.User, postSlug string) (*model.BlogPost, error) {
	post, err := s.blogRepo.FindPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if !post.Published && (viewer == nil || viewer.Role != model.RoleAdmin) {
		return nil, common.ErrNotFound
	}
	if viewer != nil {
		readIDs, err := s.blogRepo.GetReadPostIDs(ctx, viewer.ID)
		if err != nil {
			s.log.Warn("failed to load read receipts", zap.String("user_id", viewer.ID), zap.Error(err))
		}
		for _, id := range readIDs {
			if id == post.ID {
				post.Read = true
				break
			}
		}
	}
	return post, nil
}

// ListPosts returns published posts newest first, with per-viewer read flags
// when a viewer is signed in.
func (s *BlogService) ListPosts(ctx context.Context, viewer *model.User) ([]model.BlogPost, error) {
	posts, err := s.blogRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return posts, nil
	}

	readIDs, err := s.blogRepo.GetReadPostIDs(ctx, viewer.ID)
	if err != nil {
		s.log.Warn("failed to load read receipts", zap.String("user_id", viewer.ID), zap.Error(err))
		return posts, nil
	}
	read := make(map[string]bool, len(readIDs))
	for _, id := range readIDs {
		read[id] = true
	}
	for i := range posts {
		posts[i].Read = read[posts[i].ID]
	}
	return posts, nil
}

// MarkRead records a read receipt for the post. Repeat calls are no-ops.
func (s *BlogService) MarkRead(ctx context.Context, userID, postSlug string) error {
	post, err := s.blogRepo.FindPostBySlug(ctx, postSlug)
	if err != nil {
		return err
	}
	if !post.Published {
		return common.ErrNotFound
	}
	return s.blogRepo.MarkRead(ctx, userID, post.ID)
}

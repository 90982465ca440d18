package service

import (
	"context"
	"testing"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memBlogRepo struct {
	repository.BlogRepository
	posts map[string]*model.BlogPost // by ID
	reads map[string]map[string]bool // userID -> postID set
}

func newMemBlogRepo() *memBlogRepo {
	return &memBlogRepo{posts: map[string]*model.BlogPost{}, reads: map[string]map[string]bool{}}
}

func (r *memBlogRepo) FindPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	for _, p := range r.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memBlogRepo) ListPublished(ctx context.Context) ([]model.BlogPost, error) {
	out := []model.BlogPost{}
	for _, p := range r.posts {
		if p.Published {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memBlogRepo) MarkRead(ctx context.Context, userID, postID string) error {
	if r.reads[userID] == nil {
		r.reads[userID] = map[string]bool{}
	}
	r.reads[userID][postID] = true
	return nil
}

func (r *memBlogRepo) GetReadPostIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	for id := range r.reads[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func newBlogTestService() (*BlogService, *memBlogRepo) {
	repo := newMemBlogRepo()
	repo.posts["b1"] = &model.BlogPost{ID: "b1", Slug: "hello", Title: "Hello", Published: true}
	repo.posts["b2"] = &model.BlogPost{ID: "b2", Slug: "draft", Title: "Draft", Published: false}
	return NewBlogService(repo, zap.NewNop()), repo
}

func TestGetPostReadFlag(t *testing.T) {
	svc, repo := newBlogTestService()
	ctx := context.Background()
	viewer := &model.User{ID: "u1", Role: model.RoleUser}

	post, err := svc.GetPost(ctx, viewer, "hello")
	require.NoError(t, err)
	require.False(t, post.Read)

	require.NoError(t, svc.MarkRead(ctx, "u1", "hello"))
	require.True(t, repo.reads["u1"]["b1"])

	post, err = svc.GetPost(ctx, viewer, "hello")
	require.NoError(t, err)
	require.True(t, post.Read)

	// Another account's receipts do not leak.
	other, err := svc.GetPost(ctx, &model.User{ID: "u2"}, "hello")
	require.NoError(t, err)
	require.False(t, other.Read)
}

func TestGetPostAnonymous(t *testing.T) {
	svc, _ := newBlogTestService()

	post, err := svc.GetPost(context.Background(), nil, "hello")
	require.NoError(t, err)
	require.False(t, post.Read)
}

func TestDraftHiddenFromNonAdmins(t *testing.T) {
	svc, _ := newBlogTestService()
	ctx := context.Background()

	_, err := svc.GetPost(ctx, nil, "draft")
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.GetPost(ctx, &model.User{ID: "u1", Role: model.RoleUser}, "draft")
	require.ErrorIs(t, err, common.ErrNotFound)

	post, err := svc.GetPost(ctx, &model.User{ID: "u9", Role: model.RoleAdmin}, "draft")
	require.NoError(t, err)
	require.Equal(t, "b2", post.ID)

	// Read receipts only attach to published posts.
	err = svc.MarkRead(ctx, "u1", "draft")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestListPostsMarksReadOnes(t *testing.T) {
	svc, repo := newBlogTestService()
	repo.posts["b3"] = &model.BlogPost{ID: "b3", Slug: "more", Title: "More", Published: true}
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, "u1", "hello"))

	posts, err := svc.ListPosts(ctx, &model.User{ID: "u1"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		require.Equal(t, p.ID == "b1", p.Read)
	}
}

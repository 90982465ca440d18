package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type BlogRepository interface {
	CreatePost(ctx context.Context, post *model.BlogPost) error
	UpdatePost(ctx context.Context, post *model.BlogPost) error
	DeletePost(ctx context.Context, id string) error
	FindPostByID(ctx context.Context, id string) (*model.BlogPost, error)
	FindPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	ListPublished(ctx context.Context) ([]model.BlogPost, error)
	CountPosts(ctx context.Context) (int, error)

	MarkRead(ctx context.Context, userID, postID string) error
	GetReadPostIDs(ctx context.Context, userID string) ([]string, error)
	ListAllReads(ctx context.Context) ([]model.BlogReadReceipt, error)
	DeleteReadsByUser(ctx context.Context, tx *sql.Tx, userID string) error
}

const blogPostSelect = `
	SELECT b.id, b.slug, b.title, b.content, b.author_id, b.published,
	       b.created_at, b.updated_at, u.username
	FROM blog_posts b
	LEFT JOIN users u ON b.author_id = u.id`

type pgBlogRepository struct {
	db *sql.DB
}

func NewPgBlogRepository(db *sql.DB) BlogRepository {
	return &pgBlogRepository{db: db}
}

func (r *pgBlogRepository) CreatePost(ctx context.Context, post *model.BlogPost) error {
	query := `INSERT INTO blog_posts (id, slug, title, content, author_id, published)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.Slug, post.Title, post.Content, post.AuthorID, post.Published)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("blog post with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgBlogRepository.CreatePost: %w", err)
	}
	return nil
}

func (r *pgBlogRepository) UpdatePost(ctx context.Context, post *model.BlogPost) error {
	query := `UPDATE blog_posts SET
	            slug = $1, title = $2, content = $3, published = $4,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, post.Slug, post.Title, post.Content, post.Published, post.ID)
	if err != nil {
		return fmt.Errorf("pgBlogRepository.UpdatePost: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBlogRepository) DeletePost(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgBlogRepository.DeletePost: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBlogRepository) scanPost(row *sql.Row, caller string) (*model.BlogPost, error) {
	post := &model.BlogPost{}
	err := row.Scan(
		&post.ID, &post.Slug, &post.Title, &post.Content, &post.AuthorID, &post.Published,
		&post.CreatedAt, &post.UpdatedAt, &post.AuthorUsername,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return post, nil
}

func (r *pgBlogRepository) FindPostByID(ctx context.Context, id string) (*model.BlogPost, error) {
	query := blogPostSelect + ` WHERE b.id = $1`
	return r.scanPost(r.db.QueryRowContext(ctx, query, id), "pgBlogRepository.FindPostByID")
}

func (r *pgBlogRepository) FindPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	query := blogPostSelect + ` WHERE b.slug = $1`
	return r.scanPost(r.db.QueryRowContext(ctx, query, slug), "pgBlogRepository.FindPostBySlug")
}

func (r *pgBlogRepository) ListPublished(ctx context.Context) ([]model.BlogPost, error) {
	query := blogPostSelect + ` WHERE b.published = TRUE ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgBlogRepository.ListPublished query: %w", err)
	}
	defer rows.Close()

	posts := []model.BlogPost{}
	for rows.Next() {
		var post model.BlogPost
		if err := rows.Scan(&post.ID, &post.Slug, &post.Title, &post.Content, &post.AuthorID,
			&post.Published, &post.CreatedAt, &post.UpdatedAt, &post.AuthorUsername); err != nil {
			return nil, fmt.Errorf("pgBlogRepository.ListPublished scan: %w", err)
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBlogRepository.ListPublished rows.Err: %w", err)
	}
	return posts, nil
}

func (r *pgBlogRepository) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgBlogRepository.CountPosts: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent: re-reading a post leaves the original receipt.
func (r *pgBlogRepository) MarkRead(ctx context.Context, userID, postID string) error {
	query := `INSERT INTO blog_reads (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("pgBlogRepository.MarkRead: %w", err)
	}
	return nil
}

func (r *pgBlogRepository) GetReadPostIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT post_id FROM blog_reads WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgBlogRepository.GetReadPostIDs query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgBlogRepository.GetReadPostIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBlogRepository.GetReadPostIDs rows.Err: %w", err)
	}
	return ids, nil
}

func (r *pgBlogRepository) ListAllReads(ctx context.Context) ([]model.BlogReadReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, post_id, read_at FROM blog_reads`)
	if err != nil {
		return nil, fmt.Errorf("pgBlogRepository.ListAllReads query: %w", err)
	}
	defer rows.Close()

	reads := []model.BlogReadReceipt{}
	for rows.Next() {
		var receipt model.BlogReadReceipt
		if err := rows.Scan(&receipt.UserID, &receipt.PostID, &receipt.ReadAt); err != nil {
			return nil, fmt.Errorf("pgBlogRepository.ListAllReads scan: %w", err)
		}
		reads = append(reads, receipt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBlogRepository.ListAllReads rows.Err: %w", err)
	}
	return reads, nil
}

func (r *pgBlogRepository) DeleteReadsByUser(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `DELETE FROM blog_reads WHERE user_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		return fmt.Errorf("pgBlogRepository.DeleteReadsByUser: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sika/internal/core"
)

// CreateBlogPost inserts a post, filling ID and CreatedAt.
func (r *SQLiteRepository) CreateBlogPost(ctx context.Context, p core.BlogPost) (core.BlogPost, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blog_posts (id, owner_id, title, slug, content, published, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Slug, p.Content, boolToInt(p.Published),
		p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("insert blog post: %w", err)
	}
	return p, nil
}

// GetBlogPostBySlug fetches one post. Unpublished posts are only visible when
// includeUnpublished is set (the admin surface).
func (r *SQLiteRepository) GetBlogPostBySlug(ctx context.Context, slug string, includeUnpublished bool) (core.BlogPost, error) {
	query := `SELECT id, owner_id, title, slug, content, published, created_at
		FROM blog_posts WHERE slug = ?`
	if !includeUnpublished {
		query += ` AND published = 1`
	}
	row := r.db.QueryRowContext(ctx, query, slug)
	p, err := scanBlogPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BlogPost{}, core.ErrNotFound
	}
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("get blog post: %w", err)
	}
	return p, nil
}

// ListBlogPosts returns posts newest-first, published-only unless asked.
func (r *SQLiteRepository) ListBlogPosts(ctx context.Context, includeUnpublished bool) ([]core.BlogPost, error) {
	query := `SELECT id, owner_id, title, slug, content, published, created_at FROM blog_posts`
	if !includeUnpublished {
		query += ` WHERE published = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	var out []core.BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPostPublished flips a post's published flag.
func (r *SQLiteRepository) SetPostPublished(ctx context.Context, id string, published bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE blog_posts SET published = ? WHERE id = ?`, boolToInt(published), id)
	if err != nil {
		return fmt.Errorf("set post published: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AddComment appends an owner-stamped comment to a post.
func (r *SQLiteRepository) AddComment(ctx context.Context, c core.Comment) (core.Comment, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blog_comments (id, post_id, owner_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.OwnerID, c.Body, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// ListComments returns a post's comments oldest-first.
func (r *SQLiteRepository) ListComments(ctx context.Context, postID string) ([]core.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id, owner_id, body, created_at
		FROM blog_comments WHERE post_id = ? ORDER BY created_at ASC, rowid ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []core.Comment
	for rows.Next() {
		var c core.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.PostID, &c.OwnerID, &c.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ToggleLike flips the (post, owner) like and returns the new state plus the
// post's like count. The primary key makes the toggle idempotent per state.
func (r *SQLiteRepository) ToggleLike(ctx context.Context, postID, ownerID string) (bool, int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM blog_likes WHERE post_id = ? AND owner_id = ?`, postID, ownerID)
	if err != nil {
		return false, 0, fmt.Errorf("unlike: %w", err)
	}

	liked := false
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO blog_likes (post_id, owner_id, created_at)
			VALUES (?, ?, ?)`, postID, ownerID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return false, 0, fmt.Errorf("like: %w", err)
		}
		liked = true
	}

	count, err := r.CountLikes(ctx, postID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

// CountLikes returns the number of likes on a post.
func (r *SQLiteRepository) CountLikes(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blog_likes WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func scanBlogPost(row rowScanner) (core.BlogPost, error) {
	var p core.BlogPost
	var published int
	var createdAt string
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Slug, &p.Content, &published, &createdAt); err != nil {
		return core.BlogPost{}, err
	}
	p.Published = published != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

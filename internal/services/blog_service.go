package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"sika/internal/core"
	"sika/internal/log"
	"sika/internal/storage"
)

var slugChars = regexp.MustCompile(`[^a-z0-9]+`)

// BlogService handles posts, comments, and likes. Published posts are public;
// drafts are visible to admins only, which callers signal via the
// includeUnpublished flag.
type BlogService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewBlogService(store *storage.SQLiteRepository, logger *log.Logger) *BlogService {
	return &BlogService{
		storage: store,
		logger:  logger.WithComponent(log.ComponentApp),
	}
}

// CreatePost stores a new draft. The slug is derived from the title unless
// one is given.
func (s *BlogService) CreatePost(ctx context.Context, authorID, title, slug, content string) (core.BlogPost, error) {
	if strings.TrimSpace(slug) == "" {
		slug = Slugify(title)
	}
	post := core.BlogPost{
		OwnerID: authorID,
		Title:   strings.TrimSpace(title),
		Slug:    slug,
		Content: content,
	}
	if err := post.Validate(); err != nil {
		return core.BlogPost{}, err
	}

	created, err := s.storage.CreateBlogPost(ctx, post)
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("create post: %w", err)
	}
	s.logger.InfoContext(ctx, "Blog post created", "slug", created.Slug)
	return created, nil
}

func (s *BlogService) SetPublished(ctx context.Context, id string, published bool) error {
	return s.storage.SetPostPublished(ctx, id, published)
}

func (s *BlogService) ListPosts(ctx context.Context, includeUnpublished bool) ([]core.BlogPost, error) {
	return s.storage.ListBlogPosts(ctx, includeUnpublished)
}

func (s *BlogService) GetPost(ctx context.Context, slug string, includeUnpublished bool) (core.BlogPost, error) {
	return s.storage.GetBlogPostBySlug(ctx, slug, includeUnpublished)
}

func (s *BlogService) Comments(ctx context.Context, postID string) ([]core.Comment, error) {
	return s.storage.ListComments(ctx, postID)
}

func (s *BlogService) AddComment(ctx context.Context, postID, ownerID, body string) (core.Comment, error) {
	comment := core.Comment{
		PostID:  postID,
		OwnerID: ownerID,
		Body:    strings.TrimSpace(body),
	}
	if err := comment.Validate(); err != nil {
		return core.Comment{}, err
	}
	return s.storage.AddComment(ctx, comment)
}

// ToggleLike flips the (post, owner) like and returns the new state with the
// updated count.
func (s *BlogService) ToggleLike(ctx context.Context, postID, ownerID string) (bool, int64, error) {
	return s.storage.ToggleLike(ctx, postID, ownerID)
}

// Slugify lowercases the title and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(title string) string {
	slug := slugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

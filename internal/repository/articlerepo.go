package repository

import (
	"context"

	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/gofrs/uuid/v5"
)

// ArticleRepository provides access to articles and their likes.
// viewer is the caller used to compute the liked flag; uuid.Nil means anonymous.
type ArticleRepository interface {
	// Create inserts an article.
	Create(ctx context.Context, a *model.Article) error
	// List returns one page of active articles, newest first.
	List(ctx context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error)
	// GetByID loads an active article.
	GetByID(ctx context.Context, viewer, id uuid.UUID) (*model.ArticleDetail, error)
	// GetBySlug loads an active article by slug.
	GetBySlug(ctx context.Context, viewer uuid.UUID, slug string) (*model.ArticleDetail, error)
	// Update applies patch to an article owned by authorID.
	Update(ctx context.Context, authorID, id uuid.UUID, patch model.ArticlePatch) error
	// Delete soft-deletes an article owned by authorID.
	Delete(ctx context.Context, authorID, id uuid.UUID) error
	// SetLike records or clears userID's like on an active article.
	SetLike(ctx context.Context, userID, articleID uuid.UUID, like bool) error
}

// CommentRepository provides access to comments of active articles.
type CommentRepository interface {
	// Create inserts a comment; the article must be active.
	Create(ctx context.Context, c *model.Comment) error
	// List returns one page of an article's comments, newest first.
	List(ctx context.Context, articleID uuid.UUID, req pagination.Request) (model.CommentPage, error)
	// Get loads one comment of an article.
	Get(ctx context.Context, articleID, id uuid.UUID) (*model.CommentItem, error)
	// Update replaces the content of a comment owned by authorID.
	Update(ctx context.Context, authorID, articleID, id uuid.UUID, content string) error
	// Delete soft-deletes a comment owned by authorID.
	Delete(ctx context.Context, authorID, articleID, id uuid.UUID) error
}

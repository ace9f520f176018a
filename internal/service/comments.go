package service

import (
	"context"
	"strings"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/and161185/quill/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// CommentService defines comment operations scoped to one article.
type CommentService interface {
	Create(ctx context.Context, authorID, articleID uuid.UUID, content string) (uuid.UUID, error)
	List(ctx context.Context, articleID uuid.UUID, req pagination.Request) (model.CommentPage, error)
	Get(ctx context.Context, articleID, id uuid.UUID) (*model.CommentItem, error)
	Update(ctx context.Context, authorID, articleID, id uuid.UUID, content string) (uuid.UUID, error)
	Delete(ctx context.Context, authorID, articleID, id uuid.UUID) (uuid.UUID, error)
}

// CommentServiceImpl implements CommentService.
type CommentServiceImpl struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
}

// NewCommentService constructs CommentService.
func NewCommentService(comments repository.CommentRepository, articles repository.ArticleRepository) *CommentServiceImpl {
	return &CommentServiceImpl{comments: comments, articles: articles}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		v := errs.NewValidation()
		v.Add("content", "required")
		return v
	}
	return nil
}

// Create adds a comment to an active article.
func (s *CommentServiceImpl) Create(ctx context.Context, authorID, articleID uuid.UUID, content string) (uuid.UUID, error) {
	if err := validateContent(content); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	c := &model.Comment{ID: id, Content: content, ArticleID: articleID, AuthorID: authorID}
	if err := s.comments.Create(ctx, c); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// List pages an article's comments; a missing article is reported, not an empty page.
func (s *CommentServiceImpl) List(ctx context.Context, articleID uuid.UUID, req pagination.Request) (model.CommentPage, error) {
	if _, err := s.articles.GetByID(ctx, uuid.Nil, articleID); err != nil {
		return model.CommentPage{}, err
	}
	return s.comments.List(ctx, articleID, req)
}

// Get loads one comment.
func (s *CommentServiceImpl) Get(ctx context.Context, articleID, id uuid.UUID) (*model.CommentItem, error) {
	return s.comments.Get(ctx, articleID, id)
}

// Update edits a comment owned by authorID.
func (s *CommentServiceImpl) Update(ctx context.Context, authorID, articleID, id uuid.UUID, content string) (uuid.UUID, error) {
	if err := validateContent(content); err != nil {
		return uuid.Nil, err
	}
	if err := s.comments.Update(ctx, authorID, articleID, id, content); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Delete soft-deletes a comment owned by authorID.
func (s *CommentServiceImpl) Delete(ctx context.Context, authorID, articleID, id uuid.UUID) (uuid.UUID, error) {
	if err := s.comments.Delete(ctx, authorID, articleID, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

package service

import (
	"context"
	"strings"
	"unicode/utf8"

	pkgcrypto "github.com/and161185/quill/internal/crypto"
	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/and161185/quill/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/gosimple/slug"
)

const (
	maxTitleLen    = 100
	maxSlugBaseLen = 100
	slugSuffixLen  = 6 // random bytes, hex encoded
)

// ArticleService defines article operations. viewer is uuid.Nil for anonymous callers.
type ArticleService interface {
	Create(ctx context.Context, authorID uuid.UUID, title, content string) (uuid.UUID, error)
	List(ctx context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error)
	// Get resolves idOrSlug as an id when it parses as a UUID, otherwise as a slug.
	Get(ctx context.Context, viewer uuid.UUID, idOrSlug string) (*model.ArticleDetail, error)
	Update(ctx context.Context, authorID, id uuid.UUID, title, content *string) (uuid.UUID, error)
	Delete(ctx context.Context, authorID, id uuid.UUID) (uuid.UUID, error)
	Like(ctx context.Context, userID, id uuid.UUID, like bool) (uuid.UUID, error)
}

// ArticleServiceImpl implements ArticleService.
type ArticleServiceImpl struct {
	articles repository.ArticleRepository
}

// NewArticleService constructs ArticleService.
func NewArticleService(articles repository.ArticleRepository) *ArticleServiceImpl {
	return &ArticleServiceImpl{articles: articles}
}

// MakeSlug derives "<slugified-title>-<random hex>".
func MakeSlug(title string) (string, error) {
	suffix, err := pkgcrypto.RandHex(slugSuffixLen)
	if err != nil {
		return "", err
	}
	base := slug.Make(title)
	if len(base) > maxSlugBaseLen {
		base = strings.TrimRight(base[:maxSlugBaseLen], "-")
	}
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

func validateTitle(v *errs.ValidationError, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		v.Add("title", "required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		v.Add("title", "must be at most 100 characters")
	}
}

// Create stores a new article with a freshly derived slug.
func (s *ArticleServiceImpl) Create(ctx context.Context, authorID uuid.UUID, title, content string) (uuid.UUID, error) {
	v := errs.NewValidation()
	validateTitle(v, title)
	if strings.TrimSpace(content) == "" {
		v.Add("content", "required")
	}
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	sl, err := MakeSlug(title)
	if err != nil {
		return uuid.Nil, err
	}
	a := &model.Article{ID: id, Title: title, Slug: sl, Content: content, AuthorID: authorID}
	if err := s.articles.Create(ctx, a); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// List returns one page of articles annotated for viewer.
func (s *ArticleServiceImpl) List(ctx context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error) {
	return s.articles.List(ctx, viewer, req)
}

// Get loads an article by id or slug.
func (s *ArticleServiceImpl) Get(ctx context.Context, viewer uuid.UUID, idOrSlug string) (*model.ArticleDetail, error) {
	if idOrSlug == "" {
		return nil, errs.ErrArticleNotFound
	}
	if id, err := uuid.FromString(idOrSlug); err == nil {
		return s.articles.GetByID(ctx, viewer, id)
	}
	return s.articles.GetBySlug(ctx, viewer, idOrSlug)
}

// Update changes title and/or content; a new title regenerates the slug.
func (s *ArticleServiceImpl) Update(ctx context.Context, authorID, id uuid.UUID, title, content *string) (uuid.UUID, error) {
	v := errs.NewValidation()
	if title != nil {
		validateTitle(v, *title)
	}
	if content != nil && strings.TrimSpace(*content) == "" {
		v.Add("content", "required")
	}
	if title == nil && content == nil {
		v.Add("body", "nothing to update")
	}
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}

	patch := model.ArticlePatch{Title: title, Content: content}
	if title != nil {
		sl, err := MakeSlug(*title)
		if err != nil {
			return uuid.Nil, err
		}
		patch.Slug = &sl
	}
	if err := s.articles.Update(ctx, authorID, id, patch); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Delete soft-deletes an article owned by authorID.
func (s *ArticleServiceImpl) Delete(ctx context.Context, authorID, id uuid.UUID) (uuid.UUID, error) {
	if err := s.articles.Delete(ctx, authorID, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Like sets or clears userID's like. Repeating the same call is a no-op.
func (s *ArticleServiceImpl) Like(ctx context.Context, userID, id uuid.UUID, like bool) (uuid.UUID, error) {
	if err := s.articles.SetLike(ctx, userID, id, like); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

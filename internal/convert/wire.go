// Package convert maps domain models to and from the JSON wire shapes of the HTTP API.
package convert

import (
	"time"

	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	u "github.com/gofrs/uuid/v5"
)

// --- requests ---

// RegisterRequest is the body of POST /auth/register. Name is accepted but not stored.
type RegisterRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=255"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=255"`
}

// RefreshRequest is the optional body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ArticleCreateRequest is the body of POST /articles.
type ArticleCreateRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
}

// ArticleUpdateRequest is the body of PATCH /articles/{id}.
type ArticleUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=100"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

// LikeRequest is the body of PUT /articles/{id}/likes.
type LikeRequest struct {
	Like *bool `json:"like" validate:"required"`
}

// CommentRequest is the body of comment create and update.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// --- responses ---

// Tokens is the auth response.
type Tokens struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Profile is the profile response.
type Profile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ID wraps the id of a created or changed resource.
type ID struct {
	ID string `json:"id"`
}

// Success is the logout response.
type Success struct {
	Success bool `json:"success"`
}

// ArticleItem is one article in a listing.
type ArticleItem struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Liked          bool   `json:"liked"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// Article is a single article with its body.
type Article struct {
	ArticleItem
	Content string `json:"content"`
}

// CommentItem is one comment with its article and author.
type CommentItem struct {
	ID                    string `json:"id"`
	Content               string `json:"content"`
	ArticleID             string `json:"article_id"`
	ArticleTitle          string `json:"article_title"`
	ArticleSlug           string `json:"article_slug"`
	ArticleAuthorID       string `json:"article_author_id"`
	ArticleAuthorUsername string `json:"article_author_username"`
	AuthorID              string `json:"author_id"`
	AuthorUsername        string `json:"author_username"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

// OffsetPage is a page in offset mode.
type OffsetPage[T any] struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalData  int64 `json:"total_data"`
	TotalPages int64 `json:"total_pages"`
	Data       []T   `json:"data"`
}

// CursorPage is a page in cursor mode. NextCursor is null on the last page.
type CursorPage[T any] struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"next_cursor"`
	Data       []T     `json:"data"`
}

// --- helpers ---

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func id(v u.UUID) string {
	if v == u.Nil {
		return ""
	}
	return v.String()
}

// --- mapping ---

// ToTokens maps issued tokens.
func ToTokens(t model.Tokens) Tokens {
	return Tokens{TokenType: t.TokenType, ExpiresIn: t.ExpiresIn, AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// ToProfile maps a profile.
func ToProfile(p model.Profile) Profile {
	return Profile{UserID: id(p.UserID), Username: p.Username}
}

// ToID wraps an id.
func ToID(v u.UUID) ID { return ID{ID: id(v)} }

// ToArticleItem maps a listing item.
func ToArticleItem(a model.ArticleItem) ArticleItem {
	return ArticleItem{
		ID:             id(a.ID),
		Title:          a.Title,
		Slug:           a.Slug,
		Liked:          a.Liked,
		AuthorID:       id(a.AuthorID),
		AuthorUsername: a.AuthorUsername,
		CreatedAt:      ts(a.CreatedAt),
		UpdatedAt:      ts(a.UpdatedAt),
	}
}

// ToArticle maps a single article.
func ToArticle(a model.ArticleDetail) Article {
	return Article{ArticleItem: ToArticleItem(a.ArticleItem), Content: a.Content}
}

// ToCommentItem maps a comment.
func ToCommentItem(c model.CommentItem) CommentItem {
	return CommentItem{
		ID:                    id(c.ID),
		Content:               c.Content,
		ArticleID:             id(c.ArticleID),
		ArticleTitle:          c.ArticleTitle,
		ArticleSlug:           c.ArticleSlug,
		ArticleAuthorID:       id(c.ArticleAuthorID),
		ArticleAuthorUsername: c.ArticleAuthorUsername,
		AuthorID:              id(c.AuthorID),
		AuthorUsername:        c.AuthorUsername,
		CreatedAt:             ts(c.CreatedAt),
		UpdatedAt:             ts(c.UpdatedAt),
	}
}

// ToPage renders a page in the shape of mode.
func ToPage[D, T any](mode pagination.Mode, info model.PageInfo, items []D, conv func(D) T) any {
	data := make([]T, 0, len(items))
	for _, it := range items {
		data = append(data, conv(it))
	}
	if mode == pagination.ModeCursor {
		p := CursorPage[T]{Limit: info.Limit, Data: data}
		if info.NextCursor != "" {
			next := info.NextCursor
			p.NextCursor = &next
		}
		return p
	}
	return OffsetPage[T]{
		Page:       info.Page,
		Limit:      info.Limit,
		TotalData:  info.Total,
		TotalPages: info.TotalPages,
		Data:       data,
	}
}

// ToArticlePage renders an article page.
func ToArticlePage(mode pagination.Mode, p model.ArticlePage) any {
	return ToPage(mode, p.PageInfo, p.Items, ToArticleItem)
}

// ToCommentPage renders a comment page.
func ToCommentPage(mode pagination.Mode, p model.CommentPage) any {
	return ToPage(mode, p.PageInfo, p.Items, ToCommentItem)
}

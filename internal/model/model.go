// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents an account. The password is stored only as an encoded argon2id digest.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	Password  string    // $argon2id$... encoded digest
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is one issued access/refresh pair (an auths row).
type Session struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Token        string    // signed access token
	RefreshToken string    // opaque, single use
	ExpiresAt    time.Time // refresh token expiry
	CreatedAt    time.Time
}

// Expired reports whether the refresh token is no longer usable at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Tokens is the client-facing result of register, login and refresh.
type Tokens struct {
	TokenType    string
	ExpiresIn    int64 // access token lifetime, seconds
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// Profile is the authenticated user's public view.
type Profile struct {
	UserID   uuid.UUID
	Username string
}

// Principal is the caller identity extracted from a verified access token.
type Principal struct {
	UserID  uuid.UUID
	Token   string
	TokenID string
	Expires time.Time
}

// Article is a stored article.
type Article struct {
	ID        uuid.UUID
	Title     string
	Slug      string
	Content   string
	AuthorID  uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticleItem is an article as seen in listings, annotated for the viewer.
type ArticleItem struct {
	ID             uuid.UUID
	Title          string
	Slug           string
	Liked          bool
	AuthorID       uuid.UUID
	AuthorUsername string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ArticleDetail is a single article with its body.
type ArticleDetail struct {
	ArticleItem
	Content string
}

// ArticlePatch holds optional article changes. Nil fields are left untouched.
type ArticlePatch struct {
	Title   *string
	Slug    *string
	Content *string
}

// Comment is a stored comment.
type Comment struct {
	ID        uuid.UUID
	Content   string
	ArticleID uuid.UUID
	AuthorID  uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentItem is a comment joined with its article and author.
type CommentItem struct {
	ID                    uuid.UUID
	Content               string
	ArticleID             uuid.UUID
	ArticleTitle          string
	ArticleSlug           string
	ArticleAuthorID       uuid.UUID
	ArticleAuthorUsername string
	AuthorID              uuid.UUID
	AuthorUsername        string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PageInfo describes where a listing page sits. Offset pages fill Page, Total and
// TotalPages; cursor pages fill NextCursor.
type PageInfo struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int64
	NextCursor string
}

// ArticlePage is one page of article items.
type ArticlePage struct {
	PageInfo
	Items []ArticleItem
}

// CommentPage is one page of comment items.
type CommentPage struct {
	PageInfo
	Items []CommentItem
}

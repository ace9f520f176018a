package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ArticleRepo implements ArticleRepository using PostgreSQL.
type ArticleRepo struct{ db *DB }

// NewArticleRepo constructs an article repository.
func NewArticleRepo(db *DB) *ArticleRepo { return &ArticleRepo{db: db} }

// $1 is always the viewer; the zero UUID never matches a like row.
const articleCols = `
SELECT a.id, a.title, a.slug, a.author_id, u.username, a.created_at, a.updated_at,
       EXISTS (SELECT 1 FROM article_likes l
               WHERE l.article_id = a.id AND l.user_id = $1 AND l.deleted_at IS NULL) AS liked`

const articleFrom = `
FROM articles a
JOIN users u ON u.id = a.author_id
WHERE a.deleted_at IS NULL`

const (
	listArticlesOffset = articleCols + `, COUNT(*) OVER() AS total` + articleFrom + `
ORDER BY a.created_at DESC, a.id DESC
LIMIT $2 OFFSET $3`

	listArticlesFirst = articleCols + `, 0::bigint AS total` + articleFrom + `
ORDER BY a.created_at DESC, a.id DESC
LIMIT $2`

	listArticlesAfter = articleCols + `, 0::bigint AS total` + articleFrom + `
  AND (a.created_at, a.id) < ($3, $4)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $2`

	countArticles = `SELECT COUNT(*) FROM articles WHERE deleted_at IS NULL`

	getArticleByID   = articleCols + `, a.content` + articleFrom + ` AND a.id = $2`
	getArticleBySlug = articleCols + `, a.content` + articleFrom + ` AND a.slug = $2`
)

// Create inserts an article row.
func (r *ArticleRepo) Create(ctx context.Context, a *model.Article) error {
	const q = `
INSERT INTO articles (id, title, slug, content, author_id)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Pool.Exec(ctx, q, a.ID, a.Title, a.Slug, a.Content, a.AuthorID); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// List returns one page of active articles, newest first.
func (r *ArticleRepo) List(ctx context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case req.Mode == pagination.ModeOffset:
		rows, err = r.db.Pool.Query(ctx, listArticlesOffset, viewer, req.Limit, req.Offset)
	case req.After == nil:
		rows, err = r.db.Pool.Query(ctx, listArticlesFirst, viewer, req.Limit+1)
	default:
		rows, err = r.db.Pool.Query(ctx, listArticlesAfter, viewer, req.Limit+1, req.After.CreatedAt, req.After.ID)
	}
	if err != nil {
		return model.ArticlePage{}, err
	}

	items, info, err := readPage(ctx, rows, req, scanArticleItem, r.count)
	if err != nil {
		return model.ArticlePage{}, err
	}
	return model.ArticlePage{PageInfo: info, Items: items}, nil
}

func (r *ArticleRepo) count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, countArticles).Scan(&n)
	return n, err
}

func scanArticleItem(rows pgx.Rows) (model.ArticleItem, pagination.Cursor, int64, error) {
	var (
		it    model.ArticleItem
		total int64
	)
	err := rows.Scan(&it.ID, &it.Title, &it.Slug, &it.AuthorID, &it.AuthorUsername,
		&it.CreatedAt, &it.UpdatedAt, &it.Liked, &total)
	return it, pagination.Cursor{ID: it.ID, CreatedAt: it.CreatedAt}, total, err
}

// GetByID loads an active article.
func (r *ArticleRepo) GetByID(ctx context.Context, viewer, id uuid.UUID) (*model.ArticleDetail, error) {
	return scanArticleDetail(r.db.Pool.QueryRow(ctx, getArticleByID, viewer, id))
}

// GetBySlug loads an active article by slug.
func (r *ArticleRepo) GetBySlug(ctx context.Context, viewer uuid.UUID, slug string) (*model.ArticleDetail, error) {
	return scanArticleDetail(r.db.Pool.QueryRow(ctx, getArticleBySlug, viewer, slug))
}

func scanArticleDetail(row pgx.Row) (*model.ArticleDetail, error) {
	var d model.ArticleDetail
	err := row.Scan(&d.ID, &d.Title, &d.Slug, &d.AuthorID, &d.AuthorUsername,
		&d.CreatedAt, &d.UpdatedAt, &d.Liked, &d.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrArticleNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Update applies patch to an active article owned by authorID.
func (r *ArticleRepo) Update(ctx context.Context, authorID, id uuid.UUID, patch model.ArticlePatch) error {
	const q = `
UPDATE articles
SET title = COALESCE($3, title),
    slug = COALESCE($4, slug),
    content = COALESCE($5, content),
    updated_at = now()
WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, id, authorID, patch.Title, patch.Slug, patch.Content)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrArticleNotFound
	}
	return nil
}

// Delete soft-deletes an active article owned by authorID.
func (r *ArticleRepo) Delete(ctx context.Context, authorID, id uuid.UUID) error {
	const q = `
UPDATE articles SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND author_id = $2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, id, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrArticleNotFound
	}
	return nil
}

// SetLike upserts the (article, user) like row; unlike keeps the row with deleted_at set.
// The SELECT yields nothing for a missing or deleted article, so no row is written.
func (r *ArticleRepo) SetLike(ctx context.Context, userID, articleID uuid.UUID, like bool) error {
	const q = `
INSERT INTO article_likes (id, article_id, user_id, deleted_at)
SELECT $1, a.id, $3, CASE WHEN $4::boolean THEN NULL ELSE now() END
FROM articles a
WHERE a.id = $2 AND a.deleted_at IS NULL
ON CONFLICT (article_id, user_id) DO UPDATE
SET deleted_at = EXCLUDED.deleted_at, updated_at = now()`
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, q, id, articleID, userID, like)
	if err != nil {
		return fmt.Errorf("set like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrArticleNotFound
	}
	return nil
}

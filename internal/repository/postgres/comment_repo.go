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

// CommentRepo implements CommentRepository using PostgreSQL.
type CommentRepo struct{ db *DB }

// NewCommentRepo constructs a comment repository.
func NewCommentRepo(db *DB) *CommentRepo { return &CommentRepo{db: db} }

const commentCols = `
SELECT c.id, c.content, c.article_id, a.title, a.slug, a.author_id, au.username,
       c.author_id, cu.username, c.created_at, c.updated_at`

const commentFrom = `
FROM comments c
JOIN articles a ON a.id = c.article_id AND a.deleted_at IS NULL
JOIN users au ON au.id = a.author_id
JOIN users cu ON cu.id = c.author_id
WHERE c.article_id = $1 AND c.deleted_at IS NULL`

const (
	listCommentsOffset = commentCols + `, COUNT(*) OVER() AS total` + commentFrom + `
ORDER BY c.created_at DESC, c.id DESC
LIMIT $2 OFFSET $3`

	listCommentsFirst = commentCols + `, 0::bigint AS total` + commentFrom + `
ORDER BY c.created_at DESC, c.id DESC
LIMIT $2`

	listCommentsAfter = commentCols + `, 0::bigint AS total` + commentFrom + `
  AND (c.created_at, c.id) < ($3, $4)
ORDER BY c.created_at DESC, c.id DESC
LIMIT $2`

	countComments = `SELECT COUNT(*) FROM comments WHERE article_id = $1 AND deleted_at IS NULL`

	getComment = commentCols + commentFrom + ` AND c.id = $2`
)

// Create inserts a comment on an active article.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `
INSERT INTO comments (id, content, article_id, author_id)
SELECT $1, $2, a.id, $4
FROM articles a
WHERE a.id = $3 AND a.deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.Content, c.ArticleID, c.AuthorID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrArticleNotFound
	}
	return nil
}

// List returns one page of an article's comments, newest first.
func (r *CommentRepo) List(ctx context.Context, articleID uuid.UUID, req pagination.Request) (model.CommentPage, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case req.Mode == pagination.ModeOffset:
		rows, err = r.db.Pool.Query(ctx, listCommentsOffset, articleID, req.Limit, req.Offset)
	case req.After == nil:
		rows, err = r.db.Pool.Query(ctx, listCommentsFirst, articleID, req.Limit+1)
	default:
		rows, err = r.db.Pool.Query(ctx, listCommentsAfter, articleID, req.Limit+1, req.After.CreatedAt, req.After.ID)
	}
	if err != nil {
		return model.CommentPage{}, err
	}

	count := func(ctx context.Context) (int64, error) {
		var n int64
		err := r.db.Pool.QueryRow(ctx, countComments, articleID).Scan(&n)
		return n, err
	}
	items, info, err := readPage(ctx, rows, req, scanCommentItem, count)
	if err != nil {
		return model.CommentPage{}, err
	}
	return model.CommentPage{PageInfo: info, Items: items}, nil
}

func scanCommentItem(rows pgx.Rows) (model.CommentItem, pagination.Cursor, int64, error) {
	var (
		it    model.CommentItem
		total int64
	)
	err := rows.Scan(&it.ID, &it.Content, &it.ArticleID, &it.ArticleTitle, &it.ArticleSlug,
		&it.ArticleAuthorID, &it.ArticleAuthorUsername, &it.AuthorID, &it.AuthorUsername,
		&it.CreatedAt, &it.UpdatedAt, &total)
	return it, pagination.Cursor{ID: it.ID, CreatedAt: it.CreatedAt}, total, err
}

// Get loads one active comment of an active article.
func (r *CommentRepo) Get(ctx context.Context, articleID, id uuid.UUID) (*model.CommentItem, error) {
	var it model.CommentItem
	err := r.db.Pool.QueryRow(ctx, getComment, articleID, id).Scan(
		&it.ID, &it.Content, &it.ArticleID, &it.ArticleTitle, &it.ArticleSlug,
		&it.ArticleAuthorID, &it.ArticleAuthorUsername, &it.AuthorID, &it.AuthorUsername,
		&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrCommentNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Update replaces the content of a comment owned by authorID.
func (r *CommentRepo) Update(ctx context.Context, authorID, articleID, id uuid.UUID, content string) error {
	const q = `
UPDATE comments SET content = $4, updated_at = now()
WHERE id = $1 AND article_id = $2 AND author_id = $3 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, id, articleID, authorID, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrCommentNotFound
	}
	return nil
}

// Delete soft-deletes a comment owned by authorID.
func (r *CommentRepo) Delete(ctx context.Context, authorID, articleID, id uuid.UUID) error {
	const q = `
UPDATE comments SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND article_id = $2 AND author_id = $3 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, id, articleID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrCommentNotFound
	}
	return nil
}

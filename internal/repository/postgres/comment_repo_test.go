package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var commentBaseCols = []string{
	"id", "content", "article_id", "title", "slug", "article_author_id", "article_author_username",
	"author_id", "author_username", "created_at", "updated_at",
}

func commentRow(id, article, author uuid.UUID, at time.Time) []any {
	return []any{id, "nice", article, "Hello", "hello-1", author, "alice", author, "alice", at, at}
}

func TestCommentRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	c := &model.Comment{
		ID: uuid.Must(uuid.NewV4()), Content: "hi",
		ArticleID: uuid.Must(uuid.NewV4()), AuthorID: uuid.Must(uuid.NewV4()),
	}

	const q = `INSERT INTO comments \(id, content, article_id, author_id\) SELECT \$1, \$2, a.id, \$4 FROM articles a WHERE a.id = \$3 AND a.deleted_at IS NULL`
	mock.ExpectExec(q).WithArgs(c.ID, c.Content, c.ArticleID, c.AuthorID).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), c))

	mock.ExpectExec(q).WithArgs(c.ID, c.Content, c.ArticleID, c.AuthorID).WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.ErrorIs(t, r.Create(context.Background(), c), errs.ErrArticleNotFound)

	mock.ExpectExec(q).WithArgs(c.ID, c.Content, c.ArticleID, c.AuthorID).WillReturnError(errors.New("db"))
	require.Error(t, r.Create(context.Background(), c))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_List_Offset(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	article := uuid.Must(uuid.NewV4())
	author := uuid.Must(uuid.NewV4())
	now := time.Now()

	cols := append(append([]string{}, commentBaseCols...), "total")
	mock.ExpectQuery(`WHERE c.article_id = \$1 AND c.deleted_at IS NULL ORDER BY c.created_at DESC, c.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(article, 10, 0).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(commentRow(uuid.Must(uuid.NewV4()), article, author, now), int64(1))...))

	page, err := r.List(context.Background(), article, pagination.NewOffset(0, 0))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "hello-1", page.Items[0].ArticleSlug)
	require.Equal(t, "alice", page.Items[0].ArticleAuthorUsername)
	require.Equal(t, 1, page.Page)
	require.EqualValues(t, 1, page.Total)
	require.EqualValues(t, 1, page.TotalPages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_List_OffsetPastEndCounts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	article := uuid.Must(uuid.NewV4())

	cols := append(append([]string{}, commentBaseCols...), "total")
	mock.ExpectQuery(`LIMIT \$2 OFFSET \$3`).WithArgs(article, 10, 50).WillReturnRows(pgxmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta(countComments)).WithArgs(article).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	page, err := r.List(context.Background(), article, pagination.NewOffset(6, 10))
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.EqualValues(t, 4, page.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_List_Cursor(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	article := uuid.Must(uuid.NewV4())
	author := uuid.Must(uuid.NewV4())
	at := time.Date(2025, 8, 2, 9, 0, 0, 0, time.UTC)
	after := pagination.Cursor{ID: uuid.Must(uuid.NewV4()), CreatedAt: at.Add(time.Hour)}

	cols := append(append([]string{}, commentBaseCols...), "total")
	mock.ExpectQuery(`AND \(c.created_at, c.id\) < \(\$3, \$4\)`).
		WithArgs(article, 2, after.CreatedAt, after.ID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(commentRow(uuid.Must(uuid.NewV4()), article, author, at), int64(0))...))

	req, err := pagination.NewCursor(after.Encode(), 1)
	require.NoError(t, err)
	page, err := r.List(context.Background(), article, req)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Empty(t, page.NextCursor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	article := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`WHERE c.article_id = \$1 AND c.deleted_at IS NULL AND c.id = \$2`).
		WithArgs(article, id).
		WillReturnRows(pgxmock.NewRows(commentBaseCols).AddRow(commentRow(id, article, uuid.Must(uuid.NewV4()), time.Now())...))
	c, err := r.Get(context.Background(), article, id)
	require.NoError(t, err)
	require.Equal(t, id, c.ID)

	mock.ExpectQuery(`AND c.id = \$2`).WithArgs(article, id).WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(context.Background(), article, id)
	require.ErrorIs(t, err, errs.ErrCommentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_UpdateDelete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCommentRepo(db)
	author, article, id := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	const upd = `UPDATE comments SET content = \$4, updated_at = now\(\) WHERE id = \$1 AND article_id = \$2 AND author_id = \$3 AND deleted_at IS NULL`
	mock.ExpectExec(upd).WithArgs(id, article, author, "edited").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Update(context.Background(), author, article, id, "edited"))

	mock.ExpectExec(upd).WithArgs(id, article, author, "edited").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(context.Background(), author, article, id, "edited"), errs.ErrCommentNotFound)

	const del = `UPDATE comments SET deleted_at = now\(\), updated_at = now\(\) WHERE id = \$1 AND article_id = \$2 AND author_id = \$3`
	mock.ExpectExec(del).WithArgs(id, article, author).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Delete(context.Background(), author, article, id))

	mock.ExpectExec(del).WithArgs(id, article, author).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), author, article, id), errs.ErrCommentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

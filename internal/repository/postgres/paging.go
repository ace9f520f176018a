package postgres

import (
	"context"

	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/jackc/pgx/v5"
)

// rowScanner scans one listing row and returns the item, its cursor position and the
// window total (zero in cursor mode).
type rowScanner[T any] func(pgx.Rows) (T, pagination.Cursor, int64, error)

// readPage drains rows into a page. Offset pages take the total from COUNT(*) OVER(),
// falling back to count when the page is past the end. Cursor pages are queried with
// limit+1 rows so the extra row tells whether a next cursor exists.
func readPage[T any](
	ctx context.Context, rows pgx.Rows, req pagination.Request, scan rowScanner[T], count func(context.Context) (int64, error),
) ([]T, model.PageInfo, error) {
	defer rows.Close()

	items := make([]T, 0, req.Limit)
	cursors := make([]pagination.Cursor, 0, req.Limit)
	var total int64
	for rows.Next() {
		it, cur, t, err := scan(rows)
		if err != nil {
			return nil, model.PageInfo{}, err
		}
		items = append(items, it)
		cursors = append(cursors, cur)
		total = t
	}
	if err := rows.Err(); err != nil {
		return nil, model.PageInfo{}, err
	}

	info := model.PageInfo{Limit: req.Limit}
	if req.Mode == pagination.ModeCursor {
		if len(items) > req.Limit {
			items = items[:req.Limit]
			info.NextCursor = cursors[req.Limit-1].Encode()
		}
		return items, info, nil
	}

	if len(items) == 0 && req.Offset > 0 {
		var err error
		if total, err = count(ctx); err != nil {
			return nil, model.PageInfo{}, err
		}
	}
	info.Page = req.Page
	info.Total = total
	info.TotalPages = pagination.TotalPages(total, req.Limit)
	return items, info, nil
}

// Package pagination defines listing requests and the opaque cursor codec.
package pagination

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/gofrs/uuid/v5"
)

// Mode selects how every listing in a deployment is paged.
type Mode string

// Supported modes.
const (
	ModeOffset Mode = "offset"
	ModeCursor Mode = "cursor"
)

// Limits applied to every listing.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit within int for any allowed limit.
	MaxPage      = math.MaxInt / MaxLimit
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOffset, "":
		return ModeOffset, nil
	case ModeCursor:
		return ModeCursor, nil
	default:
		return "", fmt.Errorf("unknown pagination mode %q", s)
	}
}

// Request is a normalized listing request.
type Request struct {
	Mode   Mode
	Page   int     // offset mode, 1-based
	Limit  int     // both modes
	After  *Cursor // cursor mode, nil for the first page
	Offset int     // offset mode, derived from Page and Limit
}

// NewOffset normalizes offset parameters: page <= 0 becomes 1, limit <= 0 the default,
// and pages beyond MaxPage are capped, which still lands past the last row.
func NewOffset(page, limit int) Request {
	switch {
	case page <= 0:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	limit = clampLimit(limit)
	return Request{Mode: ModeOffset, Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// NewCursor decodes the opaque cursor; empty means the first page.
func NewCursor(cursor string, limit int) (Request, error) {
	r := Request{Mode: ModeCursor, Limit: clampLimit(limit)}
	if cursor == "" {
		return r, nil
	}
	c, err := Decode(cursor)
	if err != nil {
		return Request{}, err
	}
	r.After = &c
	return r, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(limit)))
}

// Cursor identifies the last row of a page in (created_at DESC, id DESC) order.
type Cursor struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// Encode returns base64("{id}_{createdAt RFC3339Nano}").
func (c Cursor) Encode() string {
	raw := c.ID.String() + "_" + c.CreatedAt.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a cursor produced by Encode.
func Decode(s string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, errs.ErrInvalidCursor
	}
	id, ts, ok := strings.Cut(string(raw), "_")
	if !ok {
		return Cursor{}, errs.ErrInvalidCursor
	}
	uid, err := uuid.FromString(id)
	if err != nil {
		return Cursor{}, errs.ErrInvalidCursor
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, errs.ErrInvalidCursor
	}
	return Cursor{ID: uid, CreatedAt: at}, nil
}

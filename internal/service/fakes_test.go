package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/limiter"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/and161185/quill/internal/repository"
	"github.com/and161185/quill/internal/revoke"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	if _, exists := f.byName[u.Username]; exists {
		return errs.ErrDuplicateUsername
	}
	cpy := *u
	f.byName[u.Username] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// fakeSessions mirrors the row-lock semantics: Rotate holds the lock for the whole
// consume-and-replace step.
type fakeSessions struct {
	mu      sync.Mutex
	active  map[string]model.Session // by refresh token
	deleted map[string]model.Session

	createErr error
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func newFakeSessions() *fakeSessions {
	return &fakeSessions{active: map[string]model.Session{}, deleted: map[string]model.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.active[s.RefreshToken] = *s
	return nil
}

func (f *fakeSessions) Rotate(_ context.Context, rt string, next func(model.Session) (model.Session, error)) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.active[rt]
	if !ok {
		return model.Session{}, errs.ErrInvalidToken
	}
	out, err := next(prev)
	if err != nil {
		return model.Session{}, err
	}
	delete(f.active, rt)
	f.deleted[rt] = prev
	f.active[out.RefreshToken] = out
	return out, nil
}

func (f *fakeSessions) Terminate(_ context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for rt, s := range f.active {
		if s.UserID == userID && s.Token == token {
			delete(f.active, rt)
			f.deleted[rt] = s
			return nil
		}
	}
	return errs.ErrAuthNotFound
}

func (f *fakeSessions) expire(rt string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.active[rt]
	s.ExpiresAt = at
	f.active[rt] = s
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}

func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Duration
	err error
}

var _ revoke.Revoker = (*fakeRevoker)(nil)

func (r *fakeRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.ids == nil {
		r.ids = map[string]time.Duration{}
	}
	r.ids[id] = ttl
	return nil
}

func (r *fakeRevoker) Revoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.ids[id]
	return ok, nil
}

type likeKey struct{ article, user uuid.UUID }

type fakeArticles struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*model.Article
	likes     map[likeKey]bool
	clock     time.Time
	lastReq   pagination.Request
	createErr error
}

var _ repository.ArticleRepository = (*fakeArticles)(nil)

func newFakeArticles() *fakeArticles {
	return &fakeArticles{
		rows:  map[uuid.UUID]*model.Article{},
		likes: map[likeKey]bool{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeArticles) Create(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.clock = f.clock.Add(time.Second)
	cpy := *a
	cpy.CreatedAt = f.clock
	f.rows[a.ID] = &cpy
	return nil
}

func (f *fakeArticles) item(viewer uuid.UUID, a *model.Article) model.ArticleItem {
	return model.ArticleItem{
		ID: a.ID, Title: a.Title, Slug: a.Slug, AuthorID: a.AuthorID,
		Liked:     viewer != uuid.Nil && f.likes[likeKey{a.ID, viewer}],
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (f *fakeArticles) List(_ context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	out := make([]model.ArticleItem, 0, len(f.rows))
	for _, a := range f.rows {
		out = append(out, f.item(viewer, a))
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })

	if req.Mode != pagination.ModeCursor {
		return model.ArticlePage{PageInfo: model.PageInfo{Limit: req.Limit, Total: int64(len(out))}, Items: out}, nil
	}

	// keyset: rows strictly after the cursor in (created_at DESC, id DESC) order
	page := make([]model.ArticleItem, 0, len(out))
	for _, it := range out {
		if req.After == nil || newerFirst(req.After.CreatedAt, req.After.ID, it.CreatedAt, it.ID) {
			page = append(page, it)
		}
	}
	info := model.PageInfo{Limit: req.Limit}
	if len(page) > req.Limit {
		page = page[:req.Limit]
		last := page[req.Limit-1]
		info.NextCursor = pagination.Cursor{ID: last.ID, CreatedAt: last.CreatedAt}.Encode()
	}
	return model.ArticlePage{PageInfo: info, Items: page}, nil
}

func newerFirst(at time.Time, id uuid.UUID, bt time.Time, bid uuid.UUID) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return bytes.Compare(id[:], bid[:]) > 0
}

func (f *fakeArticles) GetByID(_ context.Context, viewer, id uuid.UUID) (*model.ArticleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrArticleNotFound
	}
	return &model.ArticleDetail{ArticleItem: f.item(viewer, a), Content: a.Content}, nil
}

func (f *fakeArticles) GetBySlug(_ context.Context, viewer uuid.UUID, slug string) (*model.ArticleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.Slug == slug {
			return &model.ArticleDetail{ArticleItem: f.item(viewer, a), Content: a.Content}, nil
		}
	}
	return nil, errs.ErrArticleNotFound
}

func (f *fakeArticles) Update(_ context.Context, authorID, id uuid.UUID, p model.ArticlePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || a.AuthorID != authorID {
		return errs.ErrArticleNotFound
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Slug != nil {
		a.Slug = *p.Slug
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	return nil
}

func (f *fakeArticles) Delete(_ context.Context, authorID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || a.AuthorID != authorID {
		return errs.ErrArticleNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeArticles) SetLike(_ context.Context, userID, articleID uuid.UUID, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[articleID]; !ok {
		return errs.ErrArticleNotFound
	}
	f.likes[likeKey{articleID, userID}] = v
	return nil
}

type fakeComments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Comment
	arts *fakeArticles
}

var _ repository.CommentRepository = (*fakeComments)(nil)

func (f *fakeComments) Create(ctx context.Context, c *model.Comment) error {
	if _, err := f.arts.GetByID(ctx, uuid.Nil, c.ArticleID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *c
	f.rows[c.ID] = &cpy
	return nil
}

func (f *fakeComments) List(_ context.Context, articleID uuid.UUID, req pagination.Request) (model.CommentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CommentItem
	for _, c := range f.rows {
		if c.ArticleID == articleID {
			out = append(out, model.CommentItem{ID: c.ID, Content: c.Content, ArticleID: c.ArticleID, AuthorID: c.AuthorID})
		}
	}
	return model.CommentPage{PageInfo: model.PageInfo{Limit: req.Limit}, Items: out}, nil
}

func (f *fakeComments) find(authorID, articleID, id uuid.UUID) (*model.Comment, bool) {
	c, ok := f.rows[id]
	if !ok || c.ArticleID != articleID || (authorID != uuid.Nil && c.AuthorID != authorID) {
		return nil, false
	}
	return c, true
}

func (f *fakeComments) Get(_ context.Context, articleID, id uuid.UUID) (*model.CommentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.find(uuid.Nil, articleID, id)
	if !ok {
		return nil, errs.ErrCommentNotFound
	}
	return &model.CommentItem{ID: c.ID, Content: c.Content, ArticleID: c.ArticleID, AuthorID: c.AuthorID}, nil
}

func (f *fakeComments) Update(_ context.Context, authorID, articleID, id uuid.UUID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.find(authorID, articleID, id)
	if !ok {
		return errs.ErrCommentNotFound
	}
	c.Content = content
	return nil
}

func (f *fakeComments) Delete(_ context.Context, authorID, articleID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.find(authorID, articleID, id); !ok {
		return errs.ErrCommentNotFound
	}
	delete(f.rows, id)
	return nil
}

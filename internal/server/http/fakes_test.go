package httpserver

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/pagination"
	"github.com/and161185/quill/internal/service"
)

const goodToken = "good.jwt.token"

type fakeAuth struct {
	mu     sync.Mutex
	userID uuid.UUID

	registerErr error
	loginErr    error
	refreshErr  error
	logoutErr   error
	authErr     error

	lastIP      string
	lastRefresh string
	loggedOut   []model.Principal
}

var _ service.AuthService = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth { return &fakeAuth{userID: uuid.Must(uuid.NewV4())} }

func (f *fakeAuth) tokens(suffix string) model.Tokens {
	return model.Tokens{
		TokenType:    "Bearer",
		ExpiresIn:    300,
		AccessToken:  "access-" + suffix,
		RefreshToken: "refresh-" + suffix,
		RefreshTTL:   30 * 24 * time.Hour,
	}
}

func (f *fakeAuth) Register(_ context.Context, username, _ string) (model.Tokens, error) {
	if f.registerErr != nil {
		return model.Tokens{}, f.registerErr
	}
	return f.tokens(username), nil
}

func (f *fakeAuth) Login(_ context.Context, username, _, ip string) (model.Tokens, error) {
	f.mu.Lock()
	f.lastIP = ip
	f.mu.Unlock()
	if f.loginErr != nil {
		return model.Tokens{}, f.loginErr
	}
	return f.tokens(username), nil
}

func (f *fakeAuth) Refresh(_ context.Context, rt string) (model.Tokens, error) {
	f.mu.Lock()
	f.lastRefresh = rt
	f.mu.Unlock()
	if f.refreshErr != nil {
		return model.Tokens{}, f.refreshErr
	}
	if rt == "" {
		return model.Tokens{}, errs.ErrInvalidToken
	}
	return f.tokens("rotated"), nil
}

func (f *fakeAuth) Logout(_ context.Context, p model.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.loggedOut = append(f.loggedOut, p)
	return nil
}

func (f *fakeAuth) Profile(_ context.Context, id uuid.UUID) (model.Profile, error) {
	if id != f.userID {
		return model.Profile{}, errs.ErrUserNotFound
	}
	return model.Profile{UserID: id, Username: "alice"}, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, tok string) (model.Principal, error) {
	if f.authErr != nil {
		return model.Principal{}, f.authErr
	}
	if tok != goodToken {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return model.Principal{UserID: f.userID, Token: tok, TokenID: "jti"}, nil
}

type fakeArticleService struct {
	mu       sync.Mutex
	page     model.ArticlePage
	detail   *model.ArticleDetail
	err      error
	lastReq  pagination.Request
	viewer   uuid.UUID
	idOrSlug string
	like     *bool
	title    *string
	panicky  bool
}

var _ service.ArticleService = (*fakeArticleService)(nil)

func (f *fakeArticleService) Create(_ context.Context, _ uuid.UUID, _, _ string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return uuid.Must(uuid.NewV4()), nil
}

func (f *fakeArticleService) List(_ context.Context, viewer uuid.UUID, req pagination.Request) (model.ArticlePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicky {
		panic("list exploded")
	}
	f.viewer, f.lastReq = viewer, req
	return f.page, f.err
}

func (f *fakeArticleService) Get(_ context.Context, viewer uuid.UUID, idOrSlug string) (*model.ArticleDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewer, f.idOrSlug = viewer, idOrSlug
	if f.detail == nil {
		return nil, errs.ErrArticleNotFound
	}
	return f.detail, nil
}

func (f *fakeArticleService) Update(_ context.Context, _, id uuid.UUID, title, _ *string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
	return id, f.err
}

func (f *fakeArticleService) Delete(_ context.Context, _, id uuid.UUID) (uuid.UUID, error) {
	return id, f.err
}

func (f *fakeArticleService) Like(_ context.Context, _, id uuid.UUID, like bool) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.like = &like
	return id, f.err
}

type fakeCommentService struct {
	mu      sync.Mutex
	page    model.CommentPage
	item    *model.CommentItem
	err     error
	content string
}

var _ service.CommentService = (*fakeCommentService)(nil)

func (f *fakeCommentService) Create(_ context.Context, _, _ uuid.UUID, content string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
	return uuid.Must(uuid.NewV4()), f.err
}

func (f *fakeCommentService) List(context.Context, uuid.UUID, pagination.Request) (model.CommentPage, error) {
	return f.page, f.err
}

func (f *fakeCommentService) Get(context.Context, uuid.UUID, uuid.UUID) (*model.CommentItem, error) {
	if f.item == nil {
		return nil, errs.ErrCommentNotFound
	}
	return f.item, nil
}

func (f *fakeCommentService) Update(_ context.Context, _, _, id uuid.UUID, _ string) (uuid.UUID, error) {
	return id, f.err
}

func (f *fakeCommentService) Delete(_ context.Context, _, _, id uuid.UUID) (uuid.UUID, error) {
	return id, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/quill/internal/errs"
)

// errBadRequest marks a body that could not be decoded.
var errBadRequest = errors.New("malformed request body")

// errorBody is the wire shape of every failed response.
type errorBody struct {
	Name    string              `json:"name"`
	Message string              `json:"message"`
	Errors  []string            `json:"errors"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type errorKind struct {
	err    error
	status int
	name   string
}

var errorKinds = []errorKind{
	{errs.ErrDuplicateUsername, http.StatusUnprocessableEntity, "DuplicateUsernameError"},
	{errs.ErrUserNotFound, http.StatusNotFound, "UserNotFoundError"},
	{errs.ErrPasswordMismatch, http.StatusBadRequest, "PasswordNotMatchError"},
	{errs.ErrInvalidToken, http.StatusBadRequest, "InvalidTokenError"},
	{errs.ErrRefreshTokenExpired, http.StatusUnauthorized, "RefreshTokenExpiredError"},
	{errs.ErrAuthNotFound, http.StatusNotFound, "AuthNotFoundError"},
	{errs.ErrArticleNotFound, http.StatusNotFound, "ArticleNotFoundError"},
	{errs.ErrCommentNotFound, http.StatusNotFound, "ArticleCommentNotFoundError"},
	{errs.ErrInvalidCursor, http.StatusBadRequest, "InvalidCursorError"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "UnauthorizedError"},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "RateLimitedError"},
	{errBadRequest, http.StatusBadRequest, "BadRequestError"},
}

// classify maps an error to its status and body. Unknown errors become a generic 500.
func classify(err error) (int, errorBody) {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorBody{
			Name: "ValidationError", Message: "validation failed", Errors: []string{}, Fields: verr.Fields,
		}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, errorBody{Name: k.name, Message: k.err.Error(), Errors: []string{}}
		}
	}
	return http.StatusInternalServerError, errorBody{
		Name: "UnhandledError", Message: "internal server error", Errors: []string{},
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		s.log.Error("unhandled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

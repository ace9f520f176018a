package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/quill/internal/convert"
	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
)

// pathID parses a UUID path parameter; anything else is reported as notFound.
func pathID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request, p model.Principal) {
	req, err := s.pageRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.articles.List(r.Context(), p.UserID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToArticlePage(s.opts.Pagination, page))
}

// getArticle accepts either the article id or its slug.
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request, p model.Principal) {
	a, err := s.articles.Get(r.Context(), p.UserID, chi.URLParam(r, "articleID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToArticle(*a))
}

func (s *Server) createArticle(w http.ResponseWriter, r *http.Request, p model.Principal) {
	var req convert.ArticleCreateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.articles.Create(r.Context(), p.UserID, req.Title, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.ToID(id))
}

func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request, p model.Principal) {
	id, err := pathID(r, "articleID", errs.ErrArticleNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.ArticleUpdateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	got, err := s.articles.Update(r.Context(), p.UserID, id, req.Title, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToID(got))
}

func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request, p model.Principal) {
	id, err := pathID(r, "articleID", errs.ErrArticleNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	got, err := s.articles.Delete(r.Context(), p.UserID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToID(got))
}

func (s *Server) likeArticle(w http.ResponseWriter, r *http.Request, p model.Principal) {
	id, err := pathID(r, "articleID", errs.ErrArticleNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.LikeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	got, err := s.articles.Like(r.Context(), p.UserID, id, *req.Like)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToID(got))
}

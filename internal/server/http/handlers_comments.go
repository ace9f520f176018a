package httpserver

import (
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/quill/internal/convert"
	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
)

func commentPath(r *http.Request) (articleID, commentID uuid.UUID, err error) {
	if articleID, err = pathID(r, "articleID", errs.ErrArticleNotFound); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if commentID, err = pathID(r, "commentID", errs.ErrCommentNotFound); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return articleID, commentID, nil
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request, _ model.Principal) {
	articleID, err := pathID(r, "articleID", errs.ErrArticleNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.pageRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.comments.List(r.Context(), articleID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToCommentPage(s.opts.Pagination, page))
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, p model.Principal) {
	articleID, err := pathID(r, "articleID", errs.ErrArticleNotFound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.CommentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.comments.Create(r.Context(), p.UserID, articleID, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.ToID(id))
}

func (s *Server) getComment(w http.ResponseWriter, r *http.Request, _ model.Principal) {
	articleID, commentID, err := commentPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.comments.Get(r.Context(), articleID, commentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToCommentItem(*c))
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request, p model.Principal) {
	articleID, commentID, err := commentPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.CommentRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.comments.Update(r.Context(), p.UserID, articleID, commentID, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToID(id))
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request, p model.Principal) {
	articleID, commentID, err := commentPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.comments.Delete(r.Context(), p.UserID, articleID, commentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToID(id))
}

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/pagination"
)

const maxBody = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and checks its validate tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return s.check(dst)
}

// decodeOptional is decode for bodies that may be empty.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return s.check(dst)
}

func (s *Server) check(dst any) error {
	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := errs.NewValidation()
	for _, fe := range ves {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out.Add(fe.Field(), msg)
	}
	return out
}

// pageRequest reads listing parameters for the configured pagination mode.
func (s *Server) pageRequest(r *http.Request) (pagination.Request, error) {
	q := r.URL.Query()
	v := errs.NewValidation()
	limit := queryInt(q.Get("limit"), "limit", v)
	if s.opts.Pagination == pagination.ModeCursor {
		if err := v.Err(); err != nil {
			return pagination.Request{}, err
		}
		return pagination.NewCursor(q.Get("cursor"), limit)
	}
	page := queryInt(q.Get("page"), "page", v)
	if err := v.Err(); err != nil {
		return pagination.Request{}, err
	}
	return pagination.NewOffset(page, limit), nil
}

func queryInt(raw, field string, v *errs.ValidationError) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.Add(field, "must be an integer")
		return 0
	}
	return n
}

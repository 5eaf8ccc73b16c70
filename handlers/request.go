package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/poems/backend/apperr"
)

// maxBodyBytes caps request bodies; poems are short text.
const maxBodyBytes = 1 << 20

// formRequest is a request body that can also arrive as an HTML form post.
type formRequest interface {
	fromForm(url.Values)
}

// decode fills dst from a JSON body, or from form values for
// application/x-www-form-urlencoded and multipart posts.
func decode(w http.ResponseWriter, r *http.Request, dst formRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return apperr.Validation("Invalid request body")
		}
		dst.fromForm(r.PostForm)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return apperr.Validation("Invalid request body")
		}
		dst.fromForm(r.PostForm)
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Validation("Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return nil // empty body; field checks report what is missing
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// flexBool accepts JSON booleans as well as the strings and numbers HTML forms
// and loose clients send ("true", "on", "1").
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case float64:
		*b = t != 0
	case string:
		*b = flexBool(parseBool(t))
	case nil:
		*b = false
	default:
		return errors.New("not a boolean")
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// optionalText trims s and maps blank to nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func formValue(v url.Values, key string) *string {
	if _, ok := v[key]; !ok {
		return nil
	}
	s := v.Get(key)
	return &s
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

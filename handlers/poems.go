package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/kevinaaaquil/poems/backend/apperr"
	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/middleware"
	"github.com/kevinaaaquil/poems/backend/models"
	"github.com/kevinaaaquil/poems/backend/render"
	"github.com/kevinaaaquil/poems/backend/session"
	"github.com/kevinaaaquil/poems/backend/store"
)

const (
	msgTitleContentRequired = "Title and content are required"
	msgInvalidPoemID        = "Invalid poem id"
	msgPoemNotFound         = "Poem not found"
	msgNotAuthorized        = "Not authorized"
)

type PoemsHandler struct {
	Poems store.Poems
	Log   logging.Logger
}

type CreatePoemRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      *string  `json:"tags"`
	Anonymous flexBool `json:"anonymous"`
}

func (req *CreatePoemRequest) fromForm(v url.Values) {
	req.Title = v.Get("title")
	req.Content = v.Get("content")
	req.Tags = formValue(v, "tags")
	req.Anonymous = flexBool(parseBool(v.Get("anonymous")))
}

func (h *PoemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r.Context())
	var req CreatePoemRequest
	if err := decode(w, r, &req); err != nil {
		render.Error(w, r, h.Log, err)
		return
	}
	// Blank checks only; the poem is stored as written.
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		render.Error(w, r, h.Log, apperr.Validation(msgTitleContentRequired))
		return
	}

	poem := &models.Poem{
		UserID:    claims.ID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      optionalText(req.Tags),
		Anonymous: bool(req.Anonymous),
	}
	if err := h.Poems.InsertPoem(r.Context(), poem); err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	h.Log.Info(r.Context(), "poem created", "poem_id", poem.ID, "user_id", claims.ID)
	render.OK(w, render.M{"poem": poem})
}

// List is public. search filters title, content and tags by literal
// substring, surrounding spaces included; sort=oldest reverses the default
// newest-first order.
func (h *PoemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := models.PoemQuery{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
	}
	poems, err := h.Poems.ListPoems(r.Context(), q)
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	if poems == nil {
		poems = []models.Poem{}
	}
	render.OK(w, render.M{"poems": poems})
}

// Delete removes a poem for its owner or an admin.
func (h *PoemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r.Context())
	id, ok := idParam(r, "id")
	if !ok {
		render.Error(w, r, h.Log, apperr.Validation(msgInvalidPoemID))
		return
	}
	poem, err := h.Poems.PoemByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		render.Error(w, r, h.Log, apperr.NotFound(msgPoemNotFound))
		return
	}
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	if !canDelete(claims, poem) {
		render.Error(w, r, h.Log, apperr.Forbidden(msgNotAuthorized))
		return
	}
	err = h.Poems.DeletePoem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		// deleted concurrently
		render.Error(w, r, h.Log, apperr.NotFound(msgPoemNotFound))
		return
	}
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	h.Log.Info(r.Context(), "poem deleted", "poem_id", id, "user_id", claims.ID, "admin", claims.IsAdmin())
	render.OK(w, render.M{"message": "Poem deleted successfully"})
}

func canDelete(c *session.Claims, p *models.Poem) bool {
	return c.ID == p.UserID || c.IsAdmin()
}

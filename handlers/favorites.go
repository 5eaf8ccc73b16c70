package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/poems/backend/apperr"
	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/middleware"
	"github.com/kevinaaaquil/poems/backend/render"
	"github.com/kevinaaaquil/poems/backend/store"
)

type FavoritesHandler struct {
	Favorites store.Favorites
	Log       logging.Logger
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r.Context())
	poemID, ok := idParam(r, "poemId")
	if !ok {
		render.Error(w, r, h.Log, apperr.Validation(msgInvalidPoemID))
		return
	}
	err := h.Favorites.AddFavorite(r.Context(), claims.ID, poemID)
	if errors.Is(err, store.ErrNotFound) {
		render.Error(w, r, h.Log, apperr.NotFound(msgPoemNotFound))
		return
	}
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	render.OK(w, nil)
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustClaims(r.Context())
	poemID, ok := idParam(r, "poemId")
	if !ok {
		render.Error(w, r, h.Log, apperr.Validation(msgInvalidPoemID))
		return
	}
	if err := h.Favorites.RemoveFavorite(r.Context(), claims.ID, poemID); err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	render.OK(w, nil)
}

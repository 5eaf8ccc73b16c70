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
	"github.com/kevinaaaquil/poems/backend/utils"
)

const (
	msgAllFieldsRequired  = "All fields required"
	msgEmailExists        = "Email already exists"
	msgCredentialsMissing = "Email and password required"
	msgInvalidCredentials = "Invalid credentials"
)

type AuthHandler struct {
	Users    store.Users
	Sessions *session.Manager
	Log      logging.Logger
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *SignupRequest) fromForm(v url.Values) {
	req.Name = v.Get("name")
	req.Email = v.Get("email")
	req.Password = v.Get("password")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) fromForm(v url.Values) {
	req.Email = v.Get("email")
	req.Password = v.Get("password")
}

// userView is the public part of a user returned by signup.
type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decode(w, r, &req); err != nil {
		render.Error(w, r, h.Log, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		render.Error(w, r, h.Log, apperr.Validation(msgAllFieldsRequired))
		return
	}

	// The pre-check gives the common case a clean answer; the unique index
	// still decides concurrent signups below.
	_, err := h.Users.UserByEmail(r.Context(), email)
	switch {
	case err == nil:
		render.Error(w, r, h.Log, apperr.Conflict(msgEmailExists, store.ErrDuplicateEmail))
		return
	case !errors.Is(err, store.ErrNotFound):
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		render.Error(w, r, h.Log, apperr.Validation("Password must be at most 72 bytes"))
		return
	}
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}

	user := &models.User{Name: name, Email: email, Password: hash, Role: models.RoleUser}
	if err := h.Users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			render.Error(w, r, h.Log, apperr.Conflict(msgEmailExists, err))
			return
		}
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	h.Log.Info(r.Context(), "user signed up", "user_id", user.ID)
	render.OK(w, render.M{
		"message": "Signup successful",
		"user":    userView{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
	})
}

// Login answers unknown emails and wrong passwords identically, in status,
// body and roughly in time.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		render.Error(w, r, h.Log, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		render.Error(w, r, h.Log, apperr.Validation(msgCredentialsMissing))
		return
	}

	user, err := h.Users.UserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	if user == nil {
		utils.BurnPasswordCheck(req.Password)
		render.Error(w, r, h.Log, apperr.Validation(msgInvalidCredentials))
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		render.Error(w, r, h.Log, apperr.Validation(msgInvalidCredentials))
		return
	}

	token, _, err := h.Sessions.Issue(user)
	if err != nil {
		render.Error(w, r, h.Log, apperr.Store(err))
		return
	}
	h.Sessions.SetCookie(w, r, token)
	render.OK(w, render.M{
		"message": "Login successful",
		"user":    render.M{"name": user.Name, "role": user.Role},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w, r)
	render.OK(w, render.M{"message": "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	render.OK(w, render.M{"user": middleware.MustClaims(r.Context())})
}

func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	render.OK(w, render.M{
		"message": "Welcome Captain!",
		"user":    middleware.MustClaims(r.Context()),
	})
}

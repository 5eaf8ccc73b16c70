package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/models"
	"github.com/kevinaaaquil/poems/backend/session"
	"github.com/kevinaaaquil/poems/backend/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t        *testing.T
	store    *memstore.Store
	sessions *session.Manager
	router   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := memstore.New()
	sessions := session.NewManager([]byte("handlers-test-secret"), time.Hour)
	return &harness{
		t:        t,
		store:    st,
		sessions: sessions,
		router: NewRouter(RouterConfig{
			Store:    st,
			Sessions: sessions,
			Logger:   logging.Nop(),
		}),
	}
}

type response struct {
	*httptest.ResponseRecorder
	body map[string]any
}

// do sends body as JSON, or as a form post when it is url.Values.
func (h *harness) do(method, path string, body any, cookie *http.Cookie) response {
	h.t.Helper()
	var rd io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		rd = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	case string:
		rd = strings.NewReader(b)
		contentType = "application/json"
	default:
		buf, err := json.Marshal(b)
		require.NoError(h.t, err)
		rd = bytes.NewReader(buf)
		contentType = "application/json"
	}
	req := httptest.NewRequest(method, path, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	res := response{ResponseRecorder: rec}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}

func (h *harness) signup(name, email, password string) int64 {
	h.t.Helper()
	res := h.do(http.MethodPost, "/api/signup", map[string]string{"name": name, "email": email, "password": password}, nil)
	require.Equal(h.t, http.StatusOK, res.Code, res.Body.String())
	return int64(res.body["user"].(map[string]any)["id"].(float64))
}

func (h *harness) login(email, password string) *http.Cookie {
	h.t.Helper()
	res := h.do(http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, nil)
	require.Equal(h.t, http.StatusOK, res.Code, res.Body.String())
	return sessionCookie(h.t, res.ResponseRecorder)
}

// adminCookie creates an admin directly in the store; signup only makes users.
func (h *harness) adminCookie() *http.Cookie {
	h.t.Helper()
	admin := &models.User{Name: "Captain", Email: "captain@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(h.t, h.store.CreateUser(context.Background(), admin))
	token, _, err := h.sessions.Issue(admin)
	require.NoError(h.t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (h *harness) createPoem(cookie *http.Cookie, body any) int64 {
	h.t.Helper()
	res := h.do(http.MethodPost, "/api/poems/create", body, cookie)
	require.Equal(h.t, http.StatusOK, res.Code, res.Body.String())
	return int64(res.body["poem"].(map[string]any)["id"].(float64))
}

func (h *harness) listPoems(query string) []map[string]any {
	h.t.Helper()
	res := h.do(http.MethodGet, "/api/poems"+query, nil, nil)
	require.Equal(h.t, http.StatusOK, res.Code)
	raw, ok := res.body["poems"].([]any)
	require.True(h.t, ok, "poems must be an array: %s", res.Body.String())
	poems := make([]map[string]any, len(raw))
	for i, p := range raw {
		poems[i] = p.(map[string]any)
	}
	return poems
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func ids(poems []map[string]any) []int64 {
	out := make([]int64, len(poems))
	for i, p := range poems {
		out[i] = int64(p["id"].(float64))
	}
	return out
}

func TestServiceRoutes(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.body["status"])

	res = h.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = h.do(http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, false, res.body["success"])

	res = h.do(http.MethodPut, "/api/poems", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	assert.Equal(t, false, res.body["success"])
}

func TestSignup(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/api/signup", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "pw1",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.body["success"])
	assert.Equal(t, "Signup successful", res.body["message"])
	user := res.body["user"].(map[string]any)
	assert.Equal(t, "Ann", user["name"])
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, models.RoleUser, user["role"])
	assert.NotContains(t, user, "password")
	assert.Empty(t, res.Result().Cookies(), "signup does not log in")

	stored, err := h.store.UserByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.Password)
}

func TestSignup_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"empty body", nil, msgAllFieldsRequired},
		{"missing name", map[string]string{"email": "a@example.com", "password": "pw"}, msgAllFieldsRequired},
		{"blank email", map[string]string{"name": "A", "email": "  ", "password": "pw"}, msgAllFieldsRequired},
		{"missing password", map[string]string{"name": "A", "email": "a@example.com"}, msgAllFieldsRequired},
		{"malformed json", `{"name":`, "Invalid request body"},
		{"password too long", map[string]string{"name": "A", "email": "a@example.com", "password": strings.Repeat("x", 73)}, "Password must be at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.do(http.MethodPost, "/api/signup", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, false, res.body["success"])
			assert.Equal(t, tt.message, res.body["message"])
		})
	}
}

func TestSignup_Form(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/api/signup", url.Values{
		"name": {"Ann"}, "email": {"ann@example.com"}, "password": {"pw1"},
	}, nil)
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestSignup_DistinctAndDuplicate(t *testing.T) {
	h := newHarness(t)

	a := h.signup("A", "a@example.com", "pw")
	b := h.signup("B", "b@example.com", "pw")
	assert.NotEqual(t, a, b)

	res := h.do(http.MethodPost, "/api/signup", map[string]string{"name": "C", "email": "a@example.com", "password": "other"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, msgEmailExists, res.body["message"])
}

func TestSignup_ConcurrentDuplicate(t *testing.T) {
	h := newHarness(t)
	const n = 8

	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodPost, "/api/signup",
				strings.NewReader(`{"name":"Racer","email":"race@example.com","password":"pw"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}

	var ok, dup int
	for i := 0; i < n; i++ {
		switch <-codes {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}

func TestSignup_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.Err = errors.New("connection refused")

	res := h.do(http.MethodPost, "/api/signup", map[string]string{"name": "A", "email": "a@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "Server error", res.body["message"])
	assert.NotContains(t, res.Body.String(), "connection refused")
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.signup("Ann", "ann@example.com", "right")

	res := h.do(http.MethodPost, "/api/login", map[string]string{"email": "ann@example.com", "password": "right"}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Login successful", res.body["message"])
	assert.Equal(t, map[string]any{"name": "Ann", "role": models.RoleUser}, res.body["user"])

	c := sessionCookie(t, res.ResponseRecorder)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(time.Hour.Seconds()), c.MaxAge)

	claims, err := h.sessions.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.signup("Ann", "ann@example.com", "right")

	wrongPassword := h.do(http.MethodPost, "/api/login", map[string]string{"email": "ann@example.com", "password": "wrong"}, nil)
	unknownEmail := h.do(http.MethodPost, "/api/login", map[string]string{"email": "nobody@example.com", "password": "wrong"}, nil)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, msgInvalidCredentials, unknownEmail.body["message"])
	assert.Empty(t, wrongPassword.Result().Cookies())
	assert.Empty(t, unknownEmail.Result().Cookies())
}

func TestLogin_MissingFields(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/api/login", url.Values{"email": {"ann@example.com"}}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, msgCredentialsMissing, res.body["message"])
}

func TestLogout(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/api/logout", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logged out", res.body["message"])
	c := sessionCookie(t, res.ResponseRecorder)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestMeAndAdmin(t *testing.T) {
	h := newHarness(t)
	id := h.signup("Ann", "ann@example.com", "pw")
	user := h.login("ann@example.com", "pw")
	admin := h.adminCookie()

	res := h.do(http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Login required", res.body["message"])

	res = h.do(http.MethodGet, "/api/me", nil, &http.Cookie{Name: session.CookieName, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid or expired token", res.body["message"])

	res = h.do(http.MethodGet, "/api/me", nil, user)
	require.Equal(t, http.StatusOK, res.Code)
	me := res.body["user"].(map[string]any)
	assert.Equal(t, float64(id), me["id"])
	assert.Equal(t, models.RoleUser, me["role"])

	res = h.do(http.MethodGet, "/api/admin", nil, user)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Admins only", res.body["message"])

	res = h.do(http.MethodGet, "/api/admin", nil, admin)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Welcome Captain!", res.body["message"])
}

func TestCreatePoem(t *testing.T) {
	h := newHarness(t)
	uid := h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")

	res := h.do(http.MethodPost, "/api/poems/create", map[string]any{"title": "T", "content": "C"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = h.do(http.MethodPost, "/api/poems/create", map[string]any{"title": "  ", "content": "C"}, cookie)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, msgTitleContentRequired, res.body["message"])

	res = h.do(http.MethodPost, "/api/poems/create", map[string]any{
		"title": "Rain", "content": "drops", "tags": "weather", "anonymous": true,
	}, cookie)
	require.Equal(t, http.StatusOK, res.Code)
	poem := res.body["poem"].(map[string]any)
	assert.Equal(t, float64(uid), poem["user_id"])
	assert.Equal(t, "Rain", poem["title"])
	assert.Equal(t, "weather", poem["tags"])
	assert.Equal(t, true, poem["anonymous"])
	assert.NotEmpty(t, poem["created_at"])

	res = h.do(http.MethodPost, "/api/poems/create", map[string]any{"title": "Sun", "content": "rays", "tags": " "}, cookie)
	require.Equal(t, http.StatusOK, res.Code)
	poem = res.body["poem"].(map[string]any)
	assert.Nil(t, poem["tags"])
	assert.Equal(t, false, poem["anonymous"])

	res = h.do(http.MethodPost, "/api/poems/create", url.Values{
		"title": {"Form"}, "content": {"posted"}, "anonymous": {"on"},
	}, cookie)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.body["poem"].(map[string]any)["anonymous"])
}

func TestListPoems_SearchIsAFilter(t *testing.T) {
	h := newHarness(t)
	h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")

	p1 := h.createPoem(cookie, map[string]any{"title": "Xylophone", "content": "music"})
	h.createPoem(cookie, map[string]any{"title": "Rain", "content": "drops"})
	p3 := h.createPoem(cookie, map[string]any{"title": "Night", "content": "stars", "tags": "boX"})
	p4 := h.createPoem(cookie, map[string]any{"title": "Sea", "content": "waves and foxes"})
	h.createPoem(cookie, map[string]any{"title": "50% off", "content": "sale"})

	assert.Equal(t, []int64{p4, p3, p1}, ids(h.listPoems("?search=x")))
	assert.Equal(t, []int64{p1, p3, p4}, ids(h.listPoems("?search=X&sort=oldest")))
	assert.Equal(t, []int64{p4, p3, p1}, ids(h.listPoems("?search=x&sort=bogus")))
	assert.Len(t, h.listPoems("?search=%25"), 1, "wildcards match literally")
	assert.Len(t, h.listPoems(""), 5)
	assert.Empty(t, h.listPoems("?search=nothing-matches"))
}

func TestListPoems_SearchKeepsSpaces(t *testing.T) {
	h := newHarness(t)
	h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")

	h.createPoem(cookie, map[string]any{"title": "nightfall", "content": "dusk"})
	late := h.createPoem(cookie, map[string]any{"title": "late night", "content": "owls"})

	assert.Equal(t, []int64{late}, ids(h.listPoems("?search=%20night")))
	assert.Equal(t, []int64{late}, ids(h.listPoems("?search=%20")))
	assert.Len(t, h.listPoems("?search="), 2)
}

func TestCreatePoem_StoresTextAsWritten(t *testing.T) {
	h := newHarness(t)
	h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")

	content := "    indented first line\n  second\n"
	res := h.do(http.MethodPost, "/api/poems/create", map[string]any{"title": " Spaced ", "content": content}, cookie)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	poem := res.body["poem"].(map[string]any)
	assert.Equal(t, " Spaced ", poem["title"])
	assert.Equal(t, content, poem["content"])

	stored, err := h.store.PoemByID(context.Background(), int64(poem["id"].(float64)))
	require.NoError(t, err)
	assert.Equal(t, content, stored.Content)
}

func TestListPoems_EmptyIsArray(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodGet, "/api/poems", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"success":true,"poems":[]}`, res.Body.String())
}

func TestListPoems_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.Err = errors.New("timeout")

	res := h.do(http.MethodGet, "/api/poems", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "Server error", res.body["message"])
}

func TestDeletePoem(t *testing.T) {
	h := newHarness(t)
	h.signup("Owner", "owner@example.com", "pw")
	h.signup("Other", "other@example.com", "pw")
	owner := h.login("owner@example.com", "pw")
	other := h.login("other@example.com", "pw")
	admin := h.adminCookie()

	mine := h.createPoem(owner, map[string]any{"title": "Mine", "content": "c"})
	theirs := h.createPoem(other, map[string]any{"title": "Theirs", "content": "c"})
	path := func(id int64) string { return "/api/poems/" + itoa(id) }

	tests := []struct {
		name    string
		cookie  *http.Cookie
		path    string
		status  int
		message string
	}{
		{"unauthenticated", nil, path(mine), http.StatusUnauthorized, "Login required"},
		{"invalid id", owner, "/api/poems/abc", http.StatusBadRequest, msgInvalidPoemID},
		{"missing", owner, path(999), http.StatusNotFound, msgPoemNotFound},
		{"non-owner", other, path(mine), http.StatusForbidden, msgNotAuthorized},
		{"owner", owner, path(mine), http.StatusOK, "Poem deleted successfully"},
		{"already deleted", owner, path(mine), http.StatusNotFound, msgPoemNotFound},
		{"admin any poem", admin, path(theirs), http.StatusOK, "Poem deleted successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.do(http.MethodDelete, tt.path, nil, tt.cookie)
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, tt.message, res.body["message"])
		})
	}
	assert.Empty(t, h.listPoems(""))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestFavorites(t *testing.T) {
	h := newHarness(t)
	uid := h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")
	pid := h.createPoem(cookie, map[string]any{"title": "T", "content": "C"})
	path := "/api/favorites/" + itoa(pid)

	res := h.do(http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	for i := 0; i < 2; i++ {
		res = h.do(http.MethodPost, path, nil, cookie)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, true, res.body["success"])
	}
	assert.Equal(t, []int64{pid}, h.store.Favorites(uid))

	for i := 0; i < 2; i++ {
		res = h.do(http.MethodDelete, path, nil, cookie)
		require.Equal(t, http.StatusOK, res.Code)
	}
	assert.Empty(t, h.store.Favorites(uid))

	res = h.do(http.MethodPost, "/api/favorites/999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, msgPoemNotFound, res.body["message"])

	res = h.do(http.MethodPost, "/api/favorites/x", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestFavorites_RemovedWithPoem(t *testing.T) {
	h := newHarness(t)
	uid := h.signup("Ann", "ann@example.com", "pw")
	cookie := h.login("ann@example.com", "pw")
	pid := h.createPoem(cookie, map[string]any{"title": "T", "content": "C"})

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/favorites/"+itoa(pid), nil, cookie).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/poems/"+itoa(pid), nil, cookie).Code)
	assert.Empty(t, h.store.Favorites(uid))
}

func TestScenario_OwnerOtherAdmin(t *testing.T) {
	h := newHarness(t)
	h.signup("A", "a@example.com", "pw-a")
	h.signup("B", "b@example.com", "pw-b")
	a := h.login("a@example.com", "pw-a")
	b := h.login("b@example.com", "pw-b")

	named := h.createPoem(a, map[string]any{"title": "P", "content": "by A"})
	hidden := h.createPoem(a, map[string]any{"title": "Q", "content": "by nobody", "anonymous": true})

	authors := map[int64]any{}
	for _, p := range h.listPoems("") {
		authors[int64(p["id"].(float64))] = p["author"]
	}
	assert.Equal(t, "A", authors[named])
	assert.Equal(t, models.AnonymousAuthor, authors[hidden])

	res := h.do(http.MethodDelete, "/api/poems/"+itoa(named), nil, b)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.do(http.MethodDelete, "/api/poems/"+itoa(named), nil, h.adminCookie())
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, ids(h.listPoems("")), named)
}

func TestAdminRoleRefresh(t *testing.T) {
	st := memstore.New()
	sessions := session.NewManager([]byte("handlers-test-secret"), time.Hour)
	router := NewRouter(RouterConfig{Store: st, Sessions: sessions, Logger: logging.Nop(), AdminRoleRefresh: true})

	admin := &models.User{Name: "Captain", Email: "captain@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, st.CreateUser(context.Background(), admin))
	token, _, err := sessions.Issue(admin)
	require.NoError(t, err)

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, get())
	st.SetRole(admin.ID, models.RoleUser)
	assert.Equal(t, http.StatusForbidden, get())
}

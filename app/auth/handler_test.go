package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/app/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

type failingSessions struct{}

func (failingSessions) Establish(*gin.Context, string) error { return errors.New("store offline") }
func (failingSessions) Destroy(*gin.Context) error           { return errors.New("store offline") }

func newTestRouter(t *testing.T, store *session.MemoryStore, sessions SessionManager) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := session.NewManager(store, session.Options{Secret: []byte("test-secret"), TTL: time.Hour}, nil)
	require.NoError(t, err)
	if sessions == nil {
		sessions = m
	}

	tmpl, err := web.Templates(func(p string) string { return p })
	require.NoError(t, err)

	h := NewAuthHandler(NewVerifier(), sessions, nil)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(m.Load())
	r.GET("/login", h.HandleLoginForm)
	r.POST("/login", h.HandleLogin)
	r.GET("/logout", h.HandleLogout)
	r.GET("/admin", session.RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})
	return r, m
}

func login(r *gin.Engine, code string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	form := url.Values{"verification_code": {code}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func get(r *gin.Engine, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "catalog_session" {
			found = ck
		}
	}
	return found
}

// --- Tests ---

func TestHandleLogin(t *testing.T) {
	testCases := []struct {
		name               string
		code               string
		expectedStatusCode int
		expectSession      bool
	}{
		{name: "Correct code", code: "PolloSaltato99", expectedStatusCode: http.StatusFound, expectSession: true},
		{name: "Wrong code", code: "PolloSaltato98", expectedStatusCode: http.StatusUnauthorized},
		{name: "Empty code", code: "", expectedStatusCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			r, _ := newTestRouter(t, store, nil)

			rec := login(r, tc.code)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectSession {
				assert.Equal(t, AdminPath, rec.Header().Get("Location"))
				require.NotNil(t, sessionCookie(rec))
				assert.Equal(t, 1, store.Len())
			} else {
				assert.Nil(t, sessionCookie(rec))
				assert.Equal(t, 0, store.Len())
				assert.Contains(t, rec.Body.String(), "Invalid verification code")
			}
		})
	}
}

func TestLoginGrantsAdminAccess(t *testing.T) {
	r, _ := newTestRouter(t, session.NewMemoryStore(), nil)

	anonymous := get(r, "/admin")
	assert.Equal(t, http.StatusFound, anonymous.Code)
	assert.Equal(t, session.LoginPath, anonymous.Header().Get("Location"))

	ck := sessionCookie(login(r, "PolloSaltato99"))
	require.NotNil(t, ck)

	rec := get(r, "/admin", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard", rec.Body.String())
}

func TestLoginReplacesExistingSession(t *testing.T) {
	store := session.NewMemoryStore()
	r, _ := newTestRouter(t, store, nil)

	first := sessionCookie(login(r, "PolloSaltato99"))
	require.NotNil(t, first)

	second := sessionCookie(login(r, "PolloSaltato99", first))
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, store.Len(), "the earlier session is discarded")

	assert.Equal(t, http.StatusFound, get(r, "/admin", first).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", second).Code)
}

func TestHandleLoginFormRedirectsAuthenticated(t *testing.T) {
	r, _ := newTestRouter(t, session.NewMemoryStore(), nil)

	rec := get(r, "/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="verification_code"`)

	ck := sessionCookie(login(r, "PolloSaltato99"))
	require.NotNil(t, ck)

	rec = get(r, "/login", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, AdminPath, rec.Header().Get("Location"))
}

func TestHandleLogout(t *testing.T) {
	store := session.NewMemoryStore()
	r, _ := newTestRouter(t, store, nil)

	ck := sessionCookie(login(r, "PolloSaltato99"))
	require.NotNil(t, ck)

	rec := get(r, "/logout", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, 0, store.Len())

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	assert.Equal(t, http.StatusFound, get(r, "/admin", ck).Code, "the old token no longer opens the admin area")
}

func TestSessionFailuresRenderErrorPage(t *testing.T) {
	r, _ := newTestRouter(t, session.NewMemoryStore(), failingSessions{})

	rec := login(r, "PolloSaltato99")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "store offline")

	rec = get(r, "/logout")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

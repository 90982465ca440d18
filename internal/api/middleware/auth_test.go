package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prepsheet/internal/common"
	"prepsheet/internal/common/security"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"
	"prepsheet/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func newTestRouter(t *testing.T, users map[string]*model.User) http.Handler {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()

	auth := NewAuth(&fakeUserRepo{users: users}, zap.NewNop())

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(auth.SessionLoader)
	r.Group(func(authed chi.Router) {
		authed.Use(RequireUser)
		authed.Get("/mine", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(GetUserFromContext(r.Context()).Username))
		})
	})
	r.Group(func(admin chi.Router) {
		admin.Use(RequireAdmin)
		admin.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: security.AuthCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousGets401(t *testing.T) {
	router := newTestRouter(t, nil)

	require.Equal(t, http.StatusUnauthorized, doRequest(t, router, "/mine", "").Code)
	// No credentials is always 401, never 403, even on admin routes.
	require.Equal(t, http.StatusUnauthorized, doRequest(t, router, "/admin", "").Code)
}

func TestGarbageTokenTreatedAsAnonymous(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, "/mine", "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidUserToken(t *testing.T) {
	router := newTestRouter(t, map[string]*model.User{
		"u1": {ID: "u1", Username: "alice", Role: model.RoleUser},
	})
	token, err := security.GenerateToken("u1", model.RoleUser)
	require.NoError(t, err)

	rec := doRequest(t, router, "/mine", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Body.String())

	// Valid credentials without the admin role: 403, not 401.
	require.Equal(t, http.StatusForbidden, doRequest(t, router, "/admin", token).Code)
}

func TestAdminToken(t *testing.T) {
	router := newTestRouter(t, map[string]*model.User{
		"u9": {ID: "u9", Username: "root", Role: model.RoleAdmin},
	})
	token, err := security.GenerateToken("u9", model.RoleAdmin)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, doRequest(t, router, "/admin", token).Code)
}

func TestTokenForDeletedAccount(t *testing.T) {
	router := newTestRouter(t, nil)
	token, err := security.GenerateToken("gone", model.RoleAdmin)
	require.NoError(t, err)

	// The token is cryptographically valid but the account no longer exists.
	require.Equal(t, http.StatusUnauthorized, doRequest(t, router, "/mine", token).Code)
}

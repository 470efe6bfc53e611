package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/policy"
	"github.com/iurnickita/repairshop/internal/store/memstore"
	"github.com/iurnickita/repairshop/internal/token"
)

func newTestAuth(t *testing.T) (Auth, *token.Issuer) {
	t.Helper()
	issuer := token.NewIssuer("test-secret", time.Hour)
	a := NewAuth(memstore.New(), issuer, zap.NewNop())
	_, err := a.CreateUser(context.Background(), NewUser{Email: "Tech@Example.com", Name: "Tech", Password: "secret", Role: "TECH"})
	require.NoError(t, err)
	return a, issuer
}

func TestLogin(t *testing.T) {
	a, issuer := newTestAuth(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"email":"tech@example.com","password":"secret"}`, http.StatusOK},
		{"wrong password", `{"email":"tech@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"x@example.com","password":"secret"}`, http.StatusUnauthorized},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.Login(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body)))
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}
			var body loginResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			require.Equal(t, policy.RoleTech, body.Role)
			require.Equal(t, policy.Capabilities(policy.RoleTech), body.Capabilities)
			require.NotContains(t, body.Capabilities, policy.CapRevenue)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			claims, err := issuer.Parse(cookies[0].Value)
			require.NoError(t, err)
			require.Equal(t, string(policy.RoleTech), claims.Role)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	a, _ := newTestAuth(t)
	_, err := a.CreateUser(context.Background(), NewUser{Email: "tech@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrEmailTaken)
	_, err = a.CreateUser(context.Background(), NewUser{Email: "new@example.com"})
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestCreateUserRole(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		role    string
		want    policy.Role
		wantErr error
	}{
		{"empty", "", policy.RoleUser, nil},
		{"lower case", " admin ", policy.RoleAdmin, nil},
		{"tech", "TECH", policy.RoleTech, nil},
		{"unknown", "Manager", "", ErrInvalidRole},
		{"not an alias", "Admin User", "", ErrInvalidRole},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := a.CreateUser(ctx, NewUser{Email: fmt.Sprintf("u%d@example.com", i), Password: "x", Role: tt.role})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, string(tt.want), user.Role)
		})
	}

	w := httptest.NewRecorder()
	a.Register(w, httptest.NewRequest(http.MethodPost, "/api/users",
		strings.NewReader(`{"email":"m@example.com","password":"x","role":"MANAGER"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware(t *testing.T) {
	a, issuer := newTestAuth(t)
	techToken, err := issuer.BuildJWTString("u1", string(policy.RoleTech))
	require.NoError(t, err)

	var gotUser, gotRole string
	next := func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(HeaderUserCodeKey)
		gotRole = r.Header.Get(HeaderUserRoleKey)
		w.WriteHeader(http.StatusNoContent)
	}

	tests := []struct {
		name       string
		capability policy.Capability
		setToken   func(r *http.Request)
		code       int
	}{
		{"no token", policy.CapTickets, func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage", policy.CapTickets, func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }, http.StatusUnauthorized},
		{"bearer", policy.CapTickets, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+techToken) }, http.StatusNoContent},
		{"cookie", policy.CapInventory, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: cookieUserToken, Value: techToken}) }, http.StatusNoContent},
		{"forbidden", policy.CapRevenue, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+techToken) }, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotRole = "", ""
			r := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
			tt.setToken(r)
			w := httptest.NewRecorder()
			a.Middleware(tt.capability, next)(w, r)
			require.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusNoContent {
				require.Equal(t, "u1", gotUser)
				require.Equal(t, string(policy.RoleTech), gotRole)
			}
		})
	}
}

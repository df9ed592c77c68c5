package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	aaa "github.com/campuscore/aaa"
)

func newTestServer(t *testing.T) (*echo.Echo, *aaa.Engine) {
	t.Helper()
	engine, err := aaa.New().WithConfig(aaa.Config{
		Token: aaa.TokenConfig{
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			SigningMethod: aaa.MethodHS256,
			PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		},
		Password: aaa.PasswordConfig{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   16,
		},
	}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	e := echo.New()
	(&server{engine: engine}).route(e)
	return e, engine
}

// adminToken provisions an admin out of band, the way a deployment seeds
// its first operator, and returns a bearer token for it.
func adminToken(t *testing.T, engine *aaa.Engine) string {
	t.Helper()
	ctx := context.Background()
	if _, err := engine.Register(ctx, "root@campus.edu", "password-of-root", aaa.RoleAdmin); err != nil {
		t.Fatalf("Register admin: %v", err)
	}
	pair, err := engine.Login(ctx, "root@campus.edu", "password-of-root")
	if err != nil {
		t.Fatalf("Login admin: %v", err)
	}
	return pair.AccessToken
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAlwaysCreatesStudent(t *testing.T) {
	e, engine := newTestServer(t)

	// A role field in the payload must be ignored, not honored.
	rec := doJSON(e, http.MethodPost, "/register", "",
		`{"email":"mallory@campus.edu","password":"password-of-mallory","role":"admin"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body)
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["role"] != "student" {
		t.Fatalf("role %q, want student", created["role"])
	}

	pair, err := engine.Login(context.Background(), "mallory@campus.edu", "password-of-mallory")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := engine.Authorize(context.Background(), pair.AccessToken, "write:users"); !errors.Is(err, aaa.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestAssignRoleRequiresUserWritePermission(t *testing.T) {
	e, engine := newTestServer(t)
	admin := adminToken(t, engine)

	rec := doJSON(e, http.MethodPost, "/register", "",
		`{"email":"stu@campus.edu","password":"password-of-stu"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d", rec.Code)
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	userID := created["id"]

	pair, err := engine.Login(context.Background(), "stu@campus.edu", "password-of-stu")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The student cannot promote themselves.
	rec = doJSON(e, http.MethodPut, "/users/"+userID+"/role", pair.AccessToken, `{"role":"admin"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self-promotion status %d, want 403", rec.Code)
	}
	// Anonymous callers cannot either.
	rec = doJSON(e, http.MethodPut, "/users/"+userID+"/role", "", `{"role":"admin"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status %d, want 401", rec.Code)
	}

	// The admin can.
	rec = doJSON(e, http.MethodPut, "/users/"+userID+"/role", admin, `{"role":"instructor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin assign status %d: %s", rec.Code, rec.Body)
	}
	users, err := engine.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	for _, u := range users {
		if u.ID == userID && u.Role != aaa.RoleInstructor {
			t.Fatalf("role %v, want instructor", u.Role)
		}
	}

	rec = doJSON(e, http.MethodPut, "/users/"+userID+"/role", admin, `{"role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role status %d, want 400", rec.Code)
	}
	rec = doJSON(e, http.MethodPut, "/users/nope/role", admin, `{"role":"staff"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user status %d, want 404", rec.Code)
	}
}

func TestDisableUserEndpoint(t *testing.T) {
	e, engine := newTestServer(t)
	admin := adminToken(t, engine)

	rec := doJSON(e, http.MethodPost, "/register", "",
		`{"email":"gone@campus.edu","password":"password-of-gone"}`)
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(e, http.MethodPost, "/users/"+created["id"]+"/disable", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(e, http.MethodPost, "/login", "",
		`{"email":"gone@campus.edu","password":"password-of-gone"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled login status %d, want 403", rec.Code)
	}
}

func TestListUsersRequiresUserReadPermission(t *testing.T) {
	e, engine := newTestServer(t)
	admin := adminToken(t, engine)

	doJSON(e, http.MethodPost, "/register", "",
		`{"email":"one@campus.edu","password":"password-of-one"}`)

	pair, err := engine.Login(context.Background(), "one@campus.edu", "password-of-one")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rec := doJSON(e, http.MethodGet, "/users", pair.AccessToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student list status %d, want 403", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/users", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list status %d: %s", rec.Code, rec.Body)
	}
	var users []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestAuditQueryTimeFilters(t *testing.T) {
	e, engine := newTestServer(t)
	admin := adminToken(t, engine)

	rec := doJSON(e, http.MethodGet, "/audit?from=2099-01-01T00:00:00Z", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status %d: %s", rec.Code, rec.Body)
	}
	var future []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &future); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(future) != 0 {
		t.Fatalf("future window returned %d records", len(future))
	}

	rec = doJSON(e, http.MethodGet, "/audit?to=2099-01-01T00:00:00Z", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status %d: %s", rec.Code, rec.Body)
	}
	var all []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The seed register and login at least.
	if len(all) < 2 {
		t.Fatalf("expected records before 2099, got %d", len(all))
	}

	rec = doJSON(e, http.MethodGet, "/audit?from=yesterday", admin, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from status %d, want 400", rec.Code)
	}
}

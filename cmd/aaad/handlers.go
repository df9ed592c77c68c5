package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	aaa "github.com/campuscore/aaa"
	"github.com/campuscore/aaa/audit"
	"github.com/campuscore/aaa/permission"
)

type server struct {
	engine *aaa.Engine
}

func (s *server) route(e *echo.Echo) {
	e.POST("/register", s.register)
	e.POST("/login", s.login)
	e.POST("/refresh", s.refresh)
	e.POST("/logout", s.logout)
	e.GET("/me", s.me)
	e.GET("/users", s.listUsers)
	e.PUT("/users/:id/role", s.assignRole)
	e.POST("/users/:id/disable", s.disableUser)
	e.GET("/audit", s.auditQuery)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func errJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// register creates an account. Self-service registration always lands on
// the student role; anything higher is granted afterwards by an admin
// through the role endpoint. Accepting a role here would let an anonymous
// caller mint their own admin.
func (s *server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, errors.New("invalid payload"))
	}

	user, err := s.engine.Register(c.Request().Context(), req.Email, req.Password, aaa.RoleStudent)
	if err != nil {
		if errors.Is(err, aaa.ErrDuplicateUser) {
			return errJSON(c, http.StatusConflict, err)
		}
		return errJSON(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role.String(),
	})
}

func (s *server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, errors.New("invalid payload"))
	}

	pair, err := s.engine.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, aaa.ErrUserDisabled) {
			return errJSON(c, http.StatusForbidden, err)
		}
		return errJSON(c, http.StatusUnauthorized, aaa.ErrInvalidCredentials)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.AccessClaims.ExpiresIn() / time.Second),
	})
}

func (s *server) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, errors.New("invalid payload"))
	}

	pair, err := s.engine.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, aaa.ErrUserDisabled) {
			return errJSON(c, http.StatusForbidden, err)
		}
		if errors.Is(err, aaa.ErrStoreUnavailable) {
			return errJSON(c, http.StatusServiceUnavailable, err)
		}
		// Reuse, revoked, expired, malformed: all present as an
		// authentication failure to the caller.
		return errJSON(c, http.StatusUnauthorized, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.AccessClaims.ExpiresIn() / time.Second),
	})
}

func (s *server) logout(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	if err := s.engine.Revoke(c.Request().Context(), raw); err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) me(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	claims, err := s.engine.Validate(c.Request().Context(), raw)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	perms, err := s.engine.PermissionsOf(c.Request().Context(), claims.Subject)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":          claims.Subject,
		"role":        claims.Role,
		"permissions": perms,
	})
}

// assignRole changes an account's role. Requires the user-write
// permission, which only the admin wildcard grants by default.
func (s *server) assignRole(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	actor, err := s.engine.Authorize(c.Request().Context(), raw, permission.PermWriteUsers)
	if err != nil {
		if errors.Is(err, aaa.ErrPermissionDenied) {
			return errJSON(c, http.StatusForbidden, err)
		}
		return errJSON(c, http.StatusUnauthorized, err)
	}

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, errors.New("invalid payload"))
	}
	role, err := permission.ParseRole(req.Role)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}

	user, err := s.engine.AssignRole(c.Request().Context(), actor.Subject, c.Param("id"), role)
	if err != nil {
		if errors.Is(err, aaa.ErrUserNotFound) {
			return errJSON(c, http.StatusNotFound, err)
		}
		return errJSON(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":   user.ID,
		"role": user.Role.String(),
	})
}

// disableUser soft-deletes an account. Requires the user-delete
// permission.
func (s *server) disableUser(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	actor, err := s.engine.Authorize(c.Request().Context(), raw, permission.PermDeleteUsers)
	if err != nil {
		if errors.Is(err, aaa.ErrPermissionDenied) {
			return errJSON(c, http.StatusForbidden, err)
		}
		return errJSON(c, http.StatusUnauthorized, err)
	}

	user, err := s.engine.DisableUser(c.Request().Context(), actor.Subject, c.Param("id"))
	if err != nil {
		if errors.Is(err, aaa.ErrUserNotFound) {
			return errJSON(c, http.StatusNotFound, err)
		}
		return errJSON(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":     user.ID,
		"status": user.Status.String(),
	})
}

// listUsers returns every account. Requires the user-read permission.
func (s *server) listUsers(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}
	if _, err := s.engine.Authorize(c.Request().Context(), raw, permission.PermReadUsers); err != nil {
		if errors.Is(err, aaa.ErrPermissionDenied) {
			return errJSON(c, http.StatusForbidden, err)
		}
		return errJSON(c, http.StatusUnauthorized, err)
	}

	users, err := s.engine.ListUsers(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	out := make([]map[string]string, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]string{
			"id":     u.ID,
			"email":  u.Email,
			"role":   u.Role.String(),
			"status": u.Status.String(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) auditQuery(c echo.Context) error {
	raw, err := bearerToken(c)
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, err)
	}

	filter := aaa.AuditFilter{
		Actor:  c.QueryParam("actor"),
		Action: c.QueryParam("action"),
	}
	if v := c.QueryParam("outcome"); v != "" {
		filter.Outcome = audit.Outcome(v)
	}
	if v := c.QueryParam("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, errors.New("from must be RFC 3339"))
		}
		filter.From = from
	}
	if v := c.QueryParam("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, errors.New("to must be RFC 3339"))
		}
		filter.To = to
	}
	if v := c.QueryParam("skip"); v != "" {
		filter.Skip, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	records, err := s.engine.AuditQuery(c.Request().Context(), raw, filter)
	if err != nil {
		if errors.Is(err, aaa.ErrPermissionDenied) {
			return errJSON(c, http.StatusForbidden, err)
		}
		return errJSON(c, http.StatusUnauthorized, err)
	}
	return c.JSON(http.StatusOK, records)
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimPrefix(header, prefix), nil
}

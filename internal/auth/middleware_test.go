package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyhub/internal/errors"
	"surveyhub/internal/model"
	"surveyhub/internal/session"
)

func newSessionManagerForTest(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Options{Name: "surveyhub", Secret: testAPISecret, MaxAge: time.Hour})
	require.NoError(t, err)
	return m
}

func runRequire(t *testing.T, a *Authorizer, m *session.Manager, policy Policy, req *http.Request, setup func(c echo.Context)) (*model.User, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *model.User
	h := m.Middleware()(func(c echo.Context) error {
		if setup != nil {
			setup(c)
		}
		return a.Require(policy)(func(c echo.Context) error {
			seen = CurrentUser(c)
			return c.NoContent(http.StatusNoContent)
		})(c)
	})
	return seen, rec, h(c)
}

func TestRequire_MaterializeWritesSession(t *testing.T) {
	m := newSessionManagerForTest(t)
	users := new(MockUserSource)
	users.On("CreateAnonymous", mock.Anything).Return(&model.User{ID: "anon-1"}, nil)
	a := NewAuthorizer(users, nil)

	user, rec, err := runRequire(t, a, m, PolicyParticipant, httptest.NewRequest(http.MethodPost, "/", nil), nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "anon-1", user.ID)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "surveyhub" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	data, err := m.Unseal(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "anon-1", data.ID)
}

func TestRequire_RejectsAnonymousMember(t *testing.T) {
	m := newSessionManagerForTest(t)
	a := NewAuthorizer(new(MockUserSource), nil)

	user, _, err := runRequire(t, a, m, PolicyMember, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestRequire_SessionCookie(t *testing.T) {
	m := newSessionManagerForTest(t)
	users := new(MockUserSource)
	users.On("Resolve", mock.Anything, "u1").Return(&model.User{ID: "u1", Admin: true}, nil)
	a := NewAuthorizer(users, nil)

	sealed, err := m.Seal(session.Data{ID: "u1"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "surveyhub", Value: sealed})

	user, _, err := runRequire(t, a, m, PolicyAdmin, req, nil)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
}

func TestRequire_APITokenWins(t *testing.T) {
	m := newSessionManagerForTest(t)
	users := new(MockUserSource)
	users.On("Resolve", mock.Anything, "admin-1").Return(&model.User{ID: "admin-1", Admin: true}, nil)
	a := NewAuthorizer(users, nil)

	token := &jwt.Token{Valid: true, Claims: &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}}}
	user, _, err := runRequire(t, a, m, PolicyAdmin, httptest.NewRequest(http.MethodGet, "/", nil), func(c echo.Context) {
		c.Set(APITokenContextKey, token)
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "admin-1", user.ID)
}

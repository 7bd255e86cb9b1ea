package session

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// Session is the per-request view of the session cookie. Every change is
// written back to the response as a fresh cookie.
type Session struct {
	mu   sync.Mutex
	m    *Manager
	c    echo.Context
	data Data
}

// Get returns the current data.
func (s *Session) Get() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Update replaces the data with fn(previous) and rewrites the cookie.
func (s *Session) Update(fn func(prev Data) Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.data)
	if next.IssuedAt == 0 {
		next.IssuedAt = s.m.now().Unix()
	}
	s.data = next
	return s.writeLocked()
}

// Merge overlays the non-empty fields of partial.
func (s *Session) Merge(partial Data) error {
	return s.Update(func(prev Data) Data {
		if partial.ID != "" {
			prev.ID = partial.ID
		}
		if partial.IssuedAt != 0 {
			prev.IssuedAt = partial.IssuedAt
		}
		return prev
	})
}

// Seal returns the sealed form of the current data.
func (s *Session) Seal() (string, error) {
	return s.m.Seal(s.Get())
}

// Clear empties the session and expires the cookie.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{}
	s.c.SetCookie(s.m.cookie("", -1))
}

func (s *Session) writeLocked() error {
	value, err := s.m.Seal(s.data)
	if err != nil {
		return err
	}
	s.c.SetCookie(s.m.cookie(value, int(s.m.maxAge.Seconds())))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Load reads the session cookie of c. Missing or invalid cookies give an
// anonymous session.
func (m *Manager) Load(c echo.Context) *Session {
	s := &Session{m: m, c: c}
	if cookie, err := c.Cookie(m.name); err == nil {
		if data, err := m.Unseal(cookie.Value); err == nil {
			s.data = data
		}
	}
	return s
}

// Middleware attaches the request's Session to the echo context.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKey, m.Load(c))
			return next(c)
		}
	}
}

// FromContext returns the Session stored by Middleware, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}

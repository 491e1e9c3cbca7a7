// Package authtest runs an in-process catalog auth service for tests and
// local development. It speaks the same JSON contract as the real backend:
// failures are 400 replies carrying {"message": ...}.
package authtest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authclient "github.com/goliatone/go-auth-client"
)

const (
	defaultTokenTTL = time.Hour
	defaultIssuer   = "catalog-auth-test"
)

// User is an account known to the server
type User struct {
	ID           int64
	Username     string
	Email        string
	Role         authclient.Role
	PasswordHash string
}

// Request is a recorded call
type Request struct {
	Method        string
	Path          string
	RequestID     string
	Authorization string
}

// Claims is the token payload issued by the server
type Claims struct {
	jwt.RegisteredClaims
	UserID     int64  `json:"uid"`
	Role       string `json:"role"`
	Generation int    `json:"gen"`
}

type failure struct {
	status  int
	message string
}

// Server is the fake auth service
type Server struct {
	app    *fiber.App
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu          sync.Mutex
	users       map[int64]*User
	nextID      int64
	generation  int
	loginDelays map[string]time.Duration
	failures    map[string]failure
	requests    []Request
}

// Option customizes the Server
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSecret sets the HS256 signing key
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		if len(secret) > 0 {
			s.secret = secret
		}
	}
}

// New returns a Server with no users
func New(opts ...Option) *Server {
	s := &Server{
		secret:      []byte(uuid.NewString()),
		ttl:         defaultTokenTTL,
		cost:        bcrypt.MinCost,
		now:         time.Now,
		users:       make(map[int64]*User),
		nextID:      1,
		loginDelays: make(map[string]time.Duration),
		failures:    make(map[string]failure),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.routes()

	return s
}

// TestingT is the subset of testing.TB used by Start
type TestingT interface {
	Helper()
	Cleanup(func())
}

// Start serves the fake on an httptest server closed at the end of the test
// and returns its base URL.
func Start(t TestingT, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL
}

// App exposes the fiber application, e.g. to Listen on a port
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler adapts the fiber application to net/http
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// AddUser creates an account and returns a copy of it
func (s *Server) AddUser(username, email, password string, role authclient.Role) User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		panic(fmt.Sprintf("authtest: hash password: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	}
	s.nextID++
	s.users[u.ID] = u
	return *u
}

// User returns a copy of the account with username
func (s *Server) User(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.byUsernameLocked(username); u != nil {
		return *u, true
	}
	return User{}, false
}

// CheckPassword reports whether password is the current one of username
func (s *Server) CheckPassword(username, password string) bool {
	u, ok := s.User(username)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetLoginDelay holds login replies for username by d
func (s *Server) SetLoginDelay(username string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginDelays[username] = d
}

// FailNext makes the next call to path reply with status and message
func (s *Server) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

// RevokeTokens invalidates every token issued so far
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Requests returns the recorded calls in arrival order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests returns how many calls hit path
func (s *Server) CountRequests(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// IssueToken signs a token for username
func (s *Server) IssueToken(username string) (string, error) {
	s.mu.Lock()
	u := s.byUsernameLocked(username)
	gen := s.generation
	s.mu.Unlock()

	if u == nil {
		return "", errors.New("user not found")
	}
	return s.sign(u, gen)
}

func (s *Server) sign(u *User, gen int) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   u.Username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:     u.ID,
		Role:       string(u.Role),
		Generation: gen,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authenticate resolves the bearer token of c to the current user record
func (s *Server) authenticate(c *fiber.Ctx) (*User, error) {
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if claims.Generation != s.generation {
		return nil, errors.New("token revoked")
	}

	u := s.users[claims.UserID]
	if u == nil || u.Username != claims.Subject {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (s *Server) byUsernameLocked(username string) *User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *Server) byEmailLocked(email string) *User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

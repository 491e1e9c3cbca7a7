package authtest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	authclient "github.com/goliatone/go-auth-client"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// jwtResponse mirrors the login and update-account replies. Token is null
// on update when the username did not change.
type jwtResponse struct {
	Token    *string `json:"token"`
	Type     string  `json:"type"`
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
}

func (s *Server) routes() {
	s.app.Use(s.record)
	s.app.Use(s.injectFailure)

	api := s.app.Group(authclient.DefaultAuthPath)
	api.Post("/login", s.handleLogin)
	api.Post("/register", s.handleRegister)
	api.Post("/reset-password", s.handleResetPassword)
	api.Put("/update-account", s.handleUpdateAccount)

	// stand in for the catalog endpoints the screens call with the token
	s.app.Get("/api/characters", s.requireToken, func(c *fiber.Ctx) error {
		return c.JSON([]fiber.Map{})
	})
	s.app.Get("/api/admin/users", s.requireToken, func(c *fiber.Ctx) error {
		return c.JSON([]fiber.Map{})
	})
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Method(),
		Path:          c.Path(),
		RequestID:     c.Get(authclient.HeaderRequestID),
		Authorization: c.Get(fiber.HeaderAuthorization),
	})
	s.mu.Unlock()
	return c.Next()
}

func (s *Server) injectFailure(c *fiber.Ctx) error {
	s.mu.Lock()
	f, ok := s.failures[c.Path()]
	if ok {
		delete(s.failures, c.Path())
	}
	s.mu.Unlock()

	if !ok {
		return c.Next()
	}
	if f.message == "" {
		return c.SendStatus(f.status)
	}
	return c.Status(f.status).JSON(fiber.Map{"message": f.message})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if _, err := s.authenticate(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
	}
	return c.Next()
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid credentials")
	}

	s.mu.Lock()
	delay := s.loginDelays[req.Username]
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	u := s.byUsernameLocked(req.Username)
	var snapshot User
	if u != nil {
		snapshot = *u
	}
	gen := s.generation
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword([]byte(snapshot.PasswordHash), []byte(req.Password)) != nil {
		return badRequest(c, "Invalid credentials")
	}

	token, err := s.sign(&snapshot, gen)
	if err != nil {
		return badRequest(c, "Invalid credentials")
	}

	return c.JSON(jwtResponse{
		Token:    &token,
		Type:     "Bearer",
		ID:       snapshot.ID,
		Username: snapshot.Username,
		Email:    snapshot.Email,
		Role:     string(snapshot.Role),
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUsernameLocked(req.Username) != nil {
		return badRequest(c, "Username already exists")
	}
	if s.byEmailLocked(req.Email) != nil {
		return badRequest(c, "Email already exists")
	}

	u := &User{
		ID:           s.nextID,
		Username:     req.Username,
		Email:        req.Email,
		Role:         authclient.RoleUser,
		PasswordHash: string(hash),
	}
	s.nextID++
	s.users[u.ID] = u

	return c.JSON(fiber.Map{"message": "User registered successfully"})
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return badRequest(c, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byEmailLocked(req.Email)
	if u == nil {
		return badRequest(c, "User not found with this email")
	}
	u.PasswordHash = string(hash)

	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}

func (s *Server) handleUpdateAccount(c *fiber.Ctx) error {
	current, err := s.authenticate(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
	}

	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}

	s.mu.Lock()
	usernameChanged := false
	if req.Username != current.Username {
		if s.byUsernameLocked(req.Username) != nil {
			s.mu.Unlock()
			return badRequest(c, "Username already exists")
		}
		current.Username = req.Username
		usernameChanged = true
	}
	if req.Email != current.Email {
		if s.byEmailLocked(req.Email) != nil {
			s.mu.Unlock()
			return badRequest(c, "Email already exists")
		}
		current.Email = req.Email
	}
	snapshot := *current
	gen := s.generation
	s.mu.Unlock()

	resp := jwtResponse{
		Type:     "Bearer",
		ID:       snapshot.ID,
		Username: snapshot.Username,
		Email:    snapshot.Email,
		Role:     string(snapshot.Role),
	}

	if usernameChanged {
		token, err := s.sign(&snapshot, gen)
		if err != nil {
			return badRequest(c, err.Error())
		}
		resp.Token = &token
	}

	return c.JSON(resp)
}

package authclient_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	authclient "github.com/goliatone/go-auth-client"
)

// MockStorage implements authclient.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockAccountService implements authclient.AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Authenticate(ctx context.Context, username, password string) (*authclient.Identity, error) {
	args := m.Called(ctx, username, password)
	identity, _ := args.Get(0).(*authclient.Identity)
	return identity, args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, username, email string) (*authclient.Identity, error) {
	args := m.Called(ctx, username, email)
	identity, _ := args.Get(0).(*authclient.Identity)
	return identity, args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, newPassword, confirmPassword string) (string, error) {
	args := m.Called(ctx, newPassword, confirmPassword)
	return args.String(0), args.Error(1)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []authclient.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event authclient.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Types() []authclient.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authclient.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// observed collects store emissions
type observed struct {
	mu     sync.Mutex
	values []*authclient.Identity
}

func (o *observed) observe(identity *authclient.Identity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values = append(o.values, identity)
}

func (o *observed) all() []*authclient.Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*authclient.Identity, len(o.values))
	copy(out, o.values)
	return out
}

func (o *observed) last() *authclient.Identity {
	all := o.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func adminIdentity() *authclient.Identity {
	return &authclient.Identity{
		ID:       1,
		Username: "admin",
		Email:    "admin@example.com",
		Role:     authclient.RoleAdmin,
		Token:    "tok-admin",
	}
}

func employeeIdentity() *authclient.Identity {
	return &authclient.Identity{
		ID:       2,
		Username: "eve",
		Email:    "eve@example.com",
		Role:     authclient.RoleEmployee,
		Token:    "tok-eve",
	}
}

func userIdentity() *authclient.Identity {
	return &authclient.Identity{
		ID:       3,
		Username: "ann",
		Email:    "ann@example.com",
		Role:     authclient.RoleUser,
		Token:    "tok-ann",
	}
}

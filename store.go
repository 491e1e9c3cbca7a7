package authclient

import (
	"context"
	"errors"
	"sync"
)

// Store owns the current identity. It restores it from durable storage at
// startup, persists every change and replays the latest value to new
// subscribers.
//
// Mutations and emissions are serialized: observers see values in the order
// the mutations happened. Observers run on the mutating goroutine and must
// not call back into the mutating methods of the same Store.
type Store struct {
	storage Storage
	logger  Logger

	// emitMu serializes mutate+persist+emit and Subscribe
	emitMu sync.Mutex

	mu        sync.RWMutex
	current   *Identity
	observers map[uint64]Observer
	nextID    uint64
	closed    bool
}

// StoreOption customizes Store construction
type StoreOption func(*Store)

// WithStoreLogger overrides the logger used for storage failures
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns an anonymous Store backed by storage. Call Restore to
// pick up a persisted session.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}

	s := &Store{
		storage:   storage,
		logger:    defLogger{},
		observers: make(map[uint64]Observer),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Restore reads the persisted identity and makes it current. Missing or
// corrupt records leave the store anonymous; they are logged, never returned.
func (s *Store) Restore(ctx context.Context) *Identity {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	identity := s.readPersisted(ctx)
	s.setLocked(identity)
	s.emitLocked()

	return identity.Clone()
}

func (s *Store) readPersisted(ctx context.Context) *Identity {
	raw, found, err := s.storage.Get(ctx, StorageKeyCurrentUser)
	if err != nil {
		s.logger.Warn("session restore: read current user: %v", err)
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	identity, err := decodeIdentity(raw)
	if err != nil {
		s.logger.Warn("session restore: discarding corrupt identity record: %v", err)
		return nil
	}

	token, found, err := s.storage.Get(ctx, StorageKeyToken)
	if err != nil {
		s.logger.Warn("session restore: read token: %v", err)
	} else if found && token != "" {
		identity.Token = token
	}

	if !identity.valid() {
		s.logger.Warn("session restore: discarding incomplete identity record")
		return nil
	}

	return identity
}

// Current returns a copy of the current identity, nil when anonymous
func (s *Store) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Token returns the current token, empty when anonymous
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// IsAuthenticated checks if there is a current identity
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// SetCurrent replaces the current identity, persists it and then notifies
// subscribers. A nil identity is the same as Clear. A persistence failure is
// returned but the in memory session still changes.
func (s *Store) SetCurrent(ctx context.Context, identity *Identity) error {
	if identity == nil {
		return s.Clear(ctx)
	}

	identity = identity.Clone()

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	err := s.persistLocked(ctx, identity)
	s.setLocked(identity)
	s.emitLocked()

	return err
}

// Clear forgets the current identity, removes the durable record and emits nil
func (s *Store) Clear(ctx context.Context) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	err := errors.Join(
		s.storage.Remove(ctx, StorageKeyCurrentUser),
		s.storage.Remove(ctx, StorageKeyToken),
	)
	if err != nil {
		s.logger.Error("session clear: remove durable record: %v", err)
	}

	s.setLocked(nil)
	s.emitLocked()

	return err
}

// UpdateIdentityFields merges username and email, plus a reissued token when
// present, into the current identity. Role and ID never change here. It is a
// no-op when anonymous.
func (s *Store) UpdateIdentityFields(ctx context.Context, fields AccountFields) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.RLock()
	current := s.current.Clone()
	s.mu.RUnlock()

	if current == nil {
		return nil
	}

	if fields.Username != "" {
		current.Username = fields.Username
	}
	if fields.Email != "" {
		current.Email = fields.Email
	}
	if fields.Token != "" {
		current.Token = fields.Token
	}

	err := s.persistLocked(ctx, current)
	s.setLocked(current)
	s.emitLocked()

	return err
}

// Subscribe registers observer. It is called right away with the current
// value and again after every change. The returned func unsubscribes.
func (s *Store) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	current := s.current.Clone()
	s.mu.Unlock()

	observer(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Close drops every subscriber. The store keeps answering reads.
func (s *Store) Close() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.observers = make(map[uint64]Observer)
	s.mu.Unlock()
}

func (s *Store) persistLocked(ctx context.Context, identity *Identity) error {
	raw, err := encodeIdentity(identity)
	if err != nil {
		s.logger.Error("session persist: encode identity: %v", err)
		return err
	}

	if err := s.storage.Set(ctx, StorageKeyToken, identity.Token); err != nil {
		s.logger.Error("session persist: write token: %v", err)
		return err
	}

	if err := s.storage.Set(ctx, StorageKeyCurrentUser, raw); err != nil {
		s.logger.Error("session persist: write current user: %v", err)
		return err
	}

	return nil
}

func (s *Store) setLocked(identity *Identity) {
	s.mu.Lock()
	s.current = identity
	s.mu.Unlock()
}

func (s *Store) emitLocked() {
	s.mu.RLock()
	current := s.current
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.RUnlock()

	for _, o := range observers {
		o(current.Clone())
	}
}

// Package auth holds the per-user authentication state. It is the single
// place that reads and writes the stored token; views subscribe to it.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/models"
	"github.com/xaenox/second-brain/internal/storage"
	"go.uber.org/zap"
)

// DefaultTokenKey is the store key used by single-user clients.
const DefaultTokenKey = "token"

type State int

const (
	SignedOut State = iota
	SignedIn
	// Expired is published when the backend rejected the token; the view
	// must return to sign-in.
	Expired
)

func (s State) String() string {
	switch s {
	case SignedIn:
		return "signed_in"
	case Expired:
		return "expired"
	default:
		return "signed_out"
	}
}

// Authenticator is the subset of the API used to obtain a token.
type Authenticator interface {
	SignUp(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, creds models.Credentials) (string, error)
}

type Session struct {
	mu          sync.RWMutex
	state       State
	subscribers map[int]func(State)
	nextSub     int

	store  storage.TokenStore
	key    string
	authn  Authenticator
	logger *zap.Logger
}

func NewSession(store storage.TokenStore, key string, authn Authenticator, logger *zap.Logger) *Session {
	if key == "" {
		key = DefaultTokenKey
	}
	return &Session{
		subscribers: make(map[int]func(State)),
		store:       store,
		key:         key,
		authn:       authn,
		logger:      logger.With(zap.String("session", key)),
	}
}

// Init loads the initial state from the token store.
func (s *Session) Init(ctx context.Context) error {
	_, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	s.mu.Lock()
	if ok {
		s.state = SignedIn
	} else {
		s.state = SignedOut
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether protected views and fetches are allowed.
func (s *Session) Authenticated() bool {
	return s.State() == SignedIn
}

// Token returns the stored token or api.ErrAuthRequired.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || token == "" {
		return "", api.ErrAuthRequired
	}
	return token, nil
}

// Unauthorized clears the token after the backend answered 401.
func (s *Session) Unauthorized(ctx context.Context) {
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.Error("Failed to clear rejected token", zap.Error(err))
	}
	s.logger.Info("Token rejected by backend")
	s.publish(Expired)
}

func (s *Session) SignUp(ctx context.Context, creds models.Credentials) error {
	errs := api.ValidationErrors{}
	if !IsValidEmail(creds.Username) {
		errs["username"] = "Please enter a valid email address"
	}
	if !IsValidPassword(creds.Password) {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(errs) > 0 {
		return errs
	}

	if err := s.authn.SignUp(ctx, creds); err != nil {
		return err
	}
	s.logger.Info("Account created", zap.String("username", creds.Username))
	return nil
}

func (s *Session) SignIn(ctx context.Context, creds models.Credentials) error {
	if !isNotEmpty(creds.Username) || !isNotEmpty(creds.Password) {
		return api.ValidationErrors{"form": "All fields are required"}
	}

	token, err := s.authn.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Info("Signed in", zap.String("username", creds.Username))
	s.publish(SignedIn)
	return nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	s.publish(SignedOut)
	return nil
}

// Subscribe calls fn on every state change until the returned func is called.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Close drops all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = make(map[int]func(State))
}

func (s *Session) publish(state State) {
	s.mu.Lock()
	s.state = state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

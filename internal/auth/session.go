package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zulandar/chargeyard/internal/models"
	"go.uber.org/zap"
)

// State is where a Session is in its lifecycle.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Provider supplies the signed-in user and a stream of auth events.
type Provider interface {
	CurrentUser(ctx context.Context) (*models.Profile, error)
	Subscribe() (<-chan Event, func())
}

// DefaultSessionTimeout bounds session initialization when none is given.
const DefaultSessionTimeout = 10 * time.Second

var (
	errSessionStarted = errors.New("auth: session already started")
	errSessionClosed  = errors.New("auth: session closed")
)

// Session tracks the current user for one client. Start loads the user and
// subscribes to auth events, Close tears the subscription down. If the
// user cannot be loaded within the timeout the session settles on
// StateUnauthenticated instead of staying in StateLoading.
type Session struct {
	provider Provider
	timeout  time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	state     State
	user      *models.Profile
	listeners []func(State, *models.Profile)
	started   bool
	closed    bool
	unsub     func()
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewSession returns a Session in StateLoading.
func NewSession(p Provider, timeout time.Duration, log *zap.Logger) *Session {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		provider: p,
		timeout:  timeout,
		log:      log,
		state:    StateLoading,
		done:     make(chan struct{}),
	}
}

// OnChange registers fn to be called after every state transition.
func (s *Session) OnChange(fn func(State, *models.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in profile, or nil.
func (s *Session) User() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Start subscribes to auth events and loads the current user. It returns
// once the session has left StateLoading.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return errSessionStarted
	}
	s.started = true
	events, unsub := s.provider.Subscribe()
	s.unsub = unsub
	// Registered under the lock so a concurrent Close waits for watch.
	s.wg.Add(1)
	s.mu.Unlock()

	s.load(ctx)

	go s.watch(ctx, events)
	return nil
}

// Close ends the event subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	unsub := s.unsub
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.wg.Wait()
}

func (s *Session) load(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		user *models.Profile
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		u, err := s.provider.CurrentUser(lctx)
		ch <- result{u, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil || r.user == nil {
			if r.err != nil && !errors.Is(r.err, ErrUnauthorized) {
				s.log.Warn("session load failed", zap.Error(r.err))
			}
			s.set(StateUnauthenticated, nil)
			return
		}
		s.set(StateAuthenticated, r.user)
	case <-lctx.Done():
		s.log.Warn("session load timed out", zap.Duration("timeout", s.timeout))
		s.set(StateUnauthenticated, nil)
	}
}

func (s *Session) watch(ctx context.Context, events <-chan Event) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev Event) {
	current := s.User()
	if current != nil && current.ID != ev.UserID {
		return
	}
	if ev.Type == EventSignedOut {
		if current != nil {
			s.set(StateUnauthenticated, nil)
		}
		return
	}
	s.load(ctx)
}

func (s *Session) set(state State, user *models.Profile) {
	s.mu.Lock()
	s.state = state
	s.user = user
	listeners := append([]func(State, *models.Profile){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state, user)
	}
}

// TokenProvider resolves the current user from a bearer token through a
// Service.
type TokenProvider struct {
	svc   *Service
	token string
}

// NewTokenProvider returns a Provider for token.
func NewTokenProvider(svc *Service, token string) *TokenProvider {
	return &TokenProvider{svc: svc, token: token}
}

func (t *TokenProvider) CurrentUser(ctx context.Context) (*models.Profile, error) {
	if t.token == "" {
		return nil, ErrUnauthorized
	}
	return t.svc.Authenticate(ctx, t.token)
}

func (t *TokenProvider) Subscribe() (<-chan Event, func()) {
	return t.svc.Notifier().Subscribe()
}

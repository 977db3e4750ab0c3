package identity

import (
	"context"
	"errors"
	"sync"
)

// AuthState is one observation of who is signed in. Loading is true until
// the session token has been resolved once.
type AuthState struct {
	User    *User
	Loading bool
}

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (User, error)
}

// Session tracks the signed-in user behind one session token and pushes
// every change to its watchers.
type Session struct {
	resolver SessionResolver

	mu       sync.Mutex
	token    string
	state    AuthState
	watchers map[chan AuthState]struct{}
}

func NewSession(resolver SessionResolver, token string) *Session {
	return &Session{
		resolver: resolver,
		token:    token,
		state:    AuthState{Loading: true},
		watchers: make(map[chan AuthState]struct{}),
	}
}

func (session *Session) State() AuthState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state
}

// Watch delivers the current state at once and then each change. Only the
// newest undelivered state is kept. The channel closes when ctx is done.
func (session *Session) Watch(ctx context.Context) <-chan AuthState {
	watcher := make(chan AuthState, 1)

	session.mu.Lock()
	session.watchers[watcher] = struct{}{}
	watcher <- session.state
	session.mu.Unlock()

	go func() {
		<-ctx.Done()
		session.mu.Lock()
		delete(session.watchers, watcher)
		close(watcher)
		session.mu.Unlock()
	}()
	return watcher
}

// Refresh resolves the token again. A token that no longer resolves signs
// the session out; other errors keep the previous user.
func (session *Session) Refresh(ctx context.Context) (AuthState, error) {
	session.mu.Lock()
	token := session.token
	session.mu.Unlock()

	next := AuthState{}
	var resolveErr error
	if token != "" {
		user, err := session.resolver.ResolveSession(ctx, token)
		switch {
		case err == nil:
			next.User = &user
		case errors.Is(err, ErrInvalidSession):
		default:
			resolveErr = err
		}
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if token != session.token {
		// A newer token arrived while resolving.
		return session.state, resolveErr
	}
	if resolveErr != nil {
		if session.state.Loading {
			session.publishLocked(AuthState{})
		}
		return session.state, resolveErr
	}
	if session.state.Loading || !sameUser(session.state.User, next.User) {
		session.publishLocked(next)
	}
	return session.state, nil
}

// SetToken switches the session to token, or signs it out when token is
// empty, and resolves it.
func (session *Session) SetToken(ctx context.Context, token string) (AuthState, error) {
	session.mu.Lock()
	session.token = token
	session.mu.Unlock()
	return session.Refresh(ctx)
}

func (session *Session) publishLocked(state AuthState) {
	session.state = state
	for watcher := range session.watchers {
		select {
		case watcher <- state:
			continue
		default:
		}
		select {
		case <-watcher:
		default:
		}
		watcher <- state
	}
}

func sameUser(left *User, right *User) bool {
	if left == nil || right == nil {
		return left == right
	}
	return left.UID == right.UID && left.DisplayName == right.DisplayName && left.Email == right.Email
}

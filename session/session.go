package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session exposes typed accessors over a Store and acts as the token source
// for the HTTP transport. Clearing on auth expiry removes the token and the
// user role but keeps the onboarding flag, so a re-login does not replay
// the welcome flow.
type Session struct {
	store Store
}

// New wraps store in a Session.
func New(store Store) *Session {
	return &Session{store: store}
}

// Token returns the persisted bearer token, empty when logged out.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx, KeyUserToken)
}

// Invalidate clears the session. It satisfies the transport's token source
// contract and is invoked on 401 responses.
func (s *Session) Invalidate(ctx context.Context) error {
	return s.Clear(ctx)
}

// SaveLogin persists the token and role after a successful login.
func (s *Session) SaveLogin(ctx context.Context, token, userType string) error {
	if err := s.store.Set(ctx, KeyUserToken, token); err != nil {
		return err
	}
	if userType == "" {
		userType = UserTypeConsumer
	}
	return s.store.Set(ctx, KeyUserType, userType)
}

// UserType returns the persisted role, defaulting to consumer.
func (s *Session) UserType(ctx context.Context) (string, error) {
	value, err := s.store.Get(ctx, KeyUserType)
	if err != nil {
		return "", err
	}
	if value == "" {
		return UserTypeConsumer, nil
	}
	return value, nil
}

// IsProducer reports whether the session belongs to a producer account.
func (s *Session) IsProducer(ctx context.Context) (bool, error) {
	role, err := s.UserType(ctx)
	if err != nil {
		return false, err
	}
	return role == UserTypeProducer, nil
}

// HasSeenWelcome reports the onboarding flag.
func (s *Session) HasSeenWelcome(ctx context.Context) (bool, error) {
	value, err := s.store.Get(ctx, KeyHasSeenWelcome)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// MarkWelcomeSeen sets the onboarding flag.
func (s *Session) MarkWelcomeSeen(ctx context.Context) error {
	return s.store.Set(ctx, KeyHasSeenWelcome, "true")
}

// Clear removes the token and user role.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyUserToken); err != nil {
		return err
	}
	return s.store.Delete(ctx, KeyUserType)
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// TokenExpired inspects the token's exp claim without verifying the
// signature (the backend is the authority; this only avoids a guaranteed
// 401 round-trip). Tokens without an exp claim, or that do not parse as
// JWTs, are treated as not expired.
func (s *Session) TokenExpired(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, nil
	}
	return exp.Before(time.Now()), nil
}

// Package auth wraps the authentication endpoints and owns the persisted
// session that every other service reads through the transport.
package auth

import (
	"context"
	"strings"

	"github.com/feirahub/storefront-go/apierror"
	"github.com/feirahub/storefront-go/internal/httputil"
	"github.com/feirahub/storefront-go/session"
)

// Profile mirrors the backend user document.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Producer bool   `json:"producer"`
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput creates a new account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Producer bool   `json:"producer"`
}

// ProfilePatch carries partial profile updates; nil fields are untouched.
type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type loginResponse struct {
	Token    string  `json:"token"`
	UserType string  `json:"userType"`
	User     Profile `json:"user"`
}

// Service calls the /auth endpoints.
type Service struct {
	api     *httputil.Client
	session *session.Session
}

// New creates the auth service.
func New(api *httputil.Client, sess *session.Session) *Service {
	return &Service{api: api, session: sess}
}

// Login authenticates and persists the token and role on success.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Profile, error) {
	fields := map[string]string{}
	if strings.TrimSpace(creds.Email) == "" {
		fields["email"] = "required"
	}
	if creds.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return nil, &apierror.ValidationError{Fields: fields}
	}

	var resp loginResponse
	if err := s.api.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}

	userType := resp.UserType
	if userType == "" && resp.User.Producer {
		userType = session.UserTypeProducer
	}
	if err := s.session.SaveLogin(ctx, resp.Token, userType); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Profile, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		fields["email"] = "required"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return nil, &apierror.ValidationError{Fields: fields}
	}

	var resp loginResponse
	if err := s.api.Post(ctx, "/auth/register", input, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		userType := resp.UserType
		if userType == "" && input.Producer {
			userType = session.UserTypeProducer
		}
		if err := s.session.SaveLogin(ctx, resp.Token, userType); err != nil {
			return nil, err
		}
	}
	return &resp.User, nil
}

// Profile fetches the authenticated user's profile.
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := s.api.Get(ctx, "/auth/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (*Profile, error) {
	var profile Profile
	if err := s.api.Patch(ctx, "/auth/profile", patch, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout clears the local session. No backend call is made; the token is
// simply forgotten.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

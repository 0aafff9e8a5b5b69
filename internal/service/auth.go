package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mealscan/mealscan-go/internal/crypto"
	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/oauth"
	"github.com/mealscan/mealscan-go/internal/repository"
)

const (
	providerDev = "dev"

	defaultDevUserID = "dev-user"
	defaultDevEmail  = "dev@example.com"
)

// AuthService resolves external identities to users and issues tokens.
type AuthService struct {
	users      UserStore
	tokens     *crypto.TokenIssuer
	google     IdentityProvider
	devEnabled bool
}

// NewAuthService creates a new AuthService. google may be nil when Google
// login is not configured.
func NewAuthService(users UserStore, tokens *crypto.TokenIssuer, google IdentityProvider, devEnabled bool) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		google:     google,
		devEnabled: devEnabled,
	}
}

// LoginDev trusts the caller-supplied identity. It only works when dev
// login is enabled.
func (s *AuthService) LoginDev(ctx context.Context, req model.DevLoginRequest) (model.TokenResponse, error) {
	if !s.devEnabled {
		return model.TokenResponse{}, ErrDevLoginDisabled
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = defaultDevUserID
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = defaultDevEmail
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &model.User{ID: userID, Provider: providerDev, ProviderUserID: userID, Email: email}
		err = s.users.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateUser) {
			user, err = s.users.GetByID(ctx, userID)
		}
	}
	if err != nil {
		return model.TokenResponse{}, err
	}

	return s.issue(user.ID, email)
}

// GoogleLoginURL returns the Google consent URL for state.
func (s *AuthService) GoogleLoginURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrNotConfigured
	}
	return s.google.AuthCodeURL(state), nil
}

// LoginGoogle completes the Google flow and returns a token for the
// matching user, creating the user on first login.
func (s *AuthService) LoginGoogle(ctx context.Context, code string) (model.TokenResponse, error) {
	if s.google == nil {
		return model.TokenResponse{}, ErrNotConfigured
	}
	if code == "" {
		return model.TokenResponse{}, ErrMissingCode
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		slog.Warn("google login failed", "error", err)
		if errors.Is(err, oauth.ErrExchangeFailed) || errors.Is(err, oauth.ErrProfileIncomplete) {
			return model.TokenResponse{}, fmt.Errorf("%w: %v", ErrBadUpstream, err)
		}
		return model.TokenResponse{}, err
	}

	user, err := s.getOrCreate(ctx, oauth.ProviderGoogle, profile.ID, profile.Email)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return s.issue(user.ID, profile.Email)
}

// GetUser returns the caller's user record. Tokens whose subject has no
// row are answered from the token itself.
func (s *AuthService) GetUser(ctx context.Context, p Principal) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.UserResponse{ID: p.UserID, Email: p.Email}, nil
	}
	if err != nil {
		return model.UserResponse{}, err
	}

	return model.UserResponse{
		ID:        user.ID,
		Provider:  user.Provider,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *AuthService) getOrCreate(ctx context.Context, provider, providerUserID, email string) (*model.User, error) {
	user, err := s.users.GetByProvider(ctx, provider, providerUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user = &model.User{
		ID:             uuid.New().String(),
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		// Lost a race with a concurrent first login.
		return s.users.GetByProvider(ctx, provider, providerUserID)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", user.ID, "provider", provider)
	return user, nil
}

func (s *AuthService) issue(subject, email string) (model.TokenResponse, error) {
	token, err := s.tokens.Issue(subject, crypto.WithEmail(email))
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{Token: token}, nil
}

package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const ProviderGoogle = "google"

var (
	ErrNotConfigured     = errors.New("google oauth is not configured")
	ErrExchangeFailed    = errors.New("google token exchange failed")
	ErrProfileIncomplete = errors.New("google profile has no id or email")
)

// Profile is the subset of the Google userinfo document mealscan uses.
type Profile struct {
	ID    string
	Email string
	Name  string
}

// GoogleConfig configures the Google authorization-code flow.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserinfoEndpoint override Google's URLs.
	Endpoint         oauth2.Endpoint
	UserinfoEndpoint string
	HTTPClient       *http.Client
}

// Google implements the authorization-code flow against Google.
type Google struct {
	config           *oauth2.Config
	userinfoEndpoint string
	httpClient       *http.Client
}

func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrNotConfigured
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	return &Google{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userinfoEndpoint: cfg.UserinfoEndpoint,
		httpClient:       cfg.HTTPClient,
	}, nil
}

// AuthCodeURL returns the consent screen URL carrying state.
func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's Google profile.
func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return Profile{}, fmt.Errorf("%w: no access token", ErrExchangeFailed)
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(g.config.Client(ctx, token)),
	}
	if g.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.userinfoEndpoint))
	}

	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return Profile{}, fmt.Errorf("creating userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("%w: userinfo: %v", ErrExchangeFailed, err)
	}
	if info.Id == "" || info.Email == "" {
		return Profile{}, ErrProfileIncomplete
	}

	return Profile{ID: info.Id, Email: info.Email, Name: info.Name}, nil
}

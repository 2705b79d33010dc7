package federated

import (
	"context"
	"time"
)

// Provider defines the surface an external identity provider must expose.
type Provider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// AuthCodeURL returns the URL to redirect users for authorization.
	AuthCodeURL(state string, opts ...AuthCodeOption) string

	// Exchange trades an authorization code for a token set.
	Exchange(ctx context.Context, code string) (*Token, error)

	// VerifyIdentity validates the identity token in the set and returns the
	// asserted profile. The provider decides how to verify (JWKS, userinfo).
	VerifyIdentity(ctx context.Context, token *Token) (*Profile, error)
}

// AuthCodeOption configures the authorization URL.
type AuthCodeOption func(*authCodeConfig)

// WithScopes sets additional scopes for the auth request.
func WithScopes(scopes ...string) AuthCodeOption {
	return func(c *authCodeConfig) {
		c.scopes = append(c.scopes, scopes...)
	}
}

// WithPrompt sets the prompt parameter (e.g., "consent", "select_account").
func WithPrompt(prompt string) AuthCodeOption {
	return func(c *authCodeConfig) {
		c.prompt = prompt
	}
}

type authCodeConfig struct {
	scopes []string
	prompt string
}

// AuthCodeConfig represents applied auth code options in a provider friendly form.
type AuthCodeConfig struct {
	Scopes []string
	Prompt string
}

// ApplyAuthCodeOptions applies AuthCodeOption values and returns a normalized config.
func ApplyAuthCodeOptions(scopes []string, opts ...AuthCodeOption) AuthCodeConfig {
	cfg := authCodeConfig{scopes: append([]string(nil), scopes...)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return AuthCodeConfig{
		Scopes: cfg.scopes,
		Prompt: cfg.prompt,
	}
}

// Token represents an OAuth2 token response.
type Token struct {
	AccessToken string
	TokenType   string
	IDToken     string
	ExpiresAt   time.Time
	Scopes      []string
	Raw         map[string]any
}

// Profile represents the identity a provider asserts about a person.
type Profile struct {
	Subject       string
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
	Raw           map[string]any
}

// DisplayName picks the best available name from the profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.GivenName
}

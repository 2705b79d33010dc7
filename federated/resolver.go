package federated

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	autorag "github.com/nehasharma2210/AutoRag"
)

// Resolver orchestrates federated sign in: consent redirect, code exchange,
// identity token verification, and unification with the local account.
type Resolver struct {
	provider Provider
	states   StateManager
	accounts autorag.Accounts
	issuer   autorag.TokenIssuer
	logger   autorag.Logger
	config   ResolverConfig
}

// ResolverConfig configures the resolver.
type ResolverConfig struct {
	DefaultRedirectURL string
	StateEncryptionKey []byte
	StateHMACKey       []byte
	StateTTL           time.Duration
}

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) ResolverOption {
	return func(r *Resolver) {
		r.states = sm
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger autorag.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver for a single provider.
func NewResolver(
	provider Provider,
	accounts autorag.Accounts,
	issuer autorag.TokenIssuer,
	config ResolverConfig,
	opts ...ResolverOption,
) *Resolver {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	r := &Resolver{
		provider: provider,
		accounts: accounts,
		issuer:   issuer,
		config:   cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.logger == nil {
		r.logger = autorag.NewDefaultLogger()
	}

	if r.states == nil {
		r.states = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	return r
}

// AuthRedirect is where the user agent should be sent to grant consent.
type AuthRedirect struct {
	URL   string
	State string
}

// BeginAuth builds the consent URL with an encoded state parameter.
func (r *Resolver) BeginAuth(ctx context.Context, opts ...AuthCodeOption) (*AuthRedirect, error) {
	if r.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	state, err := r.states.Encode(&AuthState{
		Provider:    r.provider.Name(),
		RedirectURL: r.config.DefaultRedirectURL,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode state")
	}

	return &AuthRedirect{
		URL:   r.provider.AuthCodeURL(state, opts...),
		State: state,
	}, nil
}

// AuthResult is a completed federated sign in.
type AuthResult struct {
	Token       string
	Account     *autorag.Account
	Profile     *Profile
	RedirectURL string
}

// CompleteAuth runs the callback half of the flow. Unknown emails are
// rejected, federated sign in never creates accounts.
func (r *Resolver) CompleteAuth(ctx context.Context, code, state string) (*AuthResult, error) {
	if r.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	if code == "" {
		return nil, ErrMissingCode
	}

	attempt := NewAttempt(r.provider.Name())

	authState, err := r.states.Decode(state)
	if err != nil {
		attempt.Reject("bad state")
		return nil, err
	}

	token, err := r.provider.Exchange(ctx, code)
	if err != nil {
		attempt.Reject("exchange failed")
		return nil, wrapProviderError(ErrExchangeFailed, attempt.Provider, "exchange", err)
	}

	if err := attempt.Advance(StageExchanged); err != nil {
		return nil, err
	}

	profile, err := r.provider.VerifyIdentity(ctx, token)
	if err != nil {
		attempt.Reject("identity token rejected")
		return nil, wrapProviderError(ErrIdentityTokenInvalid, attempt.Provider, "verify_identity", err)
	}

	if profile == nil || profile.Email == "" || profile.Subject == "" {
		attempt.Reject("incomplete profile")
		return nil, ErrIdentityTokenInvalid.Clone().WithMetadata(attempt.Metadata())
	}

	if !profile.EmailVerified {
		attempt.Reject("email not verified")
		return nil, ErrEmailNotVerified.Clone().WithMetadata(attempt.Metadata())
	}

	if err := attempt.Advance(StageIdentityVerified); err != nil {
		return nil, err
	}

	account, err := r.accounts.UnifyFederated(ctx, profile.Email, profile.Subject, profile.DisplayName())
	if err != nil {
		if goerrors.IsNotFound(err) {
			attempt.Reject("unknown email")
			return nil, ErrAccountNotFound.Clone().WithMetadata(attempt.Metadata())
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unify federated account")
	}

	sessionToken, err := r.issuer.IssueSession(autorag.NewIdentity(account))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session")
	}

	if err := attempt.Advance(StageUnified); err != nil {
		return nil, err
	}

	r.logger.Info("federated sign in complete", "account", account.ID, "provider", attempt.Provider)

	return &AuthResult{
		Token:       sessionToken,
		Account:     account,
		Profile:     profile,
		RedirectURL: authState.RedirectURL,
	}, nil
}

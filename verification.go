package autorag

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// DefaultVerificationTTL is how long an issued verification token stays
// redeemable.
const DefaultVerificationTTL = 24 * time.Hour

// verificationTokenBytes sized so the hex token is 64 characters.
const verificationTokenBytes = 32

// EmailVerifier issues and redeems single use verification tokens. Only the
// SHA-256 digest of a token is stored, the cleartext exists once, inside the
// notification that carries it to the account holder.
type EmailVerifier struct {
	repo   Accounts
	ttl    time.Duration
	logger Logger
}

type EmailVerifierOption func(*EmailVerifier)

func WithVerificationTTL(ttl time.Duration) EmailVerifierOption {
	return func(v *EmailVerifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

func WithVerifierLogger(logger Logger) EmailVerifierOption {
	return func(v *EmailVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func NewEmailVerifier(repo Accounts, opts ...EmailVerifierOption) *EmailVerifier {
	v := &EmailVerifier{
		repo:   repo,
		ttl:    DefaultVerificationTTL,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	return v
}

// Issue installs a fresh verification token on the account and returns the
// cleartext token. Any previously issued token stops working.
func (v *EmailVerifier) Issue(ctx context.Context, account *Account) (string, error) {
	if account == nil {
		return "", errors.New("cannot issue verification without an account", errors.CategoryBadInput)
	}

	token, hash, err := newVerificationToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(v.ttl)

	if _, err := v.repo.SetVerification(ctx, account.ID, hash, expires); err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrAlreadyVerified.Clone().
				WithMetadata(map[string]any{"account_id": account.ID.String()})
		}
		return "", err
	}

	account.VerificationHash = hash
	account.VerificationExpires = &expires

	v.logger.Debug("verification token issued", "account", account.ID)

	return token, nil
}

// Redeem marks the account behind the token as verified. The update clears
// the token in the same statement, so a second redeem of the same token, or
// of an expired one, is indistinguishable from an unknown token.
func (v *EmailVerifier) Redeem(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}

	account, err := v.repo.RedeemVerification(ctx, hashVerificationToken(token))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidVerificationToken
		}
		return nil, err
	}

	v.logger.Info("email verified", "account", account.ID)

	return account, nil
}

// Reissue replaces the pending token for an unverified account and returns
// the new cleartext token alongside the account.
func (v *EmailVerifier) Reissue(ctx context.Context, email string) (*Account, string, error) {
	account, err := v.repo.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, "", ErrAccountNotFound.Clone().
				WithMetadata(map[string]any{"email": NormalizeEmail(email)})
		}
		return nil, "", err
	}

	if account.EmailVerified {
		return nil, "", ErrAlreadyVerified.Clone().
			WithMetadata(map[string]any{"email": account.Email})
	}

	token, err := v.Issue(ctx, account)
	if err != nil {
		return nil, "", err
	}

	return account, token, nil
}

func newVerificationToken() (token, hash string, err error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification token")
	}

	token = hex.EncodeToString(buf)
	return token, hashVerificationToken(token), nil
}

func hashVerificationToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ Verifier = (*EmailVerifier)(nil)

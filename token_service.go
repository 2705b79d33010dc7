package autorag

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultSessionHours is the session lifetime applied when the configuration
// does not provide one. Sessions are stateless, there is no revocation before
// expiry.
const DefaultSessionHours = 168

// TokenService signs and verifies HMAC session tokens.
type TokenService struct {
	config Config
	logger Logger
}

// NewTokenService creates a TokenService from the shared Config.
func NewTokenService(config Config, logger Logger) (*TokenService, error) {
	if config == nil || config.GetSigningKey() == "" {
		return nil, ErrConfigurationMissing.Clone().
			WithMetadata(map[string]any{"setting": "signing_key"})
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &TokenService{config: config, logger: logger}, nil
}

// IssueSession mints a signed session token for the given identity.
func (s *TokenService) IssueSession(identity Identity) (string, error) {
	if identity == nil || identity.ID() == "" {
		return "", errors.New("cannot issue a session without an identity", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &SessionClaims{
		UID:   identity.ID(),
		Email: identity.Email(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.GetIssuer(),
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionDuration())),
		},
	}

	token := jwt.NewWithClaims(s.signingMethod(), claims)

	signed, err := token.SignedString([]byte(s.config.GetSigningKey()))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	s.logger.Debug("session issued", "account", identity.ID())

	return signed, nil
}

// VerifySession parses and validates a session token. Expired tokens map to
// ErrTokenExpired, everything else that fails maps to ErrTokenMalformed.
func (s *TokenService) VerifySession(tokenString string) (Session, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.signingMethod().Alg() {
			return nil, errors.New("unexpected signing method", errors.CategoryAuth)
		}
		return []byte(s.config.GetSigningKey()), nil
	})

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired.Clone().
				WithMetadata(map[string]any{"cause": err.Error()})
		}
		return nil, ErrTokenMalformed.Clone().
			WithMetadata(map[string]any{"cause": err.Error()})
	}

	if !token.Valid || claims.UID == "" {
		return nil, ErrTokenMalformed
	}

	return sessionFromClaims(claims), nil
}

func (s *TokenService) sessionDuration() time.Duration {
	hours := s.config.GetTokenExpiration()
	if hours <= 0 {
		hours = DefaultSessionHours
	}
	return time.Duration(hours) * time.Hour
}

func (s *TokenService) signingMethod() jwt.SigningMethod {
	switch s.config.GetSigningMethod() {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

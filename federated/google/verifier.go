package google

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nehasharma2210/AutoRag/federated"
)

var googleIssuers = []string{
	"https://accounts.google.com",
	"accounts.google.com",
}

// idTokenClaims is the subset of Google ID token claims the backend uses.
type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// idTokenVerifier checks ID tokens against Google's published JWKS. The key
// set is fetched lazily and refreshed in the background.
type idTokenVerifier struct {
	clientID string
	jwksURL  string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func newIDTokenVerifier(clientID, jwksURL string) *idTokenVerifier {
	return &idTokenVerifier{
		clientID: clientID,
		jwksURL:  jwksURL,
	}
}

func (v *idTokenVerifier) keyfunc(ctx context.Context) (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks.Keyfunc, nil
	}

	jwks, err := keyfunc.Get(v.jwksURL, keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of the google key set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, providerError("verify_identity", 0, "jwks_unavailable", "failed to fetch google key set", err, nil)
	}

	v.jwks = jwks
	return v.jwks.Keyfunc, nil
}

// Verify parses and validates the ID token, returning the asserted profile.
func (v *idTokenVerifier) Verify(ctx context.Context, rawToken string) (*federated.Profile, error) {
	kf, err := v.keyfunc(ctx)
	if err != nil {
		return nil, err
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, kf,
		jwt.WithAudience(v.clientID),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return nil, providerError("verify_identity", 0, "invalid_id_token", "id token validation failed", err, nil)
	}

	if !token.Valid {
		return nil, providerError("verify_identity", 0, "invalid_id_token", "id token rejected", nil, nil)
	}

	if !validGoogleIssuer(claims.Issuer) {
		return nil, providerError("verify_identity", 0, "invalid_issuer", "unexpected id token issuer", nil, map[string]any{
			"issuer": claims.Issuer,
		})
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, providerError("verify_identity", 0, "incomplete_claims", "id token missing subject or email", nil, nil)
	}

	return &federated.Profile{
		Subject:       claims.Subject,
		Provider:      "google",
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		Picture:       claims.Picture,
		Raw: map[string]any{
			"sub":            claims.Subject,
			"email":          claims.Email,
			"email_verified": claims.EmailVerified,
			"name":           claims.Name,
			"given_name":     claims.GivenName,
			"family_name":    claims.FamilyName,
			"picture":        claims.Picture,
		},
	}, nil
}

func validGoogleIssuer(issuer string) bool {
	for _, candidate := range googleIssuers {
		if issuer == candidate {
			return true
		}
	}
	return false
}

package autorag

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the JWT payload carried by session tokens. The custom
// fields mirror what API consumers already expect from the token body.
type SessionClaims struct {
	UID   string `json:"userId"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionObject is the decoded view of a verified session token.
type SessionObject struct {
	AccountID string
	Email     string
	IssuedAt  *time.Time
	Expires   *time.Time
}

func (s *SessionObject) GetAccountID() string { return s.AccountID }

func (s *SessionObject) GetEmail() string { return s.Email }

func (s *SessionObject) GetIssuedAt() *time.Time { return s.IssuedAt }

func (s *SessionObject) GetExpiration() *time.Time { return s.Expires }

func sessionFromClaims(claims *SessionClaims) *SessionObject {
	session := &SessionObject{
		AccountID: claims.UID,
		Email:     claims.Email,
	}

	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		session.IssuedAt = &t
	}

	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		session.Expires = &t
	}

	return session
}

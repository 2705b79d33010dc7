package autorag

import (
	"context"
	"fmt"
	"time"
)

// Logger is the slog style message plus key value pairs surface the rest of
// the module logs against. glog loggers satisfy it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the minimal view of an account carried inside session tokens.
type Identity interface {
	ID() string
	Email() string
}

// Session holds the attributes decoded from a session token.
type Session interface {
	GetAccountID() string
	GetEmail() string
	GetIssuedAt() *time.Time
	GetExpiration() *time.Time
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	IssueSession(identity Identity) (string, error)
	VerifySession(token string) (Session, error)
}

// Verifier manages single use email verification tokens.
type Verifier interface {
	Issue(ctx context.Context, account *Account) (string, error)
	Redeem(ctx context.Context, token string) (*Account, error)
	Reissue(ctx context.Context, email string) (*Account, string, error)
}

// Config holds the settings shared by the token issuer and the middleware.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetIssuer() string
}

// PasswordAuthenticator hashes and checks account passwords.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// NewDefaultLogger returns the stdout fallback logger used when callers do
// not provide one.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	d.print("ERR", msg, args)
}

func (d defLogger) Info(msg string, args ...any) {
	d.print("INF", msg, args)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.print("DBG", msg, args)
}

func (d defLogger) print(level, msg string, args []any) {
	fmt.Println(formatLogLine(level, msg, args))
}

// formatLogLine renders the slog style alternating key value pairs every
// call site passes, an odd trailing argument is printed bare.
func formatLogLine(level, msg string, args []any) string {
	line := "[" + level + "] AUTORAG " + msg
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
		} else {
			line += fmt.Sprintf(" %v", args[i])
		}
	}
	return line
}

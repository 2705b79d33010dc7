package autorag

import "github.com/goliatone/go-errors"

const (
	TextCodeValidationFailed     = "validation_failed"
	TextCodeDuplicateEmail       = "duplicate_email"
	TextCodeInvalidCredentials   = "invalid_credentials"
	TextCodeEmailNotVerified     = "email_not_verified"
	TextCodeInvalidToken         = "invalid_or_expired_token"
	TextCodeAlreadyVerified      = "already_verified"
	TextCodeAccountNotFound      = "account_not_found"
	TextCodeTokenExpired         = "token_expired"
	TextCodeTokenMalformed       = "token_malformed"
	TextCodeTokenMissing         = "token_missing"
	TextCodeConfigurationMissing = "configuration_missing"
	TextCodeUseFederatedLogin    = "use_federated_login"
)

// ErrDuplicateEmail is returned when an account with the email already exists.
var ErrDuplicateEmail = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// Login never reveals which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when a local account has not redeemed its
// verification token yet.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// ErrInvalidVerificationToken is returned when a verification token does not
// match any pending account or its expiry has passed.
var ErrInvalidVerificationToken = errors.New("invalid or expired verification token", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when a verification re-issue is requested for
// an account that already completed verification.
var ErrAlreadyVerified = errors.New("email already verified", errors.CategoryValidation).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is returned when no account matches the given identifier.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a session token cannot be parsed or its
// signature does not check out.
var ErrTokenMalformed = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMissing is returned when a protected route is hit without a bearer
// token.
var ErrTokenMissing = errors.New("missing authorization header", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrUseFederatedLogin is returned when a password login targets an account
// created through a federated provider that never set a local password.
var ErrUseFederatedLogin = errors.New("Use Google login for this account", errors.CategoryValidation).
	WithTextCode(TextCodeUseFederatedLogin).
	WithCode(errors.CodeBadRequest)

// ErrConfigurationMissing is returned when a component is invoked without the
// settings it needs to operate.
var ErrConfigurationMissing = errors.New("required configuration missing", errors.CategoryOperation).
	WithTextCode(TextCodeConfigurationMissing).
	WithCode(errors.CodeInternal)

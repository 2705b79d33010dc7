package federated

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotConfigured = "configuration_missing"
	TextCodeInvalidState          = "federated_invalid_state"
	TextCodeStateExpired          = "federated_state_expired"
	TextCodeMissingCode           = "missing_code"
	TextCodeExchangeFailed        = "exchange_failed"
	TextCodeIdentityTokenInvalid  = "identity_token_invalid"
	TextCodeEmailNotVerified      = "email_not_verified"
	TextCodeAccountNotFound       = "account_not_found"
)

// ErrProviderNotConfigured is returned when the provider is missing required settings.
var ErrProviderNotConfigured = errors.New("identity provider not configured", errors.CategoryOperation).
	WithTextCode(TextCodeProviderNotConfigured).
	WithCode(errors.CodeInternal)

// ErrInvalidState is returned when the state parameter is invalid or tampered.
var ErrInvalidState = errors.New("invalid state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the state parameter has expired.
var ErrStateExpired = errors.New("state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrMissingCode is returned when the provider calls back without an
// authorization code.
var ErrMissingCode = errors.New("missing authorization code", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCode).
	WithCode(errors.CodeBadRequest)

// ErrExchangeFailed is returned when the authorization code exchange fails.
var ErrExchangeFailed = errors.New("authorization code exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeExchangeFailed).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityTokenInvalid is returned when the identity token is missing,
// unparseable, or fails signature or audience checks.
var ErrIdentityTokenInvalid = errors.New("invalid identity token", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when the provider reports an unverified email.
var ErrEmailNotVerified = errors.New("provider email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// ErrAccountNotFound is returned when no local account matches the federated
// email. Federated sign in never creates accounts.
var ErrAccountNotFound = errors.New("no account found with this email", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

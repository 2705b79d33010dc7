package notify

import "github.com/goliatone/go-errors"

const (
	TextCodeNotificationUnavailable = "notification_unavailable"
	TextCodeVerificationUnavailable = "verification_unavailable"
)

// ErrNotificationUnavailable is returned when every configured delivery
// channel either was skipped or failed.
var ErrNotificationUnavailable = errors.New("Both EmailJS and SMTP are unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeNotificationUnavailable).
	WithCode(errors.CodeInternal)

// ErrVerificationUnavailable is returned when no channel can carry the
// verification email. Signups still succeed, the caller reports the email
// as not sent.
var ErrVerificationUnavailable = errors.New("verification email channel not configured", errors.CategoryOperation).
	WithTextCode(TextCodeVerificationUnavailable).
	WithCode(errors.CodeInternal)

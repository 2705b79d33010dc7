package notify

import (
	"context"
	"net/url"
	"strings"
	"time"

	autorag "github.com/nehasharma2210/AutoRag"
)

// VerificationSender carries verification email. Only SMTP implements it,
// template based providers cannot render the link email.
type VerificationSender interface {
	Configured() (bool, []string)
	SendVerification(ctx context.Context, msg VerificationMessage) error
}

// Dispatcher tries delivery channels in priority order and satisfies the
// root Notifier interface.
type Dispatcher struct {
	providers     []Provider
	verification  VerificationSender
	publicBaseURL string
	verifyPath    string
	logger        autorag.Logger
}

type DispatcherOption func(*Dispatcher)

func WithProviders(providers ...Provider) DispatcherOption {
	return func(d *Dispatcher) {
		d.providers = providers
	}
}

func WithVerificationSender(sender VerificationSender) DispatcherOption {
	return func(d *Dispatcher) {
		d.verification = sender
	}
}

func WithDispatcherLogger(logger autorag.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPublicBaseURL sets the absolute base for verification links.
func WithPublicBaseURL(base string) DispatcherOption {
	return func(d *Dispatcher) {
		d.publicBaseURL = strings.TrimRight(base, "/")
	}
}

// NewDispatcher builds the default EmailJS then SMTP chain. SMTP doubles as
// the verification sender.
func NewDispatcher(emailjs EmailJSConfig, smtp SMTPConfig, opts ...DispatcherOption) *Dispatcher {
	relay := NewSMTP(smtp)

	d := &Dispatcher{
		providers:    []Provider{NewEmailJS(emailjs), relay},
		verification: relay,
		verifyPath:   "/api/auth/verify-email",
		logger:       autorag.NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SendContact walks the provider chain until one delivery succeeds.
// Unconfigured providers are skipped, failed ones fall through to the next.
func (d *Dispatcher) SendContact(ctx context.Context, fullName, company, email, message string) error {
	msg := ContactMessage{
		FullName:    fullName,
		Company:     company,
		Email:       email,
		Message:     message,
		SubmittedAt: time.Now(),
	}

	attempts := make([]Attempt, 0, len(d.providers))

	for _, provider := range d.providers {
		if ok, missing := provider.Configured(); !ok {
			d.logger.Debug("notify provider skipped", "provider", provider.Name(), "missing", strings.Join(missing, ", "))
			attempts = append(attempts, Attempt{Provider: provider.Name(), Skipped: true, Missing: missing})
			continue
		}

		err := provider.SendContact(ctx, msg)
		if err == nil {
			d.logger.Info("contact message delivered", "provider", provider.Name())
			return nil
		}

		d.logger.Error("notify delivery failed", "provider", provider.Name(), "error", err)
		attempts = append(attempts, Attempt{Provider: provider.Name(), Error: err.Error()})
	}

	return ErrNotificationUnavailable.Clone().WithMetadata(map[string]any{
		"attempts": attempts,
	})
}

// SendVerification emails the verification link through SMTP. When the relay
// is not configured the signup still succeeds and the caller reports the
// email as not sent. The plaintext token never reaches the log.
func (d *Dispatcher) SendVerification(ctx context.Context, recipient, name, token string) error {
	verifyURL := d.verificationURL(token)

	if d.verification == nil {
		d.logger.Info("no verification sender, email not sent", "recipient", recipient)
		return ErrVerificationUnavailable.Clone()
	}

	if ok, missing := d.verification.Configured(); !ok {
		d.logger.Info("smtp not configured, email not sent", "missing", strings.Join(missing, ", "), "recipient", recipient)
		return ErrVerificationUnavailable.Clone().WithMetadata(map[string]any{
			"missing": missing,
		})
	}

	return d.verification.SendVerification(ctx, VerificationMessage{
		Recipient: recipient,
		Name:      name,
		VerifyURL: verifyURL,
	})
}

func (d *Dispatcher) verificationURL(token string) string {
	return d.publicBaseURL + d.verifyPath + "?token=" + url.QueryEscape(token)
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = time.Second * 10

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Secure forces an implicit TLS connection. Port 465 implies it.
	Secure bool
	// ContactTo receives contact form submissions. Falls back to Username.
	ContactTo string
}

// MissingSettings lists the environment keys required but absent.
func (c SMTPConfig) MissingSettings() []string {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.Username == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	return missing
}

func (c SMTPConfig) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

func (c SMTPConfig) contactRecipient() string {
	if c.ContactTo != "" {
		return c.ContactTo
	}
	return c.Username
}

func (c SMTPConfig) implicitTLS() bool {
	return c.Secure || c.Port == 465
}

// SMTP delivers contact and verification email through an SMTP relay.
type SMTP struct {
	config SMTPConfig
}

func NewSMTP(config SMTPConfig) *SMTP {
	if config.Port == 0 {
		config.Port = 587
	}
	return &SMTP{config: config}
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Configured() (bool, []string) {
	missing := s.config.MissingSettings()
	return len(missing) == 0, missing
}

func (s *SMTP) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.config.Username),
		mail.WithPassword(s.config.Password),
		mail.WithTimeout(smtpTimeout),
	}

	if s.config.implicitTLS() {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	return mail.NewClient(s.config.Host, opts...)
}

func (s *SMTP) SendContact(ctx context.Context, msg ContactMessage) error {
	submitted := msg.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	m := mail.NewMsg()
	if err := m.From(s.config.sender()); err != nil {
		return fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if err := m.To(s.config.contactRecipient()); err != nil {
		return fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	if msg.Email != "" {
		if err := m.ReplyTo(msg.Email); err != nil {
			return fmt.Errorf("smtp: invalid reply-to: %w", err)
		}
	}

	m.Subject("New Contact Form Submission - AutoRAG")
	m.SetBodyString(mail.TypeTextPlain, renderContactBody(msg, submitted))

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send contact: %w", err)
	}

	return nil
}

// SendVerification emails the verification link.
func (s *SMTP) SendVerification(ctx context.Context, msg VerificationMessage) error {
	m := mail.NewMsg()
	if err := m.From(s.config.sender()); err != nil {
		return fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if err := m.To(msg.Recipient); err != nil {
		return fmt.Errorf("smtp: invalid recipient: %w", err)
	}

	m.Subject("Verify your email")
	m.SetBodyString(mail.TypeTextPlain, renderVerificationText(msg))
	m.AddAlternativeString(mail.TypeTextHTML, renderVerificationHTML(msg))

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send verification: %w", err)
	}

	return nil
}

func renderContactBody(msg ContactMessage, submitted time.Time) string {
	return fmt.Sprintf(
		"Hello Team AutoRAG,\n\n"+
			"You have received a new contact form submission from the AutoRAG website.\n\n"+
			"Name: %s\n"+
			"Email: %s\n"+
			"Company: %s\n"+
			"Message:\n%s\n\n"+
			"Submitted On: %s\n",
		msg.SenderName(),
		msg.Email,
		msg.Company,
		msg.Message,
		submitted.Format(time.RFC1123),
	)
}

func renderVerificationText(msg VerificationMessage) string {
	greeting := "Hello"
	if msg.Name != "" {
		greeting = "Hello " + msg.Name
	}

	return fmt.Sprintf(
		"%s,\n\n"+
			"Welcome to AutoRAG. Please confirm your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires in 24 hours. If you did not create an account, you can ignore this email.\n",
		greeting,
		msg.VerifyURL,
	)
}

func renderVerificationHTML(msg VerificationMessage) string {
	greeting := "Hello"
	if msg.Name != "" {
		greeting = "Hello " + msg.Name
	}

	return fmt.Sprintf(
		`<p>%s,</p>
<p>Welcome to AutoRAG. Please confirm your email address:</p>
<p><a href="%s">Verify your email</a></p>
<p>The link expires in 24 hours. If you did not create an account, you can ignore this email.</p>`,
		greeting,
		msg.VerifyURL,
	)
}

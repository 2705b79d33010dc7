package notify

import (
	"context"
	"time"
)

// ContactMessage is a website contact form submission ready for delivery.
type ContactMessage struct {
	FullName    string
	Company     string
	Email       string
	Message     string
	SubmittedAt time.Time
}

// SenderName returns a display name for the submitter.
func (m ContactMessage) SenderName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Email
}

// VerificationMessage carries everything needed to send a verification link.
type VerificationMessage struct {
	Recipient string
	Name      string
	VerifyURL string
}

// Provider delivers contact messages through one channel.
type Provider interface {
	Name() string
	// Configured reports whether the provider can send, and if not, which
	// settings are missing.
	Configured() (bool, []string)
	SendContact(ctx context.Context, msg ContactMessage) error
}

// Attempt records the outcome of a single provider try during dispatch.
type Attempt struct {
	Provider string   `json:"provider"`
	Skipped  bool     `json:"skipped"`
	Missing  []string `json:"missing,omitempty"`
	Error    string   `json:"error,omitempty"`
}

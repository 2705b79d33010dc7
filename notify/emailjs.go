package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEmailJSURL is the EmailJS REST send endpoint.
const DefaultEmailJSURL = "https://api.emailjs.com/api/v1.0/email/send"

const emailJSTimeout = time.Second * 15

// EmailJSConfig holds the EmailJS account settings.
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	APIURL     string
	HTTPClient *http.Client
}

// MissingSettings lists the environment keys required but absent.
func (c EmailJSConfig) MissingSettings() []string {
	var missing []string
	if c.ServiceID == "" {
		missing = append(missing, "EMAILJS_SERVICE_ID")
	}
	if c.TemplateID == "" {
		missing = append(missing, "EMAILJS_TEMPLATE_ID")
	}
	if c.PublicKey == "" {
		missing = append(missing, "EMAILJS_PUBLIC_KEY")
	}
	return missing
}

// EmailJS delivers contact messages through the EmailJS REST API.
type EmailJS struct {
	config EmailJSConfig
	client *http.Client
}

func NewEmailJS(config EmailJSConfig) *EmailJS {
	if config.APIURL == "" {
		config.APIURL = DefaultEmailJSURL
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: emailJSTimeout}
	}

	return &EmailJS{config: config, client: client}
}

func (e *EmailJS) Name() string { return "emailjs" }

func (e *EmailJS) Configured() (bool, []string) {
	missing := e.config.MissingSettings()
	return len(missing) == 0, missing
}

type emailJSRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

func (e *EmailJS) SendContact(ctx context.Context, msg ContactMessage) error {
	submitted := msg.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	payload := emailJSRequest{
		ServiceID:  e.config.ServiceID,
		TemplateID: e.config.TemplateID,
		UserID:     e.config.PublicKey,
		TemplateParams: map[string]any{
			"name":      msg.SenderName(),
			"email":     msg.Email,
			"message":   msg.Message,
			"date":      submitted.Format(time.RFC1123),
			"full_name": msg.FullName,
			"company":   msg.Company,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("emailjs: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("emailjs: unexpected status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

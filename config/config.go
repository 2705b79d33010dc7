package config

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// App is the full application configuration, loaded from the environment.
type App struct {
	Server   Server
	Database Database
	Auth     Auth
	Google   Google
	EmailJS  EmailJS
	SMTP     SMTP
	LLM      LLM
}

type Server struct {
	Port          int    `env:"PORT" envDefault:"3001"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3001"`
	Debug         bool   `env:"DEBUG"`
}

func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Database struct {
	DSN string `env:"DATABASE_DSN" envDefault:"file:autorag.db?cache=shared&mode=rwc"`
}

// Auth satisfies the root Config interface consumed by the token service.
type Auth struct {
	SigningKey    string `env:"JWT_SECRET"`
	SigningMethod string `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey    string `env:"JWT_CONTEXT_KEY" envDefault:"user"`
	// TokenExpiration is the session lifetime in hours.
	TokenExpiration int    `env:"JWT_TOKEN_EXPIRATION" envDefault:"168"`
	Issuer          string `env:"JWT_ISSUER" envDefault:"autorag"`
}

func (a Auth) GetSigningKey() string    { return a.SigningKey }
func (a Auth) GetSigningMethod() string { return a.SigningMethod }
func (a Auth) GetContextKey() string    { return a.ContextKey }
func (a Auth) GetTokenExpiration() int  { return a.TokenExpiration }
func (a Auth) GetIssuer() string        { return a.Issuer }

type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	// StateSecret seeds the keys protecting the OAuth state parameter.
	// Falls back to the JWT secret when unset.
	StateSecret string        `env:"OAUTH_STATE_SECRET"`
	StateTTL    time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

// StateKeys derives distinct encryption and MAC keys from the state secret.
func (g Google) StateKeys(fallback string) (encryption, hmac []byte) {
	secret := g.StateSecret
	if secret == "" {
		secret = fallback
	}

	enc := sha256.Sum256([]byte(secret + ":state-encryption"))
	mac := sha256.Sum256([]byte(secret + ":state-hmac"))
	return enc[:], mac[:]
}

type EmailJS struct {
	ServiceID  string `env:"EMAILJS_SERVICE_ID"`
	TemplateID string `env:"EMAILJS_TEMPLATE_ID"`
	PublicKey  string `env:"EMAILJS_PUBLIC_KEY"`
	APIURL     string `env:"EMAILJS_API_URL"`
}

type SMTP struct {
	Host      string `env:"SMTP_HOST"`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	Username  string `env:"SMTP_USER"`
	Password  string `env:"SMTP_PASS"`
	From      string `env:"SMTP_FROM"`
	Secure    bool   `env:"SMTP_SECURE"`
	ContactTo string `env:"CONTACT_TO_EMAIL"`
}

type LLM struct {
	BaseURL   string `env:"LLM_API_BASE_URL" envDefault:"http://localhost:8000"`
	TimeoutMS int    `env:"LLM_API_TIMEOUT_MS" envDefault:"120000"`
}

func (l LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

// Load reads the configuration from environment variables.
func Load() (*App, error) {
	app := &App{}
	if err := env.Parse(app); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return app, nil
}

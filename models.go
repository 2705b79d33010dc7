package autorag

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountProvider names the credential source an account was created with.
type AccountProvider = string

const (
	// ProviderLocal is an email and password account.
	ProviderLocal AccountProvider = "local"
	// ProviderGoogle is an account created or unified through Google sign in.
	ProviderGoogle AccountProvider = "google"
)

// Account is the account model. Emails are stored lowercased and the unique
// index on the column is what enforces one account per address.
type Account struct {
	bun.BaseModel       `bun:"table:accounts,alias:acc"`
	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                string     `bun:"name" json:"name,omitempty"`
	Email               string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Provider            string     `bun:"provider,notnull" json:"provider,omitempty"`
	PasswordHash        string     `bun:"password_hash" json:"-"`
	EmailVerified       bool       `bun:"is_email_verified" json:"is_email_verified"`
	VerificationHash    string     `bun:"verification_token_hash,nullzero" json:"-"`
	VerificationExpires *time.Time `bun:"verification_expires_at,nullzero" json:"-"`
	FederatedSubject    string     `bun:"federated_subject,nullzero" json:"-"`
	LoggedInAt          *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt           *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Public returns the account shape exposed by the API. Credential and token
// material never leaves the record.
func (a *Account) Public() map[string]any {
	return map[string]any{
		"id":         a.ID.String(),
		"name":       a.Name,
		"email":      a.Email,
		"created_at": a.CreatedAt,
		"verified":   a.EmailVerified,
	}
}

type accountIdentity struct {
	account *Account
}

func (i accountIdentity) ID() string    { return i.account.ID.String() }
func (i accountIdentity) Email() string { return i.account.Email }

// NewIdentity wraps an account in the Identity view used for token minting.
func NewIdentity(account *Account) Identity {
	return accountIdentity{account: account}
}

// Contact is a stored contact form submission. The email always comes from
// the authenticated session, never from the form body.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:cnt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName      string     `bun:"full_name" json:"full_name,omitempty"`
	Company       string     `bun:"company" json:"company,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Message       string     `bun:"message,notnull" json:"message,omitempty"`
	Delivered     bool       `bun:"delivered" json:"delivered"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DocumentStatus values reported by the retrieval pipeline.
const (
	DocumentStatusProcessed  = "Processed"
	DocumentStatusProcessing = "Processing"
	DocumentStatusFailed     = "Failed"
)

// Document is a per account document metadata record.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:doc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	DocType       string     `bun:"doc_type" json:"doc_type,omitempty"`
	Pages         int        `bun:"pages" json:"pages,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	UploadedAt    *time.Time `bun:"uploaded_at,nullzero,default:current_timestamp" json:"uploaded_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Public returns the document shape exposed by the API.
func (d *Document) Public() map[string]any {
	return map[string]any{
		"id":          d.ID.String(),
		"title":       d.Title,
		"doc_type":    d.DocType,
		"pages":       d.Pages,
		"status":      d.Status,
		"uploaded_at": d.UploadedAt,
	}
}

package autorag

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RedeemVerificationSQL clears the pending token in the same statement that
// marks the account verified, so a token can only ever be redeemed once.
var RedeemVerificationSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"verification_token_hash" = NULL,
	"verification_expires_at" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."verification_token_hash" = ?
AND "acc"."verification_expires_at" > ?
RETURNING *;`

// SetVerificationSQL installs a fresh token hash, replacing any previous one.
// The guard on is_email_verified keeps re-issue from touching verified rows.
var SetVerificationSQL = `UPDATE "accounts" AS "acc"
SET
	"verification_token_hash" = ?,
	"verification_expires_at" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."is_email_verified" = FALSE
AND (
	"acc"."id" = ?
) RETURNING *;`

// UnifyFederatedSQL marks an existing account verified, tags it as a Google
// account and records the federated subject. Any pending verification token
// dies with the same statement, a verified row never keeps one. The stored
// name only changes when the row has none.
var UnifyFederatedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"provider" = 'google',
	"federated_subject" = ?,
	"verification_token_hash" = NULL,
	"verification_expires_at" = NULL,
	"name" = CASE WHEN "acc"."name" = '' THEN ? ELSE "acc"."name" END,
	"loggedin_at" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."email" = ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	SetVerification(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) (*Account, error)
	SetVerificationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expires time.Time) (*Account, error)
	RedeemVerification(ctx context.Context, tokenHash string) (*Account, error)
	RedeemVerificationTx(ctx context.Context, tx bun.IDB, tokenHash string) (*Account, error)

	UnifyFederated(ctx context.Context, email, subject, name string) (*Account, error)
	UnifyFederatedTx(ctx context.Context, tx bun.IDB, email, subject, name string) (*Account, error)

	TrackSuccessfulLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	record, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail.Clone().
				WithMetadata(map[string]any{"email": account.Email})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.Repository.GetByIdentifierTx(ctx, tx, NormalizeEmail(email))
}

func (a *accounts) SetVerification(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) (*Account, error) {
	return a.SetVerificationTx(ctx, a.db, id, tokenHash, expires)
}

func (a *accounts) SetVerificationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expires time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetVerificationSQL, tokenHash, expires, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *accounts) RedeemVerification(ctx context.Context, tokenHash string) (*Account, error) {
	return a.RedeemVerificationTx(ctx, a.db, tokenHash)
}

func (a *accounts) RedeemVerificationTx(ctx context.Context, tx bun.IDB, tokenHash string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, RedeemVerificationSQL, tokenHash, time.Now())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"token_hash": tokenHash,
			})
	}

	return res[0], nil
}

func (a *accounts) UnifyFederated(ctx context.Context, email, subject, name string) (*Account, error) {
	return a.UnifyFederatedTx(ctx, a.db, email, subject, name)
}

func (a *accounts) UnifyFederatedTx(ctx context.Context, tx bun.IDB, email, subject, name string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, UnifyFederatedSQL, subject, name, time.Now(), NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": NormalizeEmail(email),
			})
	}

	return res[0], nil
}

func (a *accounts) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accounts) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"loggedin_at" = ?
		WHERE
			("acc".id = ?)
			AND "acc"."deleted_at" IS NULL;
	`, loggedInAt, account.ID).Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Provider == "" {
		record.Provider = ProviderLocal
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// NormalizeEmail lowercases and trims an address so the unique index on the
// email column is effectively case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation recognizes a unique index violation both as the
// repository layer classifies it and as the raw driver reports it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == goerrors.CategoryConflict || richErr.Code == goerrors.CodeConflict {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key value")
}

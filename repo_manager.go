package autorag

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	Contacts() repository.Repository[*Contact]
	Documents() Documents
}

func NewContactsRepository(db *bun.DB) repository.Repository[*Contact] {
	handlers := repository.ModelHandlers[*Contact]{
		NewRecord: func() *Contact {
			return &Contact{}
		},
		GetID: func(record *Contact) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Contact, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return &contacts{Repository: repository.NewRepository(db, handlers), db: db}
}

type contacts struct {
	repository.Repository[*Contact]
	db *bun.DB
}

func (c *contacts) Create(ctx context.Context, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	return c.CreateTx(ctx, c.db, record, criteria...)
}

func (c *contacts) CreateTx(ctx context.Context, tx bun.IDB, record *Contact, criteria ...repository.InsertCriteria) (*Contact, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return c.Repository.CreateTx(ctx, tx, record, criteria...)
}

type mngr struct {
	db        *bun.DB
	accounts  Accounts
	contacts  repository.Repository[*Contact]
	documents Documents
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		accounts:  NewAccountsRepository(db),
		contacts:  NewContactsRepository(db),
		documents: NewDocumentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.contacts == nil {
		return errors.New("repository contacts should be initialized")
	}

	if m.documents == nil {
		return errors.New("repository documents should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Contacts() repository.Repository[*Contact] {
	return m.contacts
}

func (m mngr) Documents() Documents {
	return m.documents
}

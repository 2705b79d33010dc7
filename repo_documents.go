package autorag

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Documents interface {
	repository.Repository[*Document]

	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Document, error)
	ListByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) ([]*Document, error)
}

type documents struct {
	repository.Repository[*Document]
	db *bun.DB
}

var (
	_ Documents                        = (*documents)(nil)
	_ repository.Repository[*Document] = (*documents)(nil)
)

func NewDocumentsRepository(db *bun.DB) Documents {
	repo := repository.NewRepository[*Document](db, repository.ModelHandlers[*Document]{
		NewRecord: func() *Document { return &Document{} },
		GetID: func(d *Document) uuid.UUID {
			if d == nil {
				return uuid.Nil
			}
			return d.ID
		},
		SetID: func(d *Document, id uuid.UUID) {
			if d != nil {
				d.ID = id
			}
		},
	})

	return &documents{
		Repository: repo,
		db:         db,
	}
}

func (a *documents) Create(ctx context.Context, record *Document, criteria ...repository.InsertCriteria) (*Document, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *documents) CreateTx(ctx context.Context, tx bun.IDB, record *Document, criteria ...repository.InsertCriteria) (*Document, error) {
	prepareDocumentDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareDocumentDefaults(record *Document) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Status == "" {
		record.Status = DocumentStatusProcessed
	}
}

func (a *documents) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Document, error) {
	return a.ListByAccountTx(ctx, a.db, accountID)
}

func (a *documents) ListByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) ([]*Document, error) {
	records := []*Document{}

	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.account_id = ?", accountID).
		Order("uploaded_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

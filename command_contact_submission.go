package autorag

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ContactSubmissionMessage struct {
	FullName   string `json:"full_name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Message    string `json:"message"`
	OnResponse func(r *ContactSubmissionResponse)
}

func (e ContactSubmissionMessage) Type() string { return "contact.submit" }

type ContactSubmissionResponse struct {
	Contact *Contact `json:"contact"`
}

// ContactSubmissionHandler stores the submission before any delivery attempt
// is made, a failed notification never loses the message.
type ContactSubmissionHandler struct {
	repo RepositoryManager
}

func NewContactSubmissionHandler(repo RepositoryManager) *ContactSubmissionHandler {
	return &ContactSubmissionHandler{repo: repo}
}

func (h *ContactSubmissionHandler) Execute(ctx context.Context, event ContactSubmissionMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during contact submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ContactSubmissionHandler) execute(ctx context.Context, event ContactSubmissionMessage) error {
	contact := &Contact{}
	resp := &ContactSubmissionResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		contact.FullName = event.FullName
		contact.Company = event.Company
		contact.Email = NormalizeEmail(event.Email)
		contact.Message = event.Message

		var err error
		if contact, err = h.repo.Contacts().CreateTx(ctx, tx, contact); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store contact submission")
		}

		resp.Contact = contact

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "contact submission transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// MarkDelivered flips the delivered flag once a notification went out.
func (h *ContactSubmissionHandler) MarkDelivered(ctx context.Context, contact *Contact) error {
	if contact == nil {
		return nil
	}

	contact.Delivered = true
	_, err := h.repo.Contacts().Update(ctx, contact)
	return err
}

package autorag

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool
	OnResponse func(r *SignupResponse)
}

func (e SignupMessage) Type() string { return "account.signup" }

// SignupResponse carries the created account plus the cleartext verification
// token. The token leaves this response only through the notification that
// delivers it to the account holder.
type SignupResponse struct {
	Account *Account `json:"account"`
	Token   string   `json:"-"`
}

type SignupHandler struct {
	repo RepositoryManager
}

func NewSignupHandler(repo RepositoryManager) *SignupHandler {
	return &SignupHandler{repo: repo}
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	account := &Account{}
	resp := &SignupResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		token, tokenHash, err := newVerificationToken()
		if err != nil {
			return err
		}

		expires := time.Now().Add(DefaultVerificationTTL)

		account.Name = event.Name
		account.Email = event.Email
		account.Provider = ProviderLocal
		account.PasswordHash = hash
		account.VerificationHash = tokenHash
		account.VerificationExpires = &expires
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return err
		}

		resp.Account = account
		resp.Token = token

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

package autorag

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ResendVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(r *ResendVerificationResponse)
}

func (e ResendVerificationMessage) Type() string { return "account.verification.resend" }

type ResendVerificationResponse struct {
	Account         *Account `json:"account"`
	Token           string   `json:"-"`
	Found           bool     `json:"found"`
	AlreadyVerified bool     `json:"already_verified"`
}

type ResendVerificationHandler struct {
	verifier Verifier
}

func NewResendVerificationHandler(verifier Verifier) *ResendVerificationHandler {
	return &ResendVerificationHandler{verifier: verifier}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	resp := &ResendVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, token, err := h.verifier.Reissue(ctx, event.Email)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			// Unknown and already verified accounts are part of the expected
			// flow, callers decide how much of that to disclose.
			switch richErr.TextCode {
			case TextCodeAccountNotFound:
				resp.Found = false
			case TextCodeAlreadyVerified:
				resp.Found = true
				resp.AlreadyVerified = true
			default:
				return richErr
			}

			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reissue verification token")
	}

	resp.Found = true
	resp.Account = account
	resp.Token = token

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

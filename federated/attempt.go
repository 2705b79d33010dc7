package federated

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AttemptStage tracks how far a federated sign in got.
type AttemptStage string

const (
	// StageAwaitingCode is the initial stage, before the exchange ran.
	StageAwaitingCode AttemptStage = "awaiting_code"
	// StageExchanged means the authorization code was traded for tokens.
	StageExchanged AttemptStage = "exchanged"
	// StageIdentityVerified means the identity token checked out.
	StageIdentityVerified AttemptStage = "identity_verified"
	// StageUnified is the terminal success stage, the local account was
	// marked verified and the federated subject recorded.
	StageUnified AttemptStage = "unified"
	// StageRejected is the terminal failure stage.
	StageRejected AttemptStage = "rejected"
)

// ErrInvalidAttemptTransition is returned when an attempt is advanced out of order.
var ErrInvalidAttemptTransition = goerrors.New("invalid attempt stage transition", goerrors.CategoryValidation).
	WithTextCode("invalid_attempt_transition").
	WithCode(goerrors.CodeBadRequest)

var attemptTransitions = map[AttemptStage][]AttemptStage{
	StageAwaitingCode:     {StageExchanged, StageRejected},
	StageExchanged:        {StageIdentityVerified, StageRejected},
	StageIdentityVerified: {StageUnified, StageRejected},
	StageUnified:          {},
	StageRejected:         {},
}

// Attempt is a single federated sign in pass through the resolver.
type Attempt struct {
	Provider  string
	Stage     AttemptStage
	StartedAt time.Time
	Reason    string
}

func NewAttempt(provider string) *Attempt {
	return &Attempt{
		Provider:  provider,
		Stage:     StageAwaitingCode,
		StartedAt: time.Now(),
	}
}

// Advance moves the attempt to the next stage, enforcing the stage order.
func (a *Attempt) Advance(next AttemptStage) error {
	for _, allowed := range attemptTransitions[a.Stage] {
		if allowed == next {
			a.Stage = next
			return nil
		}
	}

	return ErrInvalidAttemptTransition.Clone().WithMetadata(map[string]any{
		"provider": a.Provider,
		"from":     string(a.Stage),
		"to":       string(next),
	})
}

// Reject terminally fails the attempt, recording why.
func (a *Attempt) Reject(reason string) {
	a.Stage = StageRejected
	a.Reason = reason
}

// Terminal reports whether the attempt can still advance.
func (a *Attempt) Terminal() bool {
	return len(attemptTransitions[a.Stage]) == 0
}

// Metadata is attached to errors and log lines for diagnostics.
func (a *Attempt) Metadata() map[string]any {
	meta := map[string]any{
		"provider":   a.Provider,
		"stage":      string(a.Stage),
		"started_at": a.StartedAt,
	}
	if a.Reason != "" {
		meta["reason"] = a.Reason
	}
	return meta
}

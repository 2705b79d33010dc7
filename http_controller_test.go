package autorag_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	goerrors "github.com/goliatone/go-errors"
	autorag "github.com/nehasharma2210/AutoRag"
)

func newTestController(repo autorag.RepositoryManager, issuer autorag.TokenIssuer, verifier autorag.Verifier, opts ...autorag.AccountControllerOption) *autorag.AccountController {
	base := []autorag.AccountControllerOption{
		autorag.WithControllerRepo(repo),
		autorag.WithControllerIssuer(issuer),
		autorag.WithControllerVerifier(verifier),
	}
	return autorag.NewAccountController(append(base, opts...)...)
}

func TestNewAccountController(t *testing.T) {
	t.Run("panics without a repository", func(t *testing.T) {
		assert.Panics(t, func() {
			autorag.NewAccountController(
				autorag.WithControllerIssuer(&MockIssuer{}),
				autorag.WithControllerVerifier(&MockVerifier{}),
			)
		})
	})

	t.Run("panics without an issuer", func(t *testing.T) {
		assert.Panics(t, func() {
			autorag.NewAccountController(
				autorag.WithControllerRepo(&MockRepositoryManager{}),
				autorag.WithControllerVerifier(&MockVerifier{}),
			)
		})
	})

	t.Run("panics without a verifier", func(t *testing.T) {
		assert.Panics(t, func() {
			autorag.NewAccountController(
				autorag.WithControllerRepo(&MockRepositoryManager{}),
				autorag.WithControllerIssuer(&MockIssuer{}),
			)
		})
	})

	t.Run("applies defaults", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		assert.Equal(t, "user", controller.ContextKey)
		assert.Equal(t, "/pages/features.html", controller.VerifiedRedirect)
		assert.Equal(t, "/api/auth/signup", controller.Routes.Signup)
		assert.Equal(t, "/api/auth/login", controller.Routes.Login)
		assert.Equal(t, "/api/documents", controller.Routes.Documents)
	})

	t.Run("trims the public base url", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{},
			autorag.WithControllerPublicBaseURL("https://app.example.com/"),
		)

		assert.Equal(t, "https://app.example.com", controller.PublicBaseURL)
	})
}

func TestSignupPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload autorag.SignupPayload
		wantErr bool
	}{
		{"valid", autorag.SignupPayload{Name: "Person", Email: "person@example.com", Password: "secret1"}, false},
		{"valid without name", autorag.SignupPayload{Email: "person@example.com", Password: "secret1"}, false},
		{"missing email", autorag.SignupPayload{Password: "secret1"}, true},
		{"malformed email", autorag.SignupPayload{Email: "not-an-email", Password: "secret1"}, true},
		{"missing password", autorag.SignupPayload{Email: "person@example.com"}, true},
		{"short password", autorag.SignupPayload{Email: "person@example.com", Password: "12345"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload autorag.LoginPayload
		wantErr bool
	}{
		{"valid", autorag.LoginPayload{Email: "person@example.com", Password: "secret1"}, false},
		{"missing email", autorag.LoginPayload{Password: "secret1"}, true},
		{"malformed email", autorag.LoginPayload{Email: "nope", Password: "secret1"}, true},
		{"missing password", autorag.LoginPayload{Email: "person@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContactPayloadValidate(t *testing.T) {
	longMessage := make([]byte, 5001)
	for i := range longMessage {
		longMessage[i] = 'a'
	}

	tests := []struct {
		name    string
		payload autorag.ContactPayload
		wantErr bool
	}{
		{"valid", autorag.ContactPayload{FullName: "Person", Company: "Acme", Message: "Hello"}, false},
		{"message only", autorag.ContactPayload{Message: "Hello"}, false},
		{"missing message", autorag.ContactPayload{FullName: "Person"}, true},
		{"message too long", autorag.ContactPayload{Message: string(longMessage)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDocumentPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload autorag.DocumentPayload
		wantErr bool
	}{
		{"valid", autorag.DocumentPayload{Title: "Report", DocType: "pdf", Pages: 10, Status: autorag.DocumentStatusProcessed}, false},
		{"title only", autorag.DocumentPayload{Title: "Report"}, false},
		{"missing title", autorag.DocumentPayload{Status: autorag.DocumentStatusProcessed}, true},
		{"negative pages", autorag.DocumentPayload{Title: "Report", Pages: -1}, true},
		{"unknown status", autorag.DocumentPayload{Title: "Report", Status: "Queued"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	bindLogin := func(ctx *router.MockContext, email, password string) {
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.LoginPayload)
			payload.Email = email
			payload.Password = password
		}).Return(nil)
	}

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		accounts := &MockAccounts{}
		accounts.On("GetByEmail", mock.Anything, "person@example.com").
			Return(nil, goerrors.New("not found", goerrors.CategoryNotFound))

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindLogin(ctx, "person@example.com", "secret1")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Login(ctx))
		assert.Equal(t, autorag.TextCodeInvalidCredentials, payload["code"])
	})

	t.Run("federated account without a password", func(t *testing.T) {
		accounts := &MockAccounts{}
		accounts.On("GetByEmail", mock.Anything, "person@example.com").
			Return(&autorag.Account{
				ID:            uuid.New(),
				Email:         "person@example.com",
				Provider:      autorag.ProviderGoogle,
				EmailVerified: true,
			}, nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindLogin(ctx, "person@example.com", "secret1")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Login(ctx))
		assert.Equal(t, autorag.TextCodeUseFederatedLogin, payload["code"])
	})

	t.Run("unverified email", func(t *testing.T) {
		hash, err := autorag.HashPassword("secret1")
		require.NoError(t, err)

		accounts := &MockAccounts{}
		accounts.On("GetByEmail", mock.Anything, "person@example.com").
			Return(&autorag.Account{
				ID:           uuid.New(),
				Email:        "person@example.com",
				Provider:     autorag.ProviderLocal,
				PasswordHash: hash,
			}, nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindLogin(ctx, "person@example.com", "secret1")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeForbidden, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Login(ctx))
		assert.Equal(t, autorag.TextCodeEmailNotVerified, payload["code"])
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := autorag.HashPassword("secret1")
		require.NoError(t, err)

		accounts := &MockAccounts{}
		accounts.On("GetByEmail", mock.Anything, "person@example.com").
			Return(&autorag.Account{
				ID:            uuid.New(),
				Email:         "person@example.com",
				Provider:      autorag.ProviderLocal,
				PasswordHash:  hash,
				EmailVerified: true,
			}, nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindLogin(ctx, "person@example.com", "wrong-password")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Login(ctx))
		assert.Equal(t, autorag.TextCodeInvalidCredentials, payload["code"])
	})

	t.Run("successful login returns a token", func(t *testing.T) {
		hash, err := autorag.HashPassword("secret1")
		require.NoError(t, err)

		account := &autorag.Account{
			ID:            uuid.New(),
			Name:          "Person",
			Email:         "person@example.com",
			Provider:      autorag.ProviderLocal,
			PasswordHash:  hash,
			EmailVerified: true,
		}

		accounts := &MockAccounts{}
		accounts.On("GetByEmail", mock.Anything, "person@example.com").Return(account, nil)
		accounts.On("TrackSuccessfulLogin", mock.Anything, account).Return(nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		issuer := &MockIssuer{}
		issuer.On("IssueSession", mock.Anything).Return("session-token", nil)

		controller := newTestController(repo, issuer, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindLogin(ctx, "person@example.com", "secret1")

		var payload map[string]any
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Login(ctx))

		assert.Equal(t, "session-token", payload["token"])

		user := payload["user"].(map[string]any)
		assert.Equal(t, account.ID.String(), user["id"])
		assert.Equal(t, "person@example.com", user["email"])

		accounts.AssertExpectations(t)
		issuer.AssertExpectations(t)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()

		var payload map[string]any
		ctx.On("JSON", router.StatusBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.VerifyEmail(ctx))
		assert.Equal(t, autorag.TextCodeValidationFailed, payload["code"])
	})

	t.Run("invalid token reports the catalog error", func(t *testing.T) {
		verifier := &MockVerifier{}
		verifier.On("Redeem", mock.Anything, "bad-token").
			Return(nil, autorag.ErrInvalidVerificationToken)

		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, verifier)

		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "bad-token"
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.VerifyEmail(ctx))
		assert.Equal(t, autorag.TextCodeInvalidToken, payload["code"])
	})

	t.Run("redeems and redirects with a session", func(t *testing.T) {
		account := &autorag.Account{
			ID:            uuid.New(),
			Email:         "person@example.com",
			EmailVerified: true,
		}

		verifier := &MockVerifier{}
		verifier.On("Redeem", mock.Anything, "verify-token").Return(account, nil)

		issuer := &MockIssuer{}
		issuer.On("IssueSession", mock.Anything).Return("session token", nil)

		accounts := &MockAccounts{}
		accounts.On("TrackSuccessfulLogin", mock.Anything, account).Return(nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, issuer, verifier,
			autorag.WithControllerPublicBaseURL("https://app.example.com"),
		)

		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "verify-token"
		ctx.On("Context").Return(context.Background())

		var redirectURL string
		ctx.On("Redirect", mock.Anything, []int{http.StatusFound}).Run(func(args mock.Arguments) {
			redirectURL = args.Get(0).(string)
		}).Return(nil)

		require.NoError(t, controller.VerifyEmail(ctx))

		assert.Equal(t, "https://app.example.com/pages/features.html?token=session+token", redirectURL)

		verifier.AssertExpectations(t)
		accounts.AssertExpectations(t)
	})
}

func TestMe(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Me(ctx))
		assert.Equal(t, autorag.TextCodeTokenMissing, payload["code"])
	})

	t.Run("returns the session account", func(t *testing.T) {
		account := &autorag.Account{
			ID:            uuid.New(),
			Name:          "Person",
			Email:         "person@example.com",
			EmailVerified: true,
		}

		accounts := &MockAccounts{}
		accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: account.ID.String(), email: account.Email}
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Me(ctx))

		user := payload["user"].(map[string]any)
		assert.Equal(t, account.ID.String(), user["id"])
		assert.Equal(t, "person@example.com", user["email"])
	})

	t.Run("stale session account", func(t *testing.T) {
		accounts := &MockAccounts{}
		accounts.On("GetByID", mock.Anything, mock.Anything).
			Return(nil, goerrors.New("not found", goerrors.CategoryNotFound))

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: uuid.NewString()}
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeNotFound, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Me(ctx))
		assert.Equal(t, autorag.TextCodeAccountNotFound, payload["code"])
	})
}

func TestContact(t *testing.T) {
	runInTx := func(repo *MockRepositoryManager) {
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) {
				fn := args.Get(2).(func(context.Context, bun.Tx) error)
				var tx bun.Tx
				_ = fn(args.Get(0).(context.Context), tx)
			})
	}

	bindContact := func(ctx *router.MockContext, message string) {
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.ContactPayload)
			payload.FullName = "Person"
			payload.Company = "Acme"
			payload.Message = message
		}).Return(nil)
	}

	t.Run("requires a session", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Contact(ctx))
		assert.Equal(t, autorag.TextCodeTokenMissing, payload["code"])
	})

	t.Run("stores and delivers the submission", func(t *testing.T) {
		stored := &autorag.Contact{
			ID:      uuid.New(),
			Email:   "person@example.com",
			Message: "Hello",
		}

		contacts := &MockContacts{}
		contacts.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(stored, nil)
		contacts.On("Update", mock.Anything, stored).Return(stored, nil)

		repo := &MockRepositoryManager{}
		repo.On("Contacts").Return(contacts)
		runInTx(repo)

		notifier := &MockNotifier{}
		notifier.On("SendContact", mock.Anything, "Person", "Acme", "person@example.com", "Hello").
			Return(nil)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{},
			autorag.WithControllerNotifier(notifier),
		)

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: uuid.NewString(), email: "person@example.com"}
		ctx.On("Context").Return(context.Background())
		bindContact(ctx, "Hello")

		var payload map[string]any
		ctx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Contact(ctx))

		assert.Equal(t, true, payload["ok"])
		assert.True(t, stored.Delivered)

		notifier.AssertExpectations(t)
		contacts.AssertExpectations(t)
	})

	t.Run("notification failure reports a gateway error", func(t *testing.T) {
		stored := &autorag.Contact{ID: uuid.New(), Message: "Hello"}

		contacts := &MockContacts{}
		contacts.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(stored, nil)

		repo := &MockRepositoryManager{}
		repo.On("Contacts").Return(contacts)
		runInTx(repo)

		notifier := &MockNotifier{}
		notifier.On("SendContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp down"))

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{},
			autorag.WithControllerNotifier(notifier),
		)

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: uuid.NewString(), email: "person@example.com"}
		ctx.On("Context").Return(context.Background())
		bindContact(ctx, "Hello")

		var payload map[string]any
		ctx.On("JSON", http.StatusBadGateway, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Contact(ctx))

		assert.Equal(t, "Failed to deliver contact message", payload["error"])
		assert.False(t, stored.Delivered)
	})
}

func TestListDocuments(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Return(nil)

		require.NoError(t, controller.ListDocuments(ctx))
	})

	t.Run("lists the account documents", func(t *testing.T) {
		accountID := uuid.New()
		docs := []*autorag.Document{
			{ID: uuid.New(), AccountID: accountID, Title: "First", Status: autorag.DocumentStatusProcessed},
			{ID: uuid.New(), AccountID: accountID, Title: "Second", Status: autorag.DocumentStatusProcessing},
		}

		documents := &MockDocuments{}
		documents.On("ListByAccount", mock.Anything, accountID).Return(docs, nil)

		repo := &MockRepositoryManager{}
		repo.On("Documents").Return(documents)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: accountID.String()}
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ListDocuments(ctx))

		out := payload["documents"].([]map[string]any)
		require.Len(t, out, 2)
		assert.Equal(t, "First", out[0]["title"])
		assert.Equal(t, "Second", out[1]["title"])
	})
}

func TestCreateDocument(t *testing.T) {
	t.Run("rejects a missing title", func(t *testing.T) {
		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: uuid.NewString()}
		ctx.On("Bind", mock.Anything).Return(nil)

		var payload map[string]any
		ctx.On("JSON", router.StatusBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.CreateDocument(ctx))

		assert.Equal(t, "title is required", payload["error"])
		assert.Equal(t, autorag.TextCodeValidationFailed, payload["code"])
	})

	t.Run("registers a document with a default status", func(t *testing.T) {
		accountID := uuid.New()

		documents := &MockDocuments{}
		documents.On("Create", mock.Anything, mock.MatchedBy(func(doc *autorag.Document) bool {
			return doc.AccountID == accountID &&
				doc.Title == "Report" &&
				doc.Status == autorag.DocumentStatusProcessed
		})).Return(&autorag.Document{
			ID:        uuid.New(),
			AccountID: accountID,
			Title:     "Report",
			Status:    autorag.DocumentStatusProcessed,
		}, nil)

		repo := &MockRepositoryManager{}
		repo.On("Documents").Return(documents)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = sessionStub{accountID: accountID.String()}
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.DocumentPayload)
			payload.Title = "Report"
		}).Return(nil)

		var payload map[string]any
		ctx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.CreateDocument(ctx))

		doc := payload["document"].(map[string]any)
		assert.Equal(t, "Report", doc["title"])
		assert.Equal(t, autorag.DocumentStatusProcessed, doc["status"])

		documents.AssertExpectations(t)
	})
}

func TestSignup(t *testing.T) {
	t.Run("creates an account and reports the email status", func(t *testing.T) {
		registered := &autorag.Account{
			ID:       uuid.New(),
			Name:     "Person",
			Email:    "person@example.com",
			Provider: autorag.ProviderLocal,
		}

		accounts := &MockAccounts{}
		accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).Return(registered, nil)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) {
				fn := args.Get(2).(func(context.Context, bun.Tx) error)
				var tx bun.Tx
				_ = fn(args.Get(0).(context.Context), tx)
			})

		notifier := &MockNotifier{}
		notifier.On("SendVerification", mock.Anything, "person@example.com", "Person", mock.Anything).
			Return(nil)

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{},
			autorag.WithControllerNotifier(notifier),
		)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.SignupPayload)
			payload.Name = "Person"
			payload.Email = "person@example.com"
			payload.Password = "secret1"
		}).Return(nil)

		var payload map[string]any
		ctx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Signup(ctx))

		assert.Equal(t, true, payload["ok"])
		assert.Equal(t, true, payload["requires_verification"])
		assert.Equal(t, true, payload["email_sent"])

		user := payload["user"].(map[string]any)
		assert.Equal(t, "person@example.com", user["email"])

		notifier.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces the conflict", func(t *testing.T) {
		accounts := &MockAccounts{}
		accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, autorag.ErrDuplicateEmail)

		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accounts)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(autorag.ErrDuplicateEmail).
			Run(func(args mock.Arguments) {
				fn := args.Get(2).(func(context.Context, bun.Tx) error)
				var tx bun.Tx
				_ = fn(args.Get(0).(context.Context), tx)
			})

		controller := newTestController(repo, &MockIssuer{}, &MockVerifier{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.SignupPayload)
			payload.Email = "person@example.com"
			payload.Password = "secret1"
		}).Return(nil)

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeConflict, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.Signup(ctx))
		assert.Equal(t, autorag.TextCodeDuplicateEmail, payload["code"])
	})
}

func TestResendVerification(t *testing.T) {
	bindResend := func(ctx *router.MockContext, email string) {
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*autorag.ResendVerificationPayload)
			payload.Email = email
		}).Return(nil)
	}

	t.Run("unknown account", func(t *testing.T) {
		verifier := &MockVerifier{}
		verifier.On("Reissue", mock.Anything, "person@example.com").
			Return(nil, "", autorag.ErrAccountNotFound)

		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, verifier)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindResend(ctx, "person@example.com")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeNotFound, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ResendVerification(ctx))
		assert.Equal(t, autorag.TextCodeAccountNotFound, payload["code"])
	})

	t.Run("already verified", func(t *testing.T) {
		verifier := &MockVerifier{}
		verifier.On("Reissue", mock.Anything, "person@example.com").
			Return(nil, "", autorag.ErrAlreadyVerified)

		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, verifier)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindResend(ctx, "person@example.com")

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ResendVerification(ctx))
		assert.Equal(t, autorag.TextCodeAlreadyVerified, payload["code"])
	})

	t.Run("reissues and resends", func(t *testing.T) {
		account := &autorag.Account{
			ID:    uuid.New(),
			Name:  "Person",
			Email: "person@example.com",
		}

		verifier := &MockVerifier{}
		verifier.On("Reissue", mock.Anything, "person@example.com").
			Return(account, "fresh-token", nil)

		notifier := &MockNotifier{}
		notifier.On("SendVerification", mock.Anything, "person@example.com", "Person", "fresh-token").
			Return(nil)

		controller := newTestController(&MockRepositoryManager{}, &MockIssuer{}, verifier,
			autorag.WithControllerNotifier(notifier),
		)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		bindResend(ctx, "person@example.com")

		var payload map[string]any
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ResendVerification(ctx))

		assert.Equal(t, true, payload["ok"])
		assert.Equal(t, true, payload["email_sent"])

		notifier.AssertExpectations(t)
	})
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		out := autorag.FormatValidationErrorToMap(nil)
		assert.Empty(t, out)
	})

	t.Run("flattens field errors", func(t *testing.T) {
		err := autorag.SignupPayload{Email: "nope"}.Validate()
		require.Error(t, err)

		out := autorag.FormatValidationErrorToMap(err)
		assert.Contains(t, out, "email")
		assert.Contains(t, out, "password")
	})

	t.Run("plain errors land under payload", func(t *testing.T) {
		out := autorag.FormatValidationErrorToMap(errors.New("boom"))
		assert.Equal(t, "boom", out["payload"])
	})

	t.Run("validation errors type", func(t *testing.T) {
		verrs := validation.Errors{"field": errors.New("required")}
		out := autorag.FormatValidationErrorToMap(verrs)
		assert.Equal(t, "required", out["field"])
	})
}

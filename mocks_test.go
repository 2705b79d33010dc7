package autorag_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	autorag "github.com/nehasharma2210/AutoRag"
)

// MockRepositoryManager implements autorag.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Accounts() autorag.Accounts {
	args := m.Called()
	return args.Get(0).(autorag.Accounts)
}

func (m *MockRepositoryManager) Contacts() repository.Repository[*autorag.Contact] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*autorag.Contact])
}

func (m *MockRepositoryManager) Documents() autorag.Documents {
	args := m.Called()
	return args.Get(0).(autorag.Documents)
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

// MockAccounts overrides the Accounts methods exercised by tests. The
// embedded interface panics on anything a test did not expect to run.
type MockAccounts struct {
	mock.Mock
	autorag.Accounts
}

func (m *MockAccounts) Register(ctx context.Context, account *autorag.Account) (*autorag.Account, error) {
	args := m.Called(ctx, account)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *autorag.Account) (*autorag.Account, error) {
	args := m.Called(ctx, tx, account)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*autorag.Account, error) {
	args := m.Called(ctx, email)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*autorag.Account, error) {
	args := m.Called(ctx, id)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) SetVerification(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) (*autorag.Account, error) {
	args := m.Called(ctx, id, tokenHash, expires)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) RedeemVerification(ctx context.Context, tokenHash string) (*autorag.Account, error) {
	args := m.Called(ctx, tokenHash)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) UnifyFederated(ctx context.Context, email, subject, name string) (*autorag.Account, error) {
	args := m.Called(ctx, email, subject, name)
	return mockAccount(args), args.Error(1)
}

func (m *MockAccounts) TrackSuccessfulLogin(ctx context.Context, account *autorag.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func mockAccount(args mock.Arguments) *autorag.Account {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*autorag.Account)
}

// MockDocuments overrides the Documents methods exercised by tests.
type MockDocuments struct {
	mock.Mock
	autorag.Documents
}

func (m *MockDocuments) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*autorag.Document, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*autorag.Document), args.Error(1)
}

func (m *MockDocuments) Create(ctx context.Context, record *autorag.Document, criteria ...repository.InsertCriteria) (*autorag.Document, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autorag.Document), args.Error(1)
}

// MockContacts overrides the Contacts methods exercised by tests.
type MockContacts struct {
	mock.Mock
	repository.Repository[*autorag.Contact]
}

func (m *MockContacts) CreateTx(ctx context.Context, tx bun.IDB, record *autorag.Contact, criteria ...repository.InsertCriteria) (*autorag.Contact, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autorag.Contact), args.Error(1)
}

func (m *MockContacts) Update(ctx context.Context, record *autorag.Contact, criteria ...repository.UpdateCriteria) (*autorag.Contact, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autorag.Contact), args.Error(1)
}

// MockIssuer implements autorag.TokenIssuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssueSession(identity autorag.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockIssuer) VerifySession(token string) (autorag.Session, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(autorag.Session), args.Error(1)
}

// MockVerifier implements autorag.Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Issue(ctx context.Context, account *autorag.Account) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}

func (m *MockVerifier) Redeem(ctx context.Context, token string) (*autorag.Account, error) {
	args := m.Called(ctx, token)
	return mockAccount(args), args.Error(1)
}

func (m *MockVerifier) Reissue(ctx context.Context, email string) (*autorag.Account, string, error) {
	args := m.Called(ctx, email)
	return mockAccount(args), args.String(1), args.Error(2)
}

// MockNotifier implements autorag.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, recipient, name, token string) error {
	args := m.Called(ctx, recipient, name, token)
	return args.Error(0)
}

func (m *MockNotifier) SendContact(ctx context.Context, fullName, company, email, message string) error {
	args := m.Called(ctx, fullName, company, email, message)
	return args.Error(0)
}

// testConfig implements autorag.Config
type testConfig struct {
	signingKey    string
	signingMethod string
	contextKey    string
	expiration    int
	issuer        string
}

func (c testConfig) GetSigningKey() string    { return c.signingKey }
func (c testConfig) GetSigningMethod() string { return c.signingMethod }
func (c testConfig) GetContextKey() string    { return c.contextKey }
func (c testConfig) GetTokenExpiration() int  { return c.expiration }
func (c testConfig) GetIssuer() string        { return c.issuer }

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		contextKey: "user",
		expiration: 24,
		issuer:     "autorag-test",
	}
}

// sessionStub implements autorag.Session
type sessionStub struct {
	accountID string
	email     string
	issuedAt  *time.Time
	expires   *time.Time
}

func (s sessionStub) GetAccountID() string       { return s.accountID }
func (s sessionStub) GetEmail() string           { return s.email }
func (s sessionStub) GetIssuedAt() *time.Time    { return s.issuedAt }
func (s sessionStub) GetExpiration() *time.Time  { return s.expires }

// identityStub implements autorag.Identity
type identityStub struct {
	id    string
	email string
}

func (i identityStub) ID() string    { return i.id }
func (i identityStub) Email() string { return i.email }

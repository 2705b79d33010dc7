package autorag

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// Notifier delivers account emails. The root package does not care which
// provider ends up carrying the message.
type Notifier interface {
	SendVerification(ctx context.Context, recipient, name, token string) error
	SendContact(ctx context.Context, fullName, company, email, message string) error
}

type AccountControllerRoutes struct {
	Signup             string
	VerifyEmail        string
	ResendVerification string
	Login              string
	Me                 string
	Contact            string
	Documents          string
}

type AccountController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Issuer           TokenIssuer
	Verifier         Verifier
	Notifier         Notifier
	Routes           *AccountControllerRoutes
	ContextKey       string
	PublicBaseURL    string
	VerifiedRedirect string
	ErrorHandler     router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerIssuer(issuer TokenIssuer) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Issuer = issuer
		return c
	}
}

func WithControllerVerifier(verifier Verifier) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Verifier = verifier
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

// WithControllerPublicBaseURL sets the absolute base used when building the
// post verification redirect.
func WithControllerPublicBaseURL(base string) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.PublicBaseURL = strings.TrimRight(base, "/")
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:           defLogger{},
		ContextKey:       "user",
		VerifiedRedirect: "/pages/features.html",
		Routes: &AccountControllerRoutes{
			Signup:             "/api/auth/signup",
			VerifyEmail:        "/api/auth/verify-email",
			ResendVerification: "/api/auth/resend-verification",
			Login:              "/api/auth/login",
			Me:                 "/api/me",
			Contact:            "/api/contact",
			Documents:          "/api/documents",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.writeError
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Issuer == nil {
		panic("Missing TokenIssuer in account controller...")
	}

	if c.Verifier == nil {
		panic("Missing Verifier in account controller...")
	}

	return c
}

// RegisterAccountRoutes wires the public account endpoints. Protected routes
// go through RegisterProtectedAccountRoutes behind the session middleware.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) *AccountController {
	controller := NewAccountController(opts...)

	app.Post(controller.Routes.Signup, controller.Signup).SetName("auth.signup")
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).SetName("auth.verify-email")
	app.Post(controller.Routes.ResendVerification, controller.ResendVerification).SetName("auth.resend-verification")
	app.Post(controller.Routes.Login, controller.Login).SetName("auth.login")

	return controller
}

// RegisterProtectedAccountRoutes wires the routes that need a session. The
// middleware runs before each handler.
func RegisterProtectedAccountRoutes[T any](app router.Router[T], controller *AccountController, protected router.MiddlewareFunc) {
	app.Get(controller.Routes.Me, controller.Me, protected).SetName("account.me")
	app.Post(controller.Routes.Contact, controller.Contact, protected).SetName("contact.post")
	app.Get(controller.Routes.Documents, controller.ListDocuments, protected).SetName("documents.list")
	app.Post(controller.Routes.Documents, controller.CreateDocument, protected).SetName("documents.create")
}

// SignupPayload is the signup request body
type SignupPayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountController) Signup(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(payload))
	}

	var resp *SignupResponse

	signup := NewSignupHandler(a.Repo)
	err := signup.Execute(ctx.Context(), SignupMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(r *SignupResponse) {
			resp = r
		},
	})

	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	emailSent := a.sendVerification(ctx.Context(), resp.Account, resp.Token)

	return ctx.JSON(router.StatusCreated, map[string]any{
		"ok":                    true,
		"requires_verification": true,
		"email_sent":            emailSent,
		"user":                  resp.Account.Public(),
	})
}

// VerifyEmail redeems the token from the verification link. A successful
// redemption logs the account straight in, the browser lands on the app
// with a session token in the query string.
func (a *AccountController) VerifyEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.validationFailed(ctx, goerrors.New("token query parameter is required", goerrors.CategoryValidation))
	}

	account, err := a.Verifier.Redeem(ctx.Context(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	session, err := a.Issuer.IssueSession(NewIdentity(account))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Accounts().TrackSuccessfulLogin(ctx.Context(), account); err != nil {
		a.Logger.Error("track login", "error", err)
	}

	return ctx.Redirect(a.verifiedURL(session), http.StatusFound)
}

func (a *AccountController) verifiedURL(session string) string {
	target := a.VerifiedRedirect
	if a.PublicBaseURL != "" {
		target = a.PublicBaseURL + target
	}
	return target + "?token=" + url.QueryEscape(session)
}

// ResendVerificationPayload is the resend request body
type ResendVerificationPayload struct {
	Email string `form:"email" json:"email"`
}

func (r ResendVerificationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountController) ResendVerification(ctx router.Context) error {
	payload := new(ResendVerificationPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	var resp *ResendVerificationResponse

	resend := NewResendVerificationHandler(a.Verifier)
	err := resend.Execute(ctx.Context(), ResendVerificationMessage{
		Email: payload.Email,
		OnResponse: func(r *ResendVerificationResponse) {
			resp = r
		},
	})

	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if !resp.Found {
		return a.ErrorHandler(ctx, ErrAccountNotFound)
	}

	if resp.AlreadyVerified {
		return a.ErrorHandler(ctx, ErrAlreadyVerified)
	}

	emailSent := a.sendVerification(ctx.Context(), resp.Account, resp.Token)

	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":         true,
		"email_sent": emailSent,
	})
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) Login(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return a.ErrorHandler(ctx, ErrInvalidCredentials)
		}
		return a.ErrorHandler(ctx, err)
	}

	// Federated accounts have no local password to check against.
	if account.Provider == ProviderGoogle && account.PasswordHash == "" {
		return a.ErrorHandler(ctx, ErrUseFederatedLogin)
	}

	if !account.EmailVerified {
		return a.ErrorHandler(ctx, ErrEmailNotVerified)
	}

	if account.PasswordHash == "" {
		return a.ErrorHandler(ctx, ErrInvalidCredentials)
	}

	if err := ComparePasswordAndHash(payload.Password, account.PasswordHash); err != nil {
		return a.ErrorHandler(ctx, ErrInvalidCredentials)
	}

	token, err := a.Issuer.IssueSession(NewIdentity(account))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Accounts().TrackSuccessfulLogin(ctx.Context(), account); err != nil {
		a.Logger.Error("track login", "error", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user":  account.Public(),
	})
}

// Me returns the account behind the current session. It expects the session
// middleware to have run.
func (a *AccountController) Me(ctx router.Context) error {
	session, ok := GetRouterSession(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	account, err := a.Repo.Accounts().GetByID(ctx.Context(), session.GetAccountID())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return a.ErrorHandler(ctx, ErrAccountNotFound)
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": account.Public(),
	})
}

// ContactPayload is the contact form body. The sender identity comes from the
// session, not the payload.
type ContactPayload struct {
	FullName string `form:"full_name" json:"full_name"`
	Company  string `form:"company" json:"company"`
	Message  string `form:"message" json:"message"`
}

func (r ContactPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Company, validation.Length(0, 200)),
		validation.Field(&r.Message, validation.Required, validation.Length(1, 5000)),
	)
}

func (a *AccountController) Contact(ctx router.Context) error {
	session, ok := GetRouterSession(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	payload := new(ContactPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	var resp *ContactSubmissionResponse

	submit := NewContactSubmissionHandler(a.Repo)
	err := submit.Execute(ctx.Context(), ContactSubmissionMessage{
		FullName: payload.FullName,
		Company:  payload.Company,
		Email:    session.GetEmail(),
		Message:  payload.Message,
		OnResponse: func(r *ContactSubmissionResponse) {
			resp = r
		},
	})

	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Notifier != nil {
		err := a.Notifier.SendContact(
			ctx.Context(),
			payload.FullName,
			payload.Company,
			session.GetEmail(),
			payload.Message,
		)
		if err != nil {
			a.Logger.Error("contact notification failed", "error", err)
			return ctx.JSON(http.StatusBadGateway, map[string]any{
				"error": "Failed to deliver contact message",
			})
		}

		if err := submit.MarkDelivered(ctx.Context(), resp.Contact); err != nil {
			a.Logger.Error("mark contact delivered", "error", err)
		}
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"ok": true,
	})
}

func (a *AccountController) ListDocuments(ctx router.Context) error {
	session, ok := GetRouterSession(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	accountID, err := uuid.Parse(session.GetAccountID())
	if err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	documents, err := a.Repo.Documents().ListByAccount(ctx.Context(), accountID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	out := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		out = append(out, doc.Public())
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"documents": out,
	})
}

// DocumentPayload is the document registration body
type DocumentPayload struct {
	Title   string `form:"title" json:"title"`
	DocType string `form:"doc_type" json:"doc_type"`
	Pages   int    `form:"pages" json:"pages"`
	Status  string `form:"status" json:"status"`
}

func (r DocumentPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.DocType, validation.Length(0, 100)),
		validation.Field(&r.Pages, validation.Min(0)),
		validation.Field(&r.Status, validation.In(
			DocumentStatusProcessed,
			DocumentStatusProcessing,
			DocumentStatusFailed,
		)),
	)
}

func (a *AccountController) CreateDocument(ctx router.Context) error {
	session, ok := GetRouterSession(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	accountID, err := uuid.Parse(session.GetAccountID())
	if err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	payload := new(DocumentPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.badPayload(ctx, err)
	}

	if payload.Title == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "title is required",
			"code":  TextCodeValidationFailed,
		})
	}

	if err := payload.Validate(); err != nil {
		return a.validationFailed(ctx, err)
	}

	status := payload.Status
	if status == "" {
		status = DocumentStatusProcessed
	}

	document, err := a.Repo.Documents().Create(ctx.Context(), &Document{
		AccountID: accountID,
		Title:     payload.Title,
		DocType:   payload.DocType,
		Pages:     payload.Pages,
		Status:    status,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"document": document.Public(),
	})
}

func (a *AccountController) sendVerification(ctx context.Context, account *Account, token string) bool {
	if a.Notifier == nil || account == nil {
		return false
	}

	if err := a.Notifier.SendVerification(ctx, account.Email, account.Name, token); err != nil {
		a.Logger.Error("verification notification failed", "account", account.ID, "error", err)
		return false
	}

	return true
}

func (a *AccountController) badPayload(ctx router.Context, err error) error {
	a.Logger.Error("parse payload", "error", err)
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error": "Invalid request body",
		"code":  TextCodeValidationFailed,
	})
}

func (a *AccountController) validationFailed(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":  "Validation failed",
		"code":   TextCodeValidationFailed,
		"errors": FormatValidationErrorToMap(err),
	})
}

func (a *AccountController) writeError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"request error",
		"code", richErr.TextCode,
		"category", richErr.Category,
		"message", richErr.Message,
	)

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return ctx.JSON(status, body)
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}

package federated

import (
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	autorag "github.com/nehasharma2210/AutoRag"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the federated sign in HTTP routes. Every callback
// outcome is a redirect back to the frontend, with a stable error code on
// failure so the login page can explain what happened.
type HTTPController struct {
	resolver *Resolver
	config   HTTPConfig
	logger   autorag.Logger
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/api/auth/google")
	PathPrefix string

	// PublicBaseURL is the frontend origin redirects are built against.
	PublicBaseURL string

	// SuccessRedirect receives ?token= on success (default: "/pages/features.html")
	SuccessRedirect string

	// ErrorRedirect receives ?error= and ?message= on failure (default: "/pages/login.html")
	ErrorRedirect string

	// MissingSettings lists absent provider settings. When non empty the
	// routes answer 500 with the list instead of starting the flow.
	MissingSettings []string

	Logger autorag.Logger
}

// NewHTTPController creates a new federated auth HTTP controller.
func NewHTTPController(resolver *Resolver, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/auth/google"
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/pages/features.html"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/pages/login.html"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = autorag.NewDefaultLogger()
	}

	return &HTTPController{
		resolver: resolver,
		config:   cfg,
		logger:   logger,
	}
}

// RegisterRoutes registers the begin and callback routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get(c.config.PathPrefix, c.BeginAuth)
	group.Get(c.config.PathPrefix+"/callback", c.Callback)
}

// BeginAuth redirects the user agent to the provider consent screen.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	if len(c.config.MissingSettings) > 0 {
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error":   "Google OAuth is not configured",
			"missing": c.config.MissingSettings,
		})
	}

	redirect, err := c.resolver.BeginAuth(ctx.Context(), WithPrompt("select_account"))
	if err != nil {
		c.logger.Error("begin auth failed", "error", err)
		return ctx.Redirect(c.errorRedirect("auth_failed", "could not start sign in"), http.StatusTemporaryRedirect)
	}

	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback completes the flow. It never surfaces raw provider errors to the
// user agent, only the stable error codes the frontend knows.
func (c *HTTPController) Callback(ctx router.Context) error {
	if len(c.config.MissingSettings) > 0 {
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error":   "Google OAuth is not configured",
			"missing": c.config.MissingSettings,
		})
	}

	if errCode := ctx.Query("error", ""); errCode != "" {
		desc := ctx.Query("error_description", "")
		c.logger.Error("provider callback error", "code", errCode, "description", desc)
		if desc == "" {
			desc = "Google OAuth error"
		}
		return ctx.Redirect(c.errorRedirect("auth_failed", desc), http.StatusTemporaryRedirect)
	}

	code := ctx.Query("code", "")
	if code == "" {
		return ctx.Redirect(c.errorRedirect("missing_code", "Missing authorization code"), http.StatusTemporaryRedirect)
	}

	result, err := c.resolver.CompleteAuth(ctx.Context(), code, ctx.Query("state", ""))
	if err != nil {
		return c.redirectError(ctx, err)
	}

	target := appendQueryParam(c.absoluteURL(c.config.SuccessRedirect), "token", result.Token)

	return ctx.Redirect(target, http.StatusTemporaryRedirect)
}

func (c *HTTPController) redirectError(ctx router.Context, err error) error {
	code := "auth_failed"
	message := "Authentication failed"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case TextCodeMissingCode:
			code, message = "missing_code", "Missing authorization code"
		case TextCodeIdentityTokenInvalid:
			code, message = "invalid_token", "Invalid Google token"
		case TextCodeEmailNotVerified:
			code, message = "email_not_verified", "Google email not verified"
		case TextCodeAccountNotFound:
			code, message = "invalid_credentials", "No account found with this email"
		}
	}

	c.logger.Error("federated sign in failed", "code", code, "error", err)

	return ctx.Redirect(c.errorRedirect(code, message), http.StatusTemporaryRedirect)
}

func (c *HTTPController) errorRedirect(code, message string) string {
	target := appendQueryParam(c.absoluteURL(c.config.ErrorRedirect), "error", code)
	if message != "" {
		target = appendQueryParam(target, "message", message)
	}
	return target
}

func (c *HTTPController) absoluteURL(path string) string {
	base := strings.TrimRight(c.config.PublicBaseURL, "/")
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return base + path
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		query.Set(key, value)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

package compute

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-router"
	autorag "github.com/nehasharma2210/AutoRag"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the retrieval engine behind the API. Responses are
// passed through verbatim so the frontend talks one dialect regardless of
// engine version.
type HTTPController struct {
	proxy  *Proxy
	logger autorag.Logger
}

type HTTPControllerOption func(*HTTPController)

func WithControllerLogger(logger autorag.Logger) HTTPControllerOption {
	return func(c *HTTPController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewHTTPController(proxy *Proxy, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		proxy:  proxy,
		logger: autorag.NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RegisterHealthRoute wires the public health probe.
func (c *HTTPController) RegisterHealthRoute(group RouteRegistrar) {
	group.Get("/api/llm/health", c.Health).SetName("llm.health")
}

// RegisterQueryRoute wires the query endpoint behind the given middleware.
func (c *HTTPController) RegisterQueryRoute(group RouteRegistrar, mw ...router.MiddlewareFunc) {
	group.Post("/api/llm/query", c.Query, mw...).SetName("llm.query")
}

func (c *HTTPController) Health(ctx router.Context) error {
	payload, err := c.proxy.Health(ctx.Context())
	if err != nil {
		c.logger.Error("llm health check failed", "error", err)
		return ctx.JSON(http.StatusBadGateway, map[string]any{
			"ok":       false,
			"error":    "LLM backend unreachable",
			"llm_base": c.proxy.BaseURL(),
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":  true,
		"llm": payload,
	})
}

// QueryPayload is the retrieval request body.
type QueryPayload struct {
	Query      string   `form:"query" json:"query"`
	Threshold  *float64 `form:"threshold" json:"threshold"`
	MaxResults *int     `form:"max_results" json:"max_results"`
	UseHealing *bool    `form:"use_healing" json:"use_healing"`
}

func (c *HTTPController) Query(ctx router.Context) error {
	payload := new(QueryPayload)

	if err := ctx.Bind(payload); err != nil {
		c.logger.Error("parse query payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "query is required",
		})
	}

	if payload.Query == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "query is required",
		})
	}

	result, err := c.proxy.Query(ctx.Context(), QueryRequest{
		Query:      payload.Query,
		Threshold:  payload.Threshold,
		MaxResults: payload.MaxResults,
		UseHealing: payload.UseHealing,
	})
	if err != nil {
		return c.writeUpstreamError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (c *HTTPController) writeUpstreamError(ctx router.Context, err error) error {
	c.logger.Error("llm query failed", "error", err)

	body := map[string]any{
		"error":    "LLM query failed",
		"llm_base": c.proxy.BaseURL(),
	}

	status := http.StatusBadGateway

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		status = upstream.StatusCode()
		if details := upstream.Details(); details != nil {
			body["details"] = details
		}
	}

	return ctx.JSON(status, body)
}

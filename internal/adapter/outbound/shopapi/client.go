// Package shopapi is the HTTP adapter for the storefront REST API.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/unikraft-shop/storefront/internal/ctxkey"
	"github.com/unikraft-shop/storefront/internal/domain/catalog"
	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/order"
	"github.com/unikraft-shop/storefront/internal/domain/shop"
	"github.com/unikraft-shop/storefront/internal/port/outbound"
	"github.com/unikraft-shop/storefront/internal/telemetry"
)

// Endpoint names, used in logs, span names and metric labels.
const (
	EndpointLogin      = "members.login"
	EndpointSignup     = "members.signup"
	EndpointProducts   = "products.list"
	EndpointProduct    = "products.get"
	EndpointPlaceOrder = "orders.create"
	EndpointMyOrders   = "orders.mine"
)

const (
	defaultTimeout      = 10 * time.Second
	maxErrorBodySnippet = 200
)

var _ outbound.ShopAPI = (*Client)(nil)

// Client talks to the storefront REST API. It holds no session state: the
// token is passed to each authenticated call.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(telemetry.TracerName)
	}

	return c
}

// Login posts the credentials and returns the token from the response body.
// Any non-2xx answer is an authentication failure.
func (c *Client) Login(ctx context.Context, creds member.Credentials) (string, error) {
	var token string
	err := c.exchange(ctx, request{
		endpoint: EndpointLogin,
		method:   http.MethodPost,
		path:     "/api/members/login",
		body:     creds,
	}, func(r response) error {
		if !r.ok() {
			return fail(shop.ErrAuth, r.statusErr())
		}
		t, err := parseToken(r.body)
		if err != nil {
			return fail(shop.ErrAuth, err)
		}
		token = t
		return nil
	})
	return token, err
}

// Signup posts the registration. Only 201 counts as created.
func (c *Client) Signup(ctx context.Context, req member.SignupRequest) error {
	return c.exchange(ctx, request{
		endpoint: EndpointSignup,
		method:   http.MethodPost,
		path:     "/api/members/signup",
		body:     req,
	}, func(r response) error {
		if r.status != http.StatusCreated {
			return fail(shop.ErrValidation, r.statusErr())
		}
		return nil
	})
}

// ListProducts fetches the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	err := c.exchange(ctx, request{
		endpoint: EndpointProducts,
		method:   http.MethodGet,
		path:     "/api/products",
	}, func(r response) error {
		return r.decode(&products)
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := c.exchange(ctx, request{
		endpoint: EndpointProduct,
		method:   http.MethodGet,
		path:     "/api/products/" + strconv.FormatInt(id, 10),
	}, func(r response) error {
		return r.decode(&p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PlaceOrder posts an order with the bearer token. 201 is success, 403 means
// the session expired, anything else is an order failure.
func (c *Client) PlaceOrder(ctx context.Context, draft order.Draft, token string) error {
	return c.exchange(ctx, request{
		endpoint: EndpointPlaceOrder,
		method:   http.MethodPost,
		path:     "/api/orders",
		body:     draft,
		token:    token,
	}, func(r response) error {
		switch r.status {
		case http.StatusCreated:
			return nil
		case http.StatusForbidden:
			return fail(shop.ErrSessionExpired, nil)
		default:
			return fail(shop.ErrOrder, r.statusErr())
		}
	})
}

// MyOrders lists the member's orders. 403 means the session expired.
func (c *Client) MyOrders(ctx context.Context, token string) ([]order.Summary, error) {
	var orders []order.Summary
	err := c.exchange(ctx, request{
		endpoint: EndpointMyOrders,
		method:   http.MethodGet,
		path:     "/api/orders/my",
		token:    token,
	}, func(r response) error {
		if r.status == http.StatusForbidden {
			return fail(shop.ErrSessionExpired, nil)
		}
		return r.decode(&orders)
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Summary{}
	}
	return orders, nil
}

type request struct {
	endpoint string
	method   string
	path     string
	body     any
	token    string
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) statusErr() error {
	snippet := strings.TrimSpace(string(r.body))
	if len(snippet) > maxErrorBodySnippet {
		snippet = snippet[:maxErrorBodySnippet] + "..."
	}
	if snippet == "" {
		return fmt.Errorf("server returned %d", r.status)
	}
	return fmt.Errorf("server returned %d: %s", r.status, snippet)
}

// decode accepts only 2xx JSON bodies; anything else is a generic failure.
func (r response) decode(v any) error {
	if !r.ok() {
		return fail(shop.ErrGeneric, r.statusErr())
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fail(shop.ErrGeneric, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

func fail(kind, cause error) error {
	return &shop.APIError{Kind: kind, Err: cause}
}

// exchange performs one request and hands the response to handle, which
// maps it to nil or an *shop.APIError. Logging, tracing and metrics are
// recorded here once the outcome is known.
func (c *Client) exchange(ctx context.Context, req request, handle func(response) error) error {
	requestID := requestIDFromContext(ctx)
	logger := loggerFromContext(ctx, c.logger).With("request_id", requestID, "endpoint", req.endpoint)

	ctx, span := c.tracer.Start(ctx, "storefront.api."+req.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
			attribute.String("storefront.request_id", requestID),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, req, requestID)
	if err == nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
		err = handle(resp)
	}
	elapsed := time.Since(start)

	var apiErr *shop.APIError
	if errors.As(err, &apiErr) {
		apiErr.Endpoint = req.endpoint
		apiErr.RequestID = requestID
		if apiErr.Status == 0 {
			apiErr.Status = resp.status
		}
	}

	outcome := shop.Outcome(err)
	if c.metrics != nil {
		c.metrics.APIRequests.WithLabelValues(req.endpoint, outcome).Inc()
		c.metrics.APIDuration.WithLabelValues(req.endpoint).Observe(elapsed.Seconds())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.Info("api call failed", "status", resp.status, "outcome", outcome, "duration", elapsed, "error", err)
		return err
	}

	logger.Debug("api call succeeded", "status", resp.status, "duration", elapsed)
	return nil
}

// send performs the HTTP round trip. Transport failures come back as
// network errors; any response, whatever its status, is returned as is.
func (c *Client) send(ctx context.Context, req request, requestID string) (response, error) {
	var bodyReader io.Reader
	if req.body != nil {
		jsonBody, err := json.Marshal(req.body)
		if err != nil {
			return response{}, fail(shop.ErrGeneric, fmt.Errorf("failed to marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bodyReader)
	if err != nil {
		return response{}, fail(shop.ErrNetwork, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, fail(shop.ErrNetwork, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fail(shop.ErrNetwork, fmt.Errorf("failed to read response body: %w", err))
	}

	return response{status: httpResp.StatusCode, body: respBody}, nil
}

// parseToken accepts the token as plain text, a JSON string or a
// {"token": "..."} object.
func parseToken(body []byte) (string, error) {
	s := strings.TrimSpace(string(body))

	switch {
	case strings.HasPrefix(s, `"`):
		var quoted string
		if err := json.Unmarshal([]byte(s), &quoted); err == nil {
			s = quoted
		}
	case strings.HasPrefix(s, "{"):
		var obj struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			s = obj.Token
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("response carried no token")
	}
	return s, nil
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxkey.RequestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

func loggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

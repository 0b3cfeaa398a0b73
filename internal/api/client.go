// Package api implements one fetch function per REST operation of the
// reading platform. Fetch functions never touch the query cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/novelhub/readerkit/internal/i18n"
	"github.com/novelhub/readerkit/internal/token"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

const tracerName = "github.com/novelhub/readerkit/internal/api"

type Client struct {
	baseURL string
	http    *http.Client
	tokens  token.Store
	locale  language.Tag
	tracer  trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLocale(tag language.Tag) Option {
	return func(c *Client) { c.locale = tag }
}

// NewClient returns a client for the API at baseURL. tokens may be nil, in
// which case every request is unauthenticated.
func NewClient(baseURL string, tokens token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		tokens: tokens,
		locale: i18n.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// token returns the current bearer token, if any.
func (c *Client) token(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Get(ctx)
}

// do sends req and decodes a 2xx JSON answer into out. Any other outcome is
// returned as *Error.
func (c *Client) do(ctx context.Context, req request, out any) error {
	ctx, span := c.tracer.Start(ctx, req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
		),
	)
	defer span.End()

	err := c.send(ctx, req, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, req request, out any, span trace.Span) error {
	// req.path is already escaped.
	u, err := url.Parse(c.baseURL + req.path)
	if err != nil {
		return err
	}
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Language", c.locale.String())
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if tok, ok := c.token(ctx); ok {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Error{
			Kind:    KindNetwork,
			Method:  req.method,
			Path:    req.path,
			Message: i18n.Text(c.locale, i18n.NetworkError),
			Cause:   err,
		}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Kind:    KindNetwork,
			Status:  resp.StatusCode,
			Method:  req.method,
			Path:    req.path,
			Message: i18n.Text(c.locale, i18n.NetworkError),
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := messageFromBody(payload)
		switch {
		case msg != "":
		case resp.StatusCode == http.StatusUnauthorized:
			msg = i18n.Text(c.locale, i18n.Unauthorized)
		default:
			msg = i18n.Text(c.locale, i18n.GenericError)
		}
		return &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Method:  req.method,
			Path:    req.path,
			Message: msg,
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Method:  req.method,
			Path:    req.path,
			Message: i18n.Text(c.locale, i18n.GenericError),
			Cause:   fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

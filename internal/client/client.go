// Package client talks to the onboarding and discovery REST services.
// Every response is an envelope; failures surface as *models.APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/schemascope/core/internal/metrics"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	serviceOnboarding = "onboarding"
	serviceDiscovery  = "discovery"

	maxBodyBytes = 32 << 20
)

var tracer = otel.Tracer("schemascope/client")

type Config struct {
	OnboardingURL string
	DiscoveryURL  string
	Timeout       time.Duration
}

type Client struct {
	http       *http.Client
	onboarding string
	discovery  string
	logger     *slog.Logger

	connections singleflight.Group
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		onboarding: strings.TrimRight(cfg.OnboardingURL, "/"),
		discovery:  strings.TrimRight(cfg.DiscoveryURL, "/"),
		logger:     logger.With("component", "client"),
	}
}

// ListConnections returns the onboarded connections. Concurrent callers
// share one upstream request, which runs detached from any single caller so
// one caller going away does not fail the others. Each caller waits on its
// own ctx and gets its own copy of the list.
func (c *Client) ListConnections(ctx context.Context) ([]models.Connection, error) {
	res := c.connections.DoChan("connections", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		return call[[]models.Connection](shared, c, serviceOnboarding, "list_connections", http.MethodGet, c.onboarding+"/connections", nil)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to call list_connections: %w", ctx.Err())
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			c.logger.Debug("connection list shared with a concurrent caller")
		}
		return slices.Clone(r.Val.([]models.Connection)), nil
	}
}

func (c *Client) GetConnection(ctx context.Context, id string) (models.Connection, error) {
	return call[models.Connection](ctx, c, serviceOnboarding, "get_connection", http.MethodGet,
		c.onboarding+"/connections/"+url.PathEscape(id), nil)
}

func (c *Client) TestConnection(ctx context.Context, id string) (models.ConnectionTestResult, error) {
	return call[models.ConnectionTestResult](ctx, c, serviceOnboarding, "test_connection", http.MethodPost,
		c.onboarding+"/connections/"+url.PathEscape(id)+"/test", nil)
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, serviceOnboarding, "delete_connection", http.MethodDelete,
		c.onboarding+"/connections/"+url.PathEscape(id), nil)
	return err
}

// TriggerDiscovery asks the onboarding service to start metadata discovery.
func (c *Client) TriggerDiscovery(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, serviceOnboarding, "trigger_discovery", http.MethodPost,
		c.onboarding+"/connections/"+url.PathEscape(id)+"/discover", nil)
	return err
}

func (c *Client) DiscoveryStatus(ctx context.Context, id string) (models.DiscoveryProgress, error) {
	return call[models.DiscoveryProgress](ctx, c, serviceOnboarding, "discovery_status", http.MethodGet,
		c.onboarding+"/connections/"+url.PathEscape(id)+"/discover/status", nil)
}

func (c *Client) OnboardingHealth(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, serviceOnboarding, "health", http.MethodGet, c.onboarding+"/health", nil)
	return err
}

// SchemaGraph fetches the metadata graph of a connection.
func (c *Client) SchemaGraph(ctx context.Context, cfg models.ConnectionConfig, q models.GraphQuery) (models.GraphData, error) {
	endpoint := c.discovery + "/graph/schema/" + url.PathEscape(cfg.ConnectionID) + "?" + q.Values().Encode()
	return c.graph(ctx, "schema_graph", endpoint, cfg)
}

// TableGraph fetches the graph around one table. An empty owner is omitted.
func (c *Client) TableGraph(ctx context.Context, cfg models.ConnectionConfig, owner, table string, includeColumns, includeConstraints bool) (models.GraphData, error) {
	v := url.Values{}
	if owner != "" {
		v.Set("owner", owner)
	}
	v.Set("includeColumns", fmt.Sprint(includeColumns))
	v.Set("includeConstraints", fmt.Sprint(includeConstraints))
	endpoint := c.discovery + "/graph/table/" + url.PathEscape(cfg.ConnectionID) + "/" + url.PathEscape(table) + "?" + v.Encode()
	return c.graph(ctx, "table_graph", endpoint, cfg)
}

// GraphMetadata returns the discovery service's own counts for a schema
// graph without transferring it.
func (c *Client) GraphMetadata(ctx context.Context, cfg models.ConnectionConfig, schemas []string) (models.GraphStats, error) {
	v := url.Values{}
	for _, s := range schemas {
		v.Add("schemas", s)
	}
	endpoint := c.discovery + "/graph/metadata/" + url.PathEscape(cfg.ConnectionID)
	if len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	return call[models.GraphStats](ctx, c, serviceDiscovery, "graph_metadata", http.MethodPost, endpoint, cfg)
}

// TestConfig checks credentials against the discovery service. Any failure
// reads as an invalid connection.
func (c *Client) TestConfig(ctx context.Context, cfg models.ConnectionConfig) (bool, error) {
	res, err := call[models.ConnectionTestResult](ctx, c, serviceDiscovery, "test_config", http.MethodPost,
		c.discovery+"/test-connection", cfg)
	if err != nil {
		return false, err
	}
	return res.ConnectionValid, nil
}

func (c *Client) DiscoveryHealth(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, serviceDiscovery, "health", http.MethodGet, c.discovery+"/health", nil)
	return err
}

func (c *Client) graph(ctx context.Context, op, endpoint string, cfg models.ConnectionConfig) (models.GraphData, error) {
	raw, err := call[json.RawMessage](ctx, c, serviceDiscovery, op, http.MethodPost, endpoint, cfg)
	if err != nil {
		return models.GraphData{}, err
	}
	graph, err := parser.ParseGraph(raw)
	if err != nil {
		return models.GraphData{}, fmt.Errorf("failed to decode %s: %w", op, err)
	}
	return *graph, nil
}

// call performs one request and unwraps the envelope. Non-2xx statuses
// become *models.APIError, using the envelope message when there is one.
func call[T any](ctx context.Context, c *Client, service, op, method, endpoint string, body any) (T, error) {
	var zero T
	ctx, span := tracer.Start(ctx, "Client."+op, trace.WithAttributes(
		attribute.String("upstream.service", service),
		attribute.String("http.method", method),
	))
	defer span.End()

	start := time.Now()
	result := "ok"
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(service, op, result).Observe(time.Since(start).Seconds())
	}()

	fail := func(err error) (T, error) {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("upstream call failed", "service", service, "operation", op, "error", err)
		return zero, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(fmt.Errorf("failed to encode %s request: %w", op, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fail(fmt.Errorf("failed to build %s request: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to call %s: %w", op, err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(fmt.Errorf("failed to read %s response: %w", op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &models.APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env models.Envelope[json.RawMessage]
		if json.Unmarshal(data, &env) == nil && env.Message != "" {
			apiErr.Message = env.Message
			apiErr.ErrorCode = env.ErrorCode
		}
		return fail(apiErr)
	}

	out, err := parser.ParseEnvelope[T](data)
	if err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) {
			apiErr.Status = resp.StatusCode
		}
		return fail(err)
	}
	return out, nil
}

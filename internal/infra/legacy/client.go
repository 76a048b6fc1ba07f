// Package legacy fetches records from the legacy books HTTP API and
// normalizes them. Every failure it returns is a *downstream.Error,
// whether it came from transport, an upstream status code or validation.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
	"github.com/vietddude/legacybooks/internal/core/transform"
	"github.com/vietddude/legacybooks/internal/metrics"
)

const serviceName = "legacy-books"

// maxBodyBytes caps how much of a legacy response is read.
const maxBodyBytes = 4 << 20

// maxStoreFetches bounds concurrent store lookups for one book.
const maxStoreFetches = 4

// RejectSink receives payloads that failed validation.
type RejectSink interface {
	Reject(ctx context.Context, entity domain.Entity, source string, err *downstream.Error, payload []byte)
}

// HealthStatus represents the health state of the legacy API as seen by
// this client. Validation failures do not count against it.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	Requests      int           `json:"requests"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// Client talks to one legacy books endpoint.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	sink       RejectSink
	stores     *StoreCache

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewClient creates a client for the legacy API rooted at baseURL.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
}

// WithRejectSink registers a sink for payloads that fail validation.
func (c *Client) WithRejectSink(sink RejectSink) *Client {
	c.sink = sink
	return c
}

// WithStoreCache caches fetched stores for ttl across FetchBookWithStores
// calls. A non-positive ttl disables the cache.
func (c *Client) WithStoreCache(ttl time.Duration) *Client {
	if ttl > 0 {
		c.stores = NewStoreCache(c.FetchStore, ttl)
	}
	return c
}

// FetchBook fetches a book and all of its listings.
func (c *Client) FetchBook(ctx context.Context, isbn string) (domain.Book, error) {
	const op = "fetchBookByIsbn"

	body, opCtx, err := c.get(ctx, op, "/books/"+url.PathEscape(isbn))
	if err != nil {
		return domain.Book{}, c.fail(op, err)
	}

	var raw domain.BookResponse
	if err := decodeBody(body, &raw, opCtx); err != nil {
		c.reject(ctx, domain.EntityBook, isbn, err, body)
		return domain.Book{}, c.fail(op, err)
	}

	book, err := transform.TransformBook(raw)
	if err != nil {
		c.reject(ctx, domain.EntityBook, isbn, err, body)
		return domain.Book{}, c.fail(op, err)
	}

	metrics.TransformTotal.WithLabelValues(string(domain.EntityBook), "ok").Inc()
	return book, nil
}

// FetchStore fetches a single store.
func (c *Client) FetchStore(ctx context.Context, id string) (domain.Store, error) {
	const op = "fetchStoreById"

	body, opCtx, err := c.get(ctx, op, "/stores/"+url.PathEscape(id))
	if err != nil {
		return domain.Store{}, c.fail(op, err)
	}

	var raw domain.StoreResponse
	if err := decodeBody(body, &raw, opCtx); err != nil {
		c.reject(ctx, domain.EntityStore, id, err, body)
		return domain.Store{}, c.fail(op, err)
	}

	store, err := transform.TransformStore(raw)
	if err != nil {
		c.reject(ctx, domain.EntityStore, id, err, body)
		return domain.Store{}, c.fail(op, err)
	}

	metrics.TransformTotal.WithLabelValues(string(domain.EntityStore), "ok").Inc()
	return store, nil
}

// FetchBookWithStores fetches a book and joins each listing with its store.
// Distinct stores are fetched concurrently, each at most once per call and
// not at all when still in the store cache. Any failure aborts the whole
// result.
func (c *Client) FetchBookWithStores(ctx context.Context, isbn string) ([]domain.ListingWithStore, error) {
	book, err := c.FetchBook(ctx, isbn)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, l := range book.Listings {
		if !seen[l.StoreID] {
			seen[l.StoreID] = true
			ids = append(ids, l.StoreID)
		}
	}

	fetched := make([]domain.Store, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStoreFetches)
	for i, id := range ids {
		g.Go(func() error {
			s, err := c.store(gctx, id)
			if err != nil {
				return err
			}
			fetched[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stores := make(map[string]domain.Store, len(ids))
	for i, id := range ids {
		stores[id] = fetched[i]
	}

	out := make([]domain.ListingWithStore, 0, len(book.Listings))
	for _, l := range book.Listings {
		joined, err := transform.AttachStore(l, stores[l.StoreID])
		if err != nil {
			return nil, c.fail("fetchBookWithStores", err)
		}
		out = append(out, joined)
	}
	return out, nil
}

func (c *Client) store(ctx context.Context, id string) (domain.Store, error) {
	if c.stores != nil {
		return c.stores.Get(ctx, id)
	}
	return c.FetchStore(ctx, id)
}

// Name returns the endpoint name.
func (c *Client) Name() string {
	return c.name
}

// Health returns the client's view of the legacy API.
func (c *Client) Health() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// IsAvailable reports whether the legacy API looks healthy.
func (c *Client) IsAvailable() bool {
	return c.Health().Available
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op, path string) ([]byte, downstream.Context, error) {
	endpoint := c.baseURL + path
	opCtx := downstream.Context{
		"service":   serviceName,
		"operation": op,
		"url":       endpoint,
	}

	start := time.Now()
	defer func() {
		metrics.HTTPLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, opCtx, downstream.ClassifyUnknown(fmt.Errorf("create request: %w", err), opCtx)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordTransportFailure(err)
		return nil, opCtx, classifyTransport(err, opCtx)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		// Only upstream-side errors count against availability.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout {
			c.recordFailure()
		} else {
			c.recordSuccess(time.Since(start))
		}
		return nil, opCtx, downstream.ClassifyHTTPStatus(resp.StatusCode, opCtx)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordTransportFailure(err)
		return nil, opCtx, classifyTransport(fmt.Errorf("read response: %w", err), opCtx)
	}

	c.recordSuccess(time.Since(start))
	return body, opCtx, nil
}

func decodeBody(body []byte, v any, opCtx downstream.Context) *downstream.Error {
	if err := json.Unmarshal(body, v); err != nil {
		ctx := downstream.Context{"field": "$body"}
		for k, val := range opCtx {
			ctx[k] = val
		}
		return downstream.New(downstream.KindInvalidPayload,
			downstream.WithCause(fmt.Errorf("parse response: %w", err)),
			downstream.WithContext(ctx),
		)
	}
	return nil
}

// classifyTransport maps a failed round trip onto the taxonomy. Deadlines
// and network timeouts are retryable timeouts; anything else is unexpected.
func classifyTransport(err error, opCtx downstream.Context) *downstream.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return downstream.New(downstream.KindTimeout,
			downstream.WithCause(err),
			downstream.WithContext(opCtx),
			downstream.WithRetryable(true),
		)
	}
	return downstream.ClassifyUnknown(err, opCtx)
}

// fail records the classified error and returns it.
func (c *Client) fail(op string, err error) error {
	de := downstream.ClassifyUnknown(err, downstream.Context{"service": serviceName, "operation": op})
	metrics.DownstreamErrorsTotal.WithLabelValues(op, string(de.Kind())).Inc()
	return de
}

func (c *Client) reject(ctx context.Context, entity domain.Entity, source string, err error, payload []byte) {
	metrics.TransformTotal.WithLabelValues(string(entity), "rejected").Inc()
	if c.sink == nil {
		return
	}
	if de, ok := downstream.As(err); ok {
		c.sink.Reject(ctx, entity, source, de, payload)
	}
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.requestCount++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Requests = c.requestCount
	c.health.Available = true

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}
	if c.successCount > 0 {
		c.health.Latency = c.totalLatency / time.Duration(c.successCount)
	}
}

// recordTransportFailure counts a failed round trip against availability.
// Requests abandoned by the caller, including siblings canceled after one
// store lookup failed, say nothing about the legacy API and are skipped.
func (c *Client) recordTransportFailure(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.recordFailure()
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.requestCount++
	c.health.LastFailureAt = time.Now()
	c.health.Requests = c.requestCount

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}

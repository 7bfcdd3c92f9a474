// Package httptransport sends airtable requests over HTTP.
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/time/rate"

	"github.com/joeandaverde/airtable"
	"github.com/joeandaverde/airtable/internal/metrics"
)

const (
	DefaultEndpoint = "https://api.airtable.com/v0"
	DefaultTimeout  = 30 * time.Second
)

// Config describes how to reach the store.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration

	// RequestsPerSecond throttles requests on the client side. The hosted
	// store allows 5 per second per base. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	UserAgent string

	// HTTPClient replaces the default client when set. Timeout is ignored
	// in that case.
	HTTPClient *http.Client
}

// Transport implements airtable.Transport.
type Transport struct {
	endpoint  string
	apiKey    string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

func New(log logrus.FieldLogger, cfg Config) *Transport {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "airtable-go"
	}

	return &Transport{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		client:    client,
		limiter:   limiter,
		log:       log,
	}
}

// Send performs a single HTTP request. Any response that arrives is
// returned as is, whatever its status.
func (t *Transport) Send(ctx context.Context, req *airtable.Request) (*airtable.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(req.Method, t.url(req), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if t.limiter != nil {
		waitStart := time.Now()
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		metrics.RateLimitWait.Observe(time.Since(waitStart).Seconds())
	}

	log := t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.Path,
	})

	started := time.Now()
	resp, err := ctxhttp.Do(ctx, t.client, httpReq)
	if err != nil {
		metrics.ObserveRequest(req.Method, 0, started)
		log.WithError(err).Debug("request failed")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveRequest(req.Method, 0, started)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	metrics.ObserveRequest(req.Method, resp.StatusCode, started)
	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started),
	}).Debug("request complete")

	return &airtable.Response{
		Status: resp.StatusCode,
		Body:   data,
	}, nil
}

// url joins the endpoint and path and appends the params in their order.
func (t *Transport) url(req *airtable.Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if len(req.Params) == 0 {
		return t.endpoint + path
	}

	pairs := make([]string, 0, len(req.Params))
	for _, p := range req.Params {
		pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return t.endpoint + path + "?" + strings.Join(pairs, "&")
}

var _ airtable.Transport = (*Transport)(nil)

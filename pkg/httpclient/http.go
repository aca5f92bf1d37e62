package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	cbconf "github.com/microscopium/microscopium/pkg/circuitbreaker"
	"github.com/microscopium/microscopium/pkg/circuitbreaker/failsafecb"
	"github.com/microscopium/microscopium/pkg/metric"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	defaultDialTimeout      = 30000 // in milliseconds
	defaultKeepAliveTimeout = 30000 // in milliseconds
	defaultTimeout          = 10000 // in milliseconds
)

// Config describes an outbound HTTP client, typically one per remote image host.
type Config struct {
	Name        string
	TimeoutInMs int
	CBConfig    *cbconf.Config
}

type Client struct {
	name   string
	client *http.Client
	cb     *failsafecb.FailSafeCB[[]byte]
}

// NewClient builds a pooled HTTP client with otel instrumentation and a
// circuit breaker in front of it.
func NewClient(config Config) *Client {
	timeout := config.TimeoutInMs
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cbConfig := config.CBConfig
	if cbConfig == nil {
		cbConfig = cbconf.DefaultConfig(config.Name)
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   time.Duration(defaultDialTimeout) * time.Millisecond,
			KeepAlive: time.Duration(defaultKeepAliveTimeout) * time.Millisecond,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
	}
	return &Client{
		name: config.Name,
		client: &http.Client{
			Timeout:   time.Duration(timeout) * time.Millisecond,
			Transport: otelhttp.NewTransport(transport),
		},
		cb: failsafecb.NewFailSafe[[]byte](cbConfig),
	}
}

// Get fetches url and returns the response body. Non-2xx statuses are errors
// and count against the breaker.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	startTime := time.Now()
	tags := []string{metric.TagAsString("client", c.name)}
	metric.Incr("http_client_request", tags)
	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		metric.Incr("http_client_request_failure", tags)
		return nil, err
	}
	metric.Timing("http_client_request_latency", time.Since(startTime), tags)
	return body, nil
}

package common

import (
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	metrics "github.com/evdnx/gotrademetrics"
)

// HTTPMetricsCollector adapts gotrademetrics to gohttpcl's MetricsCollector
// interface so every exchange request, retry and latency sample is recorded
// under the exchange's name.
type HTTPMetricsCollector struct {
	metrics *metrics.Metrics
	service string
}

// NewHTTPMetricsCollector returns a collector for the given exchange, or
// nil when metrics are disabled.
func NewHTTPMetricsCollector(m *metrics.Metrics, service string) *HTTPMetricsCollector {
	if m == nil {
		return nil
	}
	service = strings.TrimSpace(service)
	if service == "" {
		service = "http_client"
	}
	return &HTTPMetricsCollector{metrics: m, service: service}
}

// IncRequests records an outgoing request.
func (c *HTTPMetricsCollector) IncRequests(method, target string) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.RecordAPIRequest(c.service, endpointLabel(method, target))
}

// IncRetries records a retry attempt.
func (c *HTTPMetricsCollector) IncRetries(method, target string, attempt int) {
	if c == nil || c.metrics == nil {
		return
	}
	if attempt == 1 {
		c.metrics.RecordRetryRequest()
	}
	c.metrics.RecordRetryAttempt()
}

// IncFailures records a failed request.
func (c *HTTPMetricsCollector) IncFailures(method, target string, statusCode int) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.RecordAPIError(c.service, failureReason(statusCode))
}

// ObserveLatency records request duration.
func (c *HTTPMetricsCollector) ObserveLatency(method, target string, duration time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	label := endpointLabel(method, target)
	seconds := duration.Seconds()
	c.metrics.RecordAPILatency(c.service, label, seconds)
	c.metrics.RecordAPIRequestDuration(c.service, label, seconds)
}

func failureReason(statusCode int) metrics.Reason {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return metrics.ReasonRateLimit
	case statusCode >= http.StatusInternalServerError:
		return metrics.ReasonInternal
	case statusCode <= 0:
		return metrics.ReasonNetworkError
	default:
		return metrics.ReasonAPIError
	}
}

func endpointLabel(method, rawTarget string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	endpoint := sanitizeTarget(rawTarget)
	if method == "" {
		return endpoint
	}
	if endpoint == "" {
		return method
	}
	return method + " " + endpoint
}

func sanitizeTarget(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return raw
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	var b strings.Builder
	b.WriteString(u.Host)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(path)
	return b.String()
}

package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/evdnx/gohttpcl"
	"github.com/evdnx/golog"
	metrics "github.com/evdnx/gotrademetrics"

	common "github.com/evdnx/goxchange/exchange/common"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxRetries  = 2

	httpComponent = "exchange_http"
)

// newHTTPClient builds the retrying HTTP client every adapter shares. The
// retry budget and backoff settings mirror what the exchanges tolerate
// without tripping their rate limits.
func newHTTPClient(timeout time.Duration, maxRetries int, m *metrics.Metrics, service string) *gohttpcl.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	opts := []gohttpcl.Option{
		gohttpcl.WithMaxRetries(maxRetries),
		gohttpcl.WithMinBackoff(150 * time.Millisecond),
		gohttpcl.WithMaxBackoff(15 * time.Second),
		gohttpcl.WithBackoffFactor(2.0),
		gohttpcl.WithBackoffStrategy(gohttpcl.BackoffExponential),
		gohttpcl.WithRetryBudget(0.2, time.Minute),
		gohttpcl.WithTimeout(timeout),
	}
	if collector := common.NewHTTPMetricsCollector(m, service); collector != nil {
		opts = append(opts, gohttpcl.WithMetrics(collector))
	}
	return gohttpcl.New(opts...)
}

func headerOptions(headers map[string]string) []gohttpcl.ReqOption {
	if len(headers) == 0 {
		return nil
	}
	options := make([]gohttpcl.ReqOption, 0, len(headers))
	for k, v := range headers {
		options = append(options, gohttpcl.WithHeader(k, v))
	}
	return options
}

// doRequest performs a single HTTP round trip and maps transport and status
// failures onto the error taxonomy. A timeout surfaces as its own kind so
// callers can tell "exchange said no" from "exchange never answered".
func doRequest(client *gohttpcl.Client, ctx context.Context, method, target string, body []byte, headers map[string]string, timeout time.Duration) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	options := headerOptions(headers)
	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = client.Get(ctx, target, timeout, nil, options...)
	case http.MethodPost:
		resp, err = client.Post(ctx, target, bytes.NewReader(body), timeout, nil, options...)
	default:
		return nil, fmt.Errorf("unsupported HTTP method %s", method)
	}
	if err != nil {
		if isTimeout(err) {
			common.DefaultLogger().Warn("Request timed out",
				golog.String("component", httpComponent),
				golog.String("method", method),
				golog.String("target", target))
			return nil, common.NewTimeoutError(fmt.Sprintf("%s %s timed out", method, target), err)
		}
		common.DefaultLogger().Error("Request failed",
			golog.String("component", httpComponent),
			golog.String("method", method),
			golog.String("target", target),
			golog.String("error", err.Error()))
		return nil, err
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		common.DefaultLogger().Error("Failed to read response body",
			golog.String("component", httpComponent),
			golog.String("target", target),
			golog.String("error", readErr.Error()))
		return nil, readErr
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		common.DefaultLogger().Warn("Request rejected",
			golog.String("component", httpComponent),
			golog.String("method", method),
			golog.String("target", target),
			golog.Int("status", resp.StatusCode))
		return nil, common.NewExchangeHTTPError(resp.StatusCode, payload, string(payload))
	}
	return payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// decodeJSON unmarshals a payload preserving numeric exactness: numbers
// stay json.Number until they are cast to decimal.
func decodeJSON(payload []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return common.NewParsingError("could not decode JSON response", err, payload)
	}
	return nil
}

// checkEmbeddedError detects the error payloads some exchanges embed in a
// 200 response: a non-empty "error" value, an "error_code", or an explicit
// "result": false.
func checkEmbeddedError(exchangeName string, payload []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		// non-object payloads (arrays) carry no embedded error envelope
		return nil
	}
	if raw, ok := probe["error"]; ok && !emptyJSONValue(raw) {
		return common.NewUpstreamError(exchangeName, payload)
	}
	if raw, ok := probe["error_code"]; ok && !emptyJSONValue(raw) {
		return common.NewUpstreamError(exchangeName, payload)
	}
	if raw, ok := probe["result"]; ok && string(raw) == "false" {
		return common.NewUpstreamError(exchangeName, payload)
	}
	return nil
}

func emptyJSONValue(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "[]", "{}", `""`, "0", "false":
		return true
	}
	return false
}

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"geekhub/internal/metrics"
	"geekhub/models"
)

const maxResponseBytes = 8 << 20

// getJSON performs a GET through the provider's breaker and decodes the
// body into dest. Every failure is returned as *UpstreamError.
func getJSON(ctx context.Context, httpc *http.Client, breaker *gobreaker.CircuitBreaker[[]byte], provider models.Provider, operation, endpoint string, header http.Header, dest any) error {
	start := time.Now()
	body, err := breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, &UpstreamError{Provider: provider, Status: http.StatusBadGateway, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		for k, vals := range header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
		resp, err := httpc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &UpstreamError{Provider: provider, Status: http.StatusBadGateway, Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, &UpstreamError{Provider: provider, Status: resp.StatusCode}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, &UpstreamError{Provider: provider, Status: http.StatusBadGateway, Err: err}
		}
		return data, nil
	})
	if err != nil {
		outcome := "error"
		if isBreakerRejection(err) {
			outcome = "rejected"
			err = &UpstreamError{Provider: provider, Status: http.StatusServiceUnavailable, Err: err}
		} else if upstream, ok := err.(*UpstreamError); ok && upstream.Err == nil {
			outcome = "http_error"
		}
		metrics.RecordProviderRequest(string(provider), operation, outcome, time.Since(start))
		return err
	}
	metrics.RecordProviderRequest(string(provider), operation, "ok", time.Since(start))

	if err := json.Unmarshal(body, dest); err != nil {
		return &UpstreamError{Provider: provider, Status: http.StatusBadGateway, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

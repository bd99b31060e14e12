package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
)

// Policy bounds the retry envelope around every CRM exchange.
type Policy struct {
	Retries  uint64
	MinDelay time.Duration
	MaxDelay time.Duration
}

// PolicyFromConfig lifts the CRM_* retry settings into a Policy.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		Retries:  uint64(cfg.CRMHTTPRetries),
		MinDelay: cfg.CRMRetryMinDelay(),
		MaxDelay: cfg.CRMRetryMaxDelay(),
	}
}

// response is the terminal outcome of one envelope run: a 2xx or a
// non-retryable 4xx, body fully read. Retryable conditions never produce a
// response; they produce an error after the attempt budget is spent.
type response struct {
	status int
	body   []byte
}

// bodies larger than this are cut off; the CRM never legitimately sends more.
const maxBodyBytes = 4 << 20

// doJSON posts one JSON payload under the retry envelope.
//
// Retryable: transport errors (timeouts included), HTTP 429 and any 5xx.
// Everything else (2xx and the remaining 4xx) terminates the envelope and
// is returned for the operation to interpret. A cancelled context aborts
// between attempts immediately.
func (g *Gateway) doJSON(ctx context.Context, operation, path string, payload any) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("op=crm.%s: marshal request: %w", operation, err)
	}

	lg := obsctx.LoggerFromContext(ctx)
	var out *response
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			observability.ObserveCRMRetry(operation)
		}
		// Fresh deadline and fresh body reader per attempt.
		actx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(actx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := g.hc.Do(req)
		if err != nil {
			lg.Warn("crm attempt failed", slog.String("operation", operation), slog.Int("attempt", attempt), slog.Any("error", err))
			return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			lg.Warn("crm body read failed", slog.String("operation", operation), slog.Int("attempt", attempt), slog.Any("error", err))
			return fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lg.Warn("crm rate limited", slog.String("operation", operation), slog.Int("attempt", attempt))
			return fmt.Errorf("%w: status 429", domain.ErrRateLimited)
		}
		if resp.StatusCode >= 500 {
			lg.Warn("crm server error", slog.String("operation", operation), slog.Int("status", resp.StatusCode), slog.Int("attempt", attempt))
			return fmt.Errorf("%w: status %d", domain.ErrCRMUnavailable, resp.StatusCode)
		}

		out = &response{status: resp.StatusCode, body: data}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = g.policy.MinDelay
	expo.MaxInterval = g.policy.MaxDelay
	expo.MaxElapsedTime = 0 // the attempt budget bounds the loop, not wall time
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, g.policy.Retries), ctx)

	start := time.Now()
	err = backoff.Retry(op, bo)
	observability.ObserveCRM(operation, statusClass(out, err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("op=crm.%s: %w", operation, err)
	}
	return out, nil
}

func statusClass(resp *response, err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "429"
	case errors.Is(err, domain.ErrCRMUnavailable):
		return "5xx"
	case err != nil:
		return "network"
	case resp.status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

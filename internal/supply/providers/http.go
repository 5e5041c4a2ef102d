package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/briculinos/voyana/internal/types"
)

const maxResponseBytes = 4 << 20

// doJSON performs a request and decodes a JSON body into out, mapping HTTP
// failures onto the shared error taxonomy so the aggregator's retry logic can
// tell transient from terminal failures.
func doJSON(ctx context.Context, client *http.Client, req *http.Request, provider string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return types.NewRetryableError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: request failed: %v", provider, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.NewRetryableError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: reading response: %v", provider, err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return types.NewError(types.PROVIDER_UNAUTHORIZED, types.StageSupply,
			fmt.Sprintf("%s: credentials rejected (%d)", provider, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return types.NewRetryableError(types.PROVIDER_RATE_LIMITED, types.StageSupply,
			fmt.Sprintf("%s: rate limited", provider))
	case resp.StatusCode >= 500:
		return types.NewRetryableError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: upstream error %d", provider, resp.StatusCode))
	default:
		return types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: unexpected status %d: %s", provider, resp.StatusCode, truncate(body, 200)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: malformed response: %v", provider, err))
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, base string, query url.Values, headers http.Header, provider string, out any) error {
	u, err := url.Parse(base)
	if err != nil {
		return types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: bad endpoint: %v", provider, err))
	}
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("%s: building request: %v", provider, err))
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return doJSON(ctx, client, req, provider, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

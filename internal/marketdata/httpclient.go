package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const userAgent = "paper-trading/1.0"

// jsonClient is the shared GET-JSON client for the HTTP provider tiers. A
// single retry with backoff covers the transient cases (network error, 429,
// 5xx); anything still failing after that is the provider's problem and the
// chain moves on.
type jsonClient struct {
	client   *http.Client
	pipeline failsafe.Executor[*http.Response]
}

func newJSONClient(timeout time.Duration) *jsonClient {
	retry := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		}).
		WithBackoff(500*time.Millisecond, 2*time.Second).
		WithMaxRetries(1).
		Build()

	return &jsonClient{
		client:   &http.Client{Timeout: timeout},
		pipeline: failsafe.With[*http.Response](retry),
	}
}

// getJSON fetches url and decodes the body into out. Non-200 responses are
// errors; 429 maps to ErrRateLimited so the chain can report the tier as
// throttled rather than broken.
func (c *jsonClient) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.pipeline.GetWithExecution(func(_ failsafe.Execution[*http.Response]) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return c.client.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: http 429", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

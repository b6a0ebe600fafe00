package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// HTTPOracle calls an external narrative service over HTTP. The response
// body is treated as untrusted and runs through ParseInsight.
type HTTPOracle struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPOracle creates an oracle client for the given base URL
func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Generate implements contracts.NarrativeOracle
func (o *HTTPOracle) Generate(ctx context.Context, prompt contracts.NarrativePrompt) (*models.Insight, error) {
	payload, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding prompt: %v", models.ErrNarrativeUnavailable, err)
	}

	url := o.baseURL + "/v1/insights"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", models.ErrNarrativeUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNarrativeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: oracle returned status %d", models.ErrNarrativeUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", models.ErrNarrativeUnavailable, err)
	}

	return ParseInsight(raw, prompt.Intel.HasDraw)
}

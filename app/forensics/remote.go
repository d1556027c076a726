package forensics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxReplySize = 1 << 20

// RemoteAnalyzer delegates scoring to an HTTP service that accepts the image
// as the request body and replies with a JSON verdict.
type RemoteAnalyzer struct {
	httpClient *http.Client
	endpoint   string
}

func NewRemoteAnalyzer(httpClient *http.Client, endpoint string) *RemoteAnalyzer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &RemoteAnalyzer{httpClient: httpClient, endpoint: endpoint}
}

func (a *RemoteAnalyzer) Analyze(ctx context.Context, image []byte) (*Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var verdict Verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplySize)).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}

	if verdict.Label == "" {
		verdict.Label = LabelForScore(verdict.TrustScore)
	}
	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verdict: %w", err)
	}

	return &verdict, nil
}

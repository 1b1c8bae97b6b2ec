package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// doJSON posts a JSON body and decodes a JSON response, translating every
// failure into the shared error taxonomy. headers are set verbatim on the
// request.
func doJSON(ctx context.Context, client *http.Client, providerName string, capability Capability, timeout time.Duration, url string, headers map[string]string, reqBody, respBody interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return BadResponseError(providerName, capability, fmt.Errorf("failed to marshal request: %w", err))
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return BadResponseError(providerName, capability, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return WrapHTTPError(providerName, capability, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WrapHTTPError(providerName, capability, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusError(providerName, capability, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return BadResponseError(providerName, capability, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/mo"
)

// RelayClient implements the clients.RelayClient interface against the backend
// that receives the OAuth callback and holds the token until the client asks for it
type RelayClient struct {
	httpClient *http.Client
	apiDomain  string
}

type accessTokenRequest struct {
	State string `json:"state"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func NewRelayClient(apiDomain string) *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiDomain:  strings.TrimRight(apiDomain, "/"),
	}
}

// ExchangeState asks the relay for the token bound to state.
// A response without accessToken means the user has not authorized yet.
func (c *RelayClient) ExchangeState(ctx context.Context, state string) (mo.Option[string], error) {
	body, err := json.Marshal(accessTokenRequest{State: state})
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiDomain+"/access-token", bytes.NewReader(body))
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to exchange state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return mo.None[string](), fmt.Errorf("relay error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return mo.None[string](), fmt.Errorf("failed to decode response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return mo.None[string](), nil
	}
	return mo.Some(tokenResp.AccessToken), nil
}

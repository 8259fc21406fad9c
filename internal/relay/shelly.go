package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wan_failover/internal/logger"
)

// Controller commands the backup power relay. SetState is idempotent:
// commanding a state the device already holds still reports success.
type Controller interface {
	SetState(ctx context.Context, on bool) error
	Status(ctx context.Context) (bool, error)
}

// Shelly Gen2 switch RPC. The plug exposes a single switch with id 0.
const switchID = 0

// ShellyClient talks to a Shelly smart plug over its local RPC endpoint.
type ShellyClient struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewShellyClient(baseURL string, timeout time.Duration, log *logger.Logger) *ShellyClient {
	return &ShellyClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetState commands the plug on or off. Transport failures surface as
// errors; the caller decides whether and when to retry.
func (c *ShellyClient) SetState(ctx context.Context, on bool) error {
	payload := map[string]any{"id": switchID, "on": on}
	if err := c.rpc(ctx, "Switch.Set", payload, nil); err != nil {
		return fmt.Errorf("shelly Switch.Set: %w", err)
	}
	if c.log != nil {
		c.log.Infow("relay commanded", "on", on)
	}
	return nil
}

// Status returns the plug's live output state.
func (c *ShellyClient) Status(ctx context.Context) (bool, error) {
	var result struct {
		Output bool `json:"output"`
	}
	payload := map[string]any{"id": switchID}
	if err := c.rpc(ctx, "Switch.GetStatus", payload, &result); err != nil {
		return false, fmt.Errorf("shelly Switch.GetStatus: %w", err)
	}
	return result.Output, nil
}

func (c *ShellyClient) rpc(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := c.baseURL + "/rpc/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

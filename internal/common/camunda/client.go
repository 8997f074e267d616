// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dishprice-workers/internal/common/errors"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/retry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	Retry                  retry.Policy
}

// DefaultConnectPolicy is used while the broker is still coming up.
var DefaultConnectPolicy = retry.Policy{
	MaxAttempts: 10,
	Backoff:     2 * time.Second,
}

// NewClient creates a plaintext client with default settings.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
	})
}

// NewClientWithConfig creates a client and verifies the broker answers a
// topology request.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, mapZeebeError(fmt.Errorf("broker at %s: %w", config.GatewayAddress, err), "connect")
	}

	return &Client{
		client: zeebeClient,
		config: config,
	}, nil
}

// Connect keeps trying NewClientWithConfig under the configured policy. Only
// transient failures are retried.
func Connect(ctx context.Context, config *ClientConfig, log logger.Logger) (*Client, error) {
	policy := config.Retry
	if policy.MaxAttempts < 1 {
		policy = DefaultConnectPolicy
	}

	client, outcome := retry.Do(ctx, policy, func(attempt int, err error) {
		log.Warn("Zeebe connection failed, retrying", map[string]interface{}{
			"gateway":     config.GatewayAddress,
			"attempt":     attempt,
			"maxAttempts": policy.MaxAttempts,
			"error":       err.Error(),
		})
	}, func(ctx context.Context) (*Client, error) {
		return NewClientWithConfig(config)
	})
	if outcome.State != retry.Succeeded {
		return nil, fmt.Errorf("zeebe connection failed after %d attempts: %w", outcome.Attempts, outcome.Err)
	}
	return client, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck performs a topology request against the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError converts broker errors into standard errors so the retry
// machine can tell transient failures apart.
func mapZeebeError(err error, operation string) error {
	if isRetryableZeebeError(err) {
		return errors.NewTransientNetworkError("zeebe", operation, err)
	}
	return errors.Normalize(err)
}

// Package sources defines the contract every delivery-platform client
// implements and the retry plumbing they share.
package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/common/errors"
	httpclient "dishprice-workers/internal/common/http"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/metrics"
	"dishprice-workers/internal/common/retry"
	"dishprice-workers/internal/models"
)

const (
	OperationSearch = "search"
	OperationMenu   = "menu"
)

// Client fetches candidate restaurants and menus from one platform. Both
// operations fail soft: an exhausted operation returns an empty value.
type Client interface {
	Name() string
	SearchRestaurants(ctx context.Context, coord models.Coordinate, dish string) []models.CandidateRestaurant
	GetMenu(ctx context.Context, restaurantID string, coord models.Coordinate) models.Menu
}

// Settings is the per-client configuration fixed at construction.
type Settings struct {
	Name        string
	BaseURL     string
	Policy      retry.Policy
	ResultLimit int
	HTTP        httpclient.Options
}

// SettingsFromConfig converts a config section. ResultLimit is capped at
// config.MaxResultLimit.
func SettingsFromConfig(cfg config.SourceConfig) Settings {
	limit := cfg.ResultLimit
	if limit <= 0 || limit > config.MaxResultLimit {
		limit = config.MaxResultLimit
	}
	return Settings{
		Name:    cfg.DisplayName,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     config.GetDuration(cfg.Backoff),
		},
		ResultLimit: limit,
		HTTP: httpclient.Options{
			Source:    cfg.DisplayName,
			Timeout:   config.GetDuration(cfg.Timeout),
			UserAgent: cfg.UserAgent,
			RateLimit: cfg.RateLimit,
			RateBurst: cfg.RateBurst,
		},
	}
}

// NewHTTPClient builds the rate-limited HTTP client for these settings.
func (s Settings) NewHTTPClient() *httpclient.Client {
	opts := s.HTTP
	if opts.Source == "" {
		opts.Source = s.Name
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return httpclient.NewSourceClient(opts)
}

// Limit truncates a candidate list to the configured result limit.
func (s Settings) Limit(in []models.CandidateRestaurant) []models.CandidateRestaurant {
	if s.ResultLimit > 0 && len(in) > s.ResultLimit {
		return in[:s.ResultLimit]
	}
	return in
}

// EscapeQuery escapes a dish for a query string, encoding spaces as %20.
func EscapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Run executes op under the client's retry policy, logging each failed attempt
// and recording per-attempt outcomes.
func Run[T any](ctx context.Context, log logger.Logger, s Settings, operation string, op func(ctx context.Context) (T, error)) (T, retry.Outcome) {
	log = log.With(map[string]interface{}{
		"source":      s.Name,
		"operation":   operation,
		"maxAttempts": s.Policy.MaxAttempts,
	})

	observer := func(attempt int, err error) {
		log.Warn("Source attempt failed", map[string]interface{}{
			"attempt":   attempt,
			"errorCode": string(errors.CodeOf(err)),
			"error":     err.Error(),
		})
	}

	result, outcome := retry.Do(ctx, s.Policy, observer, func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		metrics.SourceRequests.WithLabelValues(s.Name, operation, outcomeLabel(err)).Inc()
		return v, err
	})

	if outcome.State == retry.Exhausted {
		metrics.SourceRetriesExhausted.WithLabelValues(s.Name, operation).Inc()
		stdErr := errors.NewStructuralUnavailableError(s.Name, operation, outcome.Attempts, outcome.Err)
		log.Error("Source operation exhausted", map[string]interface{}{
			"attempts":  outcome.Attempts,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}

	return result, outcome
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(errors.CodeOf(err)))
}

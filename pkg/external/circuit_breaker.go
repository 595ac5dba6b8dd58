package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/nursing-narrative-mcp-server/internal/domain"
)

// CircuitBreakerConfig represents circuit breaker and rate limit configuration
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `json:"max_requests"`
	Interval         time.Duration `json:"interval"`
	Timeout          time.Duration `json:"timeout"`
	FailureThreshold uint32        `json:"failure_threshold"`
	RateLimit        float64       `json:"rate_limit"`
	Burst            int           `json:"burst"`
}

// ResilientCompletionClient guards a completion backend with a rate limiter and a circuit breaker.
type ResilientCompletionClient struct {
	backend domain.CompletionService
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewResilientCompletionClient wraps backend.
func NewResilientCompletionClient(backend domain.CompletionService, config CircuitBreakerConfig, logger *logrus.Logger) *ResilientCompletionClient {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Burst == 0 {
		config.Burst = 1
	}

	settings := gobreaker.Settings{
		Name:        "Completion",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &ResilientCompletionClient{
		backend: backend,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		logger:  logger,
	}
}

// Complete waits for a rate limit token, then calls the backend through the breaker. Errors wrap
// domain.ErrUpstreamUnavailable.
func (r *ResilientCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait failed: %v", domain.ErrUpstreamUnavailable, err)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.backend.Complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit breaker open", domain.ErrUpstreamUnavailable)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return result.(string), nil
}

// State reports the breaker state, for health checks.
func (r *ResilientCompletionClient) State() string {
	return r.breaker.State().String()
}

// NewCompletionService builds the guarded Anthropic backend described by cfg. It returns nil when
// completion is disabled, which leaves the composer in degraded mode.
func NewCompletionService(cfg domain.CompletionConfig, logger *logrus.Logger) domain.CompletionService {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	client := NewAnthropicClient(AnthropicConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	})
	return NewResilientCompletionClient(client, CircuitBreakerConfig{
		Timeout:          cfg.OpenTimeout,
		FailureThreshold: cfg.MaxFailures,
		RateLimit:        cfg.RateLimit,
		Burst:            cfg.Burst,
	}, logger)
}

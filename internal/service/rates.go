package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/internal/gateway"
	"github.com/pishop/storefront/internal/repository"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

var (
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_quotes_total",
			Help: "Total number of delivery quotes computed, by zone",
		},
		[]string{"zone"},
	)

	quoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_quote_duration_seconds",
			Help:    "Duration of delivery quote computation including carrier latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	carrierBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carrier_circuit_breaker_state",
			Help: "Current state of the carrier circuit breaker (0=closed, 1=half-open, 2=open)",
		},
	)
)

func breakerStateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// CarrierBreakerConfig holds circuit breaker settings for the carrier gateway.
type CarrierBreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCarrierBreakerConfig returns sensible defaults for the carrier breaker.
func DefaultCarrierBreakerConfig() CarrierBreakerConfig {
	return CarrierBreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// QuoteResult is a ranked delivery quote for a destination.
type QuoteResult struct {
	QuoteID string
	Zone    domain.Zone
	Options []domain.DeliveryOption
}

// RateService computes ranked delivery quotes. The carrier call runs behind a
// per-call timeout and a circuit breaker so a slow or failing rate source
// cannot hold checkout hostage.
type RateService struct {
	providers      repository.ProviderRepository
	settings       repository.SettingsRepository
	carrier        gateway.Carrier
	breaker        *gobreaker.CircuitBreaker[[]domain.DeliveryOption]
	carrierTimeout time.Duration
	logger         *slog.Logger
}

// NewRateService creates a new rate service.
func NewRateService(
	providers repository.ProviderRepository,
	settings repository.SettingsRepository,
	carrier gateway.Carrier,
	breakerCfg CarrierBreakerConfig,
	carrierTimeout time.Duration,
	logger *slog.Logger,
) *RateService {
	settingsCB := gobreaker.Settings{
		Name:        "carrier",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breakerCfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			carrierBreakerState.Set(breakerStateToFloat(to))
		},
	}

	carrierBreakerState.Set(0)

	return &RateService{
		providers:      providers,
		settings:       settings,
		carrier:        carrier,
		breaker:        gobreaker.NewCircuitBreaker[[]domain.DeliveryOption](settingsCB),
		carrierTimeout: carrierTimeout,
		logger:         logger,
	}
}

// Quote computes a ranked delivery quote for the destination. The returned
// options are sorted ascending by price; an empty option list is a valid
// outcome (e.g. only distance-restricted providers are configured and the
// destination is far away).
func (s *RateService) Quote(ctx context.Context, dest domain.Address) (*QuoteResult, error) {
	if dest.City == "" {
		return nil, apperrors.InvalidInput("city is required")
	}
	if dest.PostalCode == "" {
		return nil, apperrors.InvalidInput("postal code is required")
	}

	start := time.Now()

	origin, err := s.settings.GetOrigin(ctx)
	if err != nil {
		return nil, fmt.Errorf("load origin: %w", err)
	}

	providers, err := s.providers.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	options, err := s.breaker.Execute(func() ([]domain.DeliveryOption, error) {
		callCtx := ctx
		if s.carrierTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.carrierTimeout)
			defer cancel()
		}
		return s.carrier.Quote(callCtx, *origin, dest, providers)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.ServiceUnavailable("delivery rates are temporarily unavailable, please retry shortly")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.ServiceUnavailable("delivery rate lookup timed out")
		}
		return nil, fmt.Errorf("carrier quote: %w", err)
	}

	zone, _ := domain.ClassifyZone(origin.PostalCode, dest.PostalCode)
	ranked := domain.RankOptions(options)

	quotesTotal.WithLabelValues(string(zone)).Inc()
	quoteDuration.Observe(time.Since(start).Seconds())

	s.logger.InfoContext(ctx, "delivery quote computed",
		slog.String("zone", string(zone)),
		slog.Int("option_count", len(ranked)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &QuoteResult{
		QuoteID: uuid.New().String(),
		Zone:    zone,
		Options: ranked,
	}, nil
}

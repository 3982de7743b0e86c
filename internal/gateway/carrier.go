package gateway

import (
	"context"
	"time"

	"github.com/pishop/storefront/internal/domain"
)

// Carrier quotes delivery options for a shipment. Implementations may call
// out to external rate APIs; the simulated one prices locally.
type Carrier interface {
	Quote(ctx context.Context, origin domain.OriginAddress, dest domain.Address, providers []domain.ProviderConfig) ([]domain.DeliveryOption, error)
}

// SimulatedCarrier computes rates in-process with an artificial latency that
// mimics a slow external rate API. The computation itself is synchronous and
// pure; only the sleep is time-dependent.
type SimulatedCarrier struct {
	latency time.Duration
	now     func() time.Time
}

// NewSimulatedCarrier creates a carrier with the given artificial latency.
func NewSimulatedCarrier(latency time.Duration) *SimulatedCarrier {
	return &SimulatedCarrier{
		latency: latency,
		now:     time.Now,
	}
}

// Quote waits the configured latency, then prices every eligible provider.
// The wait respects context cancellation so a caller-side timeout cuts the
// call short.
func (c *SimulatedCarrier) Quote(ctx context.Context, origin domain.OriginAddress, dest domain.Address, providers []domain.ProviderConfig) ([]domain.DeliveryOption, error) {
	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return domain.ComputeDeliveryOptions(origin, dest, providers, c.now().UTC()), nil
}

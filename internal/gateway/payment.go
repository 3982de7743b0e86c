package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeInput holds the parameters for charging a payment.
type ChargeInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// ChargeResult holds the outcome of a charge from the payment gateway.
type ChargeResult struct {
	PaymentRef    string
	Status        string // "succeeded" or "failed"
	FailureReason string
}

// PaymentGateway defines the interface for payment processor integrations.
type PaymentGateway interface {
	// Name returns the gateway name (e.g., "simulated", "stripe").
	Name() string

	// Charge processes a payment through the gateway.
	Charge(ctx context.Context, input *ChargeInput) (*ChargeResult, error)
}

// SimulatedPayment is a payment gateway that always succeeds, for
// development and testing.
type SimulatedPayment struct{}

// NewSimulatedPayment creates a new simulated payment gateway.
func NewSimulatedPayment() *SimulatedPayment {
	return &SimulatedPayment{}
}

// Name returns the gateway name.
func (p *SimulatedPayment) Name() string {
	return "simulated"
}

// Charge simulates a payment charge that always succeeds.
func (p *SimulatedPayment) Charge(_ context.Context, _ *ChargeInput) (*ChargeResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &ChargeResult{
		PaymentRef: "pay_" + uuid.New().String(),
		Status:     "succeeded",
	}, nil
}

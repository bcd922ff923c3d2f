// Package processor provides the outcome providers that decide whether a
// payment attempt succeeds.
package processor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ms-booking/internal/models"
)

// Outcome is a gateway decision. Reference is empty when the gateway issues
// none, in which case the ledger generates one.
type Outcome struct {
	Success   bool
	Reference string
}

type Gateway interface {
	Charge(ctx context.Context, payment *models.Payment) (Outcome, error)
}

// SimulatedGateway succeeds with probability SuccessRate.
type SimulatedGateway struct {
	SuccessRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	return NewSimulatedGatewayWithSource(successRate, rand.NewSource(time.Now().UnixNano()))
}

// NewSimulatedGatewayWithSource exists for deterministic tests.
func NewSimulatedGatewayWithSource(successRate float64, src rand.Source) *SimulatedGateway {
	return &SimulatedGateway{SuccessRate: successRate, rnd: rand.New(src)}
}

func (g *SimulatedGateway) Charge(ctx context.Context, payment *models.Payment) (Outcome, error) {
	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()
	return Outcome{Success: roll < g.SuccessRate}, nil
}

// FixedGateway always returns the same decision.
type FixedGateway struct {
	Success bool
}

func (g FixedGateway) Charge(ctx context.Context, payment *models.Payment) (Outcome, error) {
	return Outcome{Success: g.Success}, nil
}

package dispatcher

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kmutua/feedback-gateway/internal/model"
)

var (
	ErrNoHealthy = fmt.Errorf("no healthy providers")
	ErrNoAcquire = fmt.Errorf("provider not acquired")
)

// Dispatcher round-robins sends across healthy providers. A send is a
// single attempt: delivery is non-critical to the payment flow and the
// notification row records the failure instead.
type Dispatcher struct {
	providers         []Provider
	roundRobinCounter atomic.Uint64
}

func NewDispatcher(provs []Provider) *Dispatcher {
	return &Dispatcher{providers: provs}
}

func (d *Dispatcher) selectProvider() (Provider, error) {
	healthy := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if p.Ready() {
			healthy = append(healthy, p)
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	x := d.roundRobinCounter.Add(1)
	idx := int((x - 1) % uint64(len(healthy)))

	return healthy[idx], nil
}

// Send submits the SMS to one provider. Breaker gating decides which
// providers are candidates; there is no retry on failure.
func (d *Dispatcher) Send(ctx context.Context, sms model.SMS) error {
	p, err := d.selectProvider()
	if err != nil {
		return err
	}

	if !p.Acquire() {
		return ErrNoAcquire
	}

	return p.Send(ctx, sms)
}

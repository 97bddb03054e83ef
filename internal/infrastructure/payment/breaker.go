package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	paymentdomain "github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
)

const (
	defaultBreakerMaxFailures = 5
	defaultBreakerOpenTimeout = 30 * time.Second
)

// BreakerGateway guards a paymentdomain.Gateway with a circuit breaker.
// Only unavailability trips it; a declined payment is a healthy answer.
type BreakerGateway struct {
	next    paymentdomain.Gateway
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerGateway wraps next. The breaker opens after maxFailures consecutive
// unavailability errors and half-opens after openTimeout.
func NewBreakerGateway(next paymentdomain.Gateway, maxFailures uint32, openTimeout time.Duration, logger *zap.Logger) *BreakerGateway {
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "payment-" + next.Name(),
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, paymentdomain.ErrGatewayUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Name implements paymentdomain.Gateway
func (g *BreakerGateway) Name() string {
	return g.next.Name()
}

// State reports the breaker state
func (g *BreakerGateway) State() gobreaker.State {
	return g.breaker.State()
}

// CreateAuthorization implements paymentdomain.Gateway
func (g *BreakerGateway) CreateAuthorization(ctx context.Context, req *paymentdomain.AuthorizationRequest) (*paymentdomain.Authorization, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.CreateAuthorization(ctx, req)
	})
	if err != nil {
		return nil, translateBreakerError(err)
	}
	return res.(*paymentdomain.Authorization), nil
}

// CaptureAuthorization implements paymentdomain.Gateway
func (g *BreakerGateway) CaptureAuthorization(ctx context.Context, paymentID, payerID string) error {
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, g.next.CaptureAuthorization(ctx, paymentID, payerID)
	})
	return translateBreakerError(err)
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", paymentdomain.ErrGatewayUnavailable, err)
	}
	return err
}

// Ensure BreakerGateway implements paymentdomain.Gateway
var _ paymentdomain.Gateway = (*BreakerGateway)(nil)

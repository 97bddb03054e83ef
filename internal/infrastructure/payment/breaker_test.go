package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentdomain "github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
)

// scriptedGateway returns err from every call and counts them
type scriptedGateway struct {
	err   error
	calls int
}

func (g *scriptedGateway) Name() string { return "scripted" }

func (g *scriptedGateway) CreateAuthorization(context.Context, *paymentdomain.AuthorizationRequest) (*paymentdomain.Authorization, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &paymentdomain.Authorization{IntentID: "intent", ApprovalURL: "https://approve"}, nil
}

func (g *scriptedGateway) CaptureAuthorization(context.Context, string, string) error {
	g.calls++
	return g.err
}

func TestBreakerGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("passes results through", func(t *testing.T) {
		next := &scriptedGateway{}
		gw := NewBreakerGateway(next, 2, time.Minute, nil)

		auth, err := gw.CreateAuthorization(ctx, testAuthorizationRequest())
		require.NoError(t, err)
		assert.Equal(t, "intent", auth.IntentID)
		assert.NoError(t, gw.CaptureAuthorization(ctx, "intent", "payer"))
		assert.Equal(t, "scripted", gw.Name())
	})

	t.Run("opens after consecutive unavailability", func(t *testing.T) {
		next := &scriptedGateway{err: paymentdomain.ErrGatewayUnavailable}
		gw := NewBreakerGateway(next, 2, time.Minute, nil)

		for i := 0; i < 2; i++ {
			err := gw.CaptureAuthorization(ctx, "intent", "payer")
			assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
		}
		assert.Equal(t, gobreaker.StateOpen, gw.State())

		err := gw.CaptureAuthorization(ctx, "intent", "payer")
		assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)
		assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
		assert.Equal(t, 2, next.calls)
	})

	t.Run("declines do not trip the breaker", func(t *testing.T) {
		next := &scriptedGateway{err: paymentdomain.ErrCaptureFailed}
		gw := NewBreakerGateway(next, 2, time.Minute, nil)

		for i := 0; i < 5; i++ {
			err := gw.CaptureAuthorization(ctx, "intent", "payer")
			assert.ErrorIs(t, err, paymentdomain.ErrCaptureFailed)
		}
		assert.Equal(t, gobreaker.StateClosed, gw.State())
		assert.Equal(t, 5, next.calls)
	})

	t.Run("half-opens after the timeout", func(t *testing.T) {
		next := &scriptedGateway{err: paymentdomain.ErrGatewayUnavailable}
		gw := NewBreakerGateway(next, 1, 20*time.Millisecond, nil)

		_ = gw.CaptureAuthorization(ctx, "intent", "payer")
		require.Equal(t, gobreaker.StateOpen, gw.State())

		time.Sleep(40 * time.Millisecond)
		next.err = nil
		require.NoError(t, gw.CaptureAuthorization(ctx, "intent", "payer"))
		assert.Equal(t, gobreaker.StateClosed, gw.State())
	})
}

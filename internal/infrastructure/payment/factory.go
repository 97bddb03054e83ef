package payment

import (
	"fmt"

	"go.uber.org/zap"

	paymentdomain "github.com/ima-69/E-commerce-MERN-sub000/internal/domain/payment"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

// NewGateway builds the configured gateway behind a circuit breaker
func NewGateway(cfg config.PaymentConfig, logger *zap.Logger) (paymentdomain.Gateway, error) {
	var gw paymentdomain.Gateway
	switch cfg.Provider {
	case "", "sandbox":
		gw = NewSandboxGateway()
	case "paypal":
		adapter, err := NewPayPalAdapter(PayPalConfigFrom(cfg), logger)
		if err != nil {
			return nil, err
		}
		gw = adapter
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
	return NewBreakerGateway(gw, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, logger), nil
}

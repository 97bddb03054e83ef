package notification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

// Notifier is an order.Notifier that holds a transport to release on shutdown
type Notifier interface {
	order.Notifier
	Close() error
}

// New builds the notifier selected by cfg.Driver
func New(cfg config.NotificationConfig, logger *zap.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka notifier needs at least one broker")
		}
		return NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case "rabbitmq":
		return DialRabbitNotifier(cfg.RabbitURL, cfg.RabbitExchange, logger)
	default:
		return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = (*RabbitNotifier)(nil)
)

package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/DonutLine/internal/domain"
)

// publishTimeout ограничивает одну публикацию, чтобы sink не
// задерживал шину при деградировавшем брокере.
const publishTimeout = 2 * time.Second

// Notifier публикует события заказов в RabbitMQ.
//
// Реализует bus.Sink: подключается к шине событий gateway'я как
// best-effort fan-out для внешних подписчиков, которым не достался
// единственный SSE-слот. Ошибки публикации шина глотает и логирует,
// поэтому недоступный брокер не влияет на выполнение заказов.
type Notifier struct {
	conn   *Connection
	logger *slog.Logger
}

// NewNotifier создаёт Notifier поверх существующего соединения.
func NewNotifier(conn *Connection, logger *slog.Logger) *Notifier {
	return &Notifier{
		conn:   conn,
		logger: logger,
	}
}

// Name возвращает имя sink'а для логов шины.
func (n *Notifier) Name() string {
	return "rabbitmq-notify"
}

// Send публикует одно событие в exchange donutline.orders.
func (n *Notifier) Send(ev domain.Event) error {
	body, err := domain.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	routingKey := RoutingKey("order." + string(ev.Kind()))

	return n.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeOrders), // exchange
			string(routingKey),     // routing key
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				// Transient: уведомления best-effort, переживать
				// рестарт брокера им незачем
				DeliveryMode: amqp.Transient,
				MessageId:    uuid.New().String(),
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeOrders, routingKey, err)
		}

		n.logger.Debug("published notification",
			"exchange", ExchangeOrders,
			"routing_key", routingKey,
		)

		return nil
	})
}

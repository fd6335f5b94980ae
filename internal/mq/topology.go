package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeOrders — topic exchange со всеми событиями заказов.
//
// Routing key: "order.<тип события>", т.е. order.status_update,
// order.completed, order.error. Подписчики (чат-бэкенд, дашборды)
// объявляют собственные очереди и биндят их по нужной маске:
// "order.*" — всё, "order.error" — только ошибки.
const ExchangeOrders Exchange = "donutline.orders"

// SetupTopology объявляет топологию уведомлений.
//
// Очереди не объявляются: fan-out без известных заранее
// потребителей, каждый подписчик приносит свою очередь.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeOrders), // name
			"topic",                // type
			true,                   // durable
			false,                  // auto-deleted
			false,                  // internal
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeOrders, err)
		}
		return nil
	})
}

// Package mq предоставляет RabbitMQ fan-out событий заказов.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление topic exchange donutline.orders
//   - notifier.go   — Notifier, bus.Sink, публикующий каждое событие
//
// Fan-out дополняет SSE-поток gateway'я: у шины событий единственный
// локальный потребитель (SSE-дрейн), а внешние подписчики слушают
// exchange donutline.orders по маске order.*. Публикация best-effort:
// события не персистятся и недоступный брокер не влияет на заказы.
//
// Включается переменной окружения RABBITMQ_URL; без неё gateway
// работает без fan-out.
package mq

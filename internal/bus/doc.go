// Package bus реализует шину событий процесса.
//
// Шина соединяет два порта:
//   - надёжный локальный — неограниченная FIFO-очередь, которую
//     единственный подписчик вычитывает через Drain (в gateway это
//     SSE-продюсер, в worker — лог-дрейн)
//   - ненадёжные удалённые — интерфейс Sink, ошибки которого не
//     доходят до публикующего (relay до gateway, RabbitMQ fan-out,
//     Postgres-журнал)
//
// Доставка по удалённым портам — at-most-once: при отказе транспорта
// событие молча теряется, fallback — polling статуса заказа.
package bus

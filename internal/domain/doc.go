// Package domain содержит доменную модель системы заказа пончиков.
//
// Структура:
//   - order.go   — Order, OrderPhase (жизненный цикл), Flavor
//   - event.go   — GatewayEvent union (status_update / completed / error)
//     и его JSON-кодек
//   - command.go — WorkerCommand union (start_order / cancel_order /
//     shutdown) и CommandResponse
//
// Пакет не зависит от других internal-пакетов.
package domain

// Package api содержит HTTP API сервер gateway'я.
//
// Структура:
//   - handler.go        — Handler с DI (lifecycle, control client, bus, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (logging, recovery)
//   - response.go       — унифицированные JSON-ответы и обработка ошибок
//   - dto.go            — Data Transfer Objects (request/response)
//   - order_handler.go  — обработчики для /orders
//   - stream_handler.go — SSE-поток событий /events
//
// API предоставляет REST endpoints для создания, отмены и опроса
// заказов, плюс Server-Sent-Events поток всех событий заказов.
package api

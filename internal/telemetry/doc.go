// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//
// Оба процесса (gateway и worker) используют единый формат
// логирования (LOG_LEVEL, LOG_FORMAT) и экспортируют Prometheus
// метрики на /metrics endpoint.
package telemetry

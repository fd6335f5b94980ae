// DonutLine Gateway — клиентская сторона системы заказов.
//
// Gateway:
//   - Принимает HTTP-запросы на создание/отмену/опрос заказов
//   - Владеет реестром заказов и шиной событий
//   - Слушает UDS-канал событий от worker'а и применяет их к реестру
//   - Стримит события подписчику через SSE
//   - Опционально: RabbitMQ fan-out и Postgres-журнал событий
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/DonutLine/internal/api"
	"github.com/shaiso/DonutLine/internal/archive"
	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/domain"
	"github.com/shaiso/DonutLine/internal/lifecycle"
	"github.com/shaiso/DonutLine/internal/mq"
	"github.com/shaiso/DonutLine/internal/relay"
	"github.com/shaiso/DonutLine/internal/telemetry"
)

var (
	startTime     = time.Now()
	reqTotal      = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donutline_gateway_http_requests_total",
		Help: "Total HTTP requests handled by donutline-gateway",
	})
	eventsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donutline_gateway_events_relayed_total",
		Help: "Total events received from the worker over the event relay",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting donutline-gateway")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Опциональные sinks шины событий
	var sinks []bus.Sink

	// RabbitMQ fan-out уведомлений
	if mqURL := os.Getenv("RABBITMQ_URL"); mqURL != "" {
		mqConn, err := mq.NewConnection(mqURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without notification fan-out", "error", err)
		} else {
			defer mqConn.Close()

			if err := mq.SetupTopology(mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			sinks = append(sinks, mq.NewNotifier(mqConn, logger))
			logger.Info("RabbitMQ fan-out enabled", "exchange", mq.ExchangeOrders)
		}
	}

	// Postgres-журнал событий
	var history api.EventLister
	if dsn := os.Getenv("DB_URL"); dsn != "" {
		pool, err := archive.NewPool(ctx, dsn)
		if err != nil {
			logger.Warn("database not available, running without event archive", "error", err)
		} else {
			defer pool.Close()

			eventArchive := archive.NewEventArchive(pool)
			if err := eventArchive.EnsureSchema(ctx); err != nil {
				logger.Warn("failed to ensure archive schema", "error", err)
			} else {
				sinks = append(sinks, archive.NewSink(eventArchive))
				history = eventArchive
				logger.Info("event archive enabled")
			}
		}
	}

	// Реестр, шина, машина жизненного цикла
	registry := lifecycle.NewRegistry()
	eventBus := bus.New(logger, sinks...)
	manager := lifecycle.NewManager(registry, eventBus, logger)

	// Сервер канала событий: события worker'а применяются к реестру
	// и публикуются в шину (SSE, fan-out, журнал)
	eventServer := relay.NewEventServer(relay.EventServerConfig{
		SocketPath: os.Getenv("EVENT_SOCKET_PATH"),
		Handler: func(ev domain.Event) {
			eventsRelayed.Inc()
			manager.Apply(ev)
			eventBus.Publish(ev)
		},
		Logger: logger,
	})
	if err := eventServer.Start(ctx); err != nil {
		logger.Error("failed to start event server", "error", err)
		os.Exit(1)
	}
	defer eventServer.Stop()

	// Клиент управляющего канала worker'а
	control := relay.NewControlClient(os.Getenv("CONTROL_SOCKET_PATH"))

	// API handler
	handler := api.NewHandler(api.Config{
		Lifecycle: manager,
		Control:   control,
		Events:    eventBus,
		History:   history,
		Logger:    telemetry.WithComponent(logger, "api"),
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// HTTP сервер с graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("donutline-gateway stopped")
}

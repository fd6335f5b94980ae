// DonutLine Worker — процесс управления роботом.
//
// Worker:
//   - Слушает UDS-канал команд от gateway (start_order, cancel_order, shutdown)
//   - Выполняет заказы двухфазной последовательностью под
//     подтверждение оператора
//   - Публикует события фаз в локальную шину, откуда они best-effort
//     уходят gateway'ю по каналу событий
//
// Worker владеет дорогим исполнительным движком (в симуляции —
// задержками), поэтому живёт отдельно от stateless gateway'я.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/DonutLine/internal/bus"
	"github.com/shaiso/DonutLine/internal/coordinator"
	"github.com/shaiso/DonutLine/internal/lifecycle"
	"github.com/shaiso/DonutLine/internal/relay"
	"github.com/shaiso/DonutLine/internal/telemetry"
)

var eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "donutline_worker_events_published_total",
	Help: "Total events published by the worker",
})

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting donutline-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Локальная шина worker'а: каждое событие best-effort улетает
	// gateway'ю по каналу событий
	eventClient := relay.NewEventClient(os.Getenv("EVENT_SOCKET_PATH"))
	eventBus := bus.New(logger, eventClient)

	registry := lifecycle.NewRegistry()
	manager := lifecycle.NewManager(registry, eventBus, logger)

	// У локальной шины должен быть потребитель: дренируем в лог
	go func() {
		for ev := range eventBus.Drain(ctx) {
			eventsPublished.Inc()
			logger.Debug("event published", "type", ev.Kind())
		}
	}()

	// Исполнительный движок
	var engine coordinator.Engine
	switch mode := os.Getenv("ENGINE_MODE"); mode {
	case "", "sim":
		engine = &coordinator.SimEngine{
			PhaseDuration: envDuration("ENGINE_PHASE_SEC", 2*time.Second),
			Logger:        logger,
		}
	default:
		logger.Warn("unknown engine mode, falling back to sim", "mode", mode)
		engine = &coordinator.SimEngine{Logger: logger}
	}

	// Источник подтверждения оператора
	var confirmer coordinator.Confirmer
	switch mode := os.Getenv("CONFIRM_MODE"); mode {
	case "line":
		// оператор жмёт Enter в терминале worker'а
		confirmer = coordinator.NewLineConfirmer(os.Stdin)
		logger.Info("operator confirmation: stdin")
	case "", "auto":
		confirmer = &coordinator.AutoConfirmer{Delay: envDuration("CONFIRM_DELAY_SEC", 500*time.Millisecond)}
		logger.Info("operator confirmation: auto")
	default:
		logger.Warn("unknown confirm mode, falling back to auto", "mode", mode)
		confirmer = &coordinator.AutoConfirmer{}
	}

	// Координатор выполнения
	coord := coordinator.New(coordinator.Config{
		Lifecycle:      manager,
		Engine:         engine,
		Confirmer:      confirmer,
		SettleDelay:    envDuration("SETTLE_DELAY_SEC", 5*time.Second),
		ConfirmTimeout: envDuration("CONFIRM_TIMEOUT_SEC", 2*time.Minute),
		Logger:         telemetry.WithComponent(logger, "coordinator"),
	})
	if err := coord.Start(ctx); err != nil {
		logger.Error("failed to start coordinator", "error", err)
		os.Exit(1)
	}

	// Сервер управляющего канала
	controlServer := relay.NewControlServer(relay.ControlServerConfig{
		SocketPath: os.Getenv("CONTROL_SOCKET_PATH"),
		Handler:    coord.HandleCommand,
		Logger:     logger,
	})
	if err := controlServer.Start(ctx); err != nil {
		logger.Error("failed to start control server", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения или команду shutdown
	select {
	case <-ctx.Done():
	case <-coord.ShutdownRequested():
		logger.Info("shutdown command received")
	}

	controlServer.Stop()
	coord.Stop()
	logger.Info("donutline-worker stopped")
}

// envDuration читает длительность в секундах из переменной окружения.
func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}

	sec, err := strconv.ParseFloat(v, 64)
	if err != nil || sec < 0 {
		return def
	}
	return time.Duration(sec * float64(time.Second))
}

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/DonutLine/internal/domain"
	"github.com/shaiso/DonutLine/internal/lifecycle"
)

// Default configuration values.
const (
	defaultSettleDelay    = 5 * time.Second
	defaultConfirmTimeout = 2 * time.Minute
)

// Coordinator — координатор выполнения заказов на стороне worker'а.
//
// Ведёт двухфазную последовательность выполнения одного заказа:
//
//  1. PUTTING_DONUT (progress 0.5): движок укладывает пончик,
//     параллельно ждём подтверждение оператора
//  2. CLOSING_LID (progress 0.9): движок закрывает коробку,
//     снова под подтверждение
//
// Подтверждение обязательно на каждой границе фаз: если движок
// закончил раньше, всё равно ждём оператора; если подтверждение
// пришло раньше, движок просят остановиться корректно и дожидаются
// его. После каждого подтверждения — пауза settle delay, чтобы
// физическое движение успело завершиться до публикации состояния.
//
// Одновременно выполняется не более одного заказа: start_order при
// активном заказе отклоняется с busy-ошибкой. Отмена кооперативная —
// флаг (контекст заказа) проверяется на каждой точке ожидания,
// движок не прерывается принудительно.
type Coordinator struct {
	lifecycle *lifecycle.Manager
	engine    Engine
	confirmer Confirmer

	settleDelay    time.Duration
	confirmTimeout time.Duration

	logger *slog.Logger

	mu            sync.Mutex
	current       string
	cancelCurrent context.CancelFunc

	baseCtx    context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Config — конфигурация Coordinator.
type Config struct {
	// Lifecycle — машина жизненного цикла worker-процесса.
	Lifecycle *lifecycle.Manager

	// Engine — исполнительный движок.
	Engine Engine

	// Confirmer — источник подтверждения оператора.
	Confirmer Confirmer

	// SettleDelay — пауза после подтверждения (default: 5s).
	SettleDelay time.Duration

	// ConfirmTimeout — максимум ожидания подтверждения на границе
	// фазы (default: 2m). По истечении заказ уходит в ERROR.
	ConfirmTimeout time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт Coordinator.
func New(cfg Config) *Coordinator {
	settleDelay := cfg.SettleDelay
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}

	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		lifecycle:      cfg.Lifecycle,
		engine:         cfg.Engine,
		confirmer:      cfg.Confirmer,
		settleDelay:    settleDelay,
		confirmTimeout: confirmTimeout,
		logger:         logger,
		shutdownCh:     make(chan struct{}),
	}
}

// Start запускает Coordinator.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.baseCtx, c.cancelFunc = context.WithCancel(ctx)
	c.logger.Info("coordinator started",
		"settle_delay", c.settleDelay,
		"confirm_timeout", c.confirmTimeout,
	)
	return nil
}

// Stop останавливает Coordinator и дожидается текущего заказа.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("coordinator stopped")
}

// ShutdownRequested возвращает канал, закрываемый по команде shutdown.
func (c *Coordinator) ShutdownRequested() <-chan struct{} {
	return c.shutdownCh
}

// Current возвращает id заказа в работе ("" — если его нет).
func (c *Coordinator) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// HandleCommand обрабатывает команду управляющего канала.
// Используется как relay.CommandHandler.
func (c *Coordinator) HandleCommand(_ context.Context, cmd domain.WorkerCommand) domain.CommandResponse {
	switch cmd.Type {
	case domain.CommandStartOrder:
		return c.handleStart(cmd)

	case domain.CommandCancelOrder:
		return c.handleCancel(cmd)

	case domain.CommandShutdown:
		return c.handleShutdown()

	default:
		return domain.ErrorResponse(fmt.Sprintf("unknown command type %q", cmd.Type))
	}
}

// handleStart запускает выполнение нового заказа.
func (c *Coordinator) handleStart(cmd domain.WorkerCommand) domain.CommandResponse {
	if cmd.RequestID == "" {
		return domain.ErrorResponse(ErrMissingRequestID.Error())
	}
	if cmd.Flavor == "" {
		return domain.ErrorResponse(ErrMissingFlavor.Error())
	}
	if !cmd.Flavor.IsValid() {
		return domain.ErrorResponse(fmt.Sprintf("unknown flavor %q", cmd.Flavor))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseCtx == nil {
		return domain.ErrorResponse(ErrNotStarted.Error())
	}
	if c.current != "" {
		return domain.ErrorResponse(ErrBusy.Error())
	}

	orderCtx, cancel := context.WithCancel(c.baseCtx)
	c.current = cmd.RequestID
	c.cancelCurrent = cancel

	c.wg.Add(1)
	go c.runOrder(orderCtx, cmd.RequestID, cmd.Flavor)

	c.logger.Info("order execution started", "request_id", cmd.RequestID, "flavor", cmd.Flavor)
	return domain.OKResponse("order started")
}

// handleCancel отменяет текущий заказ, если id совпадает.
//
// Отмена кооперативная: отменяется контекст заказа, движок
// останавливается на следующей точке ожидания. CANCELED публикуется
// сразу, не дожидаясь остановки движка.
func (c *Coordinator) handleCancel(cmd domain.WorkerCommand) domain.CommandResponse {
	if cmd.RequestID == "" {
		return domain.ErrorResponse(ErrMissingRequestID.Error())
	}

	c.mu.Lock()
	matched := c.current == cmd.RequestID
	if matched && c.cancelCurrent != nil {
		c.cancelCurrent()
	}
	c.mu.Unlock()

	if matched {
		c.lifecycle.MarkCanceled(cmd.RequestID)
	} else {
		c.logger.Debug("cancel for inactive order", "request_id", cmd.RequestID)
	}

	return domain.OKResponse("order canceled")
}

// handleShutdown запрашивает остановку worker-процесса.
func (c *Coordinator) handleShutdown() domain.CommandResponse {
	c.mu.Lock()
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.mu.Unlock()

	c.shutdownOnce.Do(func() { close(c.shutdownCh) })

	c.logger.Info("shutdown requested")
	return domain.OKResponse("shutdown requested")
}

// runOrder выполняет всю последовательность одного заказа.
//
// Любая паника конвертируется в ERROR; указатель текущего заказа
// сбрасывается в любом исходе.
func (c *Coordinator) runOrder(ctx context.Context, requestID string, flavor domain.Flavor) {
	defer c.wg.Done()
	defer c.clearCurrent(requestID)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during order execution", "request_id", requestID, "panic", r)
			c.lifecycle.MarkError(requestID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := c.execute(ctx, requestID, flavor); err != nil {
		if errors.Is(err, context.Canceled) {
			// отмена или shutdown: терминальное событие уже опубликовано
			c.logger.Info("order execution canceled", "request_id", requestID)
			return
		}
		c.lifecycle.MarkError(requestID, err.Error())
		return
	}

	c.lifecycle.MarkCompleted(requestID)
}

// execute ведёт заказ по двухфазной последовательности.
func (c *Coordinator) execute(ctx context.Context, requestID string, flavor domain.Flavor) error {
	// Фаза 1: укладка пончика в коробку
	c.lifecycle.SetPhase(requestID, domain.PhasePuttingDonut,
		fmt.Sprintf("packing doughnuts into the box (%s)", flavor), 0.5)

	if err := c.runPhase(ctx, domain.PhasePuttingDonut, flavor); err != nil {
		return err
	}

	c.lifecycle.SetPhase(requestID, domain.PhasePuttingDonut,
		"doughnuts boxed, preparing to close the lid", 0.7)

	if err := c.settle(ctx); err != nil {
		return err
	}

	// Фаза 2: закрытие крышки
	c.lifecycle.SetPhase(requestID, domain.PhaseClosingLid, "closing the box lid", 0.9)

	if err := c.runPhase(ctx, domain.PhaseClosingLid, flavor); err != nil {
		return err
	}

	return c.settle(ctx)
}

// runPhase гоняет движок наперегонки с подтверждением оператора.
//
// Возможные исходы:
//   - подтверждение раньше движка: движку отменяют контекст
//     (корректная остановка) и дожидаются его результата
//   - движок раньше подтверждения: подтверждение всё равно
//     обязательно, ждём его
//   - подтверждение не пришло за confirmTimeout: ErrNoConfirmation
//   - контекст заказа отменён: context.Canceled
func (c *Coordinator) runPhase(ctx context.Context, phase domain.OrderPhase, flavor domain.Flavor) error {
	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()

	engineDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				engineDone <- fmt.Errorf("engine panic: %v", r)
			}
		}()
		engineDone <- c.engine.RunPhase(engineCtx, phase, flavor)
	}()

	confirmCtx, cancelConfirm := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancelConfirm()

	confirmDone := make(chan error, 1)
	go func() {
		confirmDone <- c.confirmer.Wait(confirmCtx)
	}()

	select {
	case err := <-confirmDone:
		if err != nil {
			return c.confirmFailure(ctx, phase, err)
		}
		// подтверждение раньше движка: просим остановиться и ждём
		c.logger.Info("confirmation received, stopping engine", "phase", phase)
		stopEngine()
		if err := <-engineDone; err != nil {
			return fmt.Errorf("execution engine (%s): %w", phase, err)
		}
		return nil

	case err := <-engineDone:
		if err != nil {
			return fmt.Errorf("execution engine (%s): %w", phase, err)
		}
		// движок закончил сам: подтверждение всё равно обязательно
		c.logger.Info("engine finished, waiting for confirmation", "phase", phase)
		if err := <-confirmDone; err != nil {
			return c.confirmFailure(ctx, phase, err)
		}
		return nil
	}
}

// confirmFailure различает отмену заказа и отсутствие подтверждения.
func (c *Coordinator) confirmFailure(ctx context.Context, phase domain.OrderPhase, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("phase %s finished, but %w: %v", phase, ErrNoConfirmation, err)
}

// settle выдерживает паузу после подтверждения.
func (c *Coordinator) settle(ctx context.Context) error {
	select {
	case <-time.After(c.settleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// clearCurrent сбрасывает указатель текущего заказа.
func (c *Coordinator) clearCurrent(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == requestID {
		c.current = ""
		c.cancelCurrent = nil
	}
}

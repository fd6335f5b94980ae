package coordinator

import (
	"bufio"
	"context"
	"io"
	"time"
)

// Confirmer — источник подтверждения оператора.
//
// Физически это нажатие клавиши у робота; для координатора —
// непрозрачный сигнал, обязательный на каждой границе фаз.
type Confirmer interface {
	// Wait блокируется до подтверждения или отмены контекста.
	// Возвращает ctx.Err(), если подтверждение не пришло.
	Wait(ctx context.Context) error
}

// AutoConfirmer подтверждает автоматически после фиксированной
// паузы. Используется в симуляции и тестах.
type AutoConfirmer struct {
	// Delay — пауза перед подтверждением (default: 500ms).
	Delay time.Duration
}

// Wait ждёт Delay и подтверждает.
func (c *AutoConfirmer) Wait(ctx context.Context) error {
	d := c.Delay
	if d <= 0 {
		d = 500 * time.Millisecond
	}

	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LineConfirmer подтверждает по строке из reader'а (обычно stdin
// worker-процесса: оператор жмёт Enter).
//
// Строки, пришедшие пока никто не ждёт, отбрасываются — запоздавшее
// нажатие прошлой фазы не должно подтверждать следующую.
type LineConfirmer struct {
	ch chan struct{}
}

// NewLineConfirmer создаёт LineConfirmer и запускает горутину чтения.
func NewLineConfirmer(r io.Reader) *LineConfirmer {
	c := &LineConfirmer{ch: make(chan struct{})}

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case c.ch <- struct{}{}:
			default:
				// нет ожидающего — нажатие устарело
			}
		}
	}()

	return c
}

// Wait блокируется до следующей строки или отмены контекста.
func (c *LineConfirmer) Wait(ctx context.Context) error {
	select {
	case <-c.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

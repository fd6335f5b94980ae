// Package coordinator выполняет заказы на стороне worker-процесса.
//
// # Обзор
//
// Coordinator — исполнительное ядро worker'а DonutLine. Он принимает
// команды управляющего канала (start_order, cancel_order, shutdown)
// и ведёт каждый заказ по двухфазной последовательности:
//
//  1. PUTTING_DONUT (progress 0.5) — укладка пончиков в коробку
//  2. CLOSING_LID (progress 0.9) — закрытие крышки коробки
//
// Каждая фаза выполняется как гонка двух участников: исполнительный
// движок (Engine) и подтверждение оператора (Confirmer). Подтверждение
// обязательно на каждой границе фаз:
//
//   - движок закончил раньше — всё равно ждём оператора
//   - оператор подтвердил раньше — движок просят корректно
//     остановиться и дожидаются его
//   - подтверждение не пришло за отведённое время — заказ уходит
//     в ERROR
//
// После каждого подтверждения выдерживается settle delay, чтобы
// механика успела завершить движение до публикации нового состояния.
//
// # Ключевые компоненты
//
// ## Coordinator
//
// Основная структура. Создаётся через New(cfg Config), запускается
// Start(ctx) и подключается к управляющему каналу как обработчик:
//
//	coord := coordinator.New(coordinator.Config{
//	    Lifecycle: manager,
//	    Engine:    &coordinator.SimEngine{},
//	    Confirmer: &coordinator.AutoConfirmer{},
//	    Logger:    logger,
//	})
//
//	if err := coord.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer coord.Stop()
//
//	ctrl := relay.NewControlServer(relay.ControlServerConfig{
//	    Handler: coord.HandleCommand,
//	})
//
// ## Engine
//
// Интерфейс исполнительного движка:
//
//	type Engine interface {
//	    RunPhase(ctx context.Context, phase domain.OrderPhase, flavor domain.Flavor) error
//	}
//
// SimEngine — симуляция: каждая фаза занимает фиксированное время.
//
// ## Confirmer
//
// Источник подтверждения оператора:
//
//	type Confirmer interface {
//	    Wait(ctx context.Context) error
//	}
//
// Реализации:
//   - AutoConfirmer — автоподтверждение с задержкой (для симуляции)
//   - LineConfirmer — строка из io.Reader (Enter оператора на stdin)
//
// # Параллелизм
//
// Одновременно выполняется не более одного заказа. start_order при
// активном заказе отклоняется с ошибкой busy — gateway переводит
// такой заказ в ERROR на своей стороне.
//
// Отмена кооперативная: cancel_order отменяет контекст заказа,
// публикует CANCELED и отвечает сразу; движок останавливается на
// следующей точке ожидания.
package coordinator

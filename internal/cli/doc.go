// Package cli реализует инструмент командной строки DonutLine.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с DonutLine gateway.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для создания, отмены и наблюдения за заказами.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для gateway API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ErrorResponse), обработку ошибок
// и чтение SSE-потока событий.
//
//	client := cli.NewClient("http://localhost:8080")
//	order, err := client.GetOrder(id)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: donutline order show ID --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - order: create, show, cancel, watch
//
// Группа создаётся через фабричную функцию NewOrderCmd, принимающую
// clientFn и outputFn — замыкания для ленивого создания Client и
// Output после парсинга PersistentFlags.
package cli

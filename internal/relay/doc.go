// Package relay реализует межпроцессный транспорт по unix-сокетам.
//
// Два независимых канала:
//   - канал событий (worker → gateway, fire-and-forget): gateway
//     слушает сокет и принимает NDJSON-события; worker на каждую
//     публикацию открывает соединение, пишет одну строку и закрывает
//     его; отказ соединения проглатывается
//   - управляющий канал (gateway → worker, запрос-ответ): worker
//     слушает сокет и обрабатывает команды последовательно — один
//     JSON-объект команды, один JSON-ответ на соединение
//
// Оба процесса удаляют устаревший файл своего сокета перед bind
// и подчищают его при остановке. Гарантий доставки нет: контракт —
// at-most-once с тихой потерей при отказе транспорта.
package relay

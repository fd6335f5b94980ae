// Package archive ведёт append-only журнал событий заказов в Postgres.
//
// Структура:
//   - db.go      — создание пула соединений (pgxpool)
//   - archive.go — EventArchive: схема, запись, выборка по заказу
//   - sink.go    — Sink, bus.Sink, дописывающий каждое событие
//
// Журнал — наблюдаемость, не durability: реестр заказов живёт только
// в памяти, из архива ничего не восстанавливается. Включается
// переменной окружения DB_URL; без неё gateway работает без журнала.
package archive

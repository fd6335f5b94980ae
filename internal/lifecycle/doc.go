// Package lifecycle управляет жизненным циклом заказов.
//
// Структура:
//   - registry.go — Registry, реестр заказов процесса
//   - manager.go  — Manager, машина переходов фаз с публикацией событий
//
// Каждая операция Manager'а мутирует локальный реестр (если заказ
// известен процессу) и безусловно публикует событие в шину, чтобы
// relay работал и для заказов, созданных в другом процессе.
package lifecycle

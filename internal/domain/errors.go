package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrUnknownEventType — неизвестный тег события при декодировании.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrUnknownCommandType — неизвестный тип команды.
	ErrUnknownCommandType = errors.New("unknown command type")

	// ErrUnknownFlavor — вкус вне перечисления.
	ErrUnknownFlavor = errors.New("unknown flavor")
)

package domain

// CommandType — тип команды, отправляемой gateway'ем worker'у.
type CommandType string

const (
	// CommandStartOrder — начать выполнение заказа.
	CommandStartOrder CommandType = "start_order"

	// CommandCancelOrder — отменить заказ.
	CommandCancelOrder CommandType = "cancel_order"

	// CommandShutdown — остановить worker.
	CommandShutdown CommandType = "shutdown"
)

// WorkerCommand — команда управляющего канала (gateway → worker).
//
// Отправляется одним JSON-объектом на соединение; в ответ приходит
// ровно один CommandResponse.
type WorkerCommand struct {
	Type      CommandType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Flavor    Flavor      `json:"flavor,omitempty"`
}

// ResponseStatus — статус ответа на команду.
type ResponseStatus string

const (
	ResponseOK    ResponseStatus = "ok"
	ResponseError ResponseStatus = "error"
)

// CommandResponse — ответ worker'а на команду.
type CommandResponse struct {
	Status  ResponseStatus `json:"status"`
	Message string         `json:"message"`
}

// OKResponse создаёт успешный ответ.
func OKResponse(message string) CommandResponse {
	return CommandResponse{Status: ResponseOK, Message: message}
}

// ErrorResponse создаёт ответ с ошибкой.
func ErrorResponse(message string) CommandResponse {
	return CommandResponse{Status: ResponseError, Message: message}
}

// OK возвращает true, если команда принята.
func (r CommandResponse) OK() bool {
	return r.Status == ResponseOK
}

package coordinator

import "errors"

// Ошибки координатора.
var (
	// ErrBusy — уже выполняется другой заказ.
	ErrBusy = errors.New("another order is in progress")

	// ErrNoConfirmation — подтверждение оператора не получено.
	ErrNoConfirmation = errors.New("operator confirmation not received")

	// ErrMissingRequestID — команда без request_id.
	ErrMissingRequestID = errors.New("missing request_id")

	// ErrMissingFlavor — start_order без flavor.
	ErrMissingFlavor = errors.New("missing flavor")

	// ErrNotStarted — координатор не запущен.
	ErrNotStarted = errors.New("coordinator not started")
)

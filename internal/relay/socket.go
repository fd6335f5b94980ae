package relay

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"
)

// Пути сокетов по умолчанию.
const (
	// DefaultEventSocketPath — сокет канала событий (слушает gateway).
	DefaultEventSocketPath = "/tmp/donutline_events.sock"

	// DefaultControlSocketPath — сокет управляющего канала (слушает worker).
	DefaultControlSocketPath = "/tmp/donutline_control.sock"
)

const (
	defaultDialTimeout  = time.Second
	defaultWriteTimeout = 2 * time.Second
	defaultReadTimeout  = 5 * time.Second
)

// listenUnix удаляет устаревший файл сокета (остаток прошлого
// запуска) и открывает слушающий unix-сокет.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return ln, nil
}

// removeSocket удаляет файл сокета при остановке сервера.
func removeSocket(path string) {
	_ = os.Remove(path)
}

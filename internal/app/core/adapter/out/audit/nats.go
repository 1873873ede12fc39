package audit

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS 連線到 NATS，斷線時自動重連並記錄狀態
func ConnectNATS(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return nats.Connect(url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
}

var _ Publisher = (*nats.Conn)(nil)

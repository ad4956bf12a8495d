// Package notification implementa el puerto notify.Notifier. La entrega real
// (correo, webhooks) es un colaborador externo; esta implementación deja el
// evento en el log estructurado y nunca falla hacia el caller.
package notification

import (
	"context"

	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

var _ notify.Notifier = (*LogNotifier)(nil)

// LogNotifier registra los eventos notificables en el log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify registra el evento. Fire-and-forget: sin valor de retorno.
func (n *LogNotifier) Notify(_ context.Context, event notify.Event) {
	n.log.Info().
		Str("event", event.Type).
		Str("record_id", event.RecordID).
		Str("user_id", event.UserID).
		Msg(event.Message)
}

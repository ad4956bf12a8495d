// Package notify define el puerto de notificaciones. Los flujos lo invocan
// en cambios de estado terminales (venta completada, devolución dispuesta,
// orden aprobada/rechazada) en modo fire-and-forget: el núcleo no consume
// ningún valor de retorno.
package notify

import "context"

// Tipos de evento notificables.
const (
	EventSaleCompleted  = "sale.completed"
	EventReturnApproved = "return.approved"
	EventReturnRejected = "return.rejected"
	EventOrderApproved  = "purchase_order.approved"
	EventOrderRejected  = "purchase_order.rejected"
)

// Event es el cambio de estado a notificar.
type Event struct {
	Type     string
	RecordID string
	UserID   string
	Message  string
}

// Notifier entrega eventos a canales externos (correo, webhooks, etc.).
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const orderColumns = "id, supplier_id, user_id, order_number, total_amount, status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at"

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre
// PostgreSQL (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta cabecera e ítems con el mismo Querier: atómico dentro de tx.
func (r *PurchaseOrderRepo) Create(order *entity.PurchaseOrder) error {
	ctx := context.Background()
	query := `
		INSERT INTO purchase_orders (id, supplier_id, user_id, order_number, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.SupplierID, order.UserID, order.OrderNumber,
		order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	itemQuery := `
		INSERT INTO purchase_order_items (id, order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range order.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
		); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una orden con sus ítems.
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`
	return r.getOne(query, id)
}

// GetByOrderNumber obtiene una orden por su número único.
func (r *PurchaseOrderRepo) GetByOrderNumber(orderNumber string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE order_number = $1`
	return r.getOne(query, orderNumber)
}

// List lista órdenes, opcionalmente filtradas por estado. No carga ítems.
func (r *PurchaseOrderRepo) List(status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM purchase_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ApproveFromPending aprueba solo si la orden sigue pending (compare-and-swap).
func (r *PurchaseOrderRepo) ApproveFromPending(id, approvedBy string, approvedAt time.Time) (bool, error) {
	query := `
		UPDATE purchase_orders
		SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'`
	cmd, err := r.q.Exec(context.Background(), query, id, approvedBy, approvedAt)
	if err != nil {
		return false, fmt.Errorf("approve purchase order: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// RejectFromPending rechaza solo si la orden sigue pending (compare-and-swap).
func (r *PurchaseOrderRepo) RejectFromPending(id, rejectedBy, reason string, rejectedAt time.Time) (bool, error) {
	query := `
		UPDATE purchase_orders
		SET status = 'rejected', rejected_by = $2, rejection_reason = $3, rejected_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'pending'`
	cmd, err := r.q.Exec(context.Background(), query, id, rejectedBy, reason, rejectedAt)
	if err != nil {
		return false, fmt.Errorf("reject purchase order: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ForceStatus fija el estado sin pasar por la máquina de estados.
// Escape administrativo: el caller debe auditarlo siempre.
func (r *PurchaseOrderRepo) ForceStatus(id, status string) error {
	query := `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("force purchase order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseOrderRepo) getOne(query string, arg any) (*entity.PurchaseOrder, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.listItems(order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *PurchaseOrderRepo) listItems(orderID string) ([]entity.PurchaseOrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, line_total
		FROM purchase_order_items WHERE order_id = $1`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()

	var items []entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// scanOrder lee una fila de purchase_orders desde pgx.Row o pgx.Rows.
func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	var approvedBy, rejectedBy, rejectionReason *string
	err := row.Scan(
		&o.ID, &o.SupplierID, &o.UserID, &o.OrderNumber, &o.TotalAmount,
		&o.Status, &approvedBy, &o.ApprovedAt, &rejectedBy, &o.RejectedAt,
		&rejectionReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan purchase order: %w", err)
	}
	if approvedBy != nil {
		o.ApprovedBy = *approvedBy
	}
	if rejectedBy != nil {
		o.RejectedBy = *rejectedBy
	}
	if rejectionReason != nil {
		o.RejectionReason = *rejectionReason
	}
	return &o, nil
}

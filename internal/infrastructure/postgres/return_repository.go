package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

const returnColumns = "id, product_name, product_id, quantity, reason, amount, status, requested_by, return_date, processed_date, processed_by, created_at"

// ReturnRepo implementación de ReturnRepository sobre PostgreSQL (usable con
// pool o tx).
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

// Create persiste una devolución en estado pending.
func (r *ReturnRepo) Create(ret *entity.Return) error {
	query := `
		INSERT INTO returns (id, product_name, product_id, quantity, reason, amount, status, requested_by, return_date, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		ret.ID, ret.ProductName, ret.ProductID, ret.Quantity, ret.Reason,
		ret.Amount, ret.Status, ret.RequestedBy, ret.ReturnDate, ret.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

// GetByID obtiene una devolución por ID.
func (r *ReturnRepo) GetByID(id string) (*entity.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`
	var ret entity.Return
	var productID, processedBy *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&ret.ID, &ret.ProductName, &productID, &ret.Quantity, &ret.Reason,
		&ret.Amount, &ret.Status, &ret.RequestedBy, &ret.ReturnDate,
		&ret.ProcessedDate, &processedBy, &ret.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	if productID != nil {
		ret.ProductID = *productID
	}
	if processedBy != nil {
		ret.ProcessedBy = *processedBy
	}
	return &ret, nil
}

// List lista devoluciones, opcionalmente filtradas por estado.
func (r *ReturnRepo) List(status string, limit, offset int) ([]*entity.Return, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM returns
		WHERE ($1 = '' OR status = $1)
		ORDER BY return_date DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	defer rows.Close()

	var results []*entity.Return
	for rows.Next() {
		var ret entity.Return
		var productID, processedBy *string
		if err := rows.Scan(
			&ret.ID, &ret.ProductName, &productID, &ret.Quantity, &ret.Reason,
			&ret.Amount, &ret.Status, &ret.RequestedBy, &ret.ReturnDate,
			&ret.ProcessedDate, &processedBy, &ret.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		if productID != nil {
			ret.ProductID = *productID
		}
		if processedBy != nil {
			ret.ProcessedBy = *processedBy
		}
		results = append(results, &ret)
	}
	return results, rows.Err()
}

// UpdateStatusFromPending fija estado, fecha y actor de procesamiento solo si
// la fila sigue en pending (compare-and-swap). Devuelve false si no coincidió:
// la doble disposición resulta imposible, no solo improbable.
func (r *ReturnRepo) UpdateStatusFromPending(id, newStatus, processedBy string, processedAt time.Time) (bool, error) {
	query := `
		UPDATE returns
		SET status = $2, processed_by = $3, processed_date = $4
		WHERE id = $1 AND status = 'pending'`
	cmd, err := r.q.Exec(context.Background(), query, id, newStatus, processedBy, processedAt)
	if err != nil {
		return false, fmt.Errorf("update return status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

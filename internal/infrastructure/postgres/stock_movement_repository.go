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

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = "id, product_id, user_id, type, quantity, previous_stock, new_stock, unit_price, total_amount, reference, notes, created_at"

// StockMovementRepo implementación de StockMovementRepository sobre
// PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create guarda un movimiento con sus snapshots antes/después.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, user_id, type, quantity, previous_stock, new_stock, unit_price, total_amount, reference, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.UserID, movement.Type,
		movement.Quantity, movement.PreviousStock, movement.NewStock,
		movement.UnitPrice, movement.TotalAmount, movement.Reference,
		movement.Notes, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	var m entity.StockMovement
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.ProductID, &m.UserID, &m.Type, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &m.UnitPrice, &m.TotalAmount,
		&m.Reference, &m.Notes, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return &m, nil
}

// ListByProduct lista los movimientos de un producto, opcionalmente acotados
// por fecha.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(context.Background(), query, productID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.UserID, &m.Type, &m.Quantity,
			&m.PreviousStock, &m.NewStock, &m.UnitPrice, &m.TotalAmount,
			&m.Reference, &m.Notes, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

// UpdateMeta actualiza solo referencia y nota. Las cantidades y snapshots de
// un movimiento persistido son inmutables.
func (r *StockMovementRepo) UpdateMeta(id, reference, notes string) error {
	query := `UPDATE stock_movements SET reference = $2, notes = $3 WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, id, reference, notes)
	if err != nil {
		return fmt.Errorf("update stock movement meta: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SummaryByProduct calcula entradas/salidas acumuladas por producto en una
// sola consulta agregada (no se agrupa en memoria).
func (r *StockMovementRepo) SummaryByProduct(from, to *time.Time) ([]repository.MovementSummary, error) {
	query := `
		SELECT product_id,
		       COALESCE(SUM(quantity) FILTER (WHERE type = 'in'), 0)  AS total_in,
		       COALESCE(SUM(quantity) FILTER (WHERE type = 'out'), 0) AS total_out,
		       COUNT(*)                                               AS movements
		FROM stock_movements
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		GROUP BY product_id
		ORDER BY product_id`
	rows, err := r.q.Query(context.Background(), query, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary stock movements: %w", err)
	}
	defer rows.Close()

	var summaries []repository.MovementSummary
	for rows.Next() {
		var s repository.MovementSummary
		if err := rows.Scan(&s.ProductID, &s.TotalIn, &s.TotalOut, &s.Movements); err != nil {
			return nil, fmt.Errorf("scan movement summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

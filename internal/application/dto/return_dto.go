package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateReturnRequest entrada para registrar una devolución.
type CreateReturnRequest struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// DispositionRequest actor que aprueba o rechaza (nombre visible; si no se
// resuelve se usa la identidad de sistema configurada).
type DispositionRequest struct {
	Actor string `json:"actor,omitempty"`
}

// ReturnResponse devolución con su estado actual.
type ReturnResponse struct {
	ID            string          `json:"id"`
	ProductName   string          `json:"product_name"`
	ProductID     string          `json:"product_id,omitempty"`
	Quantity      int64           `json:"quantity"`
	Reason        string          `json:"reason"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	ReturnDate    time.Time       `json:"return_date"`
	ProcessedDate *time.Time      `json:"processed_date,omitempty"`
	ProcessedBy   string          `json:"processed_by,omitempty"`
}

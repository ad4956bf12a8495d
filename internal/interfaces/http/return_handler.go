package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/dto"
	"github.com/tu-usuario/stock-ledger/internal/application/returns"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// ReturnHandler maneja las peticiones HTTP de devoluciones (protegido).
type ReturnHandler struct {
	uc *returns.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *returns.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar devolución
// @Description  Queda en estado pending. El producto se resuelve por nombre;
//
//	si no coincide con ninguno, el monto queda en cero.
//
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "product_name, quantity, reason"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), returns.ReturnInput{
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		RequestedBy: in.RequestedBy,
	})
	if err != nil {
		return returnError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReturnResponse(out))
}

// Approve godoc
// @Summary      Aprobar devolución
// @Description  Cambia pending a approved y descuenta el stock del producto
//
//	resuelto en la misma transacción. Una devolución ya procesada
//	responde 409.
//
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.DispositionRequest  false  "actor"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/approve [post]
func (h *ReturnHandler) Approve(c *fiber.Ctx) error {
	return h.dispose(c, h.uc.Approve)
}

// Reject godoc
// @Summary      Rechazar devolución
// @Description  Cambia pending a rejected sin tocar el stock.
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.DispositionRequest  false  "actor"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/reject [post]
func (h *ReturnHandler) Reject(c *fiber.Ctx) error {
	return h.dispose(c, h.uc.Reject)
}

func (h *ReturnHandler) dispose(c *fiber.Ctx, fn func(ctx context.Context, returnID, actorName string) (*entity.Return, error)) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var in dto.DispositionRequest
	// el cuerpo es opcional: sin actor se usa la identidad de sistema
	_ = c.BodyParser(&in)
	out, err := fn(c.Context(), id, in.Actor)
	if err != nil {
		return returnError(c, err)
	}
	return c.JSON(toReturnResponse(out))
}

// GetByID godoc
// @Summary      Obtener devolución por ID
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return returnError(c, err)
	}
	return c.JSON(toReturnResponse(out))
}

// List godoc
// @Summary      Listar devoluciones
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending, approved o rejected"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}  dto.ReturnResponse
// @Router       /api/returns [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	limit, offset := parsePagination(c, 50)
	rets, err := h.uc.List(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.ReturnResponse, 0, len(rets))
	for _, r := range rets {
		out = append(out, toReturnResponse(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "returns": out})
}

func returnError(c *fiber.Ctx, err error) error {
	if err == domain.ErrInvalidInput {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	if err == domain.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "devolución no encontrada"})
	}
	if err == domain.ErrInvalidTransition {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "la devolución ya fue procesada"})
	}
	if err == domain.ErrInsufficientStock {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente para descontar la devolución"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func toReturnResponse(r *entity.Return) dto.ReturnResponse {
	return dto.ReturnResponse{
		ID:            r.ID,
		ProductName:   r.ProductName,
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
		Reason:        r.Reason,
		Amount:        r.Amount,
		Status:        r.Status,
		ReturnDate:    r.ReturnDate,
		ProcessedDate: r.ProcessedDate,
		ProcessedBy:   r.ProcessedBy,
	}
}

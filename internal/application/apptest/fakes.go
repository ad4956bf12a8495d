// Package apptest provee dobles en memoria de los puertos de persistencia y
// de los colaboradores laterales (auditoría, notificaciones) para los tests
// de los casos de uso. El TxRunner de este paquete simula el rollback
// restaurando un snapshot de los almacenes cuando el callback falla.
package apptest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/application/notify"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

// ProductStore implementa repository.ProductRepository en memoria.
type ProductStore struct {
	mu       sync.Mutex
	products map[string]*entity.Product

	// FailUpdateQuantity, si no es nil, hace fallar UpdateQuantity.
	FailUpdateQuantity error
}

var _ repository.ProductRepository = (*ProductStore)(nil)

func NewProductStore(products ...*entity.Product) *ProductStore {
	s := &ProductStore{products: make(map[string]*entity.Product)}
	for _, p := range products {
		cp := *p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *ProductStore) Create(product *entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *ProductStore) GetByID(id string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *ProductStore) GetByIDForUpdate(id string) (*entity.Product, error) {
	return s.GetByID(id)
}

func (s *ProductStore) GetByName(name string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *ProductStore) Update(product *entity.Product) error {
	return s.Create(product)
}

func (s *ProductStore) UpdateQuantity(productID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdateQuantity != nil {
		return s.FailUpdateQuantity
	}
	if p, ok := s.products[productID]; ok {
		p.Quantity = quantity
	}
	return nil
}

func (s *ProductStore) List(limit, offset int) ([]*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *ProductStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

// Quantity devuelve la cantidad actual del producto (0 si no existe).
func (s *ProductStore) Quantity(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return p.Quantity
	}
	return 0
}

func (s *ProductStore) snapshot() map[string]*entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]*entity.Product, len(s.products))
	for id, p := range s.products {
		cp := *p
		snap[id] = &cp
	}
	return snap
}

func (s *ProductStore) restore(snap map[string]*entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

// MovementStore implementa repository.StockMovementRepository en memoria.
type MovementStore struct {
	mu        sync.Mutex
	movements []*entity.StockMovement

	// FailCreate, si no es nil, hace fallar Create.
	FailCreate error
}

var _ repository.StockMovementRepository = (*MovementStore)(nil)

func NewMovementStore() *MovementStore {
	return &MovementStore{}
}

func (s *MovementStore) Create(movement *entity.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	cp := *movement
	s.movements = append(s.movements, &cp)
	return nil
}

func (s *MovementStore) GetByID(id string) (*entity.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MovementStore) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, 0)
	for _, m := range s.movements {
		if m.ProductID != productID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MovementStore) UpdateMeta(id, reference, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements {
		if m.ID == id {
			m.Reference = reference
			m.Notes = notes
			return nil
		}
	}
	return nil
}

func (s *MovementStore) SummaryByProduct(from, to *time.Time) ([]repository.MovementSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := make(map[string]*repository.MovementSummary)
	order := make([]string, 0)
	for _, m := range s.movements {
		sum, ok := byProduct[m.ProductID]
		if !ok {
			sum = &repository.MovementSummary{ProductID: m.ProductID}
			byProduct[m.ProductID] = sum
			order = append(order, m.ProductID)
		}
		sum.Movements++
		if m.Type == entity.MovementTypeIn {
			sum.TotalIn += m.Quantity
		} else {
			sum.TotalOut += m.Quantity
		}
	}
	out := make([]repository.MovementSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byProduct[id])
	}
	return out, nil
}

// All devuelve los movimientos registrados.
func (s *MovementStore) All() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

func (s *MovementStore) snapshot() []*entity.StockMovement {
	return s.All()
}

func (s *MovementStore) restore(snap []*entity.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

// SaleStore implementa repository.SaleRepository en memoria.
type SaleStore struct {
	mu    sync.Mutex
	sales []*entity.Sale
}

var _ repository.SaleRepository = (*SaleStore)(nil)

func NewSaleStore() *SaleStore {
	return &SaleStore{}
}

func (s *SaleStore) Create(sale *entity.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sale
	s.sales = append(s.sales, &cp)
	return nil
}

func (s *SaleStore) GetByID(id string) (*entity.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.sales {
		if sl.ID == id {
			cp := *sl
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *SaleStore) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Sale, 0)
	for _, sl := range s.sales {
		if sl.ProductID != productID {
			continue
		}
		cp := *sl
		out = append(out, &cp)
	}
	return out, nil
}

func (s *SaleStore) List(from, to *time.Time, limit, offset int) ([]*entity.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Sale, 0, len(s.sales))
	for _, sl := range s.sales {
		cp := *sl
		out = append(out, &cp)
	}
	return out, nil
}

// Count devuelve cuántas ventas hay registradas.
func (s *SaleStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *SaleStore) snapshot() []*entity.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Sale, 0, len(s.sales))
	for _, sl := range s.sales {
		cp := *sl
		out = append(out, &cp)
	}
	return out
}

func (s *SaleStore) restore(snap []*entity.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

// ReturnStore implementa repository.ReturnRepository en memoria, incluido el
// compare-and-swap de UpdateStatusFromPending.
type ReturnStore struct {
	mu      sync.Mutex
	returns map[string]*entity.Return
}

var _ repository.ReturnRepository = (*ReturnStore)(nil)

func NewReturnStore(returns ...*entity.Return) *ReturnStore {
	s := &ReturnStore{returns: make(map[string]*entity.Return)}
	for _, r := range returns {
		cp := *r
		s.returns[r.ID] = &cp
	}
	return s
}

func (s *ReturnStore) Create(ret *entity.Return) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ret
	s.returns[ret.ID] = &cp
	return nil
}

func (s *ReturnStore) GetByID(id string) (*entity.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.returns[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *ReturnStore) List(status string, limit, offset int) ([]*entity.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Return, 0)
	for _, r := range s.returns {
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *ReturnStore) UpdateStatusFromPending(id, newStatus, processedBy string, processedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.returns[id]
	if !ok || r.Status != entity.ReturnStatusPending {
		return false, nil
	}
	r.Status = newStatus
	r.ProcessedBy = processedBy
	t := processedAt
	r.ProcessedDate = &t
	return true, nil
}

func (s *ReturnStore) snapshot() map[string]*entity.Return {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]*entity.Return, len(s.returns))
	for id, r := range s.returns {
		cp := *r
		snap[id] = &cp
	}
	return snap
}

func (s *ReturnStore) restore(snap map[string]*entity.Return) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returns = snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de compra
// ──────────────────────────────────────────────────────────────────────────────

// OrderStore implementa repository.PurchaseOrderRepository en memoria.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*entity.PurchaseOrder
}

var _ repository.PurchaseOrderRepository = (*OrderStore)(nil)

func NewOrderStore(orders ...*entity.PurchaseOrder) *OrderStore {
	s := &OrderStore{orders: make(map[string]*entity.PurchaseOrder)}
	for _, o := range orders {
		s.orders[o.ID] = cloneOrder(o)
	}
	return s
}

func cloneOrder(o *entity.PurchaseOrder) *entity.PurchaseOrder {
	cp := *o
	cp.Items = append([]entity.PurchaseOrderItem(nil), o.Items...)
	return &cp
}

func (s *OrderStore) Create(order *entity.PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *OrderStore) GetByID(id string) (*entity.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) GetByOrderNumber(orderNumber string) (*entity.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (s *OrderStore) List(status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.PurchaseOrder, 0)
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (s *OrderStore) ApproveFromPending(id, approvedBy string, approvedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != entity.PurchaseOrderStatusPending {
		return false, nil
	}
	o.Status = entity.PurchaseOrderStatusApproved
	o.ApprovedBy = approvedBy
	t := approvedAt
	o.ApprovedAt = &t
	return true, nil
}

func (s *OrderStore) RejectFromPending(id, rejectedBy, reason string, rejectedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != entity.PurchaseOrderStatusPending {
		return false, nil
	}
	o.Status = entity.PurchaseOrderStatusRejected
	o.RejectedBy = rejectedBy
	o.RejectionReason = reason
	t := rejectedAt
	o.RejectedAt = &t
	return true, nil
}

func (s *OrderStore) ForceStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (s *OrderStore) snapshot() map[string]*entity.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]*entity.PurchaseOrder, len(s.orders))
	for id, o := range s.orders {
		snap[id] = cloneOrder(o)
	}
	return snap
}

func (s *OrderStore) restore(snap map[string]*entity.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Usuarios y proveedores
// ──────────────────────────────────────────────────────────────────────────────

// UserStore implementa repository.UserRepository en memoria.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(users ...*entity.User) *UserStore {
	s := &UserStore{users: make(map[string]*entity.User)}
	for _, u := range users {
		cp := *u
		s.users[u.ID] = &cp
	}
	return s
}

func (s *UserStore) Create(user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) GetByID(id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) GetByEmail(email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) GetByName(name string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) List(limit, offset int) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *UserStore) Update(user *entity.User) error {
	return s.Create(user)
}

func (s *UserStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// SupplierStore implementa repository.SupplierRepository en memoria.
type SupplierStore struct {
	mu        sync.Mutex
	suppliers map[string]*entity.Supplier
}

var _ repository.SupplierRepository = (*SupplierStore)(nil)

func NewSupplierStore(suppliers ...*entity.Supplier) *SupplierStore {
	s := &SupplierStore{suppliers: make(map[string]*entity.Supplier)}
	for _, sp := range suppliers {
		cp := *sp
		s.suppliers[sp.ID] = &cp
	}
	return s
}

func (s *SupplierStore) Create(supplier *entity.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *supplier
	s.suppliers[supplier.ID] = &cp
	return nil
}

func (s *SupplierStore) GetByID(id string) (*entity.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.suppliers[id]
	if !ok {
		return nil, nil
	}
	cp := *sp
	return &cp, nil
}

func (s *SupplierStore) List(onlyActive bool, limit, offset int) ([]*entity.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Supplier, 0)
	for _, sp := range s.suppliers {
		if onlyActive && !sp.Active {
			continue
		}
		cp := *sp
		out = append(out, &cp)
	}
	return out, nil
}

func (s *SupplierStore) Update(supplier *entity.Supplier) error {
	return s.Create(supplier)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría, notificaciones y transacciones
// ──────────────────────────────────────────────────────────────────────────────

// RecordedEntry es una entrada capturada por el RecorderSpy.
type RecordedEntry struct {
	UserID    string
	TableName string
	RecordID  string
	Severity  string
	Details   entity.AuditDetails
}

// RecorderSpy implementa audit.Recorder capturando las entradas en memoria,
// de forma síncrona, para poder asertarlas sin esperas.
type RecorderSpy struct {
	mu      sync.Mutex
	entries []RecordedEntry
}

var _ audit.Recorder = (*RecorderSpy)(nil)

func NewRecorderSpy() *RecorderSpy {
	return &RecorderSpy{}
}

func (r *RecorderSpy) Record(userID, tableName, recordID string, details entity.AuditDetails) {
	r.add(userID, tableName, recordID, entity.AuditSeverityInfo, details)
}

func (r *RecorderSpy) RecordWarning(userID, tableName, recordID string, details entity.AuditDetails) {
	r.add(userID, tableName, recordID, entity.AuditSeverityWarning, details)
}

func (r *RecorderSpy) add(userID, tableName, recordID, severity string, details entity.AuditDetails) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, RecordedEntry{
		UserID:    userID,
		TableName: tableName,
		RecordID:  recordID,
		Severity:  severity,
		Details:   details,
	})
}

// Entries devuelve las entradas capturadas.
func (r *RecorderSpy) Entries() []RecordedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEntry(nil), r.entries...)
}

// NotifierSpy implementa notify.Notifier capturando los eventos.
type NotifierSpy struct {
	mu     sync.Mutex
	events []notify.Event
}

var _ notify.Notifier = (*NotifierSpy)(nil)

func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{}
}

func (n *NotifierSpy) Notify(_ context.Context, event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events devuelve los eventos capturados.
func (n *NotifierSpy) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// TxRunner ejecuta los callbacks contra los almacenes en memoria. Si el
// callback devuelve error, restaura el snapshot previo de todos los
// almacenes, simulando el rollback de la transacción real.
type TxRunner struct {
	Products  *ProductStore
	Movements *MovementStore
	Sales     *SaleStore
	Returns   *ReturnStore
	Orders    *OrderStore
}

func NewTxRunner(products *ProductStore, movements *MovementStore) *TxRunner {
	return &TxRunner{
		Products:  products,
		Movements: movements,
		Sales:     NewSaleStore(),
		Returns:   NewReturnStore(),
		Orders:    NewOrderStore(),
	}
}

func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.transactional(func() error {
		return fn(r.Movements, r.Products)
	})
}

func (r *TxRunner) RunSale(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.transactional(func() error {
		return fn(r.Movements, r.Products, r.Sales)
	})
}

func (r *TxRunner) RunReturn(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	returnRepo repository.ReturnRepository,
) error) error {
	return r.transactional(func() error {
		return fn(r.Movements, r.Products, r.Returns)
	})
}

func (r *TxRunner) RunPurchase(ctx context.Context, fn func(
	orderRepo repository.PurchaseOrderRepository,
) error) error {
	return r.transactional(func() error {
		return fn(r.Orders)
	})
}

func (r *TxRunner) transactional(fn func() error) error {
	products := r.Products.snapshot()
	movements := r.Movements.snapshot()
	sales := r.Sales.snapshot()
	returns := r.Returns.snapshot()
	orders := r.Orders.snapshot()

	if err := fn(); err != nil {
		r.Products.restore(products)
		r.Movements.restore(movements)
		r.Sales.restore(sales)
		r.Returns.restore(returns)
		r.Orders.restore(orders)
		return err
	}
	return nil
}

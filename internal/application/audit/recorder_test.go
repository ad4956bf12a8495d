package audit_test

import (
	"errors"
	"sync"
	"time"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/audit"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// auditRepoStub implementa AuditLogRepository con control fino para los tests:
// puede fallar a demanda o bloquearse hasta que el test lo libere.
type auditRepoStub struct {
	mu      sync.Mutex
	logs    []*entity.AuditLog
	failIDs map[string]bool

	// block, si no es nil, detiene Create hasta que el canal se cierre.
	block chan struct{}
}

func newAuditRepoStub() *auditRepoStub {
	return &auditRepoStub{failIDs: make(map[string]bool)}
}

func (s *auditRepoStub) Create(log *entity.AuditLog) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[log.RecordID] {
		return errors.New("deadlock detected")
	}
	s.logs = append(s.logs, log)
	return nil
}

func (s *auditRepoStub) List(tableName string, from, to *time.Time, limit, offset int) ([]*entity.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.AuditLog(nil), s.logs...), nil
}

func (s *auditRepoStub) stored() []*entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.AuditLog(nil), s.logs...)
}

func TestAsyncRecorder_PersisteEnSegundoPlano(t *testing.T) {
	repo := newAuditRepoStub()
	r := audit.NewAsyncRecorder(repo, logger.Nop(), 16)

	r.Record("user-1", "sales", "sale-1", entity.SaleDetails{SaleID: "sale-1"})
	r.RecordWarning("user-1", "stock_movements", "mov-1", entity.MovementDetails{MovementID: "mov-1", Clamped: true})

	// Close drena el buffer: después de retornar todo está persistido.
	r.Close()

	logs := repo.stored()
	require.Len(t, logs, 2)
	assert.Equal(t, entity.AuditSeverityInfo, logs[0].Severity)
	assert.Equal(t, "sale-1", logs[0].RecordID)
	assert.Equal(t, entity.AuditSeverityWarning, logs[1].Severity)
	assert.NotEmpty(t, logs[0].Details, "los detalles se serializan a JSON")
}

// Un fallo de persistencia se registra y se descarta: las entradas
// posteriores siguen llegando y el caller jamás se entera.
func TestAsyncRecorder_FalloSeDescartaYContinua(t *testing.T) {
	repo := newAuditRepoStub()
	repo.failIDs["sale-2"] = true
	r := audit.NewAsyncRecorder(repo, logger.Nop(), 16)

	r.Record("user-1", "sales", "sale-1", entity.SaleDetails{SaleID: "sale-1"})
	r.Record("user-1", "sales", "sale-2", entity.SaleDetails{SaleID: "sale-2"})
	r.Record("user-1", "sales", "sale-3", entity.SaleDetails{SaleID: "sale-3"})
	r.Close()

	logs := repo.stored()
	require.Len(t, logs, 2)
	assert.Equal(t, "sale-1", logs[0].RecordID)
	assert.Equal(t, "sale-3", logs[1].RecordID)
}

// Con el buffer lleno, Record descarta la entrada sin bloquear al caller.
func TestAsyncRecorder_BufferLlenoDescartaSinBloquear(t *testing.T) {
	repo := newAuditRepoStub()
	repo.block = make(chan struct{})
	r := audit.NewAsyncRecorder(repo, logger.Nop(), 1)

	// El worker queda detenido en la primera entrada; la segunda llena el
	// buffer y las siguientes deben descartarse de inmediato.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			r.Record("user-1", "sales", "sale-x", entity.SaleDetails{SaleID: "sale-x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record bloqueó al caller con el buffer lleno")
	}

	close(repo.block)
	r.Close()
	assert.LessOrEqual(t, len(repo.stored()), 2,
		"solo la entrada en proceso y la encolada pueden sobrevivir")
}

func TestAsyncRecorder_CloseEsIdempotente(t *testing.T) {
	repo := newAuditRepoStub()
	r := audit.NewAsyncRecorder(repo, logger.Nop(), 4)
	r.Record("user-1", "returns", "ret-1", entity.ReturnDetails{ReturnID: "ret-1", Status: entity.ReturnStatusPending})
	r.Close()
	r.Close()
	assert.Len(t, repo.stored(), 1)
}

// Package audit implementa el registro de auditoría best-effort del sistema.
//
// El recorder es un canal lateral: ninguna operación de negocio espera por él
// ni puede fallar por su culpa. Las entradas se encolan en un buffer y un
// worker las persiste en segundo plano; cualquier fallo se registra en el log
// y se descarta. Si el buffer está lleno la entrada se pierde con un warning,
// nunca se bloquea al caller.
package audit

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Recorder es el puerto de auditoría que consumen los casos de uso.
// Las implementaciones no deben bloquear ni devolver error jamás.
type Recorder interface {
	Record(userID, tableName, recordID string, details entity.AuditDetails)
	RecordWarning(userID, tableName, recordID string, details entity.AuditDetails)
}

var _ Recorder = (*AsyncRecorder)(nil)

// AsyncRecorder implementa Recorder con un canal con buffer y un worker que
// persiste las entradas vía AuditLogRepository.
type AsyncRecorder struct {
	repo  repository.AuditLogRepository
	log   *logger.Logger
	queue chan *entity.AuditLog

	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncRecorder construye el recorder y arranca su worker.
// bufferSize <= 0 usa 256.
func NewAsyncRecorder(repo repository.AuditLogRepository, log *logger.Logger, bufferSize int) *AsyncRecorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &AsyncRecorder{
		repo:  repo,
		log:   log,
		queue: make(chan *entity.AuditLog, bufferSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record encola una entrada con severidad info.
func (r *AsyncRecorder) Record(userID, tableName, recordID string, details entity.AuditDetails) {
	r.enqueue(userID, tableName, recordID, entity.AuditSeverityInfo, details)
}

// RecordWarning encola una entrada con severidad warning (ej. clamp de stock).
func (r *AsyncRecorder) RecordWarning(userID, tableName, recordID string, details entity.AuditDetails) {
	r.enqueue(userID, tableName, recordID, entity.AuditSeverityWarning, details)
}

func (r *AsyncRecorder) enqueue(userID, tableName, recordID, severity string, details entity.AuditDetails) {
	payload, err := json.Marshal(details)
	if err != nil {
		r.log.Warn().Err(err).Str("action", details.AuditAction()).Msg("auditoría: serializar detalles")
		payload = nil
	}
	log := &entity.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    details.AuditAction(),
		TableName: tableName,
		RecordID:  recordID,
		Details:   payload,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	select {
	case r.queue <- log:
	default:
		// Buffer lleno: perder la entrada antes que bloquear la operación.
		r.log.Warn().
			Str("action", log.Action).
			Str("record_id", recordID).
			Msg("auditoría: buffer lleno, entrada descartada")
	}
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for log := range r.queue {
		if err := r.repo.Create(log); err != nil {
			// El fallo se registra y se descarta: nunca revierte ni
			// retrasa la operación que originó la entrada.
			r.log.Error().Err(err).
				Str("action", log.Action).
				Str("record_id", log.RecordID).
				Msg("auditoría: persistir entrada")
		}
	}
}

// Close drena el buffer y detiene el worker. Usar en el apagado ordenado.
func (r *AsyncRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

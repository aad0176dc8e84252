package production

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
)

// PlanSource entrega los planes de producción vigentes. El poller sirve la última foto en
// memoria; DirectPlanSource consulta el repositorio en cada llamada.
type PlanSource interface {
	Plans(ctx context.Context) ([]entity.ProductionPlan, error)
}

// DirectPlanSource adapta un ProductionPlanRepository a PlanSource sin caché.
type DirectPlanSource struct {
	Repo repository.ProductionPlanRepository
}

// Plans implementa PlanSource.
func (s DirectPlanSource) Plans(ctx context.Context) ([]entity.ProductionPlan, error) {
	return s.Repo.List(ctx)
}

// MoveHistoryReport datos del reporte de historial de movimientos de un lote.
type MoveHistoryReport struct {
	Batch       *entity.Batch
	Ledgers     map[entity.StageID][]entity.SplitEntry
	GeneratedAt time.Time
}

// ReportGenerator genera el PDF del historial de movimientos.
type ReportGenerator interface {
	GenerateMoveHistoryPDF(ctx context.Context, report MoveHistoryReport) ([]byte, error)
}

// FlowRecorder registra eventos del flujo (métricas). Las implementaciones no deben bloquear.
type FlowRecorder interface {
	StageCompleted(stage entity.StageID, partial bool)
	Rejected(stage entity.StageID, cause error)
	PlanPoll(err error, fetchedAt time.Time)
}

// NopRecorder FlowRecorder que no registra nada.
type NopRecorder struct{}

func (NopRecorder) StageCompleted(entity.StageID, bool) {}
func (NopRecorder) Rejected(entity.StageID, error)      {}
func (NopRecorder) PlanPoll(error, time.Time)           {}

// RejectedError rechazo de negocio: Reason va al usuario, Cause es el sentinel de dominio.
type RejectedError struct {
	Reason string
	Cause  error
}

func (e *RejectedError) Error() string { return e.Reason }

func (e *RejectedError) Unwrap() error { return e.Cause }

// AsRejected extrae el RejectedError de la cadena, si existe.
func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

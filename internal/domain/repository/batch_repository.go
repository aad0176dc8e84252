package repository

import (
	"context"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// BatchRepository define el puerto de persistencia para lotes de producción.
// Las escrituras son última-escritura-gana: el almacén (hoja de cálculo) no tiene versionado
// de filas, dos completados concurrentes sobre el mismo lote pueden perder una actualización.
type BatchRepository interface {
	GetByDispatchID(ctx context.Context, dispatchID string) (*entity.Batch, error)
	List(ctx context.Context) ([]*entity.Batch, error)
	Create(ctx context.Context, batch *entity.Batch) error
	// ApplyMutation aplica la mutación descrita por el motor. Reaplicar la misma mutación (mismo ID) no tiene efecto.
	ApplyMutation(ctx context.Context, m *production.Mutation) (*entity.Batch, error)
	// UpdateStageStatus reemplaza el campo codificado de una etapa (ediciones manuales de estado/fecha).
	UpdateStageStatus(ctx context.Context, dispatchID string, stage entity.StageID, encoded string) error
}

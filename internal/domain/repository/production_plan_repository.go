package repository

import (
	"context"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// ProductionPlanRepository lectura de los planes de producción mantenidos por otro sistema.
type ProductionPlanRepository interface {
	List(ctx context.Context) ([]entity.ProductionPlan, error)
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
)

var _ repository.ProductionPlanRepository = (*PlanRepo)(nil)

// PlanRepo lectura de production_plans. batch_info (jsonb) se entrega ya decodificado.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// List todos los planes.
func (r *PlanRepo) List(ctx context.Context) ([]entity.ProductionPlan, error) {
	rows, err := r.q.Query(ctx, `SELECT plan_id, batch_info, created_at FROM production_plans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var list []entity.ProductionPlan
	for rows.Next() {
		var (
			p   entity.ProductionPlan
			raw []byte
		)
		if err := rows.Scan(&p.PlanID, &raw, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if len(raw) > 0 {
			var info any
			if err := json.Unmarshal(raw, &info); err != nil {
				// se entrega crudo; el conciliador lo registra y no lo cuenta
				p.BatchInfo = raw
			} else {
				p.BatchInfo = info
			}
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

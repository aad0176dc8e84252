package spreadsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// Columnas de la hoja ProductionPlans.
const (
	colPlanID    = "planId"
	colBatchInfo = "batchInfo"
	colCreatedAt = "createdAt"
)

// PlanRepository implementa repository.ProductionPlanRepository sobre la hoja ProductionPlans.
// batchInfo se entrega como el texto JSON de la celda; el conciliador lo decodifica.
type PlanRepository struct {
	wb *Workbook
}

// NewPlanRepository construye el repositorio.
func NewPlanRepository(wb *Workbook) *PlanRepository {
	return &PlanRepository{wb: wb}
}

// List todos los planes de la hoja.
func (r *PlanRepository) List(_ context.Context) ([]entity.ProductionPlan, error) {
	var out []entity.ProductionPlan
	err := r.wb.read(func(f *excelize.File) error {
		t, err := loadTable(f, SheetPlans)
		if err != nil {
			return err
		}
		out = make([]entity.ProductionPlan, 0, len(t.rows))
		for i := range t.rows {
			rec := t.record(i)
			id := rec.get(colPlanID)
			if id == "" {
				continue
			}
			p := entity.ProductionPlan{PlanID: id}
			if raw := rec.get(colBatchInfo); raw != "" {
				p.BatchInfo = raw
			}
			if raw := rec.get(colCreatedAt); raw != "" {
				if ts, err := time.Parse(time.RFC3339, raw); err == nil {
					p.CreatedAt = ts
				}
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// Append agrega un plan (lo usan el importador y los tests; en producción los planes los escribe otro sistema).
// BatchInfo se serializa a JSON salvo que ya sea texto.
func (r *PlanRepository) Append(_ context.Context, plan entity.ProductionPlan) error {
	if plan.PlanID == "" {
		return domain.ErrInvalidInput
	}
	var info string
	switch v := plan.BatchInfo.(type) {
	case nil:
	case string:
		info = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("spreadsheet: plan %s: batchInfo: %w", plan.PlanID, err)
		}
		info = string(raw)
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = r.wb.now()
	}
	return r.wb.update(func(f *excelize.File) (bool, error) {
		t, err := loadTable(f, SheetPlans)
		if err != nil {
			return false, err
		}
		if t.find(colPlanID, plan.PlanID) >= 0 {
			return false, domain.ErrConflict
		}
		if err := t.ensureColumns(f, planHeaders); err != nil {
			return false, err
		}
		return true, t.writeRow(f, len(t.rows), map[string]string{
			colPlanID:    plan.PlanID,
			colBatchInfo: info,
			colCreatedAt: plan.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
}

package spreadsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// Columnas de la hoja Batches. Las de estado coinciden con los campos del motor.
const (
	colDispatchID      = "dispatchId"
	colUniqueID        = "uniqueId"
	colOrderType       = "orderType"
	colQuantity        = "quantity"
	colUpdatedQuantity = "updatedQuantity"
	colStore1          = production.FieldStore1Status
	colCableProd       = production.FieldCableProdStatus
	colStore2          = production.FieldStore2Status
	colMoulding        = production.FieldMouldingProdStatus
	colFGSection       = production.FieldFGSectionStatus
	colDispatch        = production.FieldDispatchStatus
	colMoveHistory     = "moveHistory"
	colLastMutationID  = "lastMutationId"
	colUpdatedAt       = "updatedAt"
)

// BatchRepository implementa repository.BatchRepository sobre la hoja Batches.
type BatchRepository struct {
	wb *Workbook
}

// NewBatchRepository construye el repositorio.
func NewBatchRepository(wb *Workbook) *BatchRepository {
	return &BatchRepository{wb: wb}
}

// GetByDispatchID devuelve nil, nil si el lote no existe.
func (r *BatchRepository) GetByDispatchID(_ context.Context, dispatchID string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.wb.read(func(f *excelize.File) error {
		t, err := loadTable(f, SheetBatches)
		if err != nil {
			return err
		}
		i := t.find(colDispatchID, dispatchID)
		if i < 0 {
			return nil
		}
		out, err = batchFromRecord(t.record(i))
		return err
	})
	return out, err
}

// List todos los lotes en el orden de la hoja. Filas sin dispatchId se ignoran.
func (r *BatchRepository) List(_ context.Context) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := r.wb.read(func(f *excelize.File) error {
		t, err := loadTable(f, SheetBatches)
		if err != nil {
			return err
		}
		out = make([]*entity.Batch, 0, len(t.rows))
		for i := range t.rows {
			if t.value(i, colDispatchID) == "" {
				continue
			}
			b, err := batchFromRecord(t.record(i))
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	return out, err
}

// Create agrega una fila. ErrConflict si el dispatchId ya existe.
func (r *BatchRepository) Create(_ context.Context, b *entity.Batch) error {
	return r.wb.update(func(f *excelize.File) (bool, error) {
		t, err := loadTable(f, SheetBatches)
		if err != nil {
			return false, err
		}
		if t.find(colDispatchID, b.DispatchID) >= 0 {
			return false, domain.ErrConflict
		}
		if err := t.ensureColumns(f, batchHeaders); err != nil {
			return false, err
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = r.wb.now()
		}
		rec, err := batchToRecord(b)
		if err != nil {
			return false, err
		}
		return true, t.writeRow(f, len(t.rows), rec)
	})
}

// ApplyMutation lee la fila, aplica la mutación y la sobrescribe (última escritura gana).
// El remanente de un movimiento parcial se agrega como fila nueva.
func (r *BatchRepository) ApplyMutation(_ context.Context, m *production.Mutation) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.wb.update(func(f *excelize.File) (bool, error) {
		t, err := loadTable(f, SheetBatches)
		if err != nil {
			return false, err
		}
		i := t.find(colDispatchID, m.DispatchID)
		if i < 0 {
			return false, domain.ErrNotFound
		}
		b, err := batchFromRecord(t.record(i))
		if err != nil {
			return false, err
		}
		updated, rem, applied := production.Apply(b, m, r.wb.now())
		out = updated
		if !applied {
			return false, nil
		}
		if err := t.ensureColumns(f, batchHeaders); err != nil {
			return false, err
		}
		rec, err := batchToRecord(updated)
		if err != nil {
			return false, err
		}
		if err := t.writeRow(f, i, rec); err != nil {
			return false, err
		}
		if rem != nil {
			if t.find(colDispatchID, rem.DispatchID) >= 0 {
				return false, fmt.Errorf("%w: remanente %s ya existe", domain.ErrConflict, rem.DispatchID)
			}
			remRec, err := batchToRecord(rem)
			if err != nil {
				return false, err
			}
			if err := t.writeRow(f, len(t.rows), remRec); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStageStatus reemplaza solo la celda de estado de la etapa y updatedAt.
func (r *BatchRepository) UpdateStageStatus(_ context.Context, dispatchID string, stage entity.StageID, encoded string) error {
	def, ok := production.Lookup(stage)
	if !ok || def.Field == "" {
		return domain.ErrUnknownStage
	}
	return r.wb.update(func(f *excelize.File) (bool, error) {
		t, err := loadTable(f, SheetBatches)
		if err != nil {
			return false, err
		}
		i := t.find(colDispatchID, dispatchID)
		if i < 0 {
			return false, domain.ErrNotFound
		}
		if err := t.ensureColumns(f, []string{def.Field, colUpdatedAt}); err != nil {
			return false, err
		}
		return true, t.writeRow(f, i, map[string]string{
			def.Field:    encoded,
			colUpdatedAt: r.wb.now().UTC().Format(time.RFC3339),
		})
	})
}

func batchFromRecord(rec record) (*entity.Batch, error) {
	id := rec.get(colDispatchID)
	qty, err := parseQuantity(rec.get(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: lote %s: quantity: %w", id, err)
	}
	b := &entity.Batch{
		DispatchID:         id,
		UniqueID:           rec.get(colUniqueID),
		OrderType:          production.ParseOrderType(rec.get(colOrderType)),
		Quantity:           qty,
		Store1Status:       rec.get(colStore1),
		CableProdStatus:    rec.get(colCableProd),
		Store2Status:       rec.get(colStore2),
		MouldingProdStatus: rec.get(colMoulding),
		FGSectionStatus:    rec.get(colFGSection),
		DispatchStatus:     rec.get(colDispatch),
		LastMutationID:     rec.get(colLastMutationID),
	}
	if raw := rec.get(colUpdatedQuantity); raw != "" {
		q, err := parseQuantity(raw)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: lote %s: updatedQuantity: %w", id, err)
		}
		b.UpdatedQuantity = &q
	}
	if raw := rec.get(colMoveHistory); raw != "" {
		if err := json.Unmarshal([]byte(raw), &b.MoveHistory); err != nil {
			return nil, fmt.Errorf("spreadsheet: lote %s: moveHistory: %w", id, err)
		}
	}
	if raw := rec.get(colUpdatedAt); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			b.UpdatedAt = ts
		}
	}
	return b, nil
}

func batchToRecord(b *entity.Batch) (map[string]string, error) {
	rec := map[string]string{
		colDispatchID:      b.DispatchID,
		colUniqueID:        b.UniqueID,
		colOrderType:       string(b.OrderType),
		colQuantity:        strconv.Itoa(b.Quantity),
		colUpdatedQuantity: "",
		colStore1:          b.Store1Status,
		colCableProd:       b.CableProdStatus,
		colStore2:          b.Store2Status,
		colMoulding:        b.MouldingProdStatus,
		colFGSection:       b.FGSectionStatus,
		colDispatch:        b.DispatchStatus,
		colMoveHistory:     "",
		colLastMutationID:  b.LastMutationID,
		colUpdatedAt:       "",
	}
	if b.UpdatedQuantity != nil {
		rec[colUpdatedQuantity] = strconv.Itoa(*b.UpdatedQuantity)
	}
	if len(b.MoveHistory) > 0 {
		raw, err := json.Marshal(b.MoveHistory)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: lote %s: moveHistory: %w", b.DispatchID, err)
		}
		rec[colMoveHistory] = string(raw)
	}
	if !b.UpdatedAt.IsZero() {
		rec[colUpdatedAt] = b.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return rec, nil
}

// parseQuantity acepta "1000" y también "1000.0" (celdas numéricas exportadas como texto).
func parseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("cantidad no entera %q", s)
	}
	return int(f), nil
}

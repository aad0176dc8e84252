package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `dispatch_id, unique_id, order_type, quantity, updated_quantity,
	store1_status, cable_prod_status, store2_status, moulding_prod_status, fg_section_status, dispatch_status,
	move_history, last_mutation_id, updated_at`

// statusColumns columna SQL por etapa.
var statusColumns = map[entity.StageID]string{
	entity.StageStore1:          "store1_status",
	entity.StageCableProduction: "cable_prod_status",
	entity.StageStore2:          "store2_status",
	entity.StageMoulding:        "moulding_prod_status",
	entity.StageFGSection:       "fg_section_status",
	entity.StageDispatch:        "dispatch_status",
}

// BatchRepo implementación de repository.BatchRepository sobre PostgreSQL.
// Sin SELECT FOR UPDATE ni versión de fila: misma semántica de última escritura que la hoja.
type BatchRepo struct {
	db  TxBeginner
	now func() time.Time
}

// NewBatchRepository construye el adaptador. Pasar el pool.
func NewBatchRepository(db TxBeginner) *BatchRepo {
	return &BatchRepo{db: db, now: time.Now}
}

// GetByDispatchID devuelve nil, nil si no existe.
func (r *BatchRepo) GetByDispatchID(ctx context.Context, dispatchID string) (*entity.Batch, error) {
	return getBatch(ctx, r.db, dispatchID)
}

func getBatch(ctx context.Context, q Querier, dispatchID string) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM production_batches WHERE dispatch_id = $1`
	b, err := scanBatch(q.QueryRow(ctx, query, dispatchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// List todos los lotes por fecha de creación.
func (r *BatchRepo) List(ctx context.Context) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM production_batches ORDER BY created_at, dispatch_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Create inserta el lote. ErrConflict si el dispatch_id ya existe.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	if err := insertBatch(ctx, r.db, b); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, q Querier, b *entity.Batch) error {
	history, err := marshalHistory(b.MoveHistory)
	if err != nil {
		return err
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	query := `
		INSERT INTO production_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14)`
	_, err = q.Exec(ctx, query,
		b.DispatchID, b.UniqueID, string(b.OrderType), b.Quantity, b.UpdatedQuantity,
		b.Store1Status, b.CableProdStatus, b.Store2Status, b.MouldingProdStatus, b.FGSectionStatus, b.DispatchStatus,
		history, b.LastMutationID, b.UpdatedAt,
	)
	return err
}

// ApplyMutation lee el lote, aplica la mutación y escribe la fila completa (y el remanente) en una transacción.
func (r *BatchRepo) ApplyMutation(ctx context.Context, m *production.Mutation) (*entity.Batch, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := getBatch(ctx, tx, m.DispatchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	updated, rem, applied := production.Apply(b, m, r.now())
	if !applied {
		return b, nil
	}

	history, err := marshalHistory(updated.MoveHistory)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE production_batches SET
			updated_quantity = $2,
			store1_status = $3, cable_prod_status = $4, store2_status = $5,
			moulding_prod_status = $6, fg_section_status = $7, dispatch_status = $8,
			move_history = $9::jsonb, last_mutation_id = $10, updated_at = $11
		WHERE dispatch_id = $1`
	if _, err := tx.Exec(ctx, query,
		updated.DispatchID, updated.UpdatedQuantity,
		updated.Store1Status, updated.CableProdStatus, updated.Store2Status,
		updated.MouldingProdStatus, updated.FGSectionStatus, updated.DispatchStatus,
		history, updated.LastMutationID, updated.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update batch: %w", err)
	}
	if rem != nil {
		if err := insertBatch(ctx, tx, rem); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: remanente %s ya existe", domain.ErrConflict, rem.DispatchID)
			}
			return nil, fmt.Errorf("insert remainder: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// UpdateStageStatus reemplaza el estado codificado de una etapa.
func (r *BatchRepo) UpdateStageStatus(ctx context.Context, dispatchID string, stage entity.StageID, encoded string) error {
	col, ok := statusColumns[stage]
	if !ok {
		return domain.ErrUnknownStage
	}
	query := `UPDATE production_batches SET ` + col + ` = $2, updated_at = $3 WHERE dispatch_id = $1`
	cmd, err := r.db.Exec(ctx, query, dispatchID, encoded, r.now())
	if err != nil {
		return fmt.Errorf("update stage status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var (
		b         entity.Batch
		orderType string
		history   []byte
	)
	if err := row.Scan(
		&b.DispatchID, &b.UniqueID, &orderType, &b.Quantity, &b.UpdatedQuantity,
		&b.Store1Status, &b.CableProdStatus, &b.Store2Status, &b.MouldingProdStatus, &b.FGSectionStatus, &b.DispatchStatus,
		&history, &b.LastMutationID, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.OrderType = production.ParseOrderType(orderType)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &b.MoveHistory); err != nil {
			return nil, fmt.Errorf("move_history de %s: %w", b.DispatchID, err)
		}
	}
	return &b, nil
}

func marshalHistory(h []entity.SplitEntry) (string, error) {
	if len(h) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("marshal move_history: %w", err)
	}
	return string(raw), nil
}

package postgres

import (
	"context"
	"fmt"
)

// Mismas columnas planas que la hoja de cálculo: los estados son texto "STATUS|FECHA|FECHA".
const schemaSQL = `
CREATE TABLE IF NOT EXISTS production_batches (
	dispatch_id          TEXT PRIMARY KEY,
	unique_id            TEXT NOT NULL,
	order_type           TEXT NOT NULL DEFAULT 'POWER_CORD',
	quantity             INTEGER NOT NULL,
	updated_quantity     INTEGER,
	store1_status        TEXT NOT NULL DEFAULT 'NEW',
	cable_prod_status    TEXT NOT NULL DEFAULT 'NEW',
	store2_status        TEXT NOT NULL DEFAULT 'NEW',
	moulding_prod_status TEXT NOT NULL DEFAULT 'NEW',
	fg_section_status    TEXT NOT NULL DEFAULT 'NEW',
	dispatch_status      TEXT NOT NULL DEFAULT 'NEW',
	move_history         JSONB NOT NULL DEFAULT '[]'::jsonb,
	last_mutation_id     TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_production_batches_unique_id ON production_batches (unique_id);

CREATE TABLE IF NOT EXISTS production_plans (
	plan_id    TEXT PRIMARY KEY,
	batch_info JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("crear esquema: %w", err)
	}
	return nil
}

package entity

import "time"

// ProductionPlan plan de producción mantenido por un sistema externo (solo lectura para el motor).
// BatchInfo puede llegar como string JSON, []byte o ya decodificado por la capa de transporte.
type ProductionPlan struct {
	PlanID    string
	BatchInfo any
	CreatedAt time.Time
}

// PlanBatch entrada de batchInfo. Solo DispatchID participa en la conciliación.
type PlanBatch struct {
	DispatchID string `json:"dispatchId"`
	BatchID    string `json:"batchId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
}

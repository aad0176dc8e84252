package dto

import "time"

// CreateBatchRequest body para POST /api/batches (alta del lote al registrar el despacho).
type CreateBatchRequest struct {
	DispatchID string `json:"dispatch_id" validate:"required,max=64"`
	UniqueID   string `json:"unique_id" validate:"required,max=64"`
	OrderType  string `json:"order_type" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// CompleteStageRequest body para POST /api/batches/:dispatchId/stages/:stage/complete.
// Quantity nil = se mueve todo el lote.
type CompleteStageRequest struct {
	Quantity *int   `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	DueDate  string `json:"due_date,omitempty"`
	Details  string `json:"details,omitempty" validate:"max=500"`
}

// UpdateStatusRequest body para PUT .../status.
type UpdateStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=NEW IN_PROGRESS COMPLETED"`
	DueDate string `json:"due_date,omitempty"`
}

// UpdateDueDateRequest body para PUT .../due-date. Vacío borra la fecha límite.
type UpdateDueDateRequest struct {
	DueDate string `json:"due_date"`
}

// GateDTO decisión de compuerta para pintar el control (habilitado + tooltip).
type GateDTO struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// StageStatusDTO estado decodificado de una etapa.
type StageStatusDTO struct {
	Stage          string  `json:"stage"`
	Label          string  `json:"label"`
	Applies        bool    `json:"applies"` // false si el tipo de orden omite la etapa
	Raw            string  `json:"raw"`
	Status         string  `json:"status"`
	CompletionDate *string `json:"completion_date"`
	DueDate        *string `json:"due_date"`
	CanEnter       GateDTO `json:"can_enter"`
	CanComplete    GateDTO `json:"can_complete"`
}

// SplitEntryDTO entrada del historial de movimientos.
type SplitEntryDTO struct {
	Date              string `json:"date"`
	Stage             string `json:"stage"`
	QuantityMoved     int    `json:"quantity_moved"`
	QuantityRemaining int    `json:"quantity_remaining"`
	Details           string `json:"details,omitempty"`
}

// BatchStatusResponse vista completa del lote en el flujo.
type BatchStatusResponse struct {
	DispatchID        string           `json:"dispatch_id"`
	UniqueID          string           `json:"unique_id"`
	OrderType         string           `json:"order_type"`
	Quantity          int              `json:"quantity"`
	EffectiveQuantity int              `json:"effective_quantity"`
	CurrentStage      string           `json:"current_stage"`
	NextStage         *string          `json:"next_stage"`
	CanAdvance        GateDTO          `json:"can_advance"`
	Delivered         bool             `json:"delivered"`
	InProductionPlan  bool             `json:"in_production_plan"`
	Stages            []StageStatusDTO `json:"stages"`
	MoveHistory       []SplitEntryDTO  `json:"move_history"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// BatchSummaryDTO fila del listado de lotes.
type BatchSummaryDTO struct {
	DispatchID        string `json:"dispatch_id"`
	UniqueID          string `json:"unique_id"`
	OrderType         string `json:"order_type"`
	EffectiveQuantity int    `json:"effective_quantity"`
	CurrentStage      string `json:"current_stage"`
	CurrentStatus     string `json:"current_status"`
}

// BatchListResponse lista paginada de lotes.
type BatchListResponse struct {
	Items []BatchSummaryDTO `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StageMutationResponse resultado de completar una etapa.
type StageMutationResponse struct {
	MutationID        string         `json:"mutation_id"`
	DispatchID        string         `json:"dispatch_id"`
	Stage             string         `json:"stage"`
	Status            string         `json:"status"` // valor codificado persistido
	UpdatedQuantity   *int           `json:"updated_quantity,omitempty"`
	LedgerEntry       *SplitEntryDTO `json:"ledger_entry,omitempty"`
	RemainderDispatch *string        `json:"remainder_dispatch_id,omitempty"`
	RemainderQuantity *int           `json:"remainder_quantity,omitempty"`
}

// AdvanceResponse resultado de "pasar al siguiente módulo".
type AdvanceResponse struct {
	DispatchID string `json:"dispatch_id"`
	From       string `json:"from"`
	To         string `json:"to"` // DELIVERED cuando despacho estaba completado
}

// CableCandidateDTO lote candidato a entrar a producción de cable.
// Selectable=false deshabilita el checkbox: el lote ya está en un plan.
type CableCandidateDTO struct {
	DispatchID        string `json:"dispatch_id"`
	UniqueID          string `json:"unique_id"`
	EffectiveQuantity int    `json:"effective_quantity"`
	Store1Completed   string `json:"store1_completed_on,omitempty"`
	Committed         bool   `json:"committed"`
	Selectable        bool   `json:"selectable"`
	Reason            string `json:"reason,omitempty"`
}

package production

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// ReasonNoProductionPlan motivo de rechazo al completar producción de cable sin plan.
const ReasonNoProductionPlan = "no production plan exists yet"

// Mutation escritura descrita que el escritor externo debe aplicar de forma idempotente (por ID).
type Mutation struct {
	ID              string
	DispatchID      string
	Stage           entity.StageID
	StatusField     string
	Status          string             // nuevo valor codificado del campo
	UpdatedQuantity *int               // nil = sin cambio
	Append          *entity.SplitEntry // entrada a agregar al historial
	Remainder       *Remainder         // lote que queda en la etapa tras un movimiento parcial
}

// Remainder la parte no movida queda como un lote nuevo de la misma línea de orden (UniqueID),
// con el estado de la etapa sin cambios, para poder dividirse de nuevo más adelante.
type Remainder struct {
	DispatchID string
	UniqueID   string
	Quantity   int
}

// CompletionRequest petición de completar una etapa. Quantity nil = mover todo.
type CompletionRequest struct {
	Stage    entity.StageID
	Quantity *int
	DueDate  string
	Details  string
}

// Result decisión del orquestador. Si Allowed es false, Reason explica el motivo al usuario
// y Cause lo clasifica (ErrStageGateClosed, ErrNoProductionPlan, ErrConflict o error de cantidad).
type Result struct {
	Allowed  bool
	Reason   string
	Cause    error
	Mutation *Mutation
}

// Advance resultado de pedir el paso al siguiente módulo.
type Advance struct {
	Current entity.StageID
	Next    entity.StageID
	Allowed bool
	Reason  string
}

// FlowOrchestrator compone compuerta, conciliador, historial y codec.
type FlowOrchestrator struct {
	codec      *Codec
	reconciler *PlanReconciler
	newID      func() string
}

// NewFlowOrchestrator construye el orquestador.
func NewFlowOrchestrator(codec *Codec, reconciler *PlanReconciler) *FlowOrchestrator {
	return &FlowOrchestrator{
		codec:      codec,
		reconciler: reconciler,
		newID:      func() string { return uuid.New().String() },
	}
}

// Codec expone el codec (para ediciones de estado fuera del flujo de completado).
func (o *FlowOrchestrator) Codec() *Codec { return o.codec }

// Reconciler expone el conciliador de planes.
func (o *FlowOrchestrator) Reconciler() *PlanReconciler { return o.reconciler }

// CanComplete compuerta de "marcar completada": la etapa debe estar en el recorrido del tipo
// de orden, CanEnter debe permitirla y, para producción de cable, debe existir un plan con el lote.
func (o *FlowOrchestrator) CanComplete(b *entity.Batch, stage entity.StageID, plans []entity.ProductionPlan) GateDecision {
	if reason, skipped := notApplicable(b, stage); skipped {
		return deny(reason)
	}
	gate := CanEnter(b, stage)
	if !gate.Allowed {
		return gate
	}
	if stage == entity.StageCableProduction && !o.reconciler.IsAlreadyCommitted(b.DispatchID, plans) {
		return deny(ReasonNoProductionPlan)
	}
	return gate
}

// RequestStageCompletion valida y calcula la mutación de completar la etapa. Nunca persiste.
// Los rechazos de compuerta vuelven como Result{Allowed:false}; los errores de cantidad
// vuelven además como error de validación.
func (o *FlowOrchestrator) RequestStageCompletion(b *entity.Batch, req CompletionRequest, plans []entity.ProductionPlan) (Result, error) {
	if b == nil {
		return Result{Reason: "batch not found", Cause: domain.ErrNotFound}, domain.ErrNotFound
	}
	def, known := Lookup(req.Stage)
	if !known || def.Field == "" {
		return Result{Reason: fmt.Sprintf("stage %q cannot be completed", req.Stage), Cause: domain.ErrUnknownStage}, domain.ErrUnknownStage
	}

	if reason, skipped := notApplicable(b, req.Stage); skipped {
		return Result{Reason: reason, Cause: domain.ErrConflict}, nil
	}
	if gate := CanEnter(b, req.Stage); !gate.Allowed {
		return Result{Reason: gate.Reason, Cause: domain.ErrStageGateClosed}, nil
	}
	if req.Stage == entity.StageCableProduction && !o.reconciler.IsAlreadyCommitted(b.DispatchID, plans) {
		return Result{Reason: ReasonNoProductionPlan, Cause: domain.ErrNoProductionPlan}, nil
	}

	current, _ := b.StageStatus(req.Stage)
	if Decode(current).IsCompleted() {
		return Result{Reason: fmt.Sprintf("%s is already completed", req.Stage.Label()), Cause: domain.ErrConflict}, nil
	}

	m := &Mutation{
		ID:          o.newID(),
		DispatchID:  b.DispatchID,
		Stage:       req.Stage,
		StatusField: def.Field,
		Status:      o.codec.MarkCompleted(current, req.DueDate),
	}

	// Con cantidad explícita, o en un lote que ya tiene historial en la etapa (remanente),
	// el movimiento queda en el historial aunque sea total: remaining 0 cierra la suma.
	if req.Quantity != nil || len(LedgerFor(b.MoveHistory, req.Stage)) > 0 {
		qty := b.EffectiveQuantity()
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		split, err := ApplySplit(b, req.Stage, qty, req.Details, o.codec.Today())
		if err != nil {
			return Result{Reason: quantityReason(err, qty, b.EffectiveQuantity()), Cause: err}, err
		}
		entry := split.Entry
		m.Append = &entry
		if split.Partial {
			moved := split.StageQuantity
			m.UpdatedQuantity = &moved
			m.Remainder = &Remainder{
				DispatchID: remainderID(b, req.Stage),
				UniqueID:   b.UniqueID,
				Quantity:   split.Remaining,
			}
		}
	}

	return Result{Allowed: true, Mutation: m}, nil
}

// RequestStageAdvance siguiente etapa si la actual está completada.
func (o *FlowOrchestrator) RequestStageAdvance(b *entity.Batch) Advance {
	gate := CanAdvance(b)
	if b == nil {
		return Advance{Reason: gate.Reason}
	}
	current := CurrentStage(b)
	out := Advance{Current: current, Reason: gate.Reason}
	if !gate.Allowed {
		return out
	}
	next, ok := NextStage(current, b.OrderType)
	if !ok {
		out.Reason = fmt.Sprintf("%s is the last stage", current.Label())
		return out
	}
	out.Next = next
	out.Allowed = true
	return out
}

// notApplicable motivo si el tipo de orden no pasa por la etapa.
func notApplicable(b *entity.Batch, stage entity.StageID) (string, bool) {
	if b == nil || AppliesTo(stage, b.OrderType) {
		return "", false
	}
	return fmt.Sprintf("%s does not apply to %s orders", stage.Label(), b.OrderType), true
}

func quantityReason(err error, requested, available int) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "quantity to move must be greater than zero"
	case errors.Is(err, domain.ErrQuantityExceedsRemaining):
		return fmt.Sprintf("quantity to move (%d) exceeds the available quantity (%d)", requested, available)
	}
	return err.Error()
}

// remainderID deriva el dispatchId del remanente: <original>-S<n>, n = divisiones previas en la etapa + 1.
func remainderID(b *entity.Batch, stage entity.StageID) string {
	n := len(LedgerFor(b.MoveHistory, stage)) + 1
	return fmt.Sprintf("%s-S%d", b.DispatchID, n)
}

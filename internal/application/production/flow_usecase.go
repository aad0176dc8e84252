package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
	"github.com/jhoicas/produccion-flow/internal/domain/repository"
)

// FlowUseCase casos de uso del flujo de producción: completar etapas, avanzar de módulo,
// editar estado/fecha límite y consultar el estado del lote.
type FlowUseCase struct {
	batchRepo repository.BatchRepository
	plans     PlanSource
	orch      *production.FlowOrchestrator
	reports   ReportGenerator
	recorder  FlowRecorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewFlowUseCase construye el caso de uso. reports y recorder pueden ser nil.
func NewFlowUseCase(
	batchRepo repository.BatchRepository,
	plans PlanSource,
	orch *production.FlowOrchestrator,
	reports ReportGenerator,
	recorder FlowRecorder,
	log zerolog.Logger,
) *FlowUseCase {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &FlowUseCase{
		batchRepo: batchRepo,
		plans:     plans,
		orch:      orch,
		reports:   reports,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

// CreateBatchInput alta de un lote (normalmente al registrar la línea de despacho).
type CreateBatchInput struct {
	DispatchID string
	UniqueID   string
	OrderType  string
	Quantity   int
}

// CompleteStageInput entrada para marcar una etapa como completada.
type CompleteStageInput struct {
	DispatchID string
	Stage      string
	Quantity   *int // nil = mover todo el lote
	DueDate    string
	Details    string
}

// CompletionOutput resultado de un completado aplicado.
type CompletionOutput struct {
	Mutation *production.Mutation
	Batch    *entity.Batch
}

// CreateBatch registra un lote nuevo con todas las etapas en NEW.
func (uc *FlowUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	in.DispatchID = strings.TrimSpace(in.DispatchID)
	in.UniqueID = strings.TrimSpace(in.UniqueID)
	if in.DispatchID == "" || in.UniqueID == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if strings.Contains(in.DispatchID, "|") {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.batchRepo.GetByDispatchID(ctx, in.DispatchID)
	if err != nil {
		return nil, fmt.Errorf("production: buscar lote: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}

	b := &entity.Batch{
		DispatchID:         in.DispatchID,
		UniqueID:           in.UniqueID,
		OrderType:          production.ParseOrderType(in.OrderType),
		Quantity:           in.Quantity,
		Store1Status:       entity.StatusNew,
		CableProdStatus:    entity.StatusNew,
		Store2Status:       entity.StatusNew,
		MouldingProdStatus: entity.StatusNew,
		FGSectionStatus:    entity.StatusNew,
		DispatchStatus:     entity.StatusNew,
		UpdatedAt:          uc.now(),
	}
	if err := uc.batchRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("production: crear lote: %w", err)
	}
	uc.log.Info().Str("dispatch_id", b.DispatchID).Str("order_type", string(b.OrderType)).
		Int("quantity", b.Quantity).Msg("lote creado")
	return b, nil
}

// CompleteStage valida con el orquestador y aplica la mutación resultante.
//
// Retorna:
//   - domain.ErrUnknownStage      si la etapa no existe o no tiene campo propio.
//   - domain.ErrInvalidInput      si la fecha límite no es reconocible.
//   - domain.ErrNotFound          si el lote no existe.
//   - *RejectedError              si la compuerta, el plan o la cantidad rechazan el movimiento.
func (uc *FlowUseCase) CompleteStage(ctx context.Context, in CompleteStageInput) (*CompletionOutput, error) {
	stage, err := uc.stageWithField(in.Stage)
	if err != nil {
		return nil, err
	}
	if err := uc.validDue(in.DueDate); err != nil {
		return nil, err
	}
	b, err := uc.load(ctx, in.DispatchID)
	if err != nil {
		return nil, err
	}

	var plans []entity.ProductionPlan
	if stage == entity.StageCableProduction {
		if plans, err = uc.plans.Plans(ctx); err != nil {
			return nil, fmt.Errorf("production: leer planes: %w", err)
		}
	}

	res, err := uc.orch.RequestStageCompletion(b, production.CompletionRequest{
		Stage:    stage,
		Quantity: in.Quantity,
		DueDate:  in.DueDate,
		Details:  strings.TrimSpace(in.Details),
	}, plans)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnknownStage) {
			return nil, err
		}
		return nil, uc.reject(b, stage, res.Reason, err)
	}
	if !res.Allowed {
		return nil, uc.reject(b, stage, res.Reason, res.Cause)
	}

	updated, err := uc.batchRepo.ApplyMutation(ctx, res.Mutation)
	if err != nil {
		return nil, fmt.Errorf("production: aplicar mutación %s: %w", res.Mutation.ID, err)
	}
	partial := res.Mutation.Remainder != nil
	uc.recorder.StageCompleted(stage, partial)

	ev := uc.log.Info().Str("dispatch_id", b.DispatchID).Str("stage", string(stage)).
		Str("mutation_id", res.Mutation.ID).Str("status", res.Mutation.Status)
	if partial {
		ev = ev.Int("moved", *res.Mutation.UpdatedQuantity).
			Str("remainder_dispatch_id", res.Mutation.Remainder.DispatchID).
			Int("remaining", res.Mutation.Remainder.Quantity)
	}
	ev.Msg("etapa completada")

	return &CompletionOutput{Mutation: res.Mutation, Batch: updated}, nil
}

// AdvanceStage pasa el lote al siguiente módulo: la etapa actual debe estar completada.
// La etapa siguiente queda IN_PROGRESS (conservando su fecha límite); DELIVERED no se persiste.
func (uc *FlowUseCase) AdvanceStage(ctx context.Context, dispatchID string) (production.Advance, error) {
	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return production.Advance{}, err
	}
	adv := uc.orch.RequestStageAdvance(b)
	if !adv.Allowed {
		cause := domain.ErrStageGateClosed
		if production.CanAdvance(b).Allowed {
			cause = domain.ErrConflict // última etapa
		}
		return adv, uc.reject(b, adv.Current, adv.Reason, cause)
	}

	raw, hasField := b.StageStatus(adv.Next)
	if !hasField || production.Status(raw) != entity.StatusNew {
		return adv, nil
	}
	due := production.Decode(raw).DueDate
	encoded := uc.orch.Codec().UpdateStatus(raw, entity.StatusInProgress, due)
	if err := uc.batchRepo.UpdateStageStatus(ctx, b.DispatchID, adv.Next, encoded); err != nil {
		return adv, fmt.Errorf("production: iniciar %s: %w", adv.Next, err)
	}
	uc.log.Info().Str("dispatch_id", b.DispatchID).Str("from", string(adv.Current)).
		Str("to", string(adv.Next)).Msg("lote avanzado")
	return adv, nil
}

// statusRank orden de progresión: los estados nunca retroceden.
var statusRank = map[string]int{
	entity.StatusNew:        0,
	entity.StatusInProgress: 1,
	entity.StatusCompleted:  2,
}

// UpdateStatus edición manual del estado de una etapa. COMPLETED pasa por CompleteStage
// (movimiento completo); IN_PROGRESS exige la compuerta de entrada. Devuelve el valor codificado.
func (uc *FlowUseCase) UpdateStatus(ctx context.Context, dispatchID, stageName, status, due string) (string, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	newRank, ok := statusRank[status]
	if !ok {
		return "", domain.ErrInvalidInput
	}
	stage, err := uc.stageWithField(stageName)
	if err != nil {
		return "", err
	}
	if err := uc.validDue(due); err != nil {
		return "", err
	}
	if status == entity.StatusCompleted {
		out, err := uc.CompleteStage(ctx, CompleteStageInput{DispatchID: dispatchID, Stage: string(stage), DueDate: due})
		if err != nil {
			return "", err
		}
		return out.Mutation.Status, nil
	}

	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return "", err
	}
	if !production.AppliesTo(stage, b.OrderType) {
		reason := fmt.Sprintf("%s does not apply to %s orders", stage.Label(), b.OrderType)
		return "", uc.reject(b, stage, reason, domain.ErrConflict)
	}
	raw, _ := b.StageStatus(stage)
	current := production.Status(raw)
	if rank, known := statusRank[current]; known && newRank < rank {
		reason := fmt.Sprintf("%s cannot go back from %s to %s", stage.Label(), current, status)
		return "", uc.reject(b, stage, reason, domain.ErrConflict)
	}
	if status == entity.StatusInProgress {
		if gate := production.CanEnter(b, stage); !gate.Allowed {
			return "", uc.reject(b, stage, gate.Reason, domain.ErrStageGateClosed)
		}
	}

	encoded := uc.orch.Codec().UpdateStatus(raw, status, due)
	if err := uc.batchRepo.UpdateStageStatus(ctx, b.DispatchID, stage, encoded); err != nil {
		return "", fmt.Errorf("production: actualizar estado: %w", err)
	}
	uc.log.Info().Str("dispatch_id", b.DispatchID).Str("stage", string(stage)).
		Str("status", encoded).Msg("estado de etapa actualizado")
	return encoded, nil
}

// UpdateDueDate reemplaza la fecha límite de la etapa. due vacío la borra.
func (uc *FlowUseCase) UpdateDueDate(ctx context.Context, dispatchID, stageName, due string) (string, error) {
	stage, err := uc.stageWithField(stageName)
	if err != nil {
		return "", err
	}
	if err := uc.validDue(due); err != nil {
		return "", err
	}
	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return "", err
	}
	raw, _ := b.StageStatus(stage)
	encoded := uc.orch.Codec().UpdateDueDate(raw, due)
	if err := uc.batchRepo.UpdateStageStatus(ctx, b.DispatchID, stage, encoded); err != nil {
		return "", fmt.Errorf("production: actualizar fecha límite: %w", err)
	}
	return encoded, nil
}

// BatchStatus vista calculada del lote para la pantalla de seguimiento.
type BatchStatus struct {
	Batch            *entity.Batch
	Current          entity.StageID
	Next             entity.StageID // "" si no hay siguiente
	CanAdvance       production.GateDecision
	Delivered        bool
	InProductionPlan bool
	Stages           []StageView
}

// StageView estado decodificado de una etapa con sus compuertas.
type StageView struct {
	Stage       entity.StageID
	Applies     bool
	Raw         string
	Decoded     production.StatusDate
	CanEnter    production.GateDecision
	CanComplete production.GateDecision
}

// GetBatchStatus decodifica todas las etapas y evalúa las compuertas (motivos para el tooltip).
func (uc *FlowUseCase) GetBatchStatus(ctx context.Context, dispatchID string) (*BatchStatus, error) {
	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	plans, err := uc.plans.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("production: leer planes: %w", err)
	}

	out := &BatchStatus{
		Batch:            b,
		Current:          production.CurrentStage(b),
		CanAdvance:       production.CanAdvance(b),
		Delivered:        production.IsDelivered(b),
		InProductionPlan: uc.orch.Reconciler().IsAlreadyCommitted(b.DispatchID, plans),
	}
	if next, ok := production.NextStage(out.Current, b.OrderType); ok {
		out.Next = next
	}
	for _, def := range production.Stages() {
		if def.Field == "" {
			continue
		}
		raw, _ := b.StageStatus(def.ID)
		out.Stages = append(out.Stages, StageView{
			Stage:       def.ID,
			Applies:     production.AppliesTo(def.ID, b.OrderType),
			Raw:         raw,
			Decoded:     production.Decode(raw),
			CanEnter:    production.CanEnter(b, def.ID),
			CanComplete: uc.orch.CanComplete(b, def.ID, plans),
		})
	}
	return out, nil
}

// GetGate decisión de entrada a una etapa.
func (uc *FlowUseCase) GetGate(ctx context.Context, dispatchID, stageName string) (production.GateDecision, error) {
	stage, ok := production.ParseStage(stageName)
	if !ok {
		return production.GateDecision{}, domain.ErrUnknownStage
	}
	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return production.GateDecision{}, err
	}
	if stage != entity.StageCableProduction {
		return production.CanEnter(b, stage), nil
	}
	plans, err := uc.plans.Plans(ctx)
	if err != nil {
		return production.GateDecision{}, fmt.Errorf("production: leer planes: %w", err)
	}
	return uc.orch.CanComplete(b, stage, plans), nil
}

// ListBatches lista paginada de lotes (orden del almacén).
func (uc *FlowUseCase) ListBatches(ctx context.Context, limit, offset int) ([]*entity.Batch, int, error) {
	all, err := uc.batchRepo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("production: listar lotes: %w", err)
	}
	total := len(all)
	if offset >= total {
		return []*entity.Batch{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// CableCandidate lote con STORE1 completado y producción de cable pendiente.
type CableCandidate struct {
	Batch      *entity.Batch
	Store1Done string
	Committed  bool
}

// ListCableCandidates candidatos a producción de cable. Committed=true cuando el lote ya
// figura en un plan y no debe volver a seleccionarse.
func (uc *FlowUseCase) ListCableCandidates(ctx context.Context) ([]CableCandidate, error) {
	batches, err := uc.batchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("production: listar lotes: %w", err)
	}
	plans, err := uc.plans.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("production: leer planes: %w", err)
	}
	committed := uc.orch.Reconciler().CommittedSet(plans)

	out := make([]CableCandidate, 0)
	for _, b := range batches {
		if !production.AppliesTo(entity.StageCableProduction, b.OrderType) {
			continue
		}
		store1 := production.Decode(b.Store1Status)
		if !store1.IsCompleted() || production.Decode(b.CableProdStatus).IsCompleted() {
			continue
		}
		_, inPlan := committed[b.DispatchID]
		out = append(out, CableCandidate{Batch: b, Store1Done: store1.CompletionDate, Committed: inPlan})
	}
	return out, nil
}

// MoveHistoryReport genera el PDF del historial de movimientos del lote.
func (uc *FlowUseCase) MoveHistoryReport(ctx context.Context, dispatchID string) ([]byte, string, error) {
	if uc.reports == nil {
		return nil, "", fmt.Errorf("production: generador de reportes no configurado")
	}
	b, err := uc.load(ctx, dispatchID)
	if err != nil {
		return nil, "", err
	}
	ledgers := make(map[entity.StageID][]entity.SplitEntry)
	for _, def := range production.Stages() {
		if entries := production.LedgerFor(b.MoveHistory, def.ID); len(entries) > 0 {
			ledgers[def.ID] = entries
		}
	}
	pdf, err := uc.reports.GenerateMoveHistoryPDF(ctx, MoveHistoryReport{
		Batch:       b,
		Ledgers:     ledgers,
		GeneratedAt: uc.now().In(uc.orch.Codec().Location()),
	})
	if err != nil {
		return nil, "", fmt.Errorf("production: generar reporte: %w", err)
	}
	return pdf, fmt.Sprintf("historial-%s.pdf", b.DispatchID), nil
}

func (uc *FlowUseCase) load(ctx context.Context, dispatchID string) (*entity.Batch, error) {
	dispatchID = strings.TrimSpace(dispatchID)
	if dispatchID == "" {
		return nil, domain.ErrInvalidInput
	}
	b, err := uc.batchRepo.GetByDispatchID(ctx, dispatchID)
	if err != nil {
		return nil, fmt.Errorf("production: obtener lote: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (uc *FlowUseCase) stageWithField(name string) (entity.StageID, error) {
	stage, ok := production.ParseStage(name)
	if !ok {
		return "", domain.ErrUnknownStage
	}
	if def, _ := production.Lookup(stage); def.Field == "" {
		return "", domain.ErrUnknownStage
	}
	return stage, nil
}

func (uc *FlowUseCase) validDue(due string) error {
	if strings.TrimSpace(due) == "" {
		return nil
	}
	if _, err := uc.orch.Codec().NormalizeDate(due); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func (uc *FlowUseCase) reject(b *entity.Batch, stage entity.StageID, reason string, cause error) error {
	uc.recorder.Rejected(stage, cause)
	uc.log.Warn().Str("dispatch_id", b.DispatchID).Str("stage", string(stage)).
		Str("reason", reason).Msg("movimiento rechazado")
	return &RejectedError{Reason: reason, Cause: cause}
}

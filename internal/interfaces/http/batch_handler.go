package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-flow/internal/application/dto"
	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// BatchHandler maneja las peticiones HTTP del flujo de un lote (protegido).
type BatchHandler struct {
	uc *appprod.FlowUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *appprod.FlowUseCase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar lote
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateBatchRequest  true  "dispatch_id, unique_id, order_type, quantity"
// @Success      201   {object}  dto.BatchSummaryDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	b, err := h.uc.CreateBatch(c.Context(), appprod.CreateBatchInput{
		DispatchID: in.DispatchID,
		UniqueID:   in.UniqueID,
		OrderType:  in.OrderType,
		Quantity:   in.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSummary(b))
}

// List godoc
// @Summary      Listar lotes
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "máximo 100"
// @Param        offset  query     int  false  "desplazamiento"
// @Success      200     {object}  dto.BatchListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	batches, total, err := h.uc.ListBatches(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.BatchSummaryDTO, 0, len(batches))
	for _, b := range batches {
		items = append(items, toSummary(b))
	}
	return c.JSON(dto.BatchListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetStatus godoc
// @Summary      Estado del lote en el flujo
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        dispatchId  path      string  true  "dispatchId del lote"
// @Success      200         {object}  dto.BatchStatusResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId} [get]
func (h *BatchHandler) GetStatus(c *fiber.Ctx) error {
	st, err := h.uc.GetBatchStatus(c.Context(), c.Params("dispatchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatusResponse(st))
}

// Gate godoc
// @Summary      Compuerta de una etapa
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        dispatchId  path      string  true  "dispatchId del lote"
// @Param        stage       path      string  true  "STORE1, CABLE_PRODUCTION, STORE2, MOULDING, FG_SECTION, DISPATCH"
// @Success      200         {object}  dto.GateDTO
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/gate/{stage} [get]
func (h *BatchHandler) Gate(c *fiber.Ctx) error {
	gate, err := h.uc.GetGate(c.Context(), c.Params("dispatchId"), c.Params("stage"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.GateDTO{Allowed: gate.Allowed, Reason: gate.Reason})
}

// CompleteStage godoc
// @Summary      Completar etapa (total o parcial)
// @Tags         stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        dispatchId  path      string                    true   "dispatchId del lote"
// @Param        stage       path      string                    true   "etapa"
// @Param        body        body      dto.CompleteStageRequest  false  "quantity (vacío = todo), due_date, details"
// @Success      200         {object}  dto.StageMutationResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      409         {object}  dto.ErrorResponse
// @Failure      422         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/stages/{stage}/complete [post]
func (h *BatchHandler) CompleteStage(c *fiber.Ctx) error {
	var in dto.CompleteStageRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	out, err := h.uc.CompleteStage(c.Context(), appprod.CompleteStageInput{
		DispatchID: c.Params("dispatchId"),
		Stage:      c.Params("stage"),
		Quantity:   in.Quantity,
		DueDate:    in.DueDate,
		Details:    in.Details,
	})
	if err != nil {
		return writeError(c, err)
	}
	m := out.Mutation
	resp := dto.StageMutationResponse{
		MutationID:      m.ID,
		DispatchID:      m.DispatchID,
		Stage:           string(m.Stage),
		Status:          m.Status,
		UpdatedQuantity: m.UpdatedQuantity,
	}
	if m.Append != nil {
		e := toEntryDTO(*m.Append)
		resp.LedgerEntry = &e
	}
	if m.Remainder != nil {
		id, q := m.Remainder.DispatchID, m.Remainder.Quantity
		resp.RemainderDispatch = &id
		resp.RemainderQuantity = &q
	}
	return c.JSON(resp)
}

// Advance godoc
// @Summary      Pasar al siguiente módulo
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        dispatchId  path      string  true  "dispatchId del lote"
// @Success      200         {object}  dto.AdvanceResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      409         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/advance [post]
func (h *BatchHandler) Advance(c *fiber.Ctx) error {
	adv, err := h.uc.AdvanceStage(c.Context(), c.Params("dispatchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AdvanceResponse{
		DispatchID: c.Params("dispatchId"),
		From:       string(adv.Current),
		To:         string(adv.Next),
	})
}

// UpdateStatus godoc
// @Summary      Editar estado de una etapa
// @Tags         stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        dispatchId  path      string                   true  "dispatchId del lote"
// @Param        stage       path      string                   true  "etapa"
// @Param        body        body      dto.UpdateStatusRequest  true  "status, due_date"
// @Success      200         {object}  dto.StageStatusDTO
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      409         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/stages/{stage}/status [put]
func (h *BatchHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	enc, err := h.uc.UpdateStatus(c.Context(), c.Params("dispatchId"), c.Params("stage"), in.Status, in.DueDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStageStatus(c.Params("stage"), enc))
}

// UpdateDueDate godoc
// @Summary      Cambiar fecha límite de una etapa
// @Tags         stages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        dispatchId  path      string                    true  "dispatchId del lote"
// @Param        stage       path      string                    true  "etapa"
// @Param        body        body      dto.UpdateDueDateRequest  true  "due_date (vacío la borra)"
// @Success      200         {object}  dto.StageStatusDTO
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/stages/{stage}/due-date [put]
func (h *BatchHandler) UpdateDueDate(c *fiber.Ctx) error {
	var in dto.UpdateDueDateRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	enc, err := h.uc.UpdateDueDate(c.Context(), c.Params("dispatchId"), c.Params("stage"), in.DueDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStageStatus(c.Params("stage"), enc))
}

// HistoryPDF godoc
// @Summary      Historial de movimientos en PDF
// @Tags         batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        dispatchId  path  string  true  "dispatchId del lote"
// @Success      200         {file}    binary
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/batches/{dispatchId}/history.pdf [get]
func (h *BatchHandler) HistoryPDF(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.MoveHistoryReport(c.Context(), c.Params("dispatchId"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// ── mapeo a DTO ───────────────────────────────────────────────────────────────

func toSummary(b *entity.Batch) dto.BatchSummaryDTO {
	current := production.CurrentStage(b)
	status := entity.StatusCompleted
	if raw, ok := b.StageStatus(current); ok {
		status = production.Status(raw)
	}
	return dto.BatchSummaryDTO{
		DispatchID:        b.DispatchID,
		UniqueID:          b.UniqueID,
		OrderType:         string(b.OrderType),
		EffectiveQuantity: b.EffectiveQuantity(),
		CurrentStage:      string(current),
		CurrentStatus:     status,
	}
}

func toStatusResponse(st *appprod.BatchStatus) dto.BatchStatusResponse {
	b := st.Batch
	resp := dto.BatchStatusResponse{
		DispatchID:        b.DispatchID,
		UniqueID:          b.UniqueID,
		OrderType:         string(b.OrderType),
		Quantity:          b.Quantity,
		EffectiveQuantity: b.EffectiveQuantity(),
		CurrentStage:      string(st.Current),
		NextStage:         stagePtr(st.Next),
		CanAdvance:        dto.GateDTO{Allowed: st.CanAdvance.Allowed, Reason: st.CanAdvance.Reason},
		Delivered:         st.Delivered,
		InProductionPlan:  st.InProductionPlan,
		Stages:            make([]dto.StageStatusDTO, 0, len(st.Stages)),
		MoveHistory:       make([]dto.SplitEntryDTO, 0, len(b.MoveHistory)),
		UpdatedAt:         b.UpdatedAt,
	}
	for _, v := range st.Stages {
		resp.Stages = append(resp.Stages, dto.StageStatusDTO{
			Stage:          string(v.Stage),
			Label:          v.Stage.Label(),
			Applies:        v.Applies,
			Raw:            v.Raw,
			Status:         v.Decoded.Status,
			CompletionDate: strPtr(v.Decoded.CompletionDate),
			DueDate:        strPtr(v.Decoded.DueDate),
			CanEnter:       dto.GateDTO{Allowed: v.CanEnter.Allowed, Reason: v.CanEnter.Reason},
			CanComplete:    dto.GateDTO{Allowed: v.CanComplete.Allowed, Reason: v.CanComplete.Reason},
		})
	}
	for _, e := range b.MoveHistory {
		resp.MoveHistory = append(resp.MoveHistory, toEntryDTO(e))
	}
	return resp
}

func toStageStatus(stageParam, encoded string) dto.StageStatusDTO {
	stage, _ := production.ParseStage(stageParam)
	sd := production.Decode(encoded)
	return dto.StageStatusDTO{
		Stage:          string(stage),
		Label:          stage.Label(),
		Applies:        true,
		Raw:            encoded,
		Status:         sd.Status,
		CompletionDate: strPtr(sd.CompletionDate),
		DueDate:        strPtr(sd.DueDate),
	}
}

func toEntryDTO(e entity.SplitEntry) dto.SplitEntryDTO {
	return dto.SplitEntryDTO{
		Date:              e.Date,
		Stage:             string(e.Stage),
		QuantityMoved:     e.QuantityMoved,
		QuantityRemaining: e.QuantityRemaining,
		Details:           e.Details,
	}
}

// strPtr "" → nil (fecha ausente se serializa como null).
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stagePtr(s entity.StageID) *string {
	return strPtr(string(s))
}

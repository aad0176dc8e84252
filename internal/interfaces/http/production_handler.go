package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-flow/internal/application/dto"
	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
)

// ProductionHandler consultas de planificación de producción (protegido).
type ProductionHandler struct {
	uc *appprod.FlowUseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(uc *appprod.FlowUseCase) *ProductionHandler {
	return &ProductionHandler{uc: uc}
}

// CableCandidates godoc
// @Summary      Candidatos a producción de cable
// @Description  Lotes con Store 1 completado y cable pendiente. Los que ya están en un plan vienen con selectable=false.
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.CableCandidateDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/production/cable-candidates [get]
func (h *ProductionHandler) CableCandidates(c *fiber.Ctx) error {
	list, err := h.uc.ListCableCandidates(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CableCandidateDTO, 0, len(list))
	for _, cand := range list {
		item := dto.CableCandidateDTO{
			DispatchID:        cand.Batch.DispatchID,
			UniqueID:          cand.Batch.UniqueID,
			EffectiveQuantity: cand.Batch.EffectiveQuantity(),
			Store1Completed:   cand.Store1Done,
			Committed:         cand.Committed,
			Selectable:        !cand.Committed,
		}
		if cand.Committed {
			item.Reason = "batch is already in a production plan"
		}
		out = append(out, item)
	}
	return c.JSON(out)
}

// Stages godoc
// @Summary      Etapas del flujo en orden canónico
// @Tags         production
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  object
// @Router       /api/production/stages [get]
func (h *ProductionHandler) Stages(c *fiber.Ctx) error {
	type stageDTO struct {
		Stage       string `json:"stage"`
		Label       string `json:"label"`
		Order       int    `json:"order"`
		Predecessor string `json:"predecessor,omitempty"`
	}
	defs := production.Stages()
	out := make([]stageDTO, 0, len(defs))
	for _, d := range defs {
		out = append(out, stageDTO{Stage: string(d.ID), Label: d.ID.Label(), Order: d.Order, Predecessor: string(d.Predecessor)})
	}
	return c.JSON(out)
}

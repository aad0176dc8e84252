package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-flow/internal/application/dto"
	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain"
)

var validate = validator.New()

// parseBody decodifica y valida el cuerpo. Responde 400 y devuelve false si falla.
func parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		msg := "datos inválidos"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "campo inválido: " + verrs[0].Field() + " (" + verrs[0].Tag() + ")"
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}
	return true, nil
}

// writeError traduce errores de dominio a respuestas HTTP. Los rechazos de negocio llevan
// el motivo tal cual como mensaje.
func writeError(c *fiber.Ctx, err error) error {
	if rej, ok := appprod.AsRejected(err); ok {
		status, code := fiber.StatusConflict, "CONFLICT"
		switch {
		case errors.Is(rej.Cause, domain.ErrStageGateClosed):
			code = "GATE_CLOSED"
		case errors.Is(rej.Cause, domain.ErrNoProductionPlan):
			code = "NO_PRODUCTION_PLAN"
		case errors.Is(rej.Cause, domain.ErrInvalidQuantity), errors.Is(rej.Cause, domain.ErrQuantityExceedsRemaining):
			status, code = fiber.StatusUnprocessableEntity, "INVALID_QUANTITY"
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: rej.Reason})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "lote no encontrado"})
	case errors.Is(err, domain.ErrUnknownStage):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNKNOWN_STAGE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

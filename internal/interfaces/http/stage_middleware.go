package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/produccion-flow/internal/application/dto"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
	"github.com/jhoicas/produccion-flow/pkg/jwt"
)

// StagePolicy roles que pueden modificar cada etapa. RoleSupervisor siempre puede.
type StagePolicy map[entity.StageID][]string

// DefaultStagePolicy almacén opera Store 1/2, producción las etapas de planta y despacho la salida.
func DefaultStagePolicy() StagePolicy {
	return StagePolicy{
		entity.StageStore1:          {jwt.RoleAlmacen},
		entity.StageCableProduction: {jwt.RoleProduccion},
		entity.StageStore2:          {jwt.RoleAlmacen},
		entity.StageMoulding:        {jwt.RoleProduccion},
		entity.StageFGSection:       {jwt.RoleProduccion},
		entity.StageDispatch:        {jwt.RoleDespacho},
	}
}

func (p StagePolicy) allows(stage entity.StageID, role string) bool {
	if role == jwt.RoleSupervisor {
		return true
	}
	for _, r := range p[stage] {
		if r == role {
			return true
		}
	}
	return false
}

// RequireStageAccess verifica que el rol del token pueda operar la etapa de :stage.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 400 UNKNOWN_STAGE → :stage no es una etapa del flujo.
//   - 401 MISSING_ROLE  → token sin rol.
//   - 403 FORBIDDEN     → el rol no opera esa etapa.
func RequireStageAccess(policy StagePolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stage, ok := production.ParseStage(c.Params("stage"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "UNKNOWN_STAGE",
				Message: "etapa desconocida: " + c.Params("stage"),
			})
		}
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if !policy.allows(stage, role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol '" + role + "' no opera la etapa " + stage.Label(),
			})
		}
		return c.Next()
	}
}

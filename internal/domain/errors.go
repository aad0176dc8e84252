package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                 = errors.New("recurso no encontrado")
	ErrInvalidInput             = errors.New("entrada inválida")
	ErrUnauthorized             = errors.New("no autorizado")
	ErrForbidden                = errors.New("acceso denegado")
	ErrConflict                 = errors.New("conflicto con el estado actual")
	ErrUnknownStage             = errors.New("etapa desconocida")
	ErrInvalidQuantity          = errors.New("la cantidad a mover debe ser mayor que cero")
	ErrQuantityExceedsRemaining = errors.New("la cantidad a mover excede la cantidad disponible")
	ErrStageGateClosed          = errors.New("la etapa anterior no está completada")
	ErrNoProductionPlan         = errors.New("no existe plan de producción para el lote")
	ErrLedgerMismatch           = errors.New("el historial de movimientos no cuadra con la cantidad original")
)

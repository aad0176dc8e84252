package production

import (
	"strings"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// StageDef fila de la tabla de estados del flujo. Agregar o reordenar una etapa es cambiar
// esta tabla, no los switch de cada pantalla.
type StageDef struct {
	ID          entity.StageID
	Order       int
	Predecessor entity.StageID // "" = sin predecesora
	Field       string         // columna del campo codificado en el almacén ("" = sin campo)
	Skip        func(entity.OrderType) bool
	Next        func(entity.OrderType) entity.StageID
}

func always(next entity.StageID) func(entity.OrderType) entity.StageID {
	return func(entity.OrderType) entity.StageID { return next }
}

func never(entity.OrderType) bool { return false }

func cableOnly(ot entity.OrderType) bool { return ot == entity.OrderTypeCableOnly }

func cableOnlyBranch(cable, powerCord entity.StageID) func(entity.OrderType) entity.StageID {
	return func(ot entity.OrderType) entity.StageID {
		if cableOnly(ot) {
			return cable
		}
		return powerCord
	}
}

// Columnas de estado en la hoja de lotes.
const (
	FieldStore1Status       = "store1Status"
	FieldCableProdStatus    = "cableProdStatus"
	FieldStore2Status       = "store2Status"
	FieldMouldingProdStatus = "mouldingProdStatus"
	FieldFGSectionStatus    = "fgSectionStatus"
	FieldDispatchStatus     = "dispatchStatus"
)

var stageTable = []StageDef{
	{ID: entity.StageNew, Order: 0, Skip: never, Next: always(entity.StageStore1)},
	{ID: entity.StageStore1, Order: 1, Predecessor: entity.StageNew, Field: FieldStore1Status,
		Skip: never, Next: cableOnlyBranch(entity.StageDispatch, entity.StageCableProduction)},
	{ID: entity.StageCableProduction, Order: 2, Predecessor: entity.StageStore1, Field: FieldCableProdStatus,
		Skip: cableOnly, Next: cableOnlyBranch(entity.StageDispatch, entity.StageStore2)},
	{ID: entity.StageStore2, Order: 3, Predecessor: entity.StageCableProduction, Field: FieldStore2Status,
		Skip: cableOnly, Next: always(entity.StageMoulding)},
	{ID: entity.StageMoulding, Order: 4, Predecessor: entity.StageStore2, Field: FieldMouldingProdStatus,
		Skip: cableOnly, Next: always(entity.StageFGSection)},
	{ID: entity.StageFGSection, Order: 5, Predecessor: entity.StageMoulding, Field: FieldFGSectionStatus,
		Skip: cableOnly, Next: always(entity.StageDispatch)},
	{ID: entity.StageDispatch, Order: 6, Predecessor: entity.StageFGSection, Field: FieldDispatchStatus,
		Skip: never, Next: always(entity.StageDelivered)},
	{ID: entity.StageDelivered, Order: 7, Predecessor: entity.StageDispatch, Skip: never},
}

var stageIndex = func() map[entity.StageID]StageDef {
	m := make(map[entity.StageID]StageDef, len(stageTable))
	for _, def := range stageTable {
		m[def.ID] = def
	}
	return m
}()

// Stages devuelve las etapas en orden canónico.
func Stages() []StageDef {
	out := make([]StageDef, len(stageTable))
	copy(out, stageTable)
	return out
}

// Lookup devuelve la definición de la etapa.
func Lookup(stage entity.StageID) (StageDef, bool) {
	def, ok := stageIndex[stage]
	return def, ok
}

// NextStage deriva la siguiente etapa. ok=false para etapas terminales o desconocidas.
// Un tipo de orden no reconocido sigue el camino POWER_CORD.
func NextStage(current entity.StageID, orderType entity.OrderType) (entity.StageID, bool) {
	def, ok := stageIndex[current]
	if !ok || def.Next == nil {
		return "", false
	}
	return def.Next(orderType), true
}

// Predecessor predecesora inmediata en la cadena canónica.
func Predecessor(stage entity.StageID) (entity.StageID, bool) {
	def, ok := stageIndex[stage]
	if !ok || def.Predecessor == "" {
		return "", false
	}
	return def.Predecessor, true
}

// EffectivePredecessor predecesora inmediata descontando las etapas que el tipo de orden omite
// (CABLE_ONLY pasa de STORE1 a DISPATCH).
func EffectivePredecessor(stage entity.StageID, orderType entity.OrderType) (entity.StageID, bool) {
	pred, ok := Predecessor(stage)
	for ok {
		def := stageIndex[pred]
		if !def.Skip(orderType) {
			return pred, true
		}
		pred, ok = Predecessor(pred)
	}
	return "", false
}

// AppliesTo indica si la etapa forma parte del recorrido del tipo de orden.
func AppliesTo(stage entity.StageID, orderType entity.OrderType) bool {
	def, ok := stageIndex[stage]
	return ok && !def.Skip(orderType)
}

// ParseStage acepta "cable_production", "cable-production", "CABLE_PRODUCTION".
func ParseStage(s string) (entity.StageID, bool) {
	id := entity.StageID(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	_, ok := stageIndex[id]
	return id, ok
}

// ParseOrderType normaliza el tipo de orden; cualquier valor no reconocido es POWER_CORD.
func ParseOrderType(s string) entity.OrderType {
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	if entity.OrderType(v) == entity.OrderTypeCableOnly {
		return entity.OrderTypeCableOnly
	}
	return entity.OrderTypePowerCord
}

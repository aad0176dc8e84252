package entity

import "time"

// Tipos de orden: determinan qué etapas del flujo se omiten.
type OrderType string

const (
	OrderTypeCableOnly OrderType = "CABLE_ONLY" // solo cable, sin moldeo
	OrderTypePowerCord OrderType = "POWER_CORD" // cable + moldeo (power cord)
)

// Estados de una etapa dentro del campo codificado.
const (
	StatusNew        = "NEW"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Batch representa un lote de fabricación derivado de una línea de despacho.
// Los campos de estado guardan el string codificado "STATUS|FECHA|FECHA" tal como vive en la hoja.
type Batch struct {
	DispatchID      string // asignado externamente, único por lote al crearse
	UniqueID        string // agrupa lotes de la misma línea de orden (no es único)
	OrderType       OrderType
	Quantity        int  // tamaño original, inmutable
	UpdatedQuantity *int // tamaño vigente si fue revisado; nil = Quantity

	Store1Status       string
	CableProdStatus    string
	Store2Status       string
	MouldingProdStatus string
	FGSectionStatus    string
	DispatchStatus     string

	MoveHistory    []SplitEntry // solo se agregan entradas
	LastMutationID string       // última mutación aplicada (idempotencia del escritor)
	UpdatedAt      time.Time
}

// EffectiveQuantity devuelve UpdatedQuantity si existe, si no Quantity.
func (b *Batch) EffectiveQuantity() int {
	if b.UpdatedQuantity != nil {
		return *b.UpdatedQuantity
	}
	return b.Quantity
}

// StageStatus devuelve el string codificado de la etapa. ok=false si la etapa no tiene campo propio.
func (b *Batch) StageStatus(stage StageID) (string, bool) {
	switch stage {
	case StageStore1:
		return b.Store1Status, true
	case StageCableProduction:
		return b.CableProdStatus, true
	case StageStore2:
		return b.Store2Status, true
	case StageMoulding:
		return b.MouldingProdStatus, true
	case StageFGSection:
		return b.FGSectionStatus, true
	case StageDispatch:
		return b.DispatchStatus, true
	}
	return "", false
}

// SetStageStatus asigna el string codificado de la etapa. Retorna false si la etapa no tiene campo.
func (b *Batch) SetStageStatus(stage StageID, encoded string) bool {
	switch stage {
	case StageStore1:
		b.Store1Status = encoded
	case StageCableProduction:
		b.CableProdStatus = encoded
	case StageStore2:
		b.Store2Status = encoded
	case StageMoulding:
		b.MouldingProdStatus = encoded
	case StageFGSection:
		b.FGSectionStatus = encoded
	case StageDispatch:
		b.DispatchStatus = encoded
	default:
		return false
	}
	return true
}

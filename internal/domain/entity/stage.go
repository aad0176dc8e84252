package entity

// StageID identifica una etapa del flujo de producción.
type StageID string

const (
	StageNew             StageID = "NEW"
	StageStore1          StageID = "STORE1"           // almacén de materia prima
	StageCableProduction StageID = "CABLE_PRODUCTION" // producción de cable
	StageStore2          StageID = "STORE2"           // almacén intermedio
	StageMoulding        StageID = "MOULDING"         // moldeo
	StageFGSection       StageID = "FG_SECTION"       // producto terminado
	StageDispatch        StageID = "DISPATCH"
	StageDelivered       StageID = "DELIVERED"
)

// Label nombre legible de la etapa para mensajes al usuario.
func (s StageID) Label() string {
	switch s {
	case StageNew:
		return "Intake"
	case StageStore1:
		return "Store 1"
	case StageCableProduction:
		return "Cable Production"
	case StageStore2:
		return "Store 2"
	case StageMoulding:
		return "Moulding"
	case StageFGSection:
		return "FG Section"
	case StageDispatch:
		return "Dispatch"
	case StageDelivered:
		return "Delivered"
	}
	return string(s)
}

package entity

// SplitEntry registro del historial de movimientos parciales de un lote.
// Nunca se modifica después de creado; se serializa como JSON dentro de una celda.
type SplitEntry struct {
	Date              string  `json:"date"` // YYYY-MM-DD (fecha local)
	Stage             StageID `json:"stage"`
	QuantityMoved     int     `json:"quantityMoved"`
	QuantityRemaining int     `json:"quantityRemaining"`
	Details           string  `json:"details,omitempty"`
}

package production

import (
	"fmt"
	"sort"

	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// SplitResult aritmética de un movimiento (total o parcial) de la cantidad del lote.
type SplitResult struct {
	StageQuantity int              // cantidad que avanza con la etapa
	Remaining     int              // cantidad que queda en la etapa actual
	Partial       bool             // true si queda remanente
	Entry         entity.SplitEntry // entrada para el historial
}

// ApplySplit calcula el remanente al mover quantity unidades desde la etapa.
// No decide si el movimiento está permitido (eso es de la compuerta).
// Rechaza cantidades no positivas o mayores a la disponible: recortarlas rompería la suma del historial.
func ApplySplit(b *entity.Batch, stage entity.StageID, quantity int, details, today string) (SplitResult, error) {
	if b == nil {
		return SplitResult{}, domain.ErrInvalidInput
	}
	if quantity <= 0 {
		return SplitResult{}, domain.ErrInvalidQuantity
	}
	current := b.EffectiveQuantity()
	if quantity > current {
		return SplitResult{}, fmt.Errorf("%w: %d > %d", domain.ErrQuantityExceedsRemaining, quantity, current)
	}
	remaining := current - quantity
	return SplitResult{
		StageQuantity: quantity,
		Remaining:     remaining,
		Partial:       remaining > 0,
		Entry: entity.SplitEntry{
			Date:              today,
			Stage:             stage,
			QuantityMoved:     quantity,
			QuantityRemaining: remaining,
			Details:           details,
		},
	}, nil
}

// LedgerFor entradas de una etapa ordenadas por fecha y, a igual fecha, por orden de inserción.
func LedgerFor(history []entity.SplitEntry, stage entity.StageID) []entity.SplitEntry {
	out := make([]entity.SplitEntry, 0, len(history))
	for _, e := range history {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// VerifyLedger comprueba que la suma de lo movido más el último remanente sea la cantidad
// original de la etapa, y que cada entrada parta del remanente de la anterior.
func VerifyLedger(entries []entity.SplitEntry, original int) error {
	if len(entries) == 0 {
		return nil
	}
	running := original
	moved := 0
	for i, e := range entries {
		if e.QuantityMoved <= 0 || e.QuantityMoved+e.QuantityRemaining != running {
			return fmt.Errorf("%w: entrada %d (%d + %d != %d)",
				domain.ErrLedgerMismatch, i, e.QuantityMoved, e.QuantityRemaining, running)
		}
		moved += e.QuantityMoved
		running = e.QuantityRemaining
	}
	if moved+running != original {
		return fmt.Errorf("%w: %d + %d != %d", domain.ErrLedgerMismatch, moved, running, original)
	}
	return nil
}

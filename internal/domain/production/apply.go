package production

import (
	"time"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// Apply aplica la mutación sobre una copia del lote. Devuelve el lote actualizado y, si hubo
// movimiento parcial, el lote remanente a insertar. applied=false si la mutación ya se había aplicado.
func Apply(b *entity.Batch, m *Mutation, now time.Time) (updated, remainder *entity.Batch, applied bool) {
	if b == nil || m == nil {
		return b, nil, false
	}
	if b.LastMutationID != "" && b.LastMutationID == m.ID {
		return b, nil, false
	}

	before := cloneBatch(b)
	out := cloneBatch(b)
	out.SetStageStatus(m.Stage, m.Status)
	if m.UpdatedQuantity != nil {
		q := *m.UpdatedQuantity
		out.UpdatedQuantity = &q
	}
	if m.Append != nil {
		out.MoveHistory = append(out.MoveHistory, *m.Append)
	}
	out.LastMutationID = m.ID
	out.UpdatedAt = now

	if m.Remainder != nil {
		rem := before
		rem.DispatchID = m.Remainder.DispatchID
		rem.UniqueID = m.Remainder.UniqueID
		q := m.Remainder.Quantity
		rem.UpdatedQuantity = &q
		if m.Append != nil {
			rem.MoveHistory = append(rem.MoveHistory, *m.Append)
		}
		rem.LastMutationID = m.ID
		rem.UpdatedAt = now
		remainder = rem
	}
	return out, remainder, true
}

func cloneBatch(b *entity.Batch) *entity.Batch {
	c := *b
	if b.UpdatedQuantity != nil {
		q := *b.UpdatedQuantity
		c.UpdatedQuantity = &q
	}
	c.MoveHistory = append([]entity.SplitEntry(nil), b.MoveHistory...)
	return &c
}

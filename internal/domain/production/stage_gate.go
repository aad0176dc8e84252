package production

import (
	"fmt"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// GateDecision resultado de la compuerta. Reason se muestra tal cual en el tooltip del control.
type GateDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() GateDecision { return GateDecision{Allowed: true} }

func deny(reason string) GateDecision { return GateDecision{Allowed: false, Reason: reason} }

// CanEnter decide si el lote puede entrar a la etapa mirando solo la predecesora inmediata.
//
//   - STORE1 siempre está permitida.
//   - Etapa desconocida: permitida (no bloquear etapas que el motor no modela).
//   - Predecesora sin estado o lote nil: se toma como NEW, compuerta cerrada.
func CanEnter(b *entity.Batch, stage entity.StageID) GateDecision {
	if _, known := Lookup(stage); !known {
		return allow()
	}
	var orderType entity.OrderType
	if b != nil {
		orderType = b.OrderType
	}
	pred, ok := EffectivePredecessor(stage, orderType)
	if !ok || pred == entity.StageNew {
		return allow()
	}
	status := entity.StatusNew
	if b != nil {
		if raw, has := b.StageStatus(pred); has {
			status = Status(raw)
		}
	}
	if status == entity.StatusCompleted {
		return allow()
	}
	return deny(fmt.Sprintf("%s must be completed before %s (current status: %s)",
		pred.Label(), stage.Label(), status))
}

// CanAdvance decide si el lote puede pasar al siguiente módulo: la etapa actual debe estar
// completada. Intake (NEW) se considera completada al crear el lote.
func CanAdvance(b *entity.Batch) GateDecision {
	if b == nil {
		return deny("batch not found")
	}
	current := CurrentStage(b)
	if current == entity.StageNew {
		return allow()
	}
	raw, _ := b.StageStatus(current)
	sd := Decode(raw)
	if sd.IsCompleted() {
		return allow()
	}
	return deny(fmt.Sprintf("%s must be completed before moving to the next module (current status: %s)",
		current.Label(), sd.Status))
}

// CurrentStage última etapa del recorrido del tipo de orden con estado distinto de NEW.
func CurrentStage(b *entity.Batch) entity.StageID {
	if b == nil {
		return entity.StageNew
	}
	current := entity.StageNew
	for _, def := range stageTable {
		if def.Field == "" || def.Skip(b.OrderType) {
			continue
		}
		raw, _ := b.StageStatus(def.ID)
		if Status(raw) != entity.StatusNew {
			current = def.ID
		}
	}
	return current
}

// IsDelivered el lote es terminal cuando DISPATCH está completado.
func IsDelivered(b *entity.Batch) bool {
	return b != nil && Status(b.DispatchStatus) == entity.StatusCompleted
}

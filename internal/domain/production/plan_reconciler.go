package production

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

// PlanReconciler determina si un lote ya fue comprometido en algún plan de producción externo.
//
// Los planes vienen de un sistema que no controlamos y pueden estar desactualizados; se debe
// volver a consultar en cada decisión en vez de cachear indefinidamente. Entre la lectura de
// los planes y la escritura del llamador otro proceso puede crear un plan nuevo: esa carrera
// es una limitación aceptada, el almacén no ofrece escritura condicional.
type PlanReconciler struct {
	log zerolog.Logger
}

// NewPlanReconciler construye el conciliador. Los batchInfo ilegibles se registran en log.
func NewPlanReconciler(log zerolog.Logger) *PlanReconciler {
	return &PlanReconciler{log: log}
}

// IsAlreadyCommitted true si algún plan contiene una entrada cuyo dispatchId es exactamente dispatchID.
// No compara identificadores secundarios (batchId): dan falsos positivos entre lotes distintos.
func (r *PlanReconciler) IsAlreadyCommitted(dispatchID string, plans []entity.ProductionPlan) bool {
	if dispatchID == "" {
		return false
	}
	for i := range plans {
		for _, id := range r.dispatchIDs(&plans[i]) {
			if id == dispatchID {
				return true
			}
		}
	}
	return false
}

// CommittedSet conjunto de dispatchId comprometidos en todos los planes (para marcar candidatos en bloque).
func (r *PlanReconciler) CommittedSet(plans []entity.ProductionPlan) map[string]struct{} {
	set := make(map[string]struct{})
	for i := range plans {
		for _, id := range r.dispatchIDs(&plans[i]) {
			set[id] = struct{}{}
		}
	}
	return set
}

func (r *PlanReconciler) dispatchIDs(plan *entity.ProductionPlan) []string {
	ids, err := extractDispatchIDs(plan.BatchInfo)
	if err != nil {
		r.log.Warn().Err(err).Str("plan_id", plan.PlanID).Msg("batchInfo ilegible, se ignora el plan")
		return nil
	}
	return ids
}

// extractDispatchIDs acepta string/[]byte JSON o valores ya decodificados por el transporte.
func extractDispatchIDs(info any) ([]string, error) {
	switch v := info.(type) {
	case nil:
		return nil, nil
	case string:
		return decodeBatchInfo([]byte(v))
	case []byte:
		return decodeBatchInfo(v)
	case json.RawMessage:
		return decodeBatchInfo(v)
	case []entity.PlanBatch:
		ids := make([]string, 0, len(v))
		for _, pb := range v {
			if pb.DispatchID != "" {
				ids = append(ids, pb.DispatchID)
			}
		}
		return ids, nil
	case []map[string]any:
		ids := make([]string, 0, len(v))
		for _, m := range v {
			if id, ok := dispatchIDOf(m); ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	case map[string]any:
		if id, ok := dispatchIDOf(v); ok {
			return []string{id}, nil
		}
		return nil, nil
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := dispatchIDOf(m); ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	return nil, fmt.Errorf("tipo de batchInfo no soportado: %T", info)
}

func decodeBatchInfo(raw []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("parse batchInfo: %w", err)
	}
	if s, ok := decoded.(string); ok {
		// batchInfo doblemente serializado (string JSON dentro de la celda)
		return decodeBatchInfo([]byte(s))
	}
	return extractDispatchIDs(decoded)
}

func dispatchIDOf(m map[string]any) (string, bool) {
	switch id := m["dispatchId"].(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case json.Number:
		return id.String(), true
	}
	return "", false
}

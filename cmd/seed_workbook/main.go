// seed_workbook carga en el libro de producción los lotes de una exportación CSV de despachos.
// Todas las etapas quedan en NEW. Los despachos que ya existen en el libro se omiten.
//
// Uso: go run ./cmd/seed_workbook [dispatch.csv] [produccion.xlsx]
// Por defecto lee dispatch.csv y escribe en WORKBOOK_PATH (o produccion.xlsx).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain"
	"github.com/jhoicas/produccion-flow/internal/domain/production"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/spreadsheet"
	"github.com/jhoicas/produccion-flow/pkg/config"
	"github.com/jhoicas/produccion-flow/pkg/logger"
)

func main() {
	csvPath := "dispatch.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	workbookPath := "produccion.xlsx"
	if cfg, err := config.Load(); err == nil {
		workbookPath = cfg.Store.WorkbookPath
	}
	if len(os.Args) > 2 {
		workbookPath = os.Args[2]
	}

	log := logger.New(logger.Config{Env: "development", Level: "info", Service: "seed_workbook"})

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := spreadsheet.ReadDispatchCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	wb, err := spreadsheet.Open(workbookPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir libro: %v\n", err)
		os.Exit(1)
	}
	orch := production.NewFlowOrchestrator(production.NewCodec(), production.NewPlanReconciler(zerolog.Nop()))
	uc := appprod.NewFlowUseCase(spreadsheet.NewBatchRepository(wb), nil, orch, nil, nil, log.Zerolog())

	ctx := context.Background()
	var created, skipped int
	for _, row := range rows {
		_, err := uc.CreateBatch(ctx, appprod.CreateBatchInput{
			DispatchID: row.DispatchID,
			UniqueID:   row.UniqueID,
			OrderType:  row.OrderType,
			Quantity:   row.Quantity,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidInput):
			skipped++
			log.Warn().Err(err).Int("line", row.Line).Str("dispatch_id", row.DispatchID).Msg("fila omitida")
		default:
			fmt.Fprintf(os.Stderr, "Línea %d: %v\n", row.Line, err)
			os.Exit(1)
		}
	}

	log.Info().Int("created", created).Int("skipped", skipped).Str("workbook", wb.Path()).Msg("carga terminada")
}

package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/internal/domain/entity"
	"github.com/jhoicas/produccion-flow/internal/infrastructure/pdf"
)

func TestGenerateMoveHistoryPDF_GeneraDocumento(t *testing.T) {
	moved := 400
	b := &entity.Batch{
		DispatchID:      "DSP-001",
		UniqueID:        "ORD-77",
		OrderType:       entity.OrderTypePowerCord,
		Quantity:        1000,
		UpdatedQuantity: &moved,
		Store1Status:    "COMPLETED|2024-01-20|2024-01-15",
		CableProdStatus: "COMPLETED|2024-01-22",
		MoveHistory: []entity.SplitEntry{
			{Date: "2024-01-22", Stage: entity.StageCableProduction, QuantityMoved: 400, QuantityRemaining: 600, Details: "turno 1"},
		},
	}
	report := appprod.MoveHistoryReport{
		Batch:       b,
		Ledgers:     map[entity.StageID][]entity.SplitEntry{entity.StageCableProduction: b.MoveHistory},
		GeneratedAt: time.Date(2024, 1, 22, 11, 0, 0, 0, time.UTC),
	}

	out, err := pdf.NewMarotoReportGenerator().GenerateMoveHistoryPDF(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestGenerateMoveHistoryPDF_SinMovimientos(t *testing.T) {
	b := &entity.Batch{DispatchID: "DSP-2", OrderType: entity.OrderTypeCableOnly, Quantity: 10}
	out, err := pdf.NewMarotoReportGenerator().GenerateMoveHistoryPDF(context.Background(), appprod.MoveHistoryReport{Batch: b})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateMoveHistoryPDF_LoteNil(t *testing.T) {
	_, err := pdf.NewMarotoReportGenerator().GenerateMoveHistoryPDF(context.Background(), appprod.MoveHistoryReport{})
	assert.Error(t, err)
}

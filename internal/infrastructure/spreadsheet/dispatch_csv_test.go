package spreadsheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/produccion-flow/internal/infrastructure/spreadsheet"
)

func TestReadDispatchCSV_UTF8ConComa(t *testing.T) {
	in := "\xef\xbb\xbfDispatchId,UniqueId,OrderType,Quantity\n" +
		"D-1,U-1,power_cord,1000.0\n" +
		",,,\n" +
		"D-2,U-2,CABLE_ONLY,250\n"

	rows, err := spreadsheet.ReadDispatchCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, spreadsheet.DispatchRow{Line: 2, DispatchID: "D-1", UniqueID: "U-1", OrderType: "POWER_CORD", Quantity: 1000}, rows[0])
	assert.Equal(t, "D-2", rows[1].DispatchID)
	assert.Equal(t, 4, rows[1].Line)
}

func TestReadDispatchCSV_Latin1ConPuntoYComa(t *testing.T) {
	utf := "despacho;orden;tipo;cantidad\nD-Ñ1;Línea-7;CABLE_ONLY;40\n"
	latin, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(utf))
	require.NoError(t, err)

	rows, err := spreadsheet.ReadDispatchCSV(bytes.NewReader(latin))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "D-Ñ1", rows[0].DispatchID)
	assert.Equal(t, "Línea-7", rows[0].UniqueID)
	assert.Equal(t, 40, rows[0].Quantity)
}

func TestReadDispatchCSV_Errores(t *testing.T) {
	_, err := spreadsheet.ReadDispatchCSV(strings.NewReader("dispatchId,quantity\nD-1,3\n"))
	assert.ErrorContains(t, err, "uniqueid")

	_, err = spreadsheet.ReadDispatchCSV(strings.NewReader("dispatchId,uniqueId,orderType,quantity\nD-1,U,CABLE_ONLY,2.5\n"))
	assert.ErrorContains(t, err, "línea 2")
}

package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// record valores de una fila indexados por encabezado sin distinguir mayúsculas.
type record map[string]string

func (r record) get(col string) string { return r[strings.ToLower(col)] }

// table vista de una hoja: encabezados por nombre y filas de datos como texto.
type table struct {
	sheet   string
	headers []string
	index   map[string]int
	rows    [][]string // sin la fila de encabezado
}

func loadTable(f *excelize.File, sheet string) (*table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: leer hoja %s: %w", sheet, err)
	}
	t := &table{sheet: sheet, index: map[string]int{}}
	if len(rows) == 0 {
		return t, nil
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		t.headers = append(t.headers, h)
		if h != "" {
			t.index[strings.ToLower(h)] = i
		}
	}
	t.rows = rows[1:]
	return t, nil
}

// record fila como mapa columna(en minúsculas)→valor; las celdas ausentes quedan vacías.
func (t *table) record(i int) record {
	rec := make(record, len(t.headers))
	row := t.rows[i]
	for col, h := range t.headers {
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if col < len(row) {
			rec[key] = strings.TrimSpace(row[col])
		} else {
			rec[key] = ""
		}
	}
	return rec
}

func (t *table) value(i int, col string) string {
	idx, ok := t.index[strings.ToLower(col)]
	if !ok || idx >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][idx])
}

// find índice de la primera fila cuyo col es igual a value; -1 si no existe.
func (t *table) find(col, value string) int {
	for i := range t.rows {
		if t.value(i, col) == value {
			return i
		}
	}
	return -1
}

// ensureColumns agrega al encabezado las columnas que falten.
func (t *table) ensureColumns(f *excelize.File, cols []string) error {
	for _, c := range cols {
		if _, ok := t.index[strings.ToLower(c)]; ok {
			continue
		}
		t.headers = append(t.headers, c)
		t.index[strings.ToLower(c)] = len(t.headers) - 1
		cell, err := excelize.CoordinatesToCellName(len(t.headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(t.sheet, cell, c); err != nil {
			return fmt.Errorf("spreadsheet: agregar columna %s: %w", c, err)
		}
	}
	return nil
}

// writeRow sobrescribe la fila de datos i (o agrega una nueva si i == len(rows)).
// Las columnas que rec no menciona conservan su valor.
func (t *table) writeRow(f *excelize.File, i int, rec map[string]string) error {
	var current []string
	if i < len(t.rows) {
		current = t.rows[i]
	}
	out := make([]string, len(t.headers))
	copy(out, current)
	for col, v := range rec {
		if idx, ok := t.index[strings.ToLower(col)]; ok {
			out[idx] = v
		}
	}
	cells := make([]interface{}, len(out))
	for k, v := range out {
		cells[k] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, i+2)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(t.sheet, cell, &cells); err != nil {
		return fmt.Errorf("spreadsheet: escribir fila %d de %s: %w", i+2, t.sheet, err)
	}
	if i < len(t.rows) {
		t.rows[i] = out
	} else {
		t.rows = append(t.rows, out)
	}
	return nil
}

// Package spreadsheet implementa los repositorios sobre un libro .xlsx (excelize).
//
// Cada celda se guarda como texto: cantidades, estados codificados "STATUS|FECHA|FECHA",
// historial de movimientos y batchInfo en JSON. Las columnas se ubican por el nombre
// en la fila de encabezado, no por posición.
//
// La hoja no tiene versionado de filas: la última escritura gana. El mutex del Workbook
// solo serializa accesos dentro de este proceso.
package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// Nombres de hojas del libro.
const (
	SheetBatches = "Batches"
	SheetPlans   = "ProductionPlans"
)

// Encabezados por defecto al crear el libro o una columna faltante.
var (
	batchHeaders = []string{
		colDispatchID, colUniqueID, colOrderType, colQuantity, colUpdatedQuantity,
		colStore1, colCableProd, colStore2, colMoulding, colFGSection, colDispatch,
		colMoveHistory, colLastMutationID, colUpdatedAt,
	}
	planHeaders = []string{colPlanID, colBatchInfo, colCreatedAt}
)

// Workbook libro compartido por los repositorios. Cada operación abre el archivo, lo lee y,
// si escribe, lo guarda: cambios hechos por otros escritores entre operaciones se respetan.
type Workbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open abre el libro en path; si no existe lo crea con las hojas y encabezados vacíos.
func Open(path string) (*Workbook, error) {
	wb := &Workbook{path: path, now: time.Now}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := wb.create(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("spreadsheet: stat %s: %w", path, err)
	}
	if err := wb.ensureSheets(); err != nil {
		return nil, err
	}
	return wb, nil
}

// Path ruta del archivo.
func (wb *Workbook) Path() string { return wb.path }

// WithClock fija el reloj usado para updatedAt/createdAt.
func (wb *Workbook) WithClock(now func() time.Time) *Workbook {
	wb.now = now
	return wb
}

func (wb *Workbook) create() error {
	f := excelize.NewFile()
	defer f.Close()
	for _, s := range []struct {
		name    string
		headers []string
	}{{SheetBatches, batchHeaders}, {SheetPlans, planHeaders}} {
		idx, err := f.NewSheet(s.name)
		if err != nil {
			return fmt.Errorf("spreadsheet: crear hoja %s: %w", s.name, err)
		}
		if s.name == SheetBatches {
			f.SetActiveSheet(idx)
		}
		if err := writeHeaders(f, s.name, s.headers); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("spreadsheet: eliminar Sheet1: %w", err)
	}
	if err := f.SaveAs(wb.path); err != nil {
		return fmt.Errorf("spreadsheet: guardar %s: %w", wb.path, err)
	}
	return nil
}

// ensureSheets agrega hojas faltantes a un libro existente (por ejemplo, uno exportado a mano).
func (wb *Workbook) ensureSheets() error {
	return wb.update(func(f *excelize.File) (bool, error) {
		changed := false
		for _, s := range []struct {
			name    string
			headers []string
		}{{SheetBatches, batchHeaders}, {SheetPlans, planHeaders}} {
			idx, err := f.GetSheetIndex(s.name)
			if err != nil {
				return false, fmt.Errorf("spreadsheet: hoja %s: %w", s.name, err)
			}
			if idx >= 0 {
				continue
			}
			if _, err := f.NewSheet(s.name); err != nil {
				return false, fmt.Errorf("spreadsheet: crear hoja %s: %w", s.name, err)
			}
			if err := writeHeaders(f, s.name, s.headers); err != nil {
				return false, err
			}
			changed = true
		}
		return changed, nil
	})
}

// read abre el libro en modo lectura bajo el mutex.
func (wb *Workbook) read(fn func(f *excelize.File) error) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	f, err := excelize.OpenFile(wb.path)
	if err != nil {
		return fmt.Errorf("spreadsheet: abrir %s: %w", wb.path, err)
	}
	defer f.Close()
	return fn(f)
}

// update abre el libro, aplica fn y guarda si fn reporta cambios.
func (wb *Workbook) update(fn func(f *excelize.File) (bool, error)) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	f, err := excelize.OpenFile(wb.path)
	if err != nil {
		return fmt.Errorf("spreadsheet: abrir %s: %w", wb.path, err)
	}
	defer f.Close()
	changed, err := fn(f)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("spreadsheet: guardar %s: %w", wb.path, err)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("spreadsheet: encabezados %s: %w", sheet, err)
	}
	return nil
}

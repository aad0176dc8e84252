package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DispatchRow línea de la exportación de despachos de la hoja anterior.
type DispatchRow struct {
	Line       int // número de línea en el archivo (1 = encabezado)
	DispatchID string
	UniqueID   string
	OrderType  string
	Quantity   int
}

// Encabezados aceptados por columna (sin distinguir mayúsculas), en orden de validación.
var dispatchAliases = []struct {
	key     string
	aliases []string
}{
	{"dispatch", []string{"dispatchid", "dispatch_id", "despacho"}},
	{"unique", []string{"uniqueid", "unique_id", "orden"}},
	{"type", []string{"ordertype", "order_type", "tipo"}},
	{"qty", []string{"quantity", "cantidad", "qty"}},
}

// ReadDispatchCSV lee la exportación CSV. Acepta UTF-8 (con o sin BOM) o ISO-8859-1, y
// separador "," o ";". Cantidades como "1000.0" se aceptan.
func ReadDispatchCSV(r io.Reader) ([]DispatchRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: leer csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.Comma = sniffComma(raw)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: encabezado csv: %w", err)
	}
	cols, err := dispatchColumns(header)
	if err != nil {
		return nil, err
	}

	var out []DispatchRow
	line := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: csv línea %d: %w", line, err)
		}
		field := func(key string) string {
			if i := cols[key]; i < len(fields) {
				return strings.TrimSpace(fields[i])
			}
			return ""
		}
		if field("dispatch") == "" {
			continue
		}
		qty, err := parseQuantity(field("qty"))
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: csv línea %d: cantidad %q: %w", line, field("qty"), err)
		}
		out = append(out, DispatchRow{
			Line:       line,
			DispatchID: field("dispatch"),
			UniqueID:   field("unique"),
			OrderType:  strings.ToUpper(field("type")),
			Quantity:   qty,
		})
	}
	return out, nil
}

func dispatchColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(dispatchAliases))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, col := range dispatchAliases {
			for _, a := range col.aliases {
				if h == a {
					cols[col.key] = i
				}
			}
		}
	}
	for _, col := range dispatchAliases {
		if _, ok := cols[col.key]; !ok {
			return nil, fmt.Errorf("spreadsheet: falta columna %s en el csv", col.aliases[0])
		}
	}
	return cols, nil
}

// sniffComma ";" si la primera línea tiene más ";" que ",".
func sniffComma(raw []byte) rune {
	first := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		first = raw[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

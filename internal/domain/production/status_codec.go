// Package production contiene el motor de flujo de producción: codificación de estado+fechas
// en un único campo plano, el grafo de etapas, la compuerta entre etapas, el historial de
// movimientos parciales y la conciliación contra planes de producción externos.
//
// Todas las operaciones son síncronas y puras sobre los valores que entrega el llamador;
// el motor no lee ni escribe el almacén. Las mutaciones calculadas se devuelven descritas
// para que el escritor externo las aplique (última escritura gana, sin versionado de filas).
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/produccion-flow/internal/domain/entity"
)

const fieldSeparator = "|"

// StatusDate valor decodificado de un campo de estado. Fecha vacía = nula.
type StatusDate struct {
	Status         string
	CompletionDate string
	DueDate        string
}

// IsCompleted indica si el estado es COMPLETED.
func (s StatusDate) IsCompleted() bool {
	return s.Status == entity.StatusCompleted
}

// Decode interpreta un campo codificado. Nunca falla: un valor mal formado se degrada a
// {Status: raw} y un valor vacío a {Status: NEW}.
func Decode(raw string) StatusDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusDate{Status: entity.StatusNew}
	}
	if !strings.Contains(raw, fieldSeparator) {
		return StatusDate{Status: raw}
	}
	parts := strings.Split(raw, fieldSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" || len(parts) > 3 {
		return StatusDate{Status: raw}
	}
	if len(parts) == 2 {
		if parts[0] == entity.StatusCompleted {
			// sin fecha límite propia: la de completado hace las veces de ambas
			return StatusDate{Status: parts[0], CompletionDate: parts[1], DueDate: parts[1]}
		}
		return StatusDate{Status: parts[0], DueDate: parts[1]}
	}
	return StatusDate{Status: parts[0], CompletionDate: parts[1], DueDate: parts[2]}
}

// Status atajo para Decode(raw).Status.
func Status(raw string) string {
	return Decode(raw).Status
}

// Encode produce una de las tres formas: "STATUS", "STATUS|DUE" o "COMPLETED|DONE[|DUE]".
// COMPLETED sin fecha de completado pero con límite se escribe "COMPLETED||DUE": con un solo
// separador la fecha se leería como completado.
func Encode(s StatusDate) string {
	status := strings.TrimSpace(s.Status)
	if status == "" {
		status = entity.StatusNew
	}
	if status == entity.StatusCompleted && s.CompletionDate != "" {
		if s.DueDate != "" {
			return status + fieldSeparator + s.CompletionDate + fieldSeparator + s.DueDate
		}
		return status + fieldSeparator + s.CompletionDate
	}
	if status == entity.StatusCompleted && s.DueDate != "" {
		return status + fieldSeparator + fieldSeparator + s.DueDate
	}
	if s.DueDate != "" {
		return status + fieldSeparator + s.DueDate
	}
	return status
}

// Codec produce estados con fecha usando un reloj y una zona horaria inyectables.
type Codec struct {
	now func() time.Time
	loc *time.Location
}

// CodecOption configura el Codec.
type CodecOption func(*Codec)

// WithClock fija el reloj usado para "hoy".
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation fija la zona horaria de la planta. Por defecto time.Local.
func WithLocation(loc *time.Location) CodecOption {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// NewCodec construye el codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today fecha local de hoy en formato YYYY-MM-DD.
func (c *Codec) Today() string {
	return FormatDate(c.now().In(c.loc))
}

// Location zona horaria del codec.
func (c *Codec) Location() *time.Location {
	return c.loc
}

// MarkCompleted marca COMPLETED con fecha de hoy. Conserva explicitDue si viene, si no la
// fecha límite ya presente en current.
func (c *Codec) MarkCompleted(current, explicitDue string) string {
	due := c.normalize(explicitDue)
	if due == "" {
		due = Decode(current).DueDate
	}
	return Encode(StatusDate{
		Status:         entity.StatusCompleted,
		CompletionDate: c.Today(),
		DueDate:        due,
	})
}

// UpdateStatus cambia el estado. Un estado distinto de COMPLETED sin fecha límite descarta
// la fecha anterior.
func (c *Codec) UpdateStatus(current, newStatus, newDue string) string {
	newStatus = strings.TrimSpace(newStatus)
	if newStatus == entity.StatusCompleted {
		return c.MarkCompleted(current, newDue)
	}
	return Encode(StatusDate{Status: newStatus, DueDate: c.normalize(newDue)})
}

// UpdateDueDate reemplaza solo la fecha límite; estado y fecha de completado se conservan.
func (c *Codec) UpdateDueDate(current, newDue string) string {
	cur := Decode(current)
	due := c.normalize(newDue)
	if cur.IsCompleted() && cur.CompletionDate != "" {
		return Encode(StatusDate{Status: cur.Status, CompletionDate: cur.CompletionDate, DueDate: due})
	}
	return Encode(StatusDate{Status: cur.Status, DueDate: due})
}

// NormalizeDate convierte una fecha de entrada a YYYY-MM-DD en la zona del codec.
func (c *Codec) NormalizeDate(input string) (string, error) {
	return NormalizeDate(input, c.loc)
}

func (c *Codec) normalize(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if d, err := NormalizeDate(input, c.loc); err == nil {
		return d
	}
	// no parseable: se guarda tal cual, sin separadores que rompan el campo
	return strings.ReplaceAll(strings.TrimSpace(input), fieldSeparator, "")
}

// FormatDate formatea con los componentes año/mes/día de t en su propia zona.
// No usar t.UTC(): en zonas detrás de UTC corre el día calendario.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Formatos aceptados desde la hoja y la UI.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2006/01/02",
}

// NormalizeDate acepta YYYY-MM-DD, RFC3339, YYYY-MM-DDTHH:MM:SS, DD/MM/YYYY y YYYY/MM/DD.
// Las marcas con zona se llevan a loc antes de tomar el día.
func NormalizeDate(input string, loc *time.Location) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("fecha vacía")
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FormatDate(t.In(loc)), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return FormatDate(t), nil
		}
	}
	return "", fmt.Errorf("fecha no reconocida: %q", input)
}

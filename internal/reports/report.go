// Package reports builds the downloadable clinic reports: it fetches the
// resources a report needs, maps them to display rows and renders a PDF or
// XLSX artifact.
package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harentsoaR/dentist-portal/internal/errs"
)

type Kind string

const (
	KindPatients     Kind = "patients"
	KindAppointments Kind = "appointments"
	KindTreatments   Kind = "treatments"
	KindPayments     Kind = "payments"
	KindIncome       Kind = "income"
)

// Kinds lists the reports in menu order.
var Kinds = []Kind{KindPatients, KindAppointments, KindTreatments, KindPayments, KindIncome}

var titles = map[Kind]string{
	KindPatients:     "Reporte de Pacientes",
	KindAppointments: "Reporte de Citas",
	KindTreatments:   "Reporte de Tratamientos",
	KindPayments:     "Reporte de Pagos",
	KindIncome:       "Reporte de Ingresos",
}

func (k Kind) Title() string { return titles[k] }

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := titles[k]; !ok {
		return "", fmt.Errorf("%w: kind %q", errs.ErrUnknownReport, s)
	}
	return k, nil
}

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: format %q", errs.ErrUnknownReport, s)
}

const dateLayout = "2006-01-02"

// DateRange is inclusive on both ends; a zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange builds a range from two optional YYYY-MM-DD strings. It
// returns nil when both are empty.
func ParseDateRange(from, to string) (*DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var r DateRange
	var err error
	if from != "" {
		if r.From, err = time.Parse(dateLayout, from); err != nil {
			return nil, errors.New("fecha desde inválida, use AAAA-MM-DD")
		}
	}
	if to != "" {
		if r.To, err = time.Parse(dateLayout, to); err != nil {
			return nil, errors.New("fecha hasta inválida, use AAAA-MM-DD")
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, errors.New("el rango de fechas está invertido")
	}
	return &r, nil
}

// Contains reports whether a record date (YYYY-MM-DD, optionally followed by
// a time) falls inside the range. Undated records are outside any range.
func (r *DateRange) Contains(date string) bool {
	if r == nil {
		return true
	}
	d, ok := parseDate(date)
	if !ok {
		return false
	}
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

func (r *DateRange) String() string {
	if r == nil {
		return ""
	}
	from, to := "inicio", "hoy"
	if !r.From.IsZero() {
		from = r.From.Format(dateLayout)
	}
	if !r.To.IsZero() {
		to = r.To.Format(dateLayout)
	}
	return fmt.Sprintf("Periodo: %s a %s", from, to)
}

func parseDate(s string) (time.Time, bool) {
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	return d, err == nil
}

// Report is the renderer-independent content of an artifact.
type Report struct {
	Kind        Kind
	Title       string
	GeneratedAt time.Time
	Period      string
	Columns     []string
	Rows        [][]string
}

// Filename is "<Title>_<YYYY-MM-DD>.<ext>" with spaces replaced by underscores.
func (r *Report) Filename(f Format) string {
	return fmt.Sprintf("%s_%s.%s", strings.ReplaceAll(r.Title, " ", "_"), r.GeneratedAt.Format(dateLayout), f)
}

type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/metrics"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

// PageSize is the limit sent to list endpoints so that one call returns everything.
const PageSize = 1000

// Source is the part of the API client reports read from.
type Source interface {
	Patients(ctx context.Context, token string, opts apiclient.ListOptions) ([]models.Patient, error)
	Appointments(ctx context.Context, token string, opts apiclient.ListOptions) ([]models.Appointment, error)
	Treatments(ctx context.Context, token string, opts apiclient.ListOptions) ([]models.Treatment, error)
	Payments(ctx context.Context, token string, opts apiclient.ListOptions) ([]models.Payment, error)
}

type resource string

const (
	resPatients     resource = "pacientes"
	resAppointments resource = "citas"
	resTreatments   resource = "tratamientos"
	resPayments     resource = "pagos"
)

var needs = map[Kind][]resource{
	KindPatients:     {resPatients, resTreatments},
	KindAppointments: {resAppointments},
	KindTreatments:   {resTreatments},
	KindPayments:     {resPayments},
	KindIncome:       {resPayments},
}

type dataset struct {
	patients     []models.Patient
	appointments []models.Appointment
	treatments   []models.Treatment
	payments     []models.Payment
}

type Generator struct {
	src Source
	log zerolog.Logger
	now func() time.Time
}

func NewGenerator(src Source, log zerolog.Logger) *Generator {
	return &Generator{src: src, log: log, now: time.Now}
}

type Request struct {
	Kind   Kind
	Format Format
	Range  *DateRange
	Token  string
}

// Generate builds and renders one report.
func (g *Generator) Generate(ctx context.Context, req Request) (*Artifact, error) {
	rep, err := g.Build(ctx, req.Token, req.Kind, req.Range)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case FormatPDF:
		data, err = RenderPDF(rep)
	case FormatXLSX:
		data, err = RenderXLSX(rep)
	default:
		_, err = ParseFormat(string(req.Format))
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", req.Kind, err)
	}

	metrics.ReportsGeneratedTotal.WithLabelValues(string(req.Kind), string(req.Format)).Inc()
	g.log.Info().Str("kind", string(req.Kind)).Str("format", string(req.Format)).Int("rows", len(rep.Rows)).Msg("report generated")

	return &Artifact{Filename: rep.Filename(req.Format), ContentType: req.Format.ContentType(), Data: data}, nil
}

// Build fetches the data of a report and maps it to rows. A resource that
// cannot be fetched contributes no rows; it never fails the report.
func (g *Generator) Build(ctx context.Context, token string, kind Kind, rng *DateRange) (*Report, error) {
	resources, ok := needs[kind]
	if !ok {
		_, err := ParseKind(string(kind))
		return nil, err
	}

	data := g.fetch(ctx, token, resources)

	rep := &Report{
		Kind:        kind,
		Title:       kind.Title(),
		GeneratedAt: g.now(),
		Period:      rng.String(),
	}
	switch kind {
	case KindPatients:
		patientRows(rep, data, rng)
	case KindAppointments:
		appointmentRows(rep, data, rng)
	case KindTreatments:
		treatmentRows(rep, data, rng)
	case KindPayments:
		paymentRows(rep, data, rng)
	case KindIncome:
		incomeRows(rep, data, rng)
	}
	return rep, nil
}

func (g *Generator) fetch(ctx context.Context, token string, resources []resource) dataset {
	var (
		data dataset
		wg   sync.WaitGroup
	)
	opts := apiclient.ListOptions{Limit: PageSize}

	for _, res := range resources {
		wg.Add(1)
		go func(res resource) {
			defer wg.Done()
			var err error
			// each goroutine writes a distinct field
			switch res {
			case resPatients:
				data.patients, err = g.src.Patients(ctx, token, opts)
			case resAppointments:
				data.appointments, err = g.src.Appointments(ctx, token, opts)
			case resTreatments:
				data.treatments, err = g.src.Treatments(ctx, token, opts)
			case resPayments:
				data.payments, err = g.src.Payments(ctx, token, opts)
			}
			if err != nil {
				metrics.ReportSectionFailuresTotal.WithLabelValues(string(res)).Inc()
				g.log.Warn().Err(err).Str("resource", string(res)).Msg("report section left empty")
			}
		}(res)
	}
	wg.Wait()

	if data.patients == nil {
		data.patients = []models.Patient{}
	}
	if data.appointments == nil {
		data.appointments = []models.Appointment{}
	}
	if data.treatments == nil {
		data.treatments = []models.Treatment{}
	}
	if data.payments == nil {
		data.payments = []models.Payment{}
	}
	return data
}

// ── row mapping ───────────────────────────────────────────────────────────────

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func day(s string) string {
	if len(s) >= len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return orDash(s)
}

// Patients are filtered on their registration date; a patient without one is
// kept only when no range is given.
func patientRows(rep *Report, data dataset, rng *DateRange) {
	rep.Columns = []string{"Nombre", "Correo", "Teléfono", "Fecha de nacimiento", "Tratamientos"}

	counts := make(map[string]int, len(data.patients))
	for _, t := range data.treatments {
		if t.Patient != nil {
			counts[t.Patient.ID]++
		}
	}
	for _, p := range data.patients {
		if !rng.Contains(p.CreatedAt) {
			continue
		}
		rep.Rows = append(rep.Rows, []string{
			p.FullName(), orDash(p.Email), orDash(p.Phone), day(p.BirthDate), strconv.Itoa(counts[p.ID]),
		})
	}
}

func appointmentRows(rep *Report, data dataset, rng *DateRange) {
	rep.Columns = []string{"Fecha", "Hora", "Paciente", "Odontólogo", "Motivo", "Estado"}
	for _, a := range data.appointments {
		if a.Patient == nil || !rng.Contains(a.Date) {
			continue
		}
		rep.Rows = append(rep.Rows, []string{
			day(a.Date), orDash(a.Time), a.Patient.FullName(), orDash(a.Dentist.FullName()), orDash(a.Reason), orDash(a.Status),
		})
	}
}

func treatmentRows(rep *Report, data dataset, rng *DateRange) {
	rep.Columns = []string{"Fecha", "Paciente", "Tratamiento", "Odontólogo", "Costo", "Estado"}
	for _, t := range data.treatments {
		if t.Patient == nil || !rng.Contains(t.Date) {
			continue
		}
		rep.Rows = append(rep.Rows, []string{
			day(t.Date), t.Patient.FullName(), orDash(t.Name), orDash(t.Dentist.FullName()), money(t.Cost), orDash(t.Status),
		})
	}
}

func paymentRows(rep *Report, data dataset, rng *DateRange) {
	rep.Columns = []string{"Fecha", "Paciente", "Concepto", "Método", "Monto", "Estado"}
	for _, p := range data.payments {
		if p.Patient == nil || !rng.Contains(p.Date) {
			continue
		}
		rep.Rows = append(rep.Rows, []string{
			day(p.Date), p.Patient.FullName(), orDash(p.Concept), orDash(p.Method), money(p.Amount), orDash(p.Status),
		})
	}
}

// incomeRows sums paid payments per month, oldest first, with a closing total.
func incomeRows(rep *Report, data dataset, rng *DateRange) {
	rep.Columns = []string{"Mes", "Pagos", "Total"}

	type bucket struct {
		count int
		total float64
	}
	months := map[string]*bucket{}
	for _, p := range data.payments {
		if p.Status != models.PaymentPaid || !rng.Contains(p.Date) {
			continue
		}
		d, ok := parseDate(p.Date)
		if !ok {
			continue
		}
		key := d.Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &bucket{}
			months[key] = b
		}
		b.count++
		b.total += p.Amount
	}
	if len(months) == 0 {
		return
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var count int
	var total float64
	for _, k := range keys {
		b := months[k]
		count += b.count
		total += b.total
		rep.Rows = append(rep.Rows, []string{k, strconv.Itoa(b.count), money(b.total)})
	}
	rep.Rows = append(rep.Rows, []string{"Total", strconv.Itoa(count), money(total)})
}

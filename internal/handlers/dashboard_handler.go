package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

func (h *Handler) Dashboard(c *gin.Context) {
	v := newView(c, "dashboard")
	ctx, tok := c.Request.Context(), bearer(c)

	stats, err := h.API.DashboardStats(ctx, tok)
	if err != nil {
		if !h.fail(c, v, "cargar las estadísticas", err) {
			return
		}
	} else {
		v.Sections = append(v.Sections, Section{Cards: []Card{
			{Label: "Pacientes", Value: count(stats.TotalPatients)},
			{Label: "Citas de hoy", Value: count(stats.AppointmentsToday)},
			{Label: "Citas pendientes", Value: count(stats.PendingAppointments)},
			{Label: "Tratamientos activos", Value: count(stats.ActiveTreatments)},
			{Label: "Ingresos del mes", Value: money(stats.MonthlyIncome)},
		}})
	}

	recent, err := h.API.RecentAppointments(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar las citas recientes", err) {
		return
	}
	t := newTable("No hay citas recientes", "Fecha", "Hora", "Paciente", "Odontólogo", "Estado")
	for _, a := range recent {
		t.add(a.Date, a.Time, dash(a.Patient.FullName()), dash(a.Dentist.FullName()), statusLabel(a.Status))
	}
	v.Sections = append(v.Sections, Section{Heading: "Citas recientes", Table: t})

	activity, err := h.API.Activity(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar la actividad reciente", err) {
		return
	}
	at := newTable("Sin actividad reciente", "Fecha", "Tipo", "Descripción")
	for _, a := range activity {
		at.add(a.Date, dash(a.Type), a.Description)
	}
	v.Sections = append(v.Sections, Section{Heading: "Actividad reciente", Table: at})

	h.render(c, http.StatusOK, v)
}

// Statistics aggregates appointments and payments client side.
func (h *Handler) Statistics(c *gin.Context) {
	v := newView(c, "statistics")
	ctx, tok := c.Request.Context(), bearer(c)
	opts := apiclient.ListOptions{Limit: reports.PageSize}

	citas, err := h.API.Appointments(ctx, tok, opts)
	if err != nil && !h.fail(c, v, "cargar las citas", err) {
		return
	}
	byStatus := map[string]int{}
	for _, a := range citas {
		byStatus[a.Status]++
	}
	cards := []Card{{Label: "Total de citas", Value: count(len(citas))}}
	for _, s := range models.AppointmentStatuses {
		cards = append(cards, Card{Label: statusLabel(s), Value: count(byStatus[s])})
	}
	v.Sections = append(v.Sections, Section{Heading: "Citas por estado", Cards: cards})

	pagos, err := h.API.Payments(ctx, tok, opts)
	if err != nil && !h.fail(c, v, "cargar los pagos", err) {
		return
	}
	totals := map[string]float64{}
	for _, p := range pagos {
		if p.Status == models.PaymentPaid {
			totals[p.Method] += p.Amount
		}
	}
	methods := make([]string, 0, len(totals))
	for m := range totals {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	mt := newTable("Sin pagos registrados", "Método", "Total cobrado")
	for _, m := range methods {
		mt.add(dash(m), money(totals[m]))
	}
	v.Sections = append(v.Sections, Section{Heading: "Ingresos por método de pago", Table: mt})

	income := newTable("Sin ingresos registrados", "Mes", "Pagos", "Total")
	if rep, err := h.Generator.Build(ctx, tok, reports.KindIncome, nil); err == nil {
		income.Columns = rep.Columns
		for _, row := range rep.Rows {
			income.add(row...)
		}
	}
	v.Sections = append(v.Sections, Section{Heading: "Ingresos por mes", Table: income})

	h.render(c, http.StatusOK, v)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

const (
	appointmentsPath   = "/dashboard/appointments"
	myAppointmentsPath = "/dashboard/my-appointments"
)

// formState carries a rejected submission back to the form it came from.
type formState struct {
	form   string
	values map[string]string
	errs   map[string]string
}

func (st *formState) apply(name string, f *Form) *Form {
	if st != nil && st.form == name {
		f.withErrors(st.values, st.errs)
	}
	return f
}

func personOptions(placeholder string, people []models.User) []Option {
	opts := []Option{{Value: "", Label: placeholder}}
	for _, p := range people {
		opts = append(opts, Option{Value: p.ID, Label: p.FullName()})
	}
	return opts
}

func patientOptions(patients []models.Patient) []Option {
	opts := []Option{{Value: "", Label: "Seleccione un paciente"}}
	for _, p := range patients {
		opts = append(opts, Option{Value: p.ID, Label: p.FullName()})
	}
	return opts
}

func cancellable(a models.Appointment) bool {
	return a.Status == models.AppointmentPending || a.Status == models.AppointmentConfirmed
}

// ── staff ─────────────────────────────────────────────────────────────────────

func (h *Handler) Appointments(c *gin.Context) {
	h.showAppointments(c, http.StatusOK, newView(c, "appointments"), nil)
}

func (h *Handler) showAppointments(c *gin.Context, status int, v *View, st *formState) {
	ctx, tok := c.Request.Context(), bearer(c)

	citas, err := h.API.Appointments(ctx, tok, listLimit)
	if err != nil && !h.fail(c, v, "cargar las citas", err) {
		return
	}
	patients, err := h.API.Patients(ctx, tok, apiclient.ListOptions{Limit: reports.PageSize})
	if err != nil && !h.fail(c, v, "cargar los pacientes", err) {
		return
	}
	dentists, err := h.API.Dentists(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar los odontólogos", err) {
		return
	}

	t := newTable("No hay citas registradas", "Fecha", "Hora", "Paciente", "Odontólogo", "Motivo", "Estado")
	for _, a := range citas {
		row := t.add(a.Date, a.Time, dash(a.Patient.FullName()), dash(a.Dentist.FullName()), dash(a.Reason), statusLabel(a.Status))
		next := ""
		switch a.Status {
		case models.AppointmentPending:
			next = models.AppointmentConfirmed
		case models.AppointmentConfirmed:
			next = models.AppointmentCompleted
		}
		if next != "" {
			row.Actions = append(row.Actions, Action{
				Label:  "Marcar " + statusLabel(next),
				URL:    appointmentsPath + "/update",
				Hidden: []Hidden{{Name: "cita", Value: a.ID}, {Name: "estado", Value: next}},
			})
		}
		if cancellable(a) {
			row.Actions = append(row.Actions, Action{Label: "Cancelar", URL: actionPath(appointmentsPath, a.ID, "cancel")})
		}
	}

	citaOpts := []Option{{Value: "", Label: "Seleccione una cita"}}
	for _, a := range citas {
		citaOpts = append(citaOpts, Option{Value: a.ID, Label: a.Date + " " + a.Time + " · " + dash(a.Patient.FullName())})
	}

	create := postForm(appointmentsPath, "Agendar cita",
		Field{Name: "paciente", Label: "Paciente", Type: "select", Options: patientOptions(patients)},
		Field{Name: "odontologo", Label: "Odontólogo", Type: "select", Options: personOptions("Seleccione un odontólogo", dentists)},
		Field{Name: "fecha", Label: "Fecha", Type: "date", Required: true},
		Field{Name: "hora", Label: "Hora", Type: "time", Required: true},
		Field{Name: "motivo", Label: "Motivo", Type: "text", Required: true},
	)
	update := postForm(appointmentsPath+"/update", "Actualizar cita",
		Field{Name: "cita", Label: "Cita", Type: "select", Options: citaOpts},
		Field{Name: "fecha", Label: "Nueva fecha", Type: "date"},
		Field{Name: "hora", Label: "Nueva hora", Type: "time"},
		Field{Name: "estado", Label: "Estado", Type: "select", Options: append([]Option{{Value: "", Label: "Sin cambios"}}, statusOptions()...)},
		Field{Name: "notas", Label: "Notas", Type: "textarea"},
	)

	v.Sections = append(v.Sections,
		Section{Table: t},
		Section{Heading: "Nueva cita", Form: st.apply("create", create)},
		Section{Heading: "Reprogramar o actualizar", Form: st.apply("update", update)},
	)
	h.render(c, status, v)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var form appointmentForm
	values, invalid := h.bind(c, &form)
	v := newView(c, "appointments")
	st := &formState{form: "create", values: values, errs: invalid}
	if invalid != nil {
		h.showAppointments(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreateAppointment(c.Request.Context(), bearer(c), form.request()); err != nil {
		if h.fail(c, v, "registrar la cita", err) {
			h.showAppointments(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, appointmentsPath, "cita-creada")
}

// UpdateAppointment sends only the fields that were filled in.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	var form appointmentUpdateForm
	values, invalid := h.bind(c, &form)
	v := newView(c, "appointments")
	id := c.PostForm("cita")
	if id == "" {
		if invalid == nil {
			invalid = map[string]string{}
		}
		invalid["cita"] = "Este campo es obligatorio"
	}
	upd := form.update()
	if invalid == nil && upd.Empty() {
		v.Banner = "No hay cambios para guardar"
		invalid = map[string]string{}
	}
	st := &formState{form: "update", values: values, errs: invalid}
	if invalid != nil {
		h.showAppointments(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.UpdateAppointment(c.Request.Context(), bearer(c), id, upd); err != nil {
		if h.fail(c, v, "actualizar la cita", err) {
			h.showAppointments(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, appointmentsPath, "cita-actualizada")
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	if err := h.API.CancelAppointment(c.Request.Context(), bearer(c), c.Param("id")); err != nil {
		v := newView(c, "appointments")
		if h.fail(c, v, "cancelar la cita", err) {
			h.showAppointments(c, http.StatusOK, v, nil)
		}
		return
	}
	redirectWithNotice(c, appointmentsPath, "cita-cancelada")
}

// ── patient ───────────────────────────────────────────────────────────────────

func (h *Handler) MyAppointments(c *gin.Context) {
	h.showMyAppointments(c, http.StatusOK, newView(c, "my-appointments"), nil)
}

func (h *Handler) showMyAppointments(c *gin.Context, status int, v *View, st *formState) {
	ctx, tok := c.Request.Context(), bearer(c)

	citas, err := h.API.MyAppointments(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar sus citas", err) {
		return
	}
	dentists, err := h.API.Dentists(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar los odontólogos", err) {
		return
	}

	t := newTable("Aún no tiene citas", "Fecha", "Hora", "Odontólogo", "Motivo", "Estado")
	for _, a := range citas {
		row := t.add(a.Date, a.Time, dash(a.Dentist.FullName()), dash(a.Reason), statusLabel(a.Status))
		if cancellable(a) {
			row.Actions = append(row.Actions, Action{Label: "Cancelar", URL: actionPath(myAppointmentsPath, a.ID, "cancel")})
		}
	}

	book := postForm(myAppointmentsPath, "Reservar cita",
		Field{Name: "odontologo", Label: "Odontólogo", Type: "select", Options: personOptions("Seleccione un odontólogo", dentists)},
		Field{Name: "fecha", Label: "Fecha", Type: "date", Required: true},
		Field{Name: "hora", Label: "Hora", Type: "time", Required: true},
		Field{Name: "motivo", Label: "Motivo de la consulta", Type: "text", Required: true},
	)

	v.Sections = append(v.Sections,
		Section{Table: t},
		Section{Heading: "Reservar una cita", Form: st.apply("book", book)},
	)
	h.render(c, status, v)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var form bookingForm
	values, invalid := h.bind(c, &form)
	v := newView(c, "my-appointments")
	st := &formState{form: "book", values: values, errs: invalid}
	if invalid != nil {
		h.showMyAppointments(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreateAppointment(c.Request.Context(), bearer(c), form.request()); err != nil {
		if h.fail(c, v, "reservar la cita", err) {
			h.showMyAppointments(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, myAppointmentsPath, "cita-creada")
}

func (h *Handler) CancelMyAppointment(c *gin.Context) {
	if err := h.API.CancelAppointment(c.Request.Context(), bearer(c), c.Param("id")); err != nil {
		v := newView(c, "my-appointments")
		if h.fail(c, v, "cancelar la cita", err) {
			h.showMyAppointments(c, http.StatusOK, v, nil)
		}
		return
	}
	redirectWithNotice(c, myAppointmentsPath, "cita-cancelada")
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

const (
	patientsPath   = "/dashboard/patients"
	recordsPath    = "/dashboard/records"
	treatmentsPath = "/dashboard/treatments"
	paymentsPath   = "/dashboard/payments"
)

var allRecords = apiclient.ListOptions{Limit: reports.PageSize}

// ── patients ──────────────────────────────────────────────────────────────────

func (h *Handler) Patients(c *gin.Context) {
	h.showPatients(c, http.StatusOK, newView(c, "patients"), nil)
}

func (h *Handler) showPatients(c *gin.Context, status int, v *View, st *formState) {
	patients, err := h.API.Patients(c.Request.Context(), bearer(c), listLimit)
	if err != nil && !h.fail(c, v, "cargar los pacientes", err) {
		return
	}

	t := newTable("No hay pacientes registrados", "Nombre", "Correo", "Teléfono", "Fecha de nacimiento", "Registro")
	for _, p := range patients {
		t.add(p.FullName(), dash(p.Email), dash(p.Phone), dash(p.BirthDate), dash(p.CreatedAt))
	}

	create := postForm(patientsPath, "Registrar paciente",
		Field{Name: "nombre", Label: "Nombre", Type: "text", Required: true},
		Field{Name: "apellido", Label: "Apellido", Type: "text", Required: true},
		Field{Name: "correo", Label: "Correo electrónico", Type: "email", Required: true},
		Field{Name: "telefono", Label: "Teléfono", Type: "tel", Required: true},
		Field{Name: "fechaNacimiento", Label: "Fecha de nacimiento", Type: "date"},
		Field{Name: "direccion", Label: "Dirección", Type: "text"},
	)

	v.Sections = append(v.Sections,
		Section{Table: t, Links: []Link{{Label: "Ver historiales clínicos", URL: recordsPath}}},
		Section{Heading: "Nuevo paciente", Form: st.apply("create", create)},
	)
	h.render(c, status, v)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var form patientForm
	values, invalid := h.bind(c, &form)
	v := newView(c, "patients")
	st := &formState{form: "create", values: values, errs: invalid}
	if invalid != nil {
		h.showPatients(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreatePatient(c.Request.Context(), bearer(c), form.request()); err != nil {
		if h.fail(c, v, "registrar el paciente", err) {
			h.showPatients(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, patientsPath, "paciente-creado")
}

// ── records ───────────────────────────────────────────────────────────────────

// Records shows the clinical history of the patient chosen with ?paciente=.
func (h *Handler) Records(c *gin.Context) {
	v := newView(c, "records")
	ctx, tok := c.Request.Context(), bearer(c)
	selected := c.Query("paciente")

	patients, err := h.API.Patients(ctx, tok, allRecords)
	if err != nil && !h.fail(c, v, "cargar los pacientes", err) {
		return
	}

	picker := &Form{Method: "get", Action: recordsPath, Submit: "Ver historial", Fields: []Field{
		{Name: "paciente", Label: "Paciente", Type: "select", Value: selected, Options: patientOptions(patients)},
	}}
	v.Sections = append(v.Sections, Section{Form: picker})

	var patient *models.Patient
	for i := range patients {
		if patients[i].ID == selected {
			patient = &patients[i]
			break
		}
	}
	if patient == nil {
		if selected != "" && v.Banner == "" {
			v.Banner = "Paciente no encontrado"
		}
		h.render(c, http.StatusOK, v)
		return
	}

	v.Sections = append(v.Sections, Section{Heading: patient.FullName(), Cards: []Card{
		{Label: "Correo", Value: dash(patient.Email)},
		{Label: "Teléfono", Value: dash(patient.Phone)},
		{Label: "Fecha de nacimiento", Value: dash(patient.BirthDate)},
		{Label: "Dirección", Value: dash(patient.Address)},
	}})

	citas, err := h.API.Appointments(ctx, tok, allRecords)
	if err != nil && !h.fail(c, v, "cargar las citas", err) {
		return
	}
	ct := newTable("Sin citas", "Fecha", "Hora", "Odontólogo", "Motivo", "Estado", "Notas")
	for _, a := range citas {
		if a.Patient != nil && a.Patient.ID == patient.ID {
			ct.add(a.Date, a.Time, dash(a.Dentist.FullName()), dash(a.Reason), statusLabel(a.Status), dash(a.Notes))
		}
	}

	tratamientos, err := h.API.Treatments(ctx, tok, allRecords)
	if err != nil && !h.fail(c, v, "cargar los tratamientos", err) {
		return
	}
	tt := newTable("Sin tratamientos", "Fecha", "Tratamiento", "Odontólogo", "Costo", "Estado")
	for _, t := range tratamientos {
		if t.Patient != nil && t.Patient.ID == patient.ID {
			tt.add(t.Date, t.Name, dash(t.Dentist.FullName()), money(t.Cost), dash(t.Status))
		}
	}

	v.Sections = append(v.Sections,
		Section{Heading: "Citas", Table: ct},
		Section{Heading: "Tratamientos", Table: tt},
	)
	h.render(c, http.StatusOK, v)
}

// ── treatments ────────────────────────────────────────────────────────────────

func (h *Handler) Treatments(c *gin.Context) {
	h.showTreatments(c, http.StatusOK, newView(c, "treatments"), nil)
}

func (h *Handler) showTreatments(c *gin.Context, status int, v *View, st *formState) {
	ctx, tok := c.Request.Context(), bearer(c)

	tratamientos, err := h.API.Treatments(ctx, tok, listLimit)
	if err != nil && !h.fail(c, v, "cargar los tratamientos", err) {
		return
	}
	patients, err := h.API.Patients(ctx, tok, allRecords)
	if err != nil && !h.fail(c, v, "cargar los pacientes", err) {
		return
	}
	dentists, err := h.API.Dentists(ctx, tok)
	if err != nil && !h.fail(c, v, "cargar los odontólogos", err) {
		return
	}

	t := newTable("No hay tratamientos registrados", "Fecha", "Paciente", "Tratamiento", "Odontólogo", "Costo", "Estado")
	for _, tr := range tratamientos {
		t.add(tr.Date, dash(tr.Patient.FullName()), tr.Name, dash(tr.Dentist.FullName()), money(tr.Cost), dash(tr.Status))
	}

	create := postForm(treatmentsPath, "Registrar tratamiento",
		Field{Name: "paciente", Label: "Paciente", Type: "select", Options: patientOptions(patients)},
		Field{Name: "odontologo", Label: "Odontólogo", Type: "select", Options: personOptions("Sin asignar", dentists)},
		Field{Name: "nombre", Label: "Tratamiento", Type: "text", Required: true},
		Field{Name: "descripcion", Label: "Descripción", Type: "textarea"},
		Field{Name: "costo", Label: "Costo", Type: "number", Required: true},
		Field{Name: "fecha", Label: "Fecha", Type: "date", Required: true},
	)

	v.Sections = append(v.Sections,
		Section{Table: t},
		Section{Heading: "Nuevo tratamiento", Form: st.apply("create", create)},
	)
	h.render(c, status, v)
}

func (h *Handler) CreateTreatment(c *gin.Context) {
	var form treatmentForm
	values, invalid := h.bind(c, &form)
	req, ok := form.request()
	if invalid == nil && !ok {
		invalid = map[string]string{"costo": "Debe ser mayor que cero"}
	}
	v := newView(c, "treatments")
	st := &formState{form: "create", values: values, errs: invalid}
	if invalid != nil {
		h.showTreatments(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreateTreatment(c.Request.Context(), bearer(c), req); err != nil {
		if h.fail(c, v, "registrar el tratamiento", err) {
			h.showTreatments(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, treatmentsPath, "tratamiento-creado")
}

// ── payments ──────────────────────────────────────────────────────────────────

func (h *Handler) Payments(c *gin.Context) {
	h.showPayments(c, http.StatusOK, newView(c, "payments"), nil)
}

func (h *Handler) showPayments(c *gin.Context, status int, v *View, st *formState) {
	ctx, tok := c.Request.Context(), bearer(c)

	pagos, err := h.API.Payments(ctx, tok, listLimit)
	if err != nil && !h.fail(c, v, "cargar los pagos", err) {
		return
	}
	patients, err := h.API.Patients(ctx, tok, allRecords)
	if err != nil && !h.fail(c, v, "cargar los pacientes", err) {
		return
	}

	var paid, pending float64
	t := newTable("No hay pagos registrados", "Fecha", "Paciente", "Concepto", "Método", "Monto", "Estado")
	for _, p := range pagos {
		switch p.Status {
		case models.PaymentPaid:
			paid += p.Amount
		case models.PaymentPending:
			pending += p.Amount
		}
		t.add(p.Date, dash(p.Patient.FullName()), dash(p.Concept), dash(p.Method), money(p.Amount), dash(p.Status))
	}

	create := postForm(paymentsPath, "Registrar pago",
		Field{Name: "paciente", Label: "Paciente", Type: "select", Options: patientOptions(patients)},
		Field{Name: "monto", Label: "Monto", Type: "number", Required: true},
		Field{Name: "metodo", Label: "Método", Type: "select", Options: paymentMethods},
		Field{Name: "concepto", Label: "Concepto", Type: "text", Required: true},
		Field{Name: "fecha", Label: "Fecha", Type: "date", Required: true},
	)

	v.Sections = append(v.Sections,
		Section{Cards: []Card{{Label: "Cobrado", Value: money(paid)}, {Label: "Pendiente", Value: money(pending)}}},
		Section{Table: t},
		Section{Heading: "Nuevo pago", Form: st.apply("create", create)},
	)
	h.render(c, status, v)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var form paymentForm
	values, invalid := h.bind(c, &form)
	req, ok := form.request()
	if invalid == nil && !ok {
		invalid = map[string]string{"monto": "Debe ser mayor que cero"}
	}
	v := newView(c, "payments")
	st := &formState{form: "create", values: values, errs: invalid}
	if invalid != nil {
		h.showPayments(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreatePayment(c.Request.Context(), bearer(c), req); err != nil {
		if h.fail(c, v, "registrar el pago", err) {
			h.showPayments(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, paymentsPath, "pago-creado")
}

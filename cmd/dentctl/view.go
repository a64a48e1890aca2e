package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

const viewLimit = 50

type pageView func(ctx context.Context, a *app) error

// views renders each guarded page as text.
var views = map[string]pageView{
	"dashboard":       viewDashboard,
	"patients":        reportView(reports.KindPatients),
	"appointments":    reportView(reports.KindAppointments),
	"records":         viewRecords,
	"treatments":      reportView(reports.KindTreatments),
	"payments":        reportView(reports.KindPayments),
	"users":           viewUsers,
	"reports":         viewReportMenu,
	"statistics":      reportView(reports.KindIncome),
	"my-appointments": viewMyAppointments,
}

func pageNames() []string {
	names := make([]string, 0, len(views))
	for _, p := range guard.Pages() {
		names = append(names, p.Name)
	}
	return names
}

func newViewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "view <página>",
		Short:     "Mostrar una página del panel",
		Long:      "Páginas disponibles: " + joinComma(pageNames()),
		Args:      cobra.ExactArgs(1),
		ValidArgs: pageNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, ok := guard.Lookup(args[0])
			if !ok {
				return fmt.Errorf("página desconocida %q; use una de: %s", args[0], joinComma(pageNames()))
			}
			return a.show(cmd.Context(), page)
		},
	}
	cmd.Flags().StringVar(&a.patientID, "paciente", "", "id del paciente cuyo historial se muestra (página records)")
	return cmd
}

// show applies the same guard as the portal. A redirect to another page is
// followed once, and only when the session may render that page; anything
// else means there is no usable session.
func (a *app) show(ctx context.Context, page guard.Page) error {
	in := guard.InputFrom(a.auth.Snapshot())
	d := guard.Decide(in, page)
	switch d.Kind {
	case guard.KindLoading:
		return errors.New("la sesión todavía se está verificando")
	case guard.KindRedirect:
		target, ok := guard.PageAt(d.Path)
		if !ok || guard.Decide(in, target).Kind != guard.KindRender {
			return errLoginRequired
		}
		fmt.Fprintf(a.out, "Sin acceso a %s; mostrando %s.\n\n", page.Title, target.Title)
		page = target
	}

	fmt.Fprintf(a.out, "== %s ==\n", page.Title)
	if err := views[page.Name](ctx, a); err != nil {
		return describe(err)
	}
	// Sections that fail are rendered empty; a revoked token ends the session meanwhile.
	if !a.auth.Snapshot().Authenticated() {
		return describe(errs.ErrUnauthorized)
	}
	return nil
}

func viewDashboard(ctx context.Context, a *app) error {
	tok := a.auth.Token()
	stats, err := a.api.DashboardStats(ctx, tok)
	if err != nil {
		return err
	}
	t := newTable(a.out)
	t.row("Pacientes", strconv.Itoa(stats.TotalPatients))
	t.row("Citas de hoy", strconv.Itoa(stats.AppointmentsToday))
	t.row("Citas pendientes", strconv.Itoa(stats.PendingAppointments))
	t.row("Tratamientos activos", strconv.Itoa(stats.ActiveTreatments))
	t.row("Ingresos del mes", fmt.Sprintf("$%.2f", stats.MonthlyIncome))
	if err := t.flush(); err != nil {
		return err
	}

	recent, err := a.api.RecentAppointments(ctx, tok)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nCitas recientes")
	return grid(a.out, "No hay citas recientes", appointmentColumns, appointmentRows(recent, true))
}

var appointmentColumns = []string{"Fecha", "Hora", "Paciente", "Odontólogo", "Motivo", "Estado"}

func appointmentRows(list []models.Appointment, withPatient bool) [][]string {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		r := []string{c.Date, c.Time}
		if withPatient {
			r = append(r, orDash(c.Patient.FullName()))
		}
		r = append(r, orDash(c.Dentist.FullName()), orDash(c.Reason), c.Status)
		rows = append(rows, r)
	}
	return rows
}

func reportView(kind reports.Kind) pageView {
	return func(ctx context.Context, a *app) error {
		rep, err := a.gen.Build(ctx, a.auth.Token(), kind, nil)
		if err != nil {
			return err
		}
		return grid(a.out, "Sin registros", rep.Columns, rep.Rows)
	}
}

func viewUsers(ctx context.Context, a *app) error {
	users, err := a.api.Users(ctx, a.auth.Token(), apiclient.ListOptions{Limit: viewLimit})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.FullName(), u.Email, roleName(u.Role), orDash(u.Specialty)})
	}
	return grid(a.out, "No hay usuarios", []string{"Nombre", "Correo", "Rol", "Especialidad"}, rows)
}

func viewReportMenu(_ context.Context, a *app) error {
	t := newTable(a.out)
	for _, k := range reports.Kinds {
		t.row(string(k), k.Title())
	}
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nDescargue con: dentctl report <tipo> --formato pdf|xlsx")
	return nil
}

func viewMyAppointments(ctx context.Context, a *app) error {
	list, err := a.api.MyAppointments(ctx, a.auth.Token())
	if err != nil {
		return err
	}
	cols := make([]string, 0, len(appointmentColumns)-1)
	for _, c := range appointmentColumns {
		if !strings.EqualFold(c, "Paciente") {
			cols = append(cols, c)
		}
	}
	return grid(a.out, "Aún no tiene citas", cols, appointmentRows(list, false))
}

// viewRecords prints one patient's history, or the patient ids to choose from.
func viewRecords(ctx context.Context, a *app) error {
	tok := a.auth.Token()
	all := apiclient.ListOptions{Limit: reports.PageSize}

	patients, err := a.api.Patients(ctx, tok, all)
	if err != nil {
		return err
	}
	var patient *models.Patient
	for i := range patients {
		if patients[i].ID == a.patientID {
			patient = &patients[i]
			break
		}
	}
	if patient == nil {
		if a.patientID != "" {
			return fmt.Errorf("paciente no encontrado: %s", a.patientID)
		}
		rows := make([][]string, 0, len(patients))
		for _, p := range patients {
			rows = append(rows, []string{p.ID, p.FullName(), orDash(p.Email)})
		}
		if err := grid(a.out, "No hay pacientes registrados", []string{"Id", "Paciente", "Correo"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\nVea un historial con: dentctl view records --paciente <id>")
		return nil
	}

	t := newTable(a.out)
	t.row("Paciente", patient.FullName())
	t.row("Correo", orDash(patient.Email))
	t.row("Teléfono", orDash(patient.Phone))
	t.row("Fecha de nacimiento", orDash(patient.BirthDate))
	t.row("Dirección", orDash(patient.Address))
	if err := t.flush(); err != nil {
		return err
	}

	citas, err := a.api.Appointments(ctx, tok, all)
	if err != nil {
		return err
	}
	var citaRows [][]string
	for _, c := range citas {
		if c.Patient != nil && c.Patient.ID == patient.ID {
			citaRows = append(citaRows, []string{c.Date, c.Time, orDash(c.Dentist.FullName()), orDash(c.Reason), c.Status, orDash(c.Notes)})
		}
	}
	fmt.Fprintln(a.out, "\nCitas")
	if err := grid(a.out, "Sin citas", []string{"Fecha", "Hora", "Odontólogo", "Motivo", "Estado", "Notas"}, citaRows); err != nil {
		return err
	}

	tratamientos, err := a.api.Treatments(ctx, tok, all)
	if err != nil {
		return err
	}
	var tRows [][]string
	for _, tr := range tratamientos {
		if tr.Patient != nil && tr.Patient.ID == patient.ID {
			tRows = append(tRows, []string{tr.Date, tr.Name, orDash(tr.Dentist.FullName()), fmt.Sprintf("$%.2f", tr.Cost), orDash(tr.Status)})
		}
	}
	fmt.Fprintln(a.out, "\nTratamientos")
	return grid(a.out, "Sin tratamientos", []string{"Fecha", "Tratamiento", "Odontólogo", "Costo", "Estado"}, tRows)
}

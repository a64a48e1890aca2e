// Package guard decides, for a session snapshot and a requested page, whether
// to wait for hydration, redirect, or render. It has no I/O so that the portal
// and the CLI apply exactly the same rules.
package guard

import (
	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

const (
	HomePath           = "/"
	DashboardPath      = "/dashboard"
	MyAppointmentsPath = "/dashboard/my-appointments"
)

// Page is a guarded dashboard page.
type Page struct {
	Name   string
	Title  string
	Path   string
	Module auth.Module
}

var pages = []Page{
	{Name: "dashboard", Title: "Panel", Path: DashboardPath, Module: auth.ModuleDashboard},
	{Name: "patients", Title: "Pacientes", Path: "/dashboard/patients", Module: auth.ModulePatients},
	{Name: "appointments", Title: "Citas", Path: "/dashboard/appointments", Module: auth.ModuleAppointments},
	{Name: "records", Title: "Historiales", Path: "/dashboard/records", Module: auth.ModuleRecords},
	{Name: "treatments", Title: "Tratamientos", Path: "/dashboard/treatments", Module: auth.ModuleTreatments},
	{Name: "payments", Title: "Pagos", Path: "/dashboard/payments", Module: auth.ModulePayments},
	{Name: "users", Title: "Usuarios", Path: "/dashboard/users", Module: auth.ModuleUsers},
	{Name: "reports", Title: "Reportes", Path: "/dashboard/reports", Module: auth.ModuleReports},
	{Name: "statistics", Title: "Estadísticas", Path: "/dashboard/statistics", Module: auth.ModuleStatistics},
	{Name: "my-appointments", Title: "Mis citas", Path: MyAppointmentsPath, Module: auth.ModuleMyAppointments},
}

// Pages returns the page table in navigation order.
func Pages() []Page {
	return append([]Page(nil), pages...)
}

// Lookup finds a page by name.
func Lookup(name string) (Page, bool) {
	for _, p := range pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}

// PageAt finds a page by path.
func PageAt(path string) (Page, bool) {
	for _, p := range pages {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// Landing is the page a role is sent to when it may not see the requested one.
// Roles outside the permission table have no page and go back home.
func Landing(role models.Role) string {
	switch role {
	case models.RolePatient:
		return MyAppointmentsPath
	case models.RoleAdmin, models.RoleDentist:
		return DashboardPath
	}
	return HomePath
}

type Kind int

const (
	KindLoading Kind = iota
	KindRedirect
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindRender:
		return "render"
	default:
		return "loading"
	}
}

type Decision struct {
	Kind Kind
	// Path is only set for KindRedirect.
	Path string
}

type Input struct {
	Authenticated bool
	Role          models.Role
	Hydrated      bool
	Loading       bool
}

func InputFrom(s auth.Session) Input {
	return Input{
		Authenticated: s.Authenticated(),
		Role:          s.Role(),
		Hydrated:      s.Hydrated,
		Loading:       s.Loading,
	}
}

func Decide(in Input, page Page) Decision {
	if !in.Hydrated || in.Loading {
		return Decision{Kind: KindLoading}
	}
	if !in.Authenticated {
		return Decision{Kind: KindRedirect, Path: HomePath}
	}
	if !auth.Allowed(in.Role, page.Module) {
		return Decision{Kind: KindRedirect, Path: Landing(in.Role)}
	}
	return Decision{Kind: KindRender}
}

package auth

import "github.com/harentsoaR/dentist-portal/internal/models"

// Module identifies a gated area of the dashboard.
type Module string

const (
	ModuleDashboard      Module = "dashboard"
	ModulePatients       Module = "patients"
	ModuleAppointments   Module = "appointments"
	ModuleRecords        Module = "records"
	ModuleTreatments     Module = "treatments"
	ModulePayments       Module = "payments"
	ModuleUsers          Module = "users"
	ModuleReports        Module = "reports"
	ModuleStatistics     Module = "statistics"
	ModuleMyAppointments Module = "my-appointments"
)

// permissionTable is fixed at build time and never mutated.
var permissionTable = map[models.Role][]Module{
	models.RoleAdmin: {
		ModuleDashboard, ModulePatients, ModuleAppointments, ModuleRecords, ModuleTreatments,
		ModulePayments, ModuleUsers, ModuleReports, ModuleStatistics,
	},
	models.RoleDentist: {
		ModuleDashboard, ModulePatients, ModuleAppointments, ModuleRecords, ModuleTreatments,
	},
	models.RolePatient: {
		ModuleMyAppointments,
	},
}

var permissionSets = func() map[models.Role]map[Module]struct{} {
	sets := make(map[models.Role]map[Module]struct{}, len(permissionTable))
	for role, modules := range permissionTable {
		set := make(map[Module]struct{}, len(modules))
		for _, m := range modules {
			set[m] = struct{}{}
		}
		sets[role] = set
	}
	return sets
}()

// Allowed is the single capability lookup used by guards, navigation and views.
func Allowed(role models.Role, m Module) bool {
	_, ok := permissionSets[role][m]
	return ok
}

// Modules returns the role's modules in navigation order. The slice is a copy.
func Modules(role models.Role) []Module {
	return append([]Module(nil), permissionTable[role]...)
}

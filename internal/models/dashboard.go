package models

type DashboardStats struct {
	TotalPatients       int     `json:"totalPacientes"`
	AppointmentsToday   int     `json:"citasHoy"`
	PendingAppointments int     `json:"citasPendientes"`
	ActiveTreatments    int     `json:"tratamientosActivos"`
	MonthlyIncome       float64 `json:"ingresosMes"`
}

// Activity is one entry of the dashboard's recent activity feed.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Date        string `json:"fecha"`
}

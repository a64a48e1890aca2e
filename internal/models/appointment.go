package models

import "strings"

const (
	AppointmentPending   = "pendiente"
	AppointmentConfirmed = "confirmada"
	AppointmentCompleted = "completada"
	AppointmentCancelled = "cancelada"
)

// AppointmentStatuses lists the states an appointment can be moved to from the dashboard.
var AppointmentStatuses = []string{AppointmentPending, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled}

// PersonRef is the denormalised patient or dentist embedded in other records.
type PersonRef struct {
	ID         string `json:"id"`
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
}

func (p *PersonRef) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

type Appointment struct {
	ID      string     `json:"id"`
	Date    string     `json:"fecha"`
	Time    string     `json:"hora"`
	Reason  string     `json:"motivo"`
	Status  string     `json:"estado"`
	Notes   string     `json:"notas,omitempty"`
	Patient *PersonRef `json:"paciente,omitempty"`
	Dentist *PersonRef `json:"odontologo,omitempty"`
}

type AppointmentRequest struct {
	PatientID string `json:"pacienteId,omitempty"`
	DentistID string `json:"odontologoId"`
	Date      string `json:"fecha"`
	Time      string `json:"hora"`
	Reason    string `json:"motivo"`
}

// AppointmentUpdate only sends the fields that were provided.
type AppointmentUpdate struct {
	Date   *string `json:"fecha,omitempty"`
	Time   *string `json:"hora,omitempty"`
	Status *string `json:"estado,omitempty"`
	Notes  *string `json:"notas,omitempty"`
}

func (u AppointmentUpdate) Empty() bool {
	return u.Date == nil && u.Time == nil && u.Status == nil && u.Notes == nil
}

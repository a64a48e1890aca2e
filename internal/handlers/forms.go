package handlers

import (
	"strconv"
	"strings"

	"github.com/harentsoaR/dentist-portal/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type loginForm struct {
	Email    string `form:"correo" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	GivenName  string `form:"nombre" validate:"required"`
	FamilyName string `form:"apellido" validate:"required"`
	Email      string `form:"correo" validate:"required,email"`
	Phone      string `form:"telefono"`
	BirthDate  string `form:"fechaNacimiento" validate:"omitempty,datetime=2006-01-02"`
	Address    string `form:"direccion"`
	Password   string `form:"password" validate:"required,min=6"`
	Confirm    string `form:"confirmacion" validate:"required,eqfield=Password"`
}

func (f registerForm) request() models.RegisterRequest {
	return models.RegisterRequest{
		GivenName:  strings.TrimSpace(f.GivenName),
		FamilyName: strings.TrimSpace(f.FamilyName),
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		Phone:      f.Phone,
		BirthDate:  f.BirthDate,
		Address:    f.Address,
	}
}

type patientForm struct {
	GivenName  string `form:"nombre" validate:"required"`
	FamilyName string `form:"apellido" validate:"required"`
	Email      string `form:"correo" validate:"required,email"`
	Phone      string `form:"telefono" validate:"required"`
	BirthDate  string `form:"fechaNacimiento" validate:"omitempty,datetime=2006-01-02"`
	Address    string `form:"direccion"`
}

func (f patientForm) request() models.PatientRequest {
	return models.PatientRequest{
		GivenName:  strings.TrimSpace(f.GivenName),
		FamilyName: strings.TrimSpace(f.FamilyName),
		Email:      strings.TrimSpace(f.Email),
		Phone:      f.Phone,
		BirthDate:  f.BirthDate,
		Address:    f.Address,
	}
}

type appointmentForm struct {
	PatientID string `form:"paciente" validate:"required"`
	DentistID string `form:"odontologo" validate:"required"`
	Date      string `form:"fecha" validate:"required,datetime=2006-01-02"`
	Time      string `form:"hora" validate:"required,datetime=15:04"`
	Reason    string `form:"motivo" validate:"required"`
}

func (f appointmentForm) request() models.AppointmentRequest {
	return models.AppointmentRequest{
		PatientID: f.PatientID,
		DentistID: f.DentistID,
		Date:      f.Date,
		Time:      f.Time,
		Reason:    strings.TrimSpace(f.Reason),
	}
}

// bookingForm is the patient's own appointment request; the backend infers the patient.
type bookingForm struct {
	DentistID string `form:"odontologo" validate:"required"`
	Date      string `form:"fecha" validate:"required,datetime=2006-01-02"`
	Time      string `form:"hora" validate:"required,datetime=15:04"`
	Reason    string `form:"motivo" validate:"required"`
}

func (f bookingForm) request() models.AppointmentRequest {
	return models.AppointmentRequest{DentistID: f.DentistID, Date: f.Date, Time: f.Time, Reason: strings.TrimSpace(f.Reason)}
}

type appointmentUpdateForm struct {
	Date   string `form:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Time   string `form:"hora" validate:"omitempty,datetime=15:04"`
	Status string `form:"estado" validate:"omitempty,oneof=pendiente confirmada completada cancelada"`
	Notes  string `form:"notas"`
}

func (f appointmentUpdateForm) update() models.AppointmentUpdate {
	var u models.AppointmentUpdate
	if f.Date != "" {
		u.Date = &f.Date
	}
	if f.Time != "" {
		u.Time = &f.Time
	}
	if f.Status != "" {
		u.Status = &f.Status
	}
	if notes := strings.TrimSpace(f.Notes); notes != "" {
		u.Notes = &notes
	}
	return u
}

type treatmentForm struct {
	PatientID   string `form:"paciente" validate:"required"`
	DentistID   string `form:"odontologo"`
	Name        string `form:"nombre" validate:"required"`
	Description string `form:"descripcion"`
	Cost        string `form:"costo" validate:"required,numeric"`
	Date        string `form:"fecha" validate:"required,datetime=2006-01-02"`
}

func (f treatmentForm) request() (models.TreatmentRequest, bool) {
	cost, ok := positive(f.Cost)
	return models.TreatmentRequest{
		PatientID:   f.PatientID,
		DentistID:   f.DentistID,
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Cost:        cost,
		Date:        f.Date,
	}, ok
}

var paymentMethods = []Option{
	{Value: "efectivo", Label: "Efectivo"},
	{Value: "tarjeta", Label: "Tarjeta"},
	{Value: "transferencia", Label: "Transferencia"},
}

type paymentForm struct {
	PatientID string `form:"paciente" validate:"required"`
	Amount    string `form:"monto" validate:"required,numeric"`
	Method    string `form:"metodo" validate:"required,oneof=efectivo tarjeta transferencia"`
	Concept   string `form:"concepto" validate:"required"`
	Date      string `form:"fecha" validate:"required,datetime=2006-01-02"`
}

func (f paymentForm) request() (models.PaymentRequest, bool) {
	amount, ok := positive(f.Amount)
	return models.PaymentRequest{
		PatientID: f.PatientID,
		Amount:    amount,
		Method:    f.Method,
		Concept:   strings.TrimSpace(f.Concept),
		Date:      f.Date,
	}, ok
}

type userForm struct {
	GivenName  string `form:"nombre" validate:"required"`
	FamilyName string `form:"apellido" validate:"required"`
	Email      string `form:"correo" validate:"required,email"`
	Password   string `form:"password" validate:"required,min=6"`
	Role       string `form:"rol" validate:"required,oneof=admin dentist patient"`
	Phone      string `form:"telefono"`
	Specialty  string `form:"especialidad"`
}

func (f userForm) request() models.UserRequest {
	return models.UserRequest{
		GivenName:  strings.TrimSpace(f.GivenName),
		FamilyName: strings.TrimSpace(f.FamilyName),
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		Role:       models.Role(f.Role),
		Phone:      f.Phone,
		Specialty:  f.Specialty,
	}
}

func positive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil && v > 0
}

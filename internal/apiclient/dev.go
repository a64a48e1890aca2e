package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harentsoaR/dentist-portal/internal/models"
)

const (
	DevToken = "dev-token"
	DevEmail = "dev@test.com"
)

// DevUser is the identity every dev-mode login resolves to.
var DevUser = models.User{
	ID:         "dev-admin",
	GivenName:  "Usuario",
	FamilyName: "Desarrollo",
	Email:      DevEmail,
	Role:       models.RoleAdmin,
}

var (
	devPatientAna  = &models.PersonRef{ID: "p-1", GivenName: "Ana", FamilyName: "García"}
	devPatientLuis = &models.PersonRef{ID: "p-2", GivenName: "Luis", FamilyName: "Martínez"}
	devDentist     = &models.PersonRef{ID: "d-1", GivenName: "Carla", FamilyName: "Rojas"}
)

var devFixtures = map[string]any{
	"GET /dashboard/stats": models.DashboardStats{
		TotalPatients: 2, AppointmentsToday: 1, PendingAppointments: 1, ActiveTreatments: 1, MonthlyIncome: 350,
	},
	"GET /dashboard/recent-appointments": []models.Appointment{
		{ID: "c-1", Date: "2025-03-10", Time: "09:00", Reason: "Limpieza", Status: models.AppointmentConfirmed, Patient: devPatientAna, Dentist: devDentist},
	},
	"GET /dashboard/activity": []models.Activity{
		{ID: "a-1", Type: "cita", Description: "Nueva cita registrada para Ana García", Date: "2025-03-09"},
		{ID: "a-2", Type: "pago", Description: "Pago recibido de Luis Martínez", Date: "2025-03-08"},
	},
	"GET /citas": map[string]any{"data": []models.Appointment{
		{ID: "c-1", Date: "2025-03-10", Time: "09:00", Reason: "Limpieza", Status: models.AppointmentConfirmed, Patient: devPatientAna, Dentist: devDentist},
		{ID: "c-2", Date: "2025-03-12", Time: "11:30", Reason: "Revisión de ortodoncia", Status: models.AppointmentPending, Patient: devPatientLuis, Dentist: devDentist},
	}},
	"GET /citas/mis-citas": []models.Appointment{
		{ID: "c-2", Date: "2025-03-12", Time: "11:30", Reason: "Revisión de ortodoncia", Status: models.AppointmentPending, Patient: devPatientLuis, Dentist: devDentist},
	},
	"GET /pacientes": []models.Patient{
		{ID: "p-1", GivenName: "Ana", FamilyName: "García", Email: "ana@correo.com", Phone: "555-0101", BirthDate: "1990-04-12", CreatedAt: "2025-01-05"},
		{ID: "p-2", GivenName: "Luis", FamilyName: "Martínez", Email: "luis@correo.com", Phone: "555-0102", BirthDate: "1985-09-30", CreatedAt: "2025-02-11"},
	},
	"GET /tratamientos": []models.Treatment{
		{ID: "t-1", Name: "Endodoncia", Cost: 250, Status: "en progreso", Date: "2025-03-01", Patient: devPatientAna, Dentist: devDentist},
	},
	"GET /pagos": []models.Payment{
		{ID: "pg-1", Amount: 100, Method: "efectivo", Concept: "Limpieza", Status: models.PaymentPaid, Date: "2025-02-20", Patient: devPatientLuis},
		{ID: "pg-2", Amount: 250, Method: "tarjeta", Concept: "Endodoncia", Status: models.PaymentPaid, Date: "2025-03-02", Patient: devPatientAna},
	},
	"GET /usuarios": []models.User{
		DevUser,
		{ID: "d-1", GivenName: "Carla", FamilyName: "Rojas", Email: "carla@clinica.com", Role: models.RoleDentist, Specialty: "Endodoncia"},
	},
	"GET /odontologos": []models.User{
		{ID: "d-1", GivenName: "Carla", FamilyName: "Rojas", Email: "carla@clinica.com", Role: models.RoleDentist, Specialty: "Endodoncia"},
	},
}

// devTransport stands in for the backend in development mode. It accepts any
// credentials and answers every known endpoint after a fixed delay.
type devTransport struct {
	basePath string
	delay    time.Duration
}

func newDevTransport(baseURL string, delay time.Duration) *devTransport {
	basePath := ""
	if u, err := url.Parse(baseURL); err == nil {
		basePath = strings.TrimSuffix(u.Path, "/")
	}
	return &devTransport{basePath: basePath, delay: delay}
}

func (t *devTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		defer timer.Stop()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	status, body := t.route(req)
	return devResponse(req, status, body), nil
}

func (t *devTransport) route(req *http.Request) (int, any) {
	endpoint := strings.TrimPrefix(req.URL.Path, t.basePath)
	key := req.Method + " " + endpoint

	switch {
	case key == "POST /auth/login":
		return http.StatusOK, models.AuthResponse{Token: DevToken, User: DevUser}
	case key == "POST /auth/register":
		return http.StatusCreated, map[string]string{"message": "Usuario registrado"}
	case key == "GET /auth/verify":
		if req.Header.Get("Authorization") != "Bearer "+DevToken {
			return http.StatusUnauthorized, map[string]string{"error": "Token inválido"}
		}
		return http.StatusOK, map[string]any{"user": DevUser}
	}

	if fixture, ok := devFixtures[key]; ok {
		return http.StatusOK, fixture
	}

	switch req.Method {
	case http.MethodPost:
		return http.StatusCreated, map[string]string{"id": "dev-new", "message": "Creado"}
	case http.MethodPut, http.MethodPatch:
		if strings.HasPrefix(endpoint, "/citas/") {
			return http.StatusOK, map[string]string{"message": "Actualizado"}
		}
	case http.MethodDelete:
		if strings.HasPrefix(endpoint, "/usuarios/") {
			return http.StatusNoContent, nil
		}
	}
	return http.StatusNotFound, map[string]string{"error": "Recurso no encontrado"}
}

func devResponse(req *http.Request, status int, payload any) *http.Response {
	var raw []byte
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(raw)),
		ContentLength: int64(len(raw)),
		Request:       req,
	}
}

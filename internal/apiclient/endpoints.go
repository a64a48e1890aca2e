package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harentsoaR/dentist-portal/internal/models"
)

// ListOptions are the query parameters accepted by list endpoints.
type ListOptions struct {
	Limit int
}

func (o ListOptions) query() map[string]string {
	if o.Limit <= 0 {
		return nil
	}
	return map[string]string{"limit": strconv.Itoa(o.Limit)}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/auth/login",
		Body:     loginRequest{Email: email, Password: password},
		Result:   &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/auth/register", Body: req})
}

// Verify returns the user the token belongs to. The backend may answer with
// the user itself or with {"user": {...}}.
func (c *Client) Verify(ctx context.Context, token string) (*models.User, error) {
	body, err := c.do(ctx, Request{Method: http.MethodGet, Endpoint: "/auth/verify", Token: token})
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("GET /auth/verify: decode user: %w", err)
	}
	if user.ID == "" && user.Email == "" {
		return nil, fmt.Errorf("GET /auth/verify: empty user")
	}
	return &user, nil
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

func (c *Client) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: "/dashboard/stats", Token: token, Result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecentAppointments(ctx context.Context, token string) ([]models.Appointment, error) {
	return getList[models.Appointment](ctx, c, "/dashboard/recent-appointments", token, nil)
}

func (c *Client) Activity(ctx context.Context, token string) ([]models.Activity, error) {
	return getList[models.Activity](ctx, c, "/dashboard/activity", token, nil)
}

// ── Appointments ──────────────────────────────────────────────────────────────

func (c *Client) Appointments(ctx context.Context, token string, opts ListOptions) ([]models.Appointment, error) {
	return getList[models.Appointment](ctx, c, "/citas", token, opts.query())
}

func (c *Client) MyAppointments(ctx context.Context, token string) ([]models.Appointment, error) {
	return getList[models.Appointment](ctx, c, "/citas/mis-citas", token, nil)
}

func (c *Client) CreateAppointment(ctx context.Context, token string, req models.AppointmentRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/citas", Token: token, Body: req})
}

func (c *Client) UpdateAppointment(ctx context.Context, token, id string, upd models.AppointmentUpdate) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Endpoint: "/citas/" + url.PathEscape(id), Token: token, Body: upd})
}

func (c *Client) CancelAppointment(ctx context.Context, token, id string) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Endpoint: "/citas/" + url.PathEscape(id) + "/cancelar", Token: token})
}

// ── Patients, treatments, payments ────────────────────────────────────────────

func (c *Client) Patients(ctx context.Context, token string, opts ListOptions) ([]models.Patient, error) {
	return getList[models.Patient](ctx, c, "/pacientes", token, opts.query())
}

func (c *Client) CreatePatient(ctx context.Context, token string, req models.PatientRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/pacientes", Token: token, Body: req})
}

func (c *Client) Treatments(ctx context.Context, token string, opts ListOptions) ([]models.Treatment, error) {
	return getList[models.Treatment](ctx, c, "/tratamientos", token, opts.query())
}

func (c *Client) CreateTreatment(ctx context.Context, token string, req models.TreatmentRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/tratamientos", Token: token, Body: req})
}

func (c *Client) Payments(ctx context.Context, token string, opts ListOptions) ([]models.Payment, error) {
	return getList[models.Payment](ctx, c, "/pagos", token, opts.query())
}

func (c *Client) CreatePayment(ctx context.Context, token string, req models.PaymentRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/pagos", Token: token, Body: req})
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (c *Client) Users(ctx context.Context, token string, opts ListOptions) ([]models.User, error) {
	return getList[models.User](ctx, c, "/usuarios", token, opts.query())
}

func (c *Client) CreateUser(ctx context.Context, token string, req models.UserRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/usuarios", Token: token, Body: req})
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: "/usuarios/" + url.PathEscape(id), Token: token})
}

func (c *Client) Dentists(ctx context.Context, token string) ([]models.User, error) {
	return getList[models.User](ctx, c, "/odontologos", token, nil)
}

// Package handlers renders the portal pages and forwards their actions to the clinic API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/middleware"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

// ClinicAPI is the backend surface the pages use.
type ClinicAPI interface {
	reports.Source

	DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error)
	RecentAppointments(ctx context.Context, token string) ([]models.Appointment, error)
	Activity(ctx context.Context, token string) ([]models.Activity, error)

	MyAppointments(ctx context.Context, token string) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, token string, req models.AppointmentRequest) error
	UpdateAppointment(ctx context.Context, token, id string, upd models.AppointmentUpdate) error
	CancelAppointment(ctx context.Context, token, id string) error

	CreatePatient(ctx context.Context, token string, req models.PatientRequest) error
	CreateTreatment(ctx context.Context, token string, req models.TreatmentRequest) error
	CreatePayment(ctx context.Context, token string, req models.PaymentRequest) error

	Users(ctx context.Context, token string, opts apiclient.ListOptions) ([]models.User, error)
	CreateUser(ctx context.Context, token string, req models.UserRequest) error
	DeleteUser(ctx context.Context, token, id string) error
	Dentists(ctx context.Context, token string) ([]models.User, error)
}

type Handler struct {
	API       ClinicAPI
	Generator *reports.Generator
	Log       zerolog.Logger

	forms *formValidator
}

func NewHandler(api ClinicAPI, gen *reports.Generator, log zerolog.Logger) *Handler {
	return &Handler{API: api, Generator: gen, Log: log, forms: newFormValidator()}
}

// listLimit is sent to list endpoints rendered as pages.
var listLimit = apiclient.ListOptions{Limit: 100}

// notices are shown after a successful redirect-after-post, keyed by the aviso query parameter.
var notices = map[string]string{
	"registro":           "Registro exitoso. Ya puede iniciar sesión.",
	"cita-creada":        "Cita registrada correctamente.",
	"cita-actualizada":   "Cita actualizada correctamente.",
	"cita-cancelada":     "Cita cancelada.",
	"paciente-creado":    "Paciente registrado correctamente.",
	"tratamiento-creado": "Tratamiento registrado correctamente.",
	"pago-creado":        "Pago registrado correctamente.",
	"usuario-creado":     "Usuario creado correctamente.",
	"usuario-eliminado":  "Usuario eliminado.",
}

func redirectWithNotice(c *gin.Context, path, notice string) {
	c.Redirect(http.StatusSeeOther, path+"?aviso="+url.QueryEscape(notice))
}

func currentSession(c *gin.Context) (*auth.Context, auth.Session) {
	ac := middleware.AuthContext(c)
	if ac == nil {
		return nil, auth.Session{}
	}
	return ac, ac.Snapshot()
}

func bearer(c *gin.Context) string {
	if ac := middleware.AuthContext(c); ac != nil {
		return ac.Token()
	}
	return ""
}

// newView prepares the chrome of a dashboard page.
func newView(c *gin.Context, page string) *View {
	v := &View{Notice: notices[c.Query("aviso")]}
	if p, ok := guard.Lookup(page); ok {
		v.Title = p.Title
	}
	if _, s := currentSession(c); s.User != nil {
		v.User = s.User
		v.Nav = navFor(s.User.Role, page)
	}
	return v
}

func (h *Handler) render(c *gin.Context, status int, v *View) {
	c.HTML(status, pageTemplate, v)
}

type userMessager interface {
	UserMessage() string
}

// fail turns a failed backend action into a banner. It returns false when the
// session was revoked: the browser has been sent home and the caller must stop.
func (h *Handler) fail(c *gin.Context, v *View, action string, err error) bool {
	if errors.Is(err, errs.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, guard.HomePath)
		return false
	}
	h.Log.Warn().Err(err).Str("action", action).Str("path", c.Request.URL.Path).Msg("backend action failed")
	banner := "No se pudo " + action
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			banner += ": " + msg
		}
	}
	if v.Banner == "" {
		v.Banner = banner
	}
	return true
}

// bind decodes and validates a posted form. It returns the submitted values
// for re-rendering and the field messages, nil when the form is valid.
func (h *Handler) bind(c *gin.Context, form any) (map[string]string, map[string]string) {
	if err := c.ShouldBind(form); err != nil {
		return postedValues(c), map[string]string{"": "Formulario inválido"}
	}
	return postedValues(c), h.forms.check(form)
}

func postedValues(c *gin.Context) map[string]string {
	out := map[string]string{}
	if c.Request.PostForm == nil {
		return out
	}
	for k, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

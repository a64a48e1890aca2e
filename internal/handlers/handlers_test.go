package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/middleware"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/reports"
	"github.com/harentsoaR/dentist-portal/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	cookieName = "dental_sid"
	testSID    = "3f2c1a9e-8d7b-4c6a-9e5f-1b2a3c4d5e6f"
)

type portal struct {
	t        *testing.T
	router   http.Handler
	sessions *session.MemoryProvider
	cookie   string
}

func newPortal(t *testing.T, api *apiclient.Client) *portal {
	t.Helper()
	sessions := session.NewMemoryProvider()
	reg := auth.NewRegistry(func(id string) *auth.Context {
		return auth.New(api, session.NewStore(sessions.Scope(id)), zerolog.Nop())
	}, time.Hour)

	h := NewHandler(api, reports.NewGenerator(api, zerolog.Nop()), zerolog.Nop())
	r, err := NewRouter(RouterConfig{
		Handler:        h,
		Registry:       reg,
		Cookie:         middleware.CookieOptions{Name: cookieName},
		AllowedOrigins: []string{"https://clinica.example"},
		Log:            zerolog.Nop(),
	})
	require.NoError(t, err)
	return &portal{t: t, router: r, sessions: sessions}
}

func logoutOnUnauthorized(ctx context.Context, token string) {
	if ac, ok := auth.FromContext(ctx); ok {
		ac.LogoutIfToken(ctx, token)
	}
}

func devAPI() *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:        "http://backend.local/api",
		DevMode:        true,
		OnUnauthorized: logoutOnUnauthorized,
		Logger:         zerolog.Nop(),
	})
}

// fakeBackend serves the given routes ("GET /pacientes") and answers 404 otherwise.
func fakeBackend(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		if fn, ok := routes[key]; ok {
			fn(w, r)
			return
		}
		reply(w, http.StatusNotFound, map[string]string{"error": "no encontrado"})
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", OnUnauthorized: logoutOnUnauthorized, Logger: zerolog.Nop()})
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func returns(status int, v any) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) { reply(w, status, v) }
}

func (p *portal) signIn(u models.User) {
	p.t.Helper()
	require.NoError(p.t, session.NewStore(p.sessions.Scope(testSID)).Save(context.Background(), session.Credentials{Token: "tok", User: u}))
	p.cookie = testSID
}

func (p *portal) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if p.cookie != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: p.cookie})
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			p.cookie = c.Value
		}
	}
	return w
}

func (p *portal) stored() (session.Credentials, error) {
	return session.NewStore(p.sessions.Scope(p.cookie)).Load(context.Background())
}

var (
	patientUser = models.User{ID: "u-p", GivenName: "Luis", FamilyName: "Paz", Email: "luis@correo.com", Role: models.RolePatient}
	adminUser   = models.User{ID: "u-a", GivenName: "Sofía", FamilyName: "Vera", Email: "sofia@clinica.com", Role: models.RoleAdmin}
)

// ── auth pages ────────────────────────────────────────────────────────────────

func TestLogin_DevModeReachesDashboard(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodPost, "/login", url.Values{"correo": {"dev@test.com"}, "password": {"x"}})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	creds, err := p.stored()
	require.NoError(t, err)
	assert.Equal(t, apiclient.DevToken, creds.Token)

	w = p.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Citas de hoy")
	assert.Contains(t, w.Body.String(), "/dashboard/reports")
}

func TestLogin_ValidationErrors(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodPost, "/login", url.Values{"correo": {"no-es-correo"}, "password": {""}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Ingrese un correo válido")
	assert.Contains(t, w.Body.String(), "Este campo es obligatorio")
}

func TestLogin_WrongCredentialsShowSameMessageTwice(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST /auth/login": returns(http.StatusUnauthorized, map[string]string{"error": "credenciales inválidas"}),
	})
	p := newPortal(t, api)
	form := url.Values{"correo": {"x@y.com"}, "password": {"mala"}}

	first := p.do(http.MethodPost, "/login", form)
	second := p.do(http.MethodPost, "/login", form)

	for _, w := range []*httptest.ResponseRecorder{first, second} {
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Correo o contraseña incorrectos")
	}
	_, err := p.stored()
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestLogin_UnknownRoleRefused(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST /auth/login": returns(http.StatusOK, models.AuthResponse{
			Token: "tok",
			User:  models.User{ID: "u9", GivenName: "Rita", Email: "rita@clinica.com", Role: "recepcionista"},
		}),
	})
	p := newPortal(t, api)

	w := p.do(http.MethodPost, "/login", url.Values{"correo": {"rita@clinica.com"}, "password": {"x"}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no tiene un rol habilitado")
	_, err := p.stored()
	assert.ErrorIs(t, err, errs.ErrNoSession)
	assert.Equal(t, "/", p.do(http.MethodGet, "/dashboard", nil).Header().Get("Location"))
}

func TestRegister_RedirectsToLogin(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodPost, "/register", url.Values{
		"nombre": {"Ana"}, "apellido": {"Ruiz"}, "correo": {"ana@correo.com"},
		"password": {"secreto1"}, "confirmacion": {"secreto1"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?aviso=registro", w.Header().Get("Location"))
	_, err := p.stored()
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodPost, "/register", url.Values{
		"nombre": {"Ana"}, "apellido": {"Ruiz"}, "correo": {"ana@correo.com"},
		"password": {"secreto1"}, "confirmacion": {"otro"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Las contraseñas no coinciden")
	assert.NotContains(t, w.Body.String(), "secreto1")
}

func TestLogout(t *testing.T) {
	p := newPortal(t, devAPI())
	p.do(http.MethodPost, "/login", url.Values{"correo": {"dev@test.com"}, "password": {"x"}})

	w := p.do(http.MethodPost, "/logout", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	_, err := p.stored()
	assert.ErrorIs(t, err, errs.ErrNoSession)
	assert.Equal(t, "/", p.do(http.MethodGet, "/dashboard", nil).Header().Get("Location"))
}

func TestSessionJSON(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, map[string]any{"user": patientUser}),
	})
	p := newPortal(t, api)
	p.signIn(patientUser)

	w := p.do(http.MethodGet, "/session", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "patient", body.Role)
	assert.Equal(t, []string{"my-appointments"}, body.Modules)
	assert.NotContains(t, w.Body.String(), "tok")
}

// ── guards ────────────────────────────────────────────────────────────────────

func TestDashboard_AnonymousRedirectsHome(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodGet, "/dashboard/patients", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestPatientVisitingUsersIsRedirected(t *testing.T) {
	usersCalled := false
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, patientUser),
		"GET /usuarios": func(w http.ResponseWriter, r *http.Request) {
			usersCalled = true
			reply(w, http.StatusOK, []models.User{adminUser})
		},
	})
	p := newPortal(t, api)
	p.signIn(patientUser)

	w := p.do(http.MethodGet, "/dashboard/users", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/my-appointments", w.Header().Get("Location"))
	assert.False(t, usersCalled)
}

func TestMyAppointments_PatientPage(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, patientUser),
		"GET /citas/mis-citas": returns(http.StatusOK, []models.Appointment{{
			ID: "c-1", Date: "2025-03-12", Time: "11:30", Reason: "Control", Status: models.AppointmentPending,
			Dentist: &models.PersonRef{ID: "d-1", GivenName: "Carla", FamilyName: "Rojas"},
		}}),
		"GET /odontologos": returns(http.StatusOK, []models.User{{ID: "d-1", GivenName: "Carla", FamilyName: "Rojas"}}),
	})
	p := newPortal(t, api)
	p.signIn(patientUser)

	w := p.do(http.MethodGet, "/dashboard/my-appointments", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Carla Rojas")
	assert.Contains(t, body, "/dashboard/my-appointments/c-1/cancel")
	assert.NotContains(t, body, `href="/dashboard/users"`)
}

func TestActionURLsEscapeIDs(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, patientUser),
		"GET /citas/mis-citas": returns(http.StatusOK, []models.Appointment{{
			ID: "c/1 x", Date: "2025-03-12", Time: "11:30", Status: models.AppointmentPending,
		}}),
		"GET /odontologos": returns(http.StatusOK, []models.User{}),
	})
	p := newPortal(t, api)
	p.signIn(patientUser)

	w := p.do(http.MethodGet, "/dashboard/my-appointments", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/dashboard/my-appointments/c%2F1%20x/cancel"`)
}

func TestActionPath(t *testing.T) {
	assert.Equal(t, "/dashboard/users/u-1/delete", actionPath(usersPath, "u-1", "delete"))
	assert.Equal(t, "/dashboard/appointments/a%2Fb%3Fc/cancel", actionPath(appointmentsPath, "a/b?c", "cancel"))
}

// ── backend failures ──────────────────────────────────────────────────────────

func TestUnauthorizedFromBackendSendsHome(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, adminUser),
		"GET /pacientes":   returns(http.StatusUnauthorized, map[string]string{"error": "Token expirado"}),
	})
	p := newPortal(t, api)
	p.signIn(adminUser)

	w := p.do(http.MethodGet, "/dashboard/patients", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	_, err := p.stored()
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestBackendErrorShowsBanner(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, adminUser),
		"GET /usuarios":    returns(http.StatusInternalServerError, map[string]string{"error": "base de datos caída"}),
	})
	p := newPortal(t, api)
	p.signIn(adminUser)

	w := p.do(http.MethodGet, "/dashboard/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No se pudo cargar los usuarios: base de datos caída")
}

func TestCreateAppointment_RedirectAfterPost(t *testing.T) {
	var got models.AppointmentRequest
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, adminUser),
		"POST /citas": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			reply(w, http.StatusCreated, map[string]string{"id": "c-9"})
		},
	})
	p := newPortal(t, api)
	p.signIn(adminUser)

	w := p.do(http.MethodPost, "/dashboard/appointments", url.Values{
		"paciente": {"p-1"}, "odontologo": {"d-1"}, "fecha": {"2025-04-01"}, "hora": {"10:00"}, "motivo": {"Limpieza"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/appointments?aviso=cita-creada", w.Header().Get("Location"))
	assert.Equal(t, "p-1", got.PatientID)
	assert.Equal(t, "10:00", got.Time)
}

func TestUpdateAppointment_NothingToSave(t *testing.T) {
	api := fakeBackend(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /auth/verify": returns(http.StatusOK, adminUser),
		"GET /citas":       returns(http.StatusOK, []models.Appointment{}),
		"GET /pacientes":   returns(http.StatusOK, []models.Patient{}),
		"GET /odontologos": returns(http.StatusOK, []models.User{}),
	})
	p := newPortal(t, api)
	p.signIn(adminUser)

	w := p.do(http.MethodPost, "/dashboard/appointments/update", url.Values{"cita": {"c-1"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "No hay cambios para guardar")
}

// ── reports ───────────────────────────────────────────────────────────────────

func TestDownloadReport(t *testing.T) {
	p := newPortal(t, devAPI())
	p.do(http.MethodPost, "/login", url.Values{"correo": {"dev@test.com"}, "password": {"x"}})

	w := p.do(http.MethodGet, "/dashboard/reports/patients.pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Reporte_de_Pacientes_")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestDownloadReport_UnknownKind(t *testing.T) {
	p := newPortal(t, devAPI())
	p.do(http.MethodPost, "/login", url.Values{"correo": {"dev@test.com"}, "password": {"x"}})

	w := p.do(http.MethodGet, "/dashboard/reports/inventario.pdf", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Reporte no disponible")
}

func TestDownloadReport_BadRange(t *testing.T) {
	p := newPortal(t, devAPI())
	p.do(http.MethodPost, "/login", url.Values{"correo": {"dev@test.com"}, "password": {"x"}})

	w := p.do(http.MethodGet, "/dashboard/reports/payments.xlsx?desde=2025-05-01&hasta=2025-01-01", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Periodo inválido")
}

func TestHealth(t *testing.T) {
	p := newPortal(t, devAPI())

	w := p.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = p.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dental_portal_")
}

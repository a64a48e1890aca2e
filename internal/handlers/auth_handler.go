package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

var services = []Card{
	{Label: "Odontología general", Value: "Limpiezas, resinas y controles preventivos."},
	{Label: "Ortodoncia", Value: "Brackets y alineadores para todas las edades."},
	{Label: "Endodoncia", Value: "Tratamientos de conducto con tecnología moderna."},
	{Label: "Estética dental", Value: "Blanqueamiento y carillas."},
}

// Landing serves the public home page.
func (h *Handler) Landing(c *gin.Context) {
	_, s := currentSession(c)
	panel := ""
	if s.Authenticated() {
		panel = guard.Landing(s.Role())
	}
	c.HTML(http.StatusOK, landingTemplate, gin.H{
		"Panel":    panel,
		"Services": services,
		"Notice":   notices[c.Query("aviso")],
	})
}

func loginFormView() *Form {
	return postForm("/login", "Ingresar",
		Field{Name: "correo", Label: "Correo electrónico", Type: "email", Required: true},
		Field{Name: "password", Label: "Contraseña", Type: "password", Required: true},
	)
}

func (h *Handler) authView(c *gin.Context, title string, form *Form) *View {
	return &View{
		Title:    title,
		Notice:   notices[c.Query("aviso")],
		Sections: []Section{{Form: form, Links: authLinks(title)}},
	}
}

func authLinks(title string) []Link {
	if title == "Iniciar sesión" {
		return []Link{{Label: "¿No tiene cuenta? Regístrese", URL: "/register"}}
	}
	return []Link{{Label: "¿Ya tiene cuenta? Inicie sesión", URL: "/login"}}
}

// LoginPage shows the login form, or sends an authenticated user to their panel.
func (h *Handler) LoginPage(c *gin.Context) {
	if _, s := currentSession(c); s.Authenticated() {
		c.Redirect(http.StatusSeeOther, guard.Landing(s.Role()))
		return
	}
	h.render(c, http.StatusOK, h.authView(c, "Iniciar sesión", loginFormView()))
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	values, invalid := h.bind(c, &form)
	v := h.authView(c, "Iniciar sesión", loginFormView().withErrors(values, invalid))
	if invalid != nil {
		h.render(c, http.StatusUnprocessableEntity, v)
		return
	}

	ac, _ := currentSession(c)
	if ac == nil {
		c.Redirect(http.StatusSeeOther, guard.HomePath)
		return
	}
	if !ac.Login(c.Request.Context(), form.Email, form.Password) {
		v.Banner = ac.Snapshot().Error
		ac.ClearError()
		h.render(c, http.StatusUnauthorized, v)
		return
	}
	c.Redirect(http.StatusSeeOther, guard.Landing(ac.Snapshot().Role()))
}

func registerFormView() *Form {
	return postForm("/register", "Crear cuenta",
		Field{Name: "nombre", Label: "Nombre", Type: "text", Required: true},
		Field{Name: "apellido", Label: "Apellido", Type: "text", Required: true},
		Field{Name: "correo", Label: "Correo electrónico", Type: "email", Required: true},
		Field{Name: "telefono", Label: "Teléfono", Type: "tel"},
		Field{Name: "fechaNacimiento", Label: "Fecha de nacimiento", Type: "date"},
		Field{Name: "direccion", Label: "Dirección", Type: "text"},
		Field{Name: "password", Label: "Contraseña", Type: "password", Required: true},
		Field{Name: "confirmacion", Label: "Confirmar contraseña", Type: "password", Required: true},
	)
}

func (h *Handler) RegisterPage(c *gin.Context) {
	h.render(c, http.StatusOK, h.authView(c, "Crear cuenta", registerFormView()))
}

// Register creates a patient account and sends the user to the login form.
func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	values, invalid := h.bind(c, &form)
	v := h.authView(c, "Crear cuenta", registerFormView().withErrors(values, invalid))
	if invalid != nil {
		h.render(c, http.StatusUnprocessableEntity, v)
		return
	}

	ac, _ := currentSession(c)
	if ac == nil {
		c.Redirect(http.StatusSeeOther, guard.HomePath)
		return
	}
	if !ac.Register(c.Request.Context(), form.request()) {
		v.Banner = ac.Snapshot().Error
		ac.ClearError()
		h.render(c, http.StatusBadRequest, v)
		return
	}
	redirectWithNotice(c, "/login", "registro")
}

func (h *Handler) Logout(c *gin.Context) {
	if ac, _ := currentSession(c); ac != nil {
		ac.Logout(c.Request.Context())
	}
	c.Redirect(http.StatusSeeOther, guard.HomePath)
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	Hydrated      bool         `json:"hydrated"`
	Role          string       `json:"role,omitempty"`
	User          *models.User `json:"user,omitempty"`
	Modules       []string     `json:"modules,omitempty"`
	Landing       string       `json:"landing,omitempty"`
}

// Session reports the browser's session state as JSON. The token is never exposed.
func (h *Handler) Session(c *gin.Context) {
	_, s := currentSession(c)
	resp := sessionResponse{Authenticated: s.Authenticated(), Hydrated: s.Hydrated}
	if s.Authenticated() {
		resp.Role = string(s.Role())
		resp.User = s.User
		resp.Landing = guard.Landing(s.Role())
		for _, m := range auth.Modules(s.Role()) {
			resp.Modules = append(resp.Modules, string(m))
		}
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/models"
)

const usersPath = "/dashboard/users"

func roleOptions() []Option {
	opts := []Option{{Value: "", Label: "Seleccione un rol"}}
	for _, r := range []models.Role{models.RoleAdmin, models.RoleDentist, models.RolePatient} {
		opts = append(opts, Option{Value: string(r), Label: roleLabel(r)})
	}
	return opts
}

func (h *Handler) Users(c *gin.Context) {
	h.showUsers(c, http.StatusOK, newView(c, "users"), nil)
}

func (h *Handler) showUsers(c *gin.Context, status int, v *View, st *formState) {
	users, err := h.API.Users(c.Request.Context(), bearer(c), listLimit)
	if err != nil && !h.fail(c, v, "cargar los usuarios", err) {
		return
	}

	self := ""
	if v.User != nil {
		self = v.User.ID
	}
	t := newTable("No hay usuarios", "Nombre", "Correo", "Rol", "Teléfono", "Especialidad")
	for _, u := range users {
		row := t.add(u.FullName(), u.Email, roleLabel(u.Role), dash(u.Phone), dash(u.Specialty))
		if u.ID != self {
			row.Actions = append(row.Actions, Action{Label: "Eliminar", URL: actionPath(usersPath, u.ID, "delete")})
		}
	}

	create := postForm(usersPath, "Crear usuario",
		Field{Name: "nombre", Label: "Nombre", Type: "text", Required: true},
		Field{Name: "apellido", Label: "Apellido", Type: "text", Required: true},
		Field{Name: "correo", Label: "Correo electrónico", Type: "email", Required: true},
		Field{Name: "password", Label: "Contraseña", Type: "password", Required: true},
		Field{Name: "rol", Label: "Rol", Type: "select", Options: roleOptions()},
		Field{Name: "telefono", Label: "Teléfono", Type: "tel"},
		Field{Name: "especialidad", Label: "Especialidad", Type: "text"},
	)

	v.Sections = append(v.Sections,
		Section{Table: t},
		Section{Heading: "Nuevo usuario", Form: st.apply("create", create)},
	)
	h.render(c, status, v)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var form userForm
	values, invalid := h.bind(c, &form)
	v := newView(c, "users")
	st := &formState{form: "create", values: values, errs: invalid}
	if invalid != nil {
		h.showUsers(c, http.StatusUnprocessableEntity, v, st)
		return
	}
	if err := h.API.CreateUser(c.Request.Context(), bearer(c), form.request()); err != nil {
		if h.fail(c, v, "crear el usuario", err) {
			h.showUsers(c, http.StatusOK, v, st)
		}
		return
	}
	redirectWithNotice(c, usersPath, "usuario-creado")
}

func (h *Handler) DeleteUser(c *gin.Context) {
	v := newView(c, "users")
	id := c.Param("id")
	if v.User != nil && v.User.ID == id {
		v.Banner = "No puede eliminar su propia cuenta"
		h.showUsers(c, http.StatusBadRequest, v, nil)
		return
	}
	if err := h.API.DeleteUser(c.Request.Context(), bearer(c), id); err != nil {
		if h.fail(c, v, "eliminar el usuario", err) {
			h.showUsers(c, http.StatusOK, v, nil)
		}
		return
	}
	redirectWithNotice(c, usersPath, "usuario-eliminado")
}

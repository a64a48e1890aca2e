package handlers

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	pageTemplate    = "page.tmpl"
	landingTemplate = "landing.tmpl"
)

var roleLabels = map[models.Role]string{
	models.RoleAdmin:   "Administrador",
	models.RoleDentist: "Odontólogo",
	models.RolePatient: "Paciente",
}

func roleLabel(r models.Role) string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// Templates parses the embedded HTML views.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"roleLabel": roleLabel,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// View is the model of every dashboard and form page.
type View struct {
	Title    string
	User     *models.User
	Nav      []NavItem
	Notice   string
	Banner   string
	Sections []Section
}

type NavItem struct {
	Title  string
	Path   string
	Active bool
}

type Section struct {
	Heading string
	Cards   []Card
	Links   []Link
	Table   *Table
	Form    *Form
}

type Card struct {
	Label string
	Value string
}

type Link struct {
	Label string
	URL   string
}

type Table struct {
	Columns []string
	Rows    []Row
	Empty   string
}

func (t *Table) HasActions() bool {
	for _, r := range t.Rows {
		if len(r.Actions) > 0 {
			return true
		}
	}
	return false
}

type Row struct {
	Cells   []string
	Actions []Action
}

// Action is a button posting to URL.
type Action struct {
	Label  string
	URL    string
	Hidden []Hidden
}

type Hidden struct {
	Name  string
	Value string
}

type Form struct {
	Method string
	Action string
	Submit string
	Fields []Field
}

type Field struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
	Options  []Option
}

type Option struct {
	Value string
	Label string
}

func newTable(empty string, columns ...string) *Table {
	return &Table{Columns: columns, Empty: empty}
}

func (t *Table) add(cells ...string) *Row {
	t.Rows = append(t.Rows, Row{Cells: cells})
	return &t.Rows[len(t.Rows)-1]
}

func postForm(action, submit string, fields ...Field) *Form {
	return &Form{Method: "post", Action: action, Submit: submit, Fields: fields}
}

// withErrors copies validation messages and submitted values onto the form.
// Password fields are never echoed back.
func (f *Form) withErrors(values map[string]string, errs map[string]string) *Form {
	for i := range f.Fields {
		fld := &f.Fields[i]
		if fld.Type != "password" {
			if v, ok := values[fld.Name]; ok {
				fld.Value = v
			}
		}
		fld.Error = errs[fld.Name]
	}
	return f
}

func navFor(role models.Role, active string) []NavItem {
	var items []NavItem
	for _, p := range guard.Pages() {
		if auth.Allowed(role, p.Module) {
			items = append(items, NavItem{Title: p.Title, Path: p.Path, Active: p.Name == active})
		}
	}
	return items
}

func count(n int) string { return strconv.Itoa(n) }

func money(v float64) string { return "$" + strconv.FormatFloat(v, 'f', 2, 64) }

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var statusLabels = map[string]string{
	models.AppointmentPending:   "Pendiente",
	models.AppointmentConfirmed: "Confirmada",
	models.AppointmentCompleted: "Completada",
	models.AppointmentCancelled: "Cancelada",
}

func statusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return dash(s)
}

func statusOptions() []Option {
	opts := make([]Option, 0, len(models.AppointmentStatuses))
	for _, s := range models.AppointmentStatuses {
		opts = append(opts, Option{Value: s, Label: statusLabels[s]})
	}
	return opts
}

// actionPath builds "<base>/<id>/<verb>" with the id escaped as one path segment.
func actionPath(base, id, verb string) string {
	return base + "/" + url.PathEscape(id) + "/" + verb
}

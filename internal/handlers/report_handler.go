package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

const reportsPath = "/dashboard/reports"

func (h *Handler) Reports(c *gin.Context) {
	h.showReports(c, http.StatusOK, newView(c, "reports"))
}

func (h *Handler) showReports(c *gin.Context, status int, v *View) {
	from, to := c.Query("desde"), c.Query("hasta")

	filter := &Form{Method: "get", Action: reportsPath, Submit: "Aplicar periodo", Fields: []Field{
		{Name: "desde", Label: "Desde", Type: "date", Value: from},
		{Name: "hasta", Label: "Hasta", Type: "date", Value: to},
	}}

	query := url.Values{}
	if from != "" {
		query.Set("desde", from)
	}
	if to != "" {
		query.Set("hasta", to)
	}
	suffix := ""
	if len(query) > 0 {
		suffix = "?" + query.Encode()
	}

	var links []Link
	for _, k := range reports.Kinds {
		for _, f := range []reports.Format{reports.FormatPDF, reports.FormatXLSX} {
			links = append(links, Link{
				Label: fmt.Sprintf("%s (%s)", k.Title(), strings.ToUpper(string(f))),
				URL:   fmt.Sprintf("%s/%s.%s%s", reportsPath, k, f, suffix),
			})
		}
	}

	v.Sections = append(v.Sections,
		Section{Heading: "Periodo", Form: filter},
		Section{Heading: "Descargas", Links: links},
	)
	h.render(c, status, v)
}

// DownloadReport serves /dashboard/reports/<kind>.<pdf|xlsx>.
func (h *Handler) DownloadReport(c *gin.Context) {
	v := newView(c, "reports")

	name, ext, _ := strings.Cut(c.Param("file"), ".")
	kind, kindErr := reports.ParseKind(name)
	format, formatErr := reports.ParseFormat(ext)
	if kindErr != nil || formatErr != nil {
		v.Banner = "Reporte no disponible"
		h.showReports(c, http.StatusNotFound, v)
		return
	}

	rng, err := reports.ParseDateRange(c.Query("desde"), c.Query("hasta"))
	if err != nil {
		v.Banner = "Periodo inválido: " + err.Error()
		h.showReports(c, http.StatusBadRequest, v)
		return
	}

	art, err := h.Generator.Generate(c.Request.Context(), reports.Request{Kind: kind, Format: format, Range: rng, Token: bearer(c)})
	if err != nil {
		if h.fail(c, v, "generar el reporte", err) {
			h.showReports(c, http.StatusOK, v)
		}
		return
	}

	// Sections degrade to empty lists on any error, including a revoked token;
	// in that case the session is already gone and the artifact is dropped.
	if _, s := currentSession(c); !s.Authenticated() {
		c.Redirect(http.StatusSeeOther, guard.HomePath)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/metrics"
)

// LoadingTemplate is rendered while the session is still hydrating.
const LoadingTemplate = "loading.tmpl"

// RequirePage gates a dashboard page. Content handlers only run on a render decision.
func RequirePage(page guard.Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := AuthContext(c)
		if ac == nil {
			c.Redirect(http.StatusSeeOther, guard.HomePath)
			c.Abort()
			return
		}

		d := guard.Decide(guard.InputFrom(ac.Snapshot()), page)
		metrics.GuardDecisionsTotal.WithLabelValues(page.Name, d.Kind.String()).Inc()

		switch d.Kind {
		case guard.KindLoading:
			c.Header("Refresh", "1; url="+c.Request.URL.RequestURI())
			c.HTML(http.StatusOK, LoadingTemplate, gin.H{
				"Title": page.Title,
				"Next":  c.Request.URL.RequestURI(),
			})
			c.Abort()
		case guard.KindRedirect:
			c.Redirect(http.StatusSeeOther, d.Path)
			c.Abort()
		default:
			c.Next()
		}
	}
}

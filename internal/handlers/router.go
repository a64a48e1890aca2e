package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/middleware"
)

type RouterConfig struct {
	Handler        *Handler
	Health         *HealthHandler
	Registry       *auth.Registry
	Cookie         middleware.CookieOptions
	AllowedOrigins []string
	Log            zerolog.Logger
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(cfg.Log))
	r.SetHTMLTemplate(tmpl)

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil)
	}
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := cfg.Handler
	sessioned := r.Group("/", middleware.Session(cfg.Registry, cfg.Cookie), middleware.Hydrate())
	{
		sessioned.GET("/", h.Landing)
		sessioned.GET("/login", h.LoginPage)
		sessioned.POST("/login", h.Login)
		sessioned.GET("/register", h.RegisterPage)
		sessioned.POST("/register", h.Register)
		sessioned.POST("/logout", h.Logout)
	}

	// /session is read by the public marketing site from another origin.
	r.GET("/session",
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.Session(cfg.Registry, cfg.Cookie),
		middleware.Hydrate(),
		h.Session,
	)

	page := func(name string) gin.HandlerFunc {
		p, ok := guard.Lookup(name)
		if !ok {
			panic("handlers: unknown page " + name)
		}
		return middleware.RequirePage(p)
	}

	dashboard := r.Group("/dashboard", middleware.Session(cfg.Registry, cfg.Cookie), middleware.Hydrate())
	{
		dashboard.GET("", page("dashboard"), h.Dashboard)

		dashboard.GET("/patients", page("patients"), h.Patients)
		dashboard.POST("/patients", page("patients"), h.CreatePatient)

		dashboard.GET("/appointments", page("appointments"), h.Appointments)
		dashboard.POST("/appointments", page("appointments"), h.CreateAppointment)
		dashboard.POST("/appointments/update", page("appointments"), h.UpdateAppointment)
		dashboard.POST("/appointments/:id/cancel", page("appointments"), h.CancelAppointment)

		dashboard.GET("/records", page("records"), h.Records)

		dashboard.GET("/treatments", page("treatments"), h.Treatments)
		dashboard.POST("/treatments", page("treatments"), h.CreateTreatment)

		dashboard.GET("/payments", page("payments"), h.Payments)
		dashboard.POST("/payments", page("payments"), h.CreatePayment)

		dashboard.GET("/users", page("users"), h.Users)
		dashboard.POST("/users", page("users"), h.CreateUser)
		dashboard.POST("/users/:id/delete", page("users"), h.DeleteUser)

		dashboard.GET("/reports", page("reports"), h.Reports)
		dashboard.GET("/reports/:file", page("reports"), h.DownloadReport)

		dashboard.GET("/statistics", page("statistics"), h.Statistics)

		dashboard.GET("/my-appointments", page("my-appointments"), h.MyAppointments)
		dashboard.POST("/my-appointments", page("my-appointments"), h.BookAppointment)
		dashboard.POST("/my-appointments/:id/cancel", page("my-appointments"), h.CancelMyAppointment)
	}

	return r, nil
}

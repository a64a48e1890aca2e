// Package auth holds the client-side session state machine and the role permission table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/metrics"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/session"
	"github.com/harentsoaR/dentist-portal/internal/utils"
)

type State int

const (
	StateUnknown State = iota
	StateHydrating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Backend is the part of the clinic API the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Verify(ctx context.Context, token string) (*models.User, error)
}

const (
	msgInvalidCredentials = "Correo o contraseña incorrectos"
	msgLoginFailed        = "No se pudo iniciar sesión. Verifique su conexión e intente de nuevo"
	msgRegisterFailed     = "No se pudo completar el registro. Intente de nuevo"
	msgInvalidRole        = "Su cuenta no tiene un rol habilitado para el portal. Contacte a la clínica"
)

// errInvalidRole rejects accounts whose role has no entry in the permission table.
var errInvalidRole = errors.New("account role not recognised")

// Session is an immutable snapshot of a Context.
type Session struct {
	State    State
	Token    string
	User     *models.User
	Hydrated bool
	Loading  bool
	Error    string
}

func (s Session) Authenticated() bool { return s.Token != "" && s.User != nil }

func (s Session) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Context is the session of one client. Its lock is never held across backend calls.
type Context struct {
	backend Backend
	store   *session.Store
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	state    State
	hydrated bool
	loading  bool
	token    string
	user     *models.User
	errMsg   string
	// gen changes with every identity change; store writes from an older gen are dropped.
	gen uint64

	storeMu sync.Mutex
}

func New(backend Backend, store *session.Store, log zerolog.Logger) *Context {
	return &Context{backend: backend, store: store, log: log, now: time.Now}
}

// Hydrate loads and verifies the stored credentials. Only the first call does
// anything; later calls, and calls after Login or Logout, return immediately.
func (c *Context) Hydrate(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateUnknown {
		c.mu.Unlock()
		return
	}
	c.hydrated = true
	c.state = StateHydrating
	c.loading = true
	c.mu.Unlock()

	creds, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, errs.ErrNoSession):
		metrics.HydrationsTotal.WithLabelValues("empty").Inc()
		c.settleAnonymous(ctx, false)
		return
	case err != nil:
		metrics.HydrationsTotal.WithLabelValues("partial").Inc()
		c.log.Warn().Err(err).Msg("discarding unreadable stored session")
		c.settleAnonymous(ctx, true)
		return
	}

	if utils.TokenExpired(creds.Token, c.now()) {
		metrics.HydrationsTotal.WithLabelValues("expired").Inc()
		c.log.Info().Str("user_id", creds.User.ID).Msg("stored token expired")
		c.settleAnonymous(ctx, true)
		return
	}

	// Network failures fail closed exactly like a rejected token.
	user, err := c.backend.Verify(ctx, creds.Token)
	if err == nil && user != nil && !user.Role.Valid() {
		err = fmt.Errorf("%w: %q", errInvalidRole, user.Role)
	}
	if err != nil || user == nil {
		metrics.HydrationsTotal.WithLabelValues("rejected").Inc()
		c.log.Info().Err(err).Str("user_id", creds.User.ID).Msg("stored token rejected")
		c.settleAnonymous(ctx, true)
		return
	}

	c.mu.Lock()
	if c.state != StateHydrating {
		// A login or logout finished while verify was in flight; it wins.
		c.mu.Unlock()
		return
	}
	c.token = creds.Token
	c.user = user
	c.state = StateAuthenticated
	c.loading = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	metrics.HydrationsTotal.WithLabelValues("verified").Inc()
	c.persist(ctx, gen, session.Credentials{Token: creds.Token, User: *user})
}

// settleAnonymous ends a hydration that found nothing usable. When a login or
// logout finished first the hydration result is dropped, storage included.
func (c *Context) settleAnonymous(ctx context.Context, purge bool) {
	c.mu.Lock()
	if c.state != StateHydrating {
		c.mu.Unlock()
		return
	}
	c.state = StateAnonymous
	c.token = ""
	c.user = nil
	c.loading = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	if purge {
		c.clearStore(ctx, gen)
	}
}

// Login never returns an error; the reason of a failure is kept in Snapshot().Error.
func (c *Context) Login(ctx context.Context, email, password string) bool {
	c.mu.Lock()
	c.hydrated = true
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	resp, err := c.backend.Login(ctx, email, password)
	if err == nil && (resp == nil || resp.Token == "") {
		err = errors.New("login response without token")
	}
	if err == nil && !resp.User.Role.Valid() {
		err = fmt.Errorf("%w: %q", errInvalidRole, resp.User.Role)
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		msg := loginMessage(err)
		c.log.Info().Err(err).Str("email", email).Msg("login failed")
		c.mu.Lock()
		c.loading = false
		c.errMsg = msg
		if c.token == "" {
			c.state = StateAnonymous
		}
		c.mu.Unlock()
		return false
	}

	user := resp.User
	c.mu.Lock()
	c.token = resp.Token
	c.user = &user
	c.state = StateAuthenticated
	c.loading = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.persist(ctx, gen, session.Credentials{Token: resp.Token, User: user})
	c.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
	return true
}

// Register creates the account but leaves the session untouched.
func (c *Context) Register(ctx context.Context, req models.RegisterRequest) bool {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	err := c.backend.Register(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.log.Info().Err(err).Str("email", req.Email).Msg("registration failed")
		c.errMsg = userMessage(err, msgRegisterFailed)
		return false
	}
	return true
}

// Logout is idempotent.
func (c *Context) Logout(ctx context.Context) {
	c.mu.Lock()
	gen := c.logoutLocked()
	c.mu.Unlock()

	c.clearStore(ctx, gen)
}

// LogoutIfToken logs out after the backend rejected token, unless a different
// credential has been authenticated in the meantime.
func (c *Context) LogoutIfToken(ctx context.Context, token string) {
	c.mu.Lock()
	if c.state == StateAuthenticated && c.token != token {
		c.mu.Unlock()
		c.log.Debug().Msg("ignoring rejection of a replaced token")
		return
	}
	gen := c.logoutLocked()
	c.mu.Unlock()

	c.clearStore(ctx, gen)
}

func (c *Context) logoutLocked() uint64 {
	c.token = ""
	c.user = nil
	c.errMsg = ""
	c.state = StateAnonymous
	c.hydrated = true
	c.loading = false
	c.gen++
	return c.gen
}

func (c *Context) HasAccess(m Module) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return false
	}
	return Allowed(c.user.Role, m)
}

func (c *Context) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Context) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Session{
		State:    c.state,
		Token:    c.token,
		Hydrated: c.hydrated,
		Loading:  c.loading,
		Error:    c.errMsg,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

// ClearError drops a banner message once it has been shown.
func (c *Context) ClearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

// persist writes the pair only once the context is hydrated, so an early
// write can never clobber credentials that have not been read yet.
func (c *Context) persist(ctx context.Context, gen uint64, creds session.Credentials) {
	c.mu.Lock()
	ready := c.hydrated
	c.mu.Unlock()
	if !ready {
		return
	}
	c.writeStore(gen, "persist session", func() error { return c.store.Save(ctx, creds) })
}

func (c *Context) clearStore(ctx context.Context, gen uint64) {
	c.writeStore(gen, "clear stored session", func() error { return c.store.Clear(ctx) })
}

// writeStore serialises storage writes and skips those made on behalf of an
// identity that has since been replaced. The check and the write happen under
// storeMu, so the newest identity is always the last one written.
func (c *Context) writeStore(gen uint64, what string, write func() error) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	stale := c.gen != gen
	c.mu.Unlock()
	if stale {
		return
	}
	if err := write(); err != nil {
		c.log.Error().Err(err).Msg(what)
	}
}

// userMessager is implemented by backend errors that carry a message fit for display.
type userMessager interface {
	UserMessage() string
}

func userMessage(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

func loginMessage(err error) string {
	if errors.Is(err, errs.ErrUnauthorized) {
		return msgInvalidCredentials
	}
	if errors.Is(err, errInvalidRole) {
		return msgInvalidRole
	}
	return userMessage(err, msgLoginFailed)
}

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/session"
)

// ── stub backend ──────────────────────────────────────────────────────────────

type stubBackend struct {
	mu          sync.Mutex
	loginResp   *models.AuthResponse
	loginErr    error
	registerErr error
	verifyUser  *models.User
	verifyErr   error
	verifyCalls int
	verifyHook  func()
}

func (s *stubBackend) Login(_ context.Context, _, _ string) (*models.AuthResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubBackend) Register(_ context.Context, _ models.RegisterRequest) error {
	return s.registerErr
}

func (s *stubBackend) Verify(_ context.Context, _ string) (*models.User, error) {
	s.mu.Lock()
	s.verifyCalls++
	hook := s.verifyHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return s.verifyUser, s.verifyErr
}

type displayErr struct{ msg string }

func (e *displayErr) Error() string       { return "backend: " + e.msg }
func (e *displayErr) UserMessage() string { return e.msg }

var (
	dentist = models.User{ID: "u1", GivenName: "Ana", FamilyName: "Ruiz", Email: "ana@clinica.com", Role: models.RoleDentist}
	patient = models.User{ID: "u2", GivenName: "Luis", FamilyName: "Paz", Email: "luis@correo.com", Role: models.RolePatient}
)

func newTestContext(t *testing.T, b Backend) (*Context, *session.Store, *session.MemoryKV) {
	t.Helper()
	kv := session.NewMemoryKV()
	store := session.NewStore(kv)
	return New(b, store, zerolog.Nop()), store, kv
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

// ── Hydrate ───────────────────────────────────────────────────────────────────

func TestHydrate_EmptyStore(t *testing.T) {
	b := &stubBackend{}
	c, _, _ := newTestContext(t, b)

	c.Hydrate(context.Background())

	s := c.Snapshot()
	assert.Equal(t, StateAnonymous, s.State)
	assert.True(t, s.Hydrated)
	assert.False(t, s.Loading)
	assert.False(t, s.Authenticated())
	assert.Zero(t, b.verifyCalls)
}

func TestHydrate_VerifiedAdoptsBackendUser(t *testing.T) {
	fresh := dentist
	fresh.Phone = "555-0101"
	b := &stubBackend{verifyUser: &fresh}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	c.Hydrate(context.Background())

	s := c.Snapshot()
	assert.Equal(t, StateAuthenticated, s.State)
	assert.Equal(t, "opaque", s.Token)
	require.NotNil(t, s.User)
	assert.Equal(t, "555-0101", s.User.Phone)
	assert.Equal(t, models.RoleDentist, s.Role())

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "555-0101", creds.User.Phone)
}

func TestHydrate_RejectedTokenPurges(t *testing.T) {
	b := &stubBackend{verifyErr: errs.ErrUnauthorized}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	c.Hydrate(context.Background())

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestHydrate_NetworkFailureFailsClosed(t *testing.T) {
	b := &stubBackend{verifyErr: errors.New("dial tcp: connection refused")}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	c.Hydrate(context.Background())

	assert.False(t, c.Snapshot().Authenticated())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestHydrate_ExpiredJWTSkipsNetwork(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, store, _ := newTestContext(t, b)
	tok := signedToken(t, time.Now().Add(-time.Hour))
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: tok, User: dentist}))

	c.Hydrate(context.Background())

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	assert.Zero(t, b.verifyCalls)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestHydrate_LiveJWTIsVerified(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, store, _ := newTestContext(t, b)
	tok := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: tok, User: dentist}))

	c.Hydrate(context.Background())

	assert.Equal(t, 1, b.verifyCalls)
	assert.Equal(t, tok, c.Token())
}

func TestHydrate_PartialPairPurged(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, _, kv := newTestContext(t, b)
	require.NoError(t, kv.Set(context.Background(), map[string]string{session.TokenKey: "opaque"}))

	c.Hydrate(context.Background())

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	assert.Zero(t, b.verifyCalls)
	left, err := kv.Get(context.Background(), session.TokenKey, session.UserKey)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHydrate_RunsOnce(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	c.Hydrate(context.Background())
	c.Hydrate(context.Background())

	assert.Equal(t, 1, b.verifyCalls)
}

func TestHydrate_LoadingWhileVerifying(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	var during Session
	b.verifyHook = func() { during = c.Snapshot() }

	c.Hydrate(context.Background())

	assert.True(t, during.Hydrated)
	assert.True(t, during.Loading)
	assert.Equal(t, StateHydrating, during.State)
	assert.False(t, c.Snapshot().Loading)
}

func TestHydrate_LogoutDuringVerifyWins(t *testing.T) {
	b := &stubBackend{verifyUser: &dentist}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))
	b.verifyHook = func() { c.Logout(context.Background()) }

	c.Hydrate(context.Background())

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestHydrate_FailedVerifyKeepsConcurrentLogin(t *testing.T) {
	b := &stubBackend{
		verifyErr: errors.New("network down"),
		loginResp: &models.AuthResponse{Token: "new", User: patient},
	}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "old", User: dentist}))
	b.verifyHook = func() { require.True(t, c.Login(context.Background(), patient.Email, "x")) }

	c.Hydrate(context.Background())

	s := c.Snapshot()
	assert.Equal(t, StateAuthenticated, s.State)
	assert.Equal(t, "new", s.Token)
	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", creds.Token)
	assert.Equal(t, patient.ID, creds.User.ID)
}

func TestHydrate_UnknownRoleFailsClosed(t *testing.T) {
	odd := dentist
	odd.Role = "recepcionista"
	b := &stubBackend{verifyUser: &odd}
	c, store, _ := newTestContext(t, b)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "opaque", User: dentist}))

	c.Hydrate(context.Background())

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

// ── Login / Register / Logout ─────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: patient}}
	c, store, _ := newTestContext(t, b)

	ok := c.Login(context.Background(), patient.Email, "secreto")

	require.True(t, ok)
	s := c.Snapshot()
	assert.Equal(t, StateAuthenticated, s.State)
	assert.True(t, s.Hydrated)
	assert.Empty(t, s.Error)
	assert.True(t, c.HasAccess(ModuleMyAppointments))
	assert.False(t, c.HasAccess(ModuleDashboard))

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", creds.Token)
	assert.Equal(t, patient.Email, creds.User.Email)
}

func TestLogin_RepeatedFailureIsDeterministic(t *testing.T) {
	b := &stubBackend{loginErr: errs.ErrUnauthorized}
	c, store, _ := newTestContext(t, b)

	require.False(t, c.Login(context.Background(), "x@y.com", "mala"))
	first := c.Snapshot()
	require.False(t, c.Login(context.Background(), "x@y.com", "mala"))
	second := c.Snapshot()

	assert.Equal(t, msgInvalidCredentials, first.Error)
	assert.Equal(t, first.Error, second.Error)
	assert.Equal(t, StateAnonymous, second.State)
	assert.False(t, second.Authenticated())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestLogin_BackendMessageSurfaced(t *testing.T) {
	b := &stubBackend{loginErr: &displayErr{msg: "Usuario bloqueado"}}
	c, _, _ := newTestContext(t, b)

	assert.False(t, c.Login(context.Background(), "x@y.com", "z"))
	assert.Equal(t, "Usuario bloqueado", c.Snapshot().Error)
}

func TestLogin_NetworkErrorMessage(t *testing.T) {
	b := &stubBackend{loginErr: errors.New("timeout")}
	c, _, _ := newTestContext(t, b)

	assert.False(t, c.Login(context.Background(), "x@y.com", "z"))
	assert.Equal(t, msgLoginFailed, c.Snapshot().Error)
}

func TestLogin_SuppressesLaterHydrate(t *testing.T) {
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: patient}}
	c, _, _ := newTestContext(t, b)

	require.True(t, c.Login(context.Background(), patient.Email, "x"))
	c.Hydrate(context.Background())

	assert.Zero(t, b.verifyCalls)
	assert.Equal(t, "tok-1", c.Token())
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	b := &stubBackend{}
	c, _, _ := newTestContext(t, b)

	ok := c.Register(context.Background(), models.RegisterRequest{Email: "n@c.com", Password: "secreto1"})

	assert.True(t, ok)
	assert.False(t, c.Snapshot().Authenticated())
	assert.Equal(t, StateUnknown, c.Snapshot().State)
}

func TestRegister_Failure(t *testing.T) {
	b := &stubBackend{registerErr: &displayErr{msg: "El correo ya está registrado"}}
	c, _, _ := newTestContext(t, b)

	assert.False(t, c.Register(context.Background(), models.RegisterRequest{Email: "n@c.com"}))
	assert.Equal(t, "El correo ya está registrado", c.Snapshot().Error)
}

func TestLogout_Idempotent(t *testing.T) {
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: dentist}}
	c, store, _ := newTestContext(t, b)
	require.True(t, c.Login(context.Background(), dentist.Email, "x"))

	c.Logout(context.Background())
	c.Logout(context.Background())

	s := c.Snapshot()
	assert.Equal(t, StateAnonymous, s.State)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.User)
	assert.False(t, c.HasAccess(ModuleDashboard))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestLogoutIfToken(t *testing.T) {
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: dentist}}
	c, store, _ := newTestContext(t, b)
	require.True(t, c.Login(context.Background(), dentist.Email, "x"))

	c.LogoutIfToken(context.Background(), "old")
	c.LogoutIfToken(context.Background(), "")

	assert.Equal(t, StateAuthenticated, c.Snapshot().State)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	c.LogoutIfToken(context.Background(), "tok-1")

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestLogoutIfToken_PurgesWhenNothingIsAuthenticated(t *testing.T) {
	c, store, _ := newTestContext(t, &stubBackend{})
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "old", User: dentist}))

	c.LogoutIfToken(context.Background(), "old")

	assert.Equal(t, StateAnonymous, c.Snapshot().State)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestLogin_UnknownRoleRefused(t *testing.T) {
	odd := dentist
	odd.Role = ""
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: odd}}
	c, store, _ := newTestContext(t, b)

	assert.False(t, c.Login(context.Background(), odd.Email, "x"))

	s := c.Snapshot()
	assert.Equal(t, StateAnonymous, s.State)
	assert.Equal(t, msgInvalidRole, s.Error)
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errs.ErrNoSession)
}

func TestSnapshot_IsACopy(t *testing.T) {
	b := &stubBackend{loginResp: &models.AuthResponse{Token: "tok-1", User: dentist}}
	c, _, _ := newTestContext(t, b)
	require.True(t, c.Login(context.Background(), dentist.Email, "x"))

	s := c.Snapshot()
	s.User.Role = models.RoleAdmin

	assert.False(t, c.HasAccess(ModuleUsers))
}

func TestFromContext(t *testing.T) {
	c, _, _ := newTestContext(t, &stubBackend{})

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(WithContext(context.Background(), c))
	assert.True(t, ok)
	assert.Same(t, c, got)
}

package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/models"
	"github.com/harentsoaR/dentist-portal/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc, onUnauthorized func(context.Context, string)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, OnUnauthorized: onUnauthorized, Logger: zerolog.Nop()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDo_InjectsBearerToken(t *testing.T) {
	var gotAuth, gotPath, gotLimit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(w, http.StatusOK, []models.Patient{{ID: "p-1", GivenName: "Ana"}})
	}, nil)

	patients, err := c.Patients(context.Background(), "abc", ListOptions{Limit: 1000})

	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "/api/pacientes", gotPath)
	assert.Equal(t, "1000", gotLimit)
	require.Len(t, patients, 1)
	assert.Equal(t, "Ana", patients[0].GivenName)
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	}, nil)

	require.NoError(t, c.Register(context.Background(), models.RegisterRequest{Email: "a@b.com"}))
	assert.Empty(t, gotAuth)
}

func TestDo_ListWrappedInData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []models.Appointment{{ID: "c-1"}, {ID: "c-2"}}})
	}, nil)

	citas, err := c.Appointments(context.Background(), "t", ListOptions{})

	require.NoError(t, err)
	assert.Len(t, citas, 2)
}

func TestDo_UnauthorizedOnAnyEndpoint(t *testing.T) {
	calls := []func(c *Client) error{
		func(c *Client) error { _, err := c.DashboardStats(context.Background(), "t"); return err },
		func(c *Client) error { _, err := c.Treatments(context.Background(), "t", ListOptions{}); return err },
		func(c *Client) error { return c.CancelAppointment(context.Background(), "t", "c-1") },
		func(c *Client) error { return c.DeleteUser(context.Background(), "t", "u-1") },
	}

	for i, call := range calls {
		hooked := 0
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expirado"})
		}, func(context.Context, string) { hooked++ })

		err := call(c)

		assert.ErrorIs(t, err, errs.ErrUnauthorized, "call %d", i)
		assert.Equal(t, 1, hooked, "call %d", i)
	}
}

// The unauthorized hook purges the stored pair through the session of the request.
func TestDo_UnauthorizedPurgesSession(t *testing.T) {
	kv := session.NewMemoryKV()
	store := session.NewStore(kv)
	require.NoError(t, store.Save(context.Background(), session.Credentials{Token: "old", User: models.User{ID: "u1", Role: models.RoleAdmin}}))

	var client *Client
	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expirado"})
	}, func(ctx context.Context, token string) {
		if ac, ok := auth.FromContext(ctx); ok {
			ac.LogoutIfToken(ctx, token)
		}
	})
	ac := auth.New(client, store, zerolog.Nop())
	ctx := auth.WithContext(context.Background(), ac)

	_, err := client.Payments(ctx, "old", ListOptions{})

	require.ErrorIs(t, err, errs.ErrUnauthorized)
	left, err := kv.Get(context.Background(), session.TokenKey, session.UserKey)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, auth.StateAnonymous, ac.Snapshot().State)
}

func TestDo_ServerErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "fallo interno"})
	}, nil)

	_, err := c.Users(context.Background(), "t", ListOptions{})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, "fallo interno", apiErr.UserMessage())
	assert.NotErrorIs(t, err, errs.ErrUnauthorized)
}

func TestError_UserMessageFallback(t *testing.T) {
	e := &Error{Status: 503}
	assert.Equal(t, "Error del servidor (503)", e.UserMessage())
	assert.Contains(t, e.Error(), "503")
}

func TestVerify_AcceptsBareAndWrappedUser(t *testing.T) {
	u := models.User{ID: "u1", Email: "a@b.com", Role: models.RoleDentist}

	wrapped := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}, nil)
	bare := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, u)
	}, nil)

	for _, c := range []*Client{wrapped, bare} {
		got, err := c.Verify(context.Background(), "t")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, models.RoleDentist, got.Role)
	}
}

func TestUpdateAppointment_SendsOnlyProvidedFields(t *testing.T) {
	var body map[string]any
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}, nil)
	status := models.AppointmentConfirmed

	require.NoError(t, c.UpdateAppointment(context.Background(), "t", "c-9", models.AppointmentUpdate{Status: &status}))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/citas/c-9", path)
	assert.Equal(t, map[string]any{"estado": "confirmada"}, body)
}

func TestDecodeList(t *testing.T) {
	items, err := decodeList[models.Activity]([]byte(`[{"id":"1"}]`))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = decodeList[models.Activity]([]byte(`{"data":[{"id":"1"},{"id":"2"}]}`))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = decodeList[models.Activity]([]byte(`{"total":0}`))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = decodeList[models.Activity]([]byte(`"nope"`))
	assert.Error(t, err)
}

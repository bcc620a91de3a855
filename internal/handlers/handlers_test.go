package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/store/memory"
)

type testEnv struct {
	router http.Handler
	auth   *services.AuthService
	ledger *services.LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	ledger := services.NewLedgerService(st)
	auth := services.NewAuthService(st, ledger, nil, services.AuthConfig{
		SecretKey: "test-secret",
		TokenTTL:  time.Hour,
		Argon2:    services.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32, SaltLength: 16},
	}, nil)
	return &testEnv{
		router: NewRouter(ledger, auth, RouterConfig{}, nil),
		auth:   auth,
		ledger: ledger,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) register(t *testing.T, username, name, balance string) (string, int64) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": username,
		"password": "password123",
		"name":     name,
		"balance":  balance,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result services.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.User.AccountID)
	return result.AccessToken, *result.User.AccountID
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.auth.EnsureAdmin(ctx, "root", "rootpass"))
	result, err := e.auth.Login(ctx, "root", "rootpass")
	require.NoError(t, err)
	return result.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "adam", "Adam", "100")

	t.Run("duplicate username", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"username": "adam", "password": "password123", "name": "Adam", "balance": 5,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"username":"x","password":"y","name":"Xy","balance":1,"role":"admin"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing balance", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"username":"ewa","password":"password123","name":"Ewa"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[services.ErrorResponse](t, w)
		assert.Contains(t, resp.Details, "balance")
	})

	t.Run("two json objects", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"username":"adam","password":"password123"}{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("json login", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "adam", "password": "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode[services.AuthResult](t, w).AccessToken)
	})

	t.Run("form login", func(t *testing.T) {
		form := url.Values{"username": {"adam"}, "password": {"password123"}}
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad password", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "adam", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestClientEndpoints(t *testing.T) {
	e := newTestEnv(t)
	adamToken, adamID := e.register(t, "adam", "Adam", "300")
	ewaToken, ewaID := e.register(t, "ewa", "Ewa", "200")

	t.Run("requires a token", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/clients/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/clients/me", adamToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"balance":"300.00"`)

		w = e.do(t, http.MethodGet, "/api/v1/auth/me", adamToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("withdrawal scenario", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, map[string]any{"amount": 200, "transaction_type": "withdrawal"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		result := decode[services.TransactionResult](t, w)
		assert.Equal(t, "100.00", result.Account.Balance.String())

		w = e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, map[string]any{"amount": 400, "transaction_type": "withdrawal"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, map[string]any{"amount": "300.00", "transaction_type": "deposit"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/clients/me/transactions", adamToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		txns := decode[[]models.Transaction](t, w)
		require.Len(t, txns, 2)
		assert.Equal(t, models.KindWithdrawal, txns[0].Kind)
	})

	t.Run("invalid transactions", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, map[string]any{"amount": -5, "transaction_type": "deposit"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[services.ErrorResponse](t, w).Details, "amount")

		w = e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, map[string]any{"amount": 5, "transaction_type": "refund"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = e.do(t, http.MethodPost, "/api/v1/transactions", adamToken, `{"amount": true, "transaction_type": "deposit"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transfer", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/transfers", adamToken, map[string]any{"receiver_id": ewaID, "amount": "100.00"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		result := decode[services.TransferResult](t, w)
		assert.Equal(t, "300.00", result.Sender.Balance.String())
		assert.Equal(t, "300.00", result.Receiver.Balance.String())

		w = e.do(t, http.MethodPost, "/api/v1/transfers", adamToken, map[string]any{"receiver_id": adamID, "amount": "1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = e.do(t, http.MethodPost, "/api/v1/transfers", adamToken, map[string]any{"receiver_id": 999, "amount": "1"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("transfers listing is owner only", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/clients/"+itoa(ewaID)+"/transfers", ewaToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.Transfer](t, w), 1)

		w = e.do(t, http.MethodGet, "/api/v1/clients/"+itoa(adamID)+"/transfers", ewaToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/clients/abc/transfers", ewaToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clients cannot use admin endpoints", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/admin/clients", adamToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete me", func(t *testing.T) {
		w := e.do(t, http.MethodDelete, "/api/v1/auth/me", ewaToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/clients/me", ewaToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/auth/logout", adamToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	e := newTestEnv(t)
	admin := e.adminToken(t)
	_, adamID := e.register(t, "adam", "Adam", "300")

	t.Run("create and inspect clients", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/admin/clients", admin, map[string]any{"name": "Anna Kowalska", "balance": "250"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[models.Account](t, w)
		assert.Equal(t, "250.00", created.Balance.String())

		w = e.do(t, http.MethodPost, "/api/v1/admin/clients", admin, map[string]any{"name": "anna", "balance": "250"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/admin/clients", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.AccountDetail](t, w), 2)

		w = e.do(t, http.MethodGet, "/api/v1/admin/clients/"+itoa(created.ID), admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Anna Kowalska", decode[models.AccountDetail](t, w).Name)

		w = e.do(t, http.MethodGet, "/api/v1/admin/clients/999", admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/admin/clients/0", admin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transaction on behalf of a client", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/admin/clients/"+itoa(adamID)+"/transactions", admin,
			map[string]any{"amount": "10.50", "transaction_type": "deposit"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "310.50", decode[services.TransactionResult](t, w).Account.Balance.String())

		w = e.do(t, http.MethodGet, "/api/v1/admin/transactions", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.Transaction](t, w), 1)
	})

	t.Run("users", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/admin/users", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.User](t, w), 2)

		w = e.do(t, http.MethodDelete, "/api/v1/admin/users/root", admin, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = e.do(t, http.MethodDelete, "/api/v1/admin/users/ghost", admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = e.do(t, http.MethodDelete, "/api/v1/admin/users/adam", admin, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = e.do(t, http.MethodGet, "/api/v1/admin/clients/"+itoa(adamID), admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete client", func(t *testing.T) {
		account, err := e.ledger.CreateAccount(context.Background(), "Jan", models.MoneyFromInt(5))
		require.NoError(t, err)

		w := e.do(t, http.MethodDelete, "/api/v1/admin/clients/"+itoa(account.ID), admin, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = e.do(t, http.MethodDelete, "/api/v1/admin/clients/"+itoa(account.ID), admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

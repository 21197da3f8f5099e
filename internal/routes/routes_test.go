package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ronaldoarch/postenobicho-sub001/internal/config"
	"github.com/ronaldoarch/postenobicho-sub001/internal/identity"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

const (
	adminKey     = "operator-key"
	accountToken = "login-service-secret"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	require.NoError(t, err)

	st := store.NewMemory(store.Options{Logger: logging.Discard()})
	st.SeedAccount(ledger.Account{ID: 1, Email: "p@example.com", Active: true})

	quotes := quotation.NewStaticResolver(quotation.NewSnapshot(
		[]quotation.Modality{{Code: "Milhar", StandardMultiplier: decimal.NewFromInt(5000), Kind: quotation.KindMilhar}},
		[]quotation.Special{{Kind: quotation.KindMilhar, Number: "0732", Multiplier: decimal.NewFromInt(7000), Active: true}},
	))

	app := fiber.New()
	err = Setup(app, Deps{
		Cfg: config.Config{
			AppEnv:           "development",
			AdminKeyHash:       string(hash),
			AccountTokenSecret: accountToken,
			IdempotencyTTL:     time.Minute,
			WebhookRateLimit:   100,
			Payout:             config.PayoutConfig{BatchSize: 100},
		},
		Logger:   logging.Discard(),
		Store:    st,
		Identity: identity.NewMemoryRepository(identity.Profile{AccountID: 1, Email: "p@example.com", Active: true}),
		Quotes:   quotes,
	})
	require.NoError(t, err)
	return app
}

type credential func(*http.Request)

func asAdmin(req *http.Request) {
	req.Header.Set("X-Admin-Key", adminKey)
}

func asAccount(t *testing.T, accountID string) credential {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(accountToken))
	require.NoError(t, err)
	return func(req *http.Request) {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
	}
}

func call(t *testing.T, app *fiber.App, method, path, body string, creds ...credential) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, cred := range creds {
		cred(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func balanceOf(t *testing.T, app *fiber.App) float64 {
	t.Helper()
	status, body := call(t, app, http.MethodGet, "/api/v1/accounts/1/balance", "", asAccount(t, "1"))
	require.Equal(t, http.StatusOK, status)
	return body["balance"].(float64)
}

func TestDepositWagerSettleFlow(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, http.MethodPost, "/api/v1/webhooks/deposits",
		`{"amount": 100, "status": "paid", "externalId": "gw-1", "userId": 1}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(10_000), balanceOf(t, app))

	status, body = call(t, app, http.MethodPost, "/api/v1/wagers",
		`{"account_id": 1, "modality": "milhar", "number": "732", "stake": 100}`, asAccount(t, "1"))
	require.Equal(t, http.StatusCreated, status, body)
	placed := body["wager"].(map[string]any)
	wagerID := placed["id"].(string)
	assert.Equal(t, "7000", placed["recorded_multiplier"])

	settlePath := "/api/v1/admin/wagers/" + wagerID + "/settle"
	status, _ = call(t, app, http.MethodPost, settlePath, `{"outcome": "won"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, app, http.MethodPost, settlePath, `{"outcome": "won"}`, asAdmin)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(10_000-100+700_000), balanceOf(t, app))

	status, body = call(t, app, http.MethodGet, "/api/v1/accounts/1/transactions", "", asAccount(t, "1"))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["transactions"], 3)
}

func TestAdminEndpoints(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, http.MethodPost, "/api/v1/admin/accounts/1/credits", `{"amount": 250, "description": "promo"}`, asAdmin)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, float64(250), body["balance_after"])

	status, body = call(t, app, http.MethodPost, "/api/v1/admin/payouts/corrections", "", asAdmin)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(0), body["scanned"])

	status, body = call(t, app, http.MethodGet, "/api/v1/admin/accounts/lookup?email=p@example.com", "", asAdmin)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["account_id"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/quotations/resolve?type=milhar&number=732&modality=Milhar", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/accounts/1/withdrawals", `{"amount": 1000}`, asAccount(t, "1"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestAccountRoutesRequireOwner(t *testing.T) {
	app := newApp(t)

	status, body := call(t, app, http.MethodPost, "/api/v1/admin/accounts/1/credits", `{"amount": 5000}`, asAdmin)
	require.Equal(t, http.StatusCreated, status, body)

	withdraw := "/api/v1/accounts/1/withdrawals"
	status, _ = call(t, app, http.MethodPost, withdraw, `{"amount": 5000}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodPost, withdraw, `{"amount": 5000}`, asAccount(t, "2"))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/accounts/1/balance", "", asAccount(t, "2"))
	assert.Equal(t, http.StatusForbidden, status)

	wager := `{"account_id": 1, "modality": "milhar", "number": "732", "stake": 100}`
	status, _ = call(t, app, http.MethodPost, "/api/v1/wagers", wager)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, app, http.MethodPost, "/api/v1/wagers", wager, asAccount(t, "2"))
	assert.Equal(t, http.StatusForbidden, status)

	assert.Equal(t, float64(5000), balanceOf(t, app))

	status, body = call(t, app, http.MethodPost, withdraw, `{"amount": 5000}`, asAccount(t, "1"))
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, float64(0), balanceOf(t, app))
}

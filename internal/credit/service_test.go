package credit

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

func newService(t *testing.T) (*Service, *store.Memory, *notification.Recorder) {
	t.Helper()
	st := store.NewMemory(store.Options{Logger: logging.Discard()})
	st.SeedAccount(ledger.Account{ID: 3, Balance: 500, BonusBalance: 40, RolloverRequired: 90, Active: true})
	rec := &notification.Recorder{}
	return NewService(st, rec, logging.Discard()), st, rec
}

func TestGrant(t *testing.T) {
	svc, st, rec := newService(t)
	ctx := context.Background()

	res, err := svc.Grant(ctx, Input{AccountID: 3, Amount: 250, Description: "goodwill"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.BalanceBefore)
	assert.Equal(t, int64(750), res.BalanceAfter)

	acct, err := st.Account(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(750), acct.Balance)
	assert.Equal(t, int64(40), acct.BonusBalance, "bonus untouched")
	assert.Equal(t, int64(90), acct.RolloverRequired, "rollover untouched")

	record, err := st.Journal().Get(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, journal.KindManualCredit, record.Kind)
	assert.Equal(t, journal.StatusPaid, record.Status)
	assert.Equal(t, "goodwill", record.Description)

	assert.Len(t, rec.OfKind(notification.KindManualCredit), 1)
}

func TestGrantLogsThroughRequestLogger(t *testing.T) {
	svc, _, _ := newService(t)
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).With().Str("request_id", "req-7").Logger().WithContext(context.Background())

	res, err := svc.Grant(ctx, Input{AccountID: 3, Amount: 25})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-7"`)
	assert.Contains(t, out, `"transaction_id":"`+res.TransactionID+`"`)
	assert.Contains(t, out, "manual credit granted")
}

func TestGrantRejectsInvalidInput(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -10} {
		_, err := svc.Grant(ctx, Input{AccountID: 3, Amount: amount})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	}

	_, err := svc.Grant(ctx, Input{AccountID: 404, Amount: 10})
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)

	records, err := st.Journal().ListByAccount(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGrantHandler(t *testing.T) {
	svc, _, _ := newService(t)
	app := fiber.New()
	app.Post("/accounts/:accountId/credits", NewHandler(svc).Grant)

	cases := map[string]struct {
		path   string
		body   string
		status int
	}{
		"created":        {"/accounts/3/credits", `{"amount": 100}`, http.StatusCreated},
		"zero amount":    {"/accounts/3/credits", `{"amount": 0}`, http.StatusBadRequest},
		"bad account id": {"/accounts/abc/credits", `{"amount": 100}`, http.StatusBadRequest},
		"missing":        {"/accounts/99/credits", `{"amount": 100}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

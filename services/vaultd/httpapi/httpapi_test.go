package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/native/vault"
	"vaultcore/services/vaultd/httpapi"
	"vaultcore/services/vaultd/server"
	"vaultcore/storage"
	"vaultcore/storage/vaultstore"
)

func newLendingAPI(t *testing.T) (*httptest.Server, uint16) {
	t.Helper()
	now := decimal.Time(1_700_000_000)

	v := vault.New(1, nil)
	require.NoError(t, v.EnableOracle(vault.TokenBase, 6, decimal.NewPrice(1_000_000_000), decimal.NewPrice(1_000_000), decimal.NewPrice(50_000_000), now))
	require.NoError(t, v.EnableOracle(vault.TokenQuote, 6, decimal.NewPrice(1_000_000_000), decimal.NewPrice(1_000_000), decimal.NewPrice(50_000_000), now))
	curve := (&feecurve.FeeCurve{}).AddConstantFee(decimal.NewFraction(10_000), decimal.NewFraction(1_000_000))
	require.NoError(t, v.EnableLending(*curve, decimal.NewFraction(800_000), decimal.NewQuantity(1_000_000_000), now, now))
	_, err := v.AddStrategy(true, false, false, decimal.NewFraction(800_000), decimal.NewFraction(900_000))
	require.NoError(t, err)

	reg := &vault.Registry{}
	vaultIndex := reg.Add(v)

	store := vaultstore.New(storage.NewMemDB())
	app := server.New(reg, store, nil, nil, nil)
	api := httpapi.New(app, nil, nil)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv, vaultIndex
}

func TestHealthz(t *testing.T) {
	srv, _ := newLendingAPI(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDepositAndStatement(t *testing.T) {
	srv, vaultIndex := newLendingAPI(t)

	body, err := json.Marshal(map[string]any{
		"vault_index":    vaultIndex,
		"strategy_index": 0,
		"token":          "base",
		"amount":         1_000_000,
		"now":            1_700_000_000,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/deposit", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-User-Key", "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statementReq, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/statement", nil)
	require.NoError(t, err)
	statementReq.Header.Set("X-User-Key", "alice")

	statementResp, err := http.DefaultClient.Do(statementReq)
	require.NoError(t, err)
	defer statementResp.Body.Close()
	require.Equal(t, http.StatusOK, statementResp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(statementResp.Body).Decode(&decoded))
	require.Equal(t, true, decoded["healthy"])
}

func TestDepositMissingUserKeyIsRejected(t *testing.T) {
	srv, vaultIndex := newLendingAPI(t)

	body, err := json.Marshal(map[string]any{
		"vault_index":    vaultIndex,
		"strategy_index": 0,
		"token":          "base",
		"amount":         1_000,
		"now":            1_700_000_000,
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/deposit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

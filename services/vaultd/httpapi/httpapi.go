// Package httpapi is the JSON-over-HTTP front door to the vault engine:
// deposit/withdraw, borrow/repay, sell/buy and open/close/liquidate
// position, each a thin adapter over server.App, chi-routed and traced
// the way the teacher's gateway wraps its gRPC-backed routes.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vaultcore/native/common"
	"vaultcore/native/vault"
	"vaultcore/services/vaultd/server"
)

const maxRequestBody = 1 << 16 // 64 KiB; vault requests are small scalars, never bulk payloads.

// API wires an *server.App to an HTTP mux.
type API struct {
	app     *server.App
	auth    *Authenticator
	limiter *RateLimiter
}

// New builds an API handler. auth or limiter may be nil to disable the
// corresponding middleware (local/dev use).
func New(app *server.App, auth *Authenticator, limiter *RateLimiter) *API {
	return &API{app: app, auth: auth, limiter: limiter}
}

// Router builds the chi mux, wrapped end to end in otelhttp tracing.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	if a.limiter != nil {
		r.Use(a.limiter.Middleware)
	}
	if a.auth != nil {
		r.Use(a.auth.Middleware)
	}

	r.Get("/healthz", a.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/deposit", a.deposit)
		r.Post("/withdraw", a.withdraw)
		r.Post("/borrow", a.borrow)
		r.Post("/repay", a.repay)
		r.Post("/sell", a.sell)
		r.Post("/buy", a.buy)
		r.Post("/positions/open", a.openPosition)
		r.Post("/positions/close", a.closePosition)
		r.Post("/positions/liquidate", a.liquidatePosition)
		r.Get("/statement", a.statement)
		r.Get("/feed/statement", a.statementFeed)
	})

	return otelhttp.NewHandler(r, "vaultd.http")
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type depositRequest struct {
	VaultIndex    uint16 `json:"vault_index"`
	StrategyIndex int    `json:"strategy_index"`
	Token         string `json:"token"`
	Amount        uint64 `json:"amount"`
	Now           uint32 `json:"now"`
}

func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	token, err := parseToken(req.Token)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	err = a.app.Deposit(r.Context(), server.DepositRequest{
		UserKey:       user,
		VaultIndex:    req.VaultIndex,
		StrategyIndex: req.StrategyIndex,
		Token:         token,
		Amount:        req.Amount,
		Now:           req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

type withdrawRequest struct {
	VaultIndex    uint16 `json:"vault_index"`
	StrategyIndex int    `json:"strategy_index"`
	AmountBase    uint64 `json:"amount_base"`
	Now           uint32 `json:"now"`
}

func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	err := a.app.Withdraw(r.Context(), server.WithdrawRequest{
		UserKey:       user,
		VaultIndex:    req.VaultIndex,
		StrategyIndex: req.StrategyIndex,
		AmountBase:    req.AmountBase,
		Now:           req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

type borrowRepayRequest struct {
	VaultIndex uint16 `json:"vault_index"`
	Amount     uint64 `json:"amount"`
	Now        uint32 `json:"now"`
}

func (a *API) borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRepayRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	err := a.app.Borrow(r.Context(), server.BorrowRequest{
		UserKey:    user,
		VaultIndex: req.VaultIndex,
		Amount:     req.Amount,
		Now:        req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (a *API) repay(w http.ResponseWriter, r *http.Request) {
	var req borrowRepayRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	err := a.app.Repay(r.Context(), server.RepayRequest{
		UserKey:    user,
		VaultIndex: req.VaultIndex,
		Amount:     req.Amount,
		Now:        req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

type swapRequest struct {
	VaultIndex uint16 `json:"vault_index"`
	Quantity   uint64 `json:"quantity"`
	Now        uint32 `json:"now"`
}

type swapResponse struct {
	Gross   uint64 `json:"gross"`
	Fee     uint64 `json:"fee"`
	Kept    uint64 `json:"kept"`
	NetOut  uint64 `json:"net_out"`
	PoolOut uint64 `json:"pool_out"`
}

func swapResponseOf(o vault.SwapOutcome) swapResponse {
	return swapResponse{
		Gross:   o.Gross.Get(),
		Fee:     o.Fee.Get(),
		Kept:    o.Kept.Get(),
		NetOut:  o.NetOut.Get(),
		PoolOut: o.PoolOut.Get(),
	}
}

func (a *API) sell(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	outcome, err := a.app.Sell(r.Context(), server.SwapRequest{VaultIndex: req.VaultIndex, Quantity: req.Quantity, Now: req.Now})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swapResponseOf(outcome))
}

func (a *API) buy(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	outcome, err := a.app.Buy(r.Context(), server.SwapRequest{VaultIndex: req.VaultIndex, Quantity: req.Quantity, Now: req.Now})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, swapResponseOf(outcome))
}

type positionRequest struct {
	VaultIndex uint16 `json:"vault_index"`
	Side       string `json:"side"`
	Quantity   uint64 `json:"quantity,omitempty"`
	Now        uint32 `json:"now"`
}

type closeResponse struct {
	Profit         bool   `json:"profit"`
	Quantity       uint64 `json:"quantity"`
	UnlockQuantity uint64 `json:"unlock_quantity"`
}

func closeResponseOf(o vault.CloseOutcome) closeResponse {
	return closeResponse{Profit: o.Profit, Quantity: o.Quantity.Get(), UnlockQuantity: o.UnlockQuantity.Get()}
}

func (a *API) openPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	err = a.app.OpenPosition(r.Context(), server.OpenPositionRequest{
		UserKey:    user,
		VaultIndex: req.VaultIndex,
		Side:       side,
		Quantity:   req.Quantity,
		Now:        req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "opened"})
}

func (a *API) closePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	outcome, err := a.app.ClosePosition(r.Context(), server.ClosePositionRequest{
		UserKey:    user,
		VaultIndex: req.VaultIndex,
		Side:       side,
		Now:        req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closeResponseOf(outcome))
}

func (a *API) liquidatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		positionRequest
		OwnerUserKey string `json:"owner_user_key"`
	}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.OwnerUserKey == "" {
		writeBadRequest(w, errors.New("missing owner_user_key"))
		return
	}
	outcome, err := a.app.LiquidatePosition(r.Context(), server.ClosePositionRequest{
		UserKey:    req.OwnerUserKey,
		VaultIndex: req.VaultIndex,
		Side:       side,
		Now:        req.Now,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closeResponseOf(outcome))
}

type statementResponse struct {
	Exact               *big.Int `json:"exact"`
	WithCollateralRatio *big.Int `json:"with_collateral_ratio"`
	Unhealthy           *big.Int `json:"unhealthy"`
	Liabilities         *big.Int `json:"liabilities"`
	Healthy             bool     `json:"healthy"`
	Collateralized      bool     `json:"collateralized"`
}

func (a *API) statement(w http.ResponseWriter, r *http.Request) {
	user := userKey(r)
	if user == "" {
		writeBadRequest(w, errors.New("missing user key"))
		return
	}
	st, err := a.app.Statement(user)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{
		Exact:               st.Collateral.Exact.BigInt(),
		WithCollateralRatio: st.Collateral.WithCollateralRatio.BigInt(),
		Unhealthy:           st.Collateral.Unhealthy.BigInt(),
		Liabilities:         st.Liabilities.BigInt(),
		Healthy:             st.IsHealthy(),
		Collateralized:      st.IsCollateralized(),
	})
}

func parseToken(s string) (vault.Token, error) {
	switch strings.ToLower(s) {
	case "base":
		return vault.TokenBase, nil
	case "quote":
		return vault.TokenQuote, nil
	default:
		return 0, fmt.Errorf("unknown token %q", s)
	}
}

func parseSide(s string) (vault.Side, error) {
	switch strings.ToLower(s) {
	case "long":
		return vault.Long, nil
	case "short":
		return vault.Short, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func decodeRequest(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps a vault-engine sentinel error to an HTTP status:
// not-found/missing conditions to 404, guard/pause and limit conditions to
// 409, anything else falls back to 400 since every vault error is a
// request-level rejection, never an internal fault.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrNoVaultOnIndex), errors.Is(err, vault.ErrNoStrategyOnIndex), errors.Is(err, vault.ErrPositionNotFound):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, vault.ErrNotEligibleForLiquidation), errors.Is(err, vault.ErrCollateralizationTooLow),
		errors.Is(err, vault.ErrCannotBorrow), errors.Is(err, vault.ErrUserAllowedBorrowExceeded),
		errors.Is(err, common.ErrModulePaused):
		writeJSONError(w, http.StatusConflict, err)
	default:
		writeJSONError(w, http.StatusBadRequest, err)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-suite/internal/device/devicetest"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/handler"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/service/account"
	"wallet-suite/internal/service/compose"
	"wallet-suite/internal/service/mq"
	"wallet-suite/internal/service/transaction"
	"wallet-suite/internal/service/verify"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/cache"
	"wallet-suite/pkg/errno"
	"wallet-suite/pkg/utils/lock"
)

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type withIntents struct {
	Result  json.RawMessage `json:"result"`
	Intents []effect.Intent `json:"intents"`
}

type testServer struct {
	router *gin.Engine
	fake   *devicetest.Fake
	broker *mq.MemoryBroker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := devicetest.New()
	st := store.New()
	broker := mq.NewMemoryBroker()
	locker := lock.NewLocalLock()
	sink := effect.Fanout{st, effect.Captured{}}

	pipeline := transaction.NewPipeline(fake, st, sink, locker, cache.NewMemoryCache(time.Hour, time.Hour), account.NewMQRefresher(broker))
	manager := transaction.NewManager(compose.NewDefaultDispatcher(), fake, st, sink, pipeline, nil)

	return &testServer{
		router: NewHTTPRouter(Handlers{
			Address: handler.NewAddressHandler(verify.NewCoordinator(fake, st, sink, locker), st),
			Tx:      handler.NewTxHandler(manager, st),
			State:   handler.NewStateHandler(st),
			Health:  handler.NewHealthHandler(st),
		}),
		fake:   fake,
		broker: broker,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func btcAccount() model.Account {
	return model.Account{
		Symbol:      "btc",
		NetworkType: network.Bitcoin,
		Descriptor:  "zpub-btc",
		Path:        "m/84'/0'/0'",
		Balance:     "200000000",
		Addresses: &model.AccountAddresses{
			Unused: []model.Address{{Address: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", Path: "m/84'/0'/0'/0/0"}},
			Change: []model.Address{{Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", Path: "m/84'/0'/0'/1/0"}},
		},
		UTXO: []model.UTXO{{Txid: "aa", Vout: 0, Amount: "200000000", Path: "m/84'/0'/0'/0/0"}},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, errno.OK.Code, resp.Code)

	var status handler.HealthStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, "UP", status.Status)
	assert.Equal(t, "none", status.Device)
	assert.Empty(t, status.Account)

	s.do(t, http.MethodPut, "/api/v1/state/device", model.Device{Path: "dev-1", Connected: true, Available: false})
	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())
	resp = s.do(t, http.MethodGet, "/health", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, "unavailable", status.Device)
	assert.Equal(t, "zpub-btc", status.Account)

	s.do(t, http.MethodPut, "/api/v1/state/device", model.Device{Path: "dev-1", Connected: true, Available: true})
	resp = s.do(t, http.MethodGet, "/health", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, "ready", status.Device)
}

func TestVerifyAddress_UnreachableDevice(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/v1/state/device", model.Device{Path: "dev-1", Connected: false})
	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())

	resp := s.do(t, http.MethodPost, "/api/v1/address/verify", gin.H{"flow": "exchange"})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)

	data := decode[withIntents](t, resp.Data)
	assert.JSONEq(t, `{"outcome":"unverified-warning"}`, string(data.Result))
	require.Len(t, data.Intents, 1)
	assert.Equal(t, effect.KindModal, data.Intents[0].Kind)
	assert.Equal(t, effect.ModalUnverifiedAddress, data.Intents[0].Modal.Type)
	assert.Empty(t, s.fake.Calls())
}

func TestVerifyAddress_Verified(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/v1/state/device", model.Device{Path: "dev-1", Connected: true, Available: true})
	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())

	resp := s.do(t, http.MethodPost, "/api/v1/address/verify", nil)
	data := decode[withIntents](t, resp.Data)
	assert.JSONEq(t, `{"outcome":"verified"}`, string(data.Result))

	state := decode[store.State](t, s.do(t, http.MethodGet, "/api/v1/state", nil).Data)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", state.BuyAddressVerified)
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/v1/state/device", model.Device{Path: "dev-1", Connected: true, Available: true})
	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())

	resp := s.do(t, http.MethodPost, "/api/v1/tx/compose", gin.H{
		"outputs":  []gin.H{{"address": "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", "amount": "149990000"}},
		"feeLevel": gin.H{"feePerUnit": "2"},
	})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	session := decode[transaction.Session](t, resp.Data)
	assert.Equal(t, transaction.StateComposed, session.State)

	for _, step := range []string{"review", "sign"} {
		resp = s.do(t, http.MethodPost, "/api/v1/tx/"+step, gin.H{"sessionId": session.ID})
		require.Equal(t, errno.OK.Code, resp.Code, "%s: %s", step, resp.Msg)
	}

	resp = s.do(t, http.MethodPost, "/api/v1/tx/push", gin.H{"sessionId": session.ID})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	data := decode[withIntents](t, resp.Data)
	pushed := decode[transaction.Session](t, data.Result)
	assert.Equal(t, transaction.StatePushedSuccess, pushed.State)

	var sent *effect.Notification
	for _, i := range data.Intents {
		if i.Kind == effect.KindNotification {
			sent = i.Notification
		}
	}
	require.NotNil(t, sent)
	assert.Equal(t, effect.NotifyTxSent, sent.Type)
	assert.Equal(t, "1.4999 BTC", sent.FormattedAmount)
	assert.Len(t, s.broker.Messages(account.TopicAccountRefresh), 1)

	resp = s.do(t, http.MethodGet, "/api/v1/tx/sessions/"+session.ID, nil)
	assert.Equal(t, errno.ErrSessionNotFound.Code, resp.Code)
}

func TestCompose_Errors(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"outputs": []gin.H{{"address": "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", "amount": "1000"}}}

	resp := s.do(t, http.MethodPost, "/api/v1/tx/compose", body)
	assert.Equal(t, errno.ErrAccountNotSelected.Code, resp.Code)

	resp = s.do(t, http.MethodPost, "/api/v1/tx/compose", gin.H{"outputs": []gin.H{}})
	assert.Equal(t, errno.ErrBind.Code, resp.Code)

	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())
	resp = s.do(t, http.MethodPost, "/api/v1/tx/compose", gin.H{
		"outputs":  []gin.H{{"address": "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", "amount": "900000000"}},
		"feeLevel": gin.H{"feePerUnit": "1"},
	})
	assert.Equal(t, errno.ErrComposeFailed.Code, resp.Code)
	assert.Contains(t, resp.Msg, model.ErrNotEnoughFunds)

	resp = s.do(t, http.MethodPost, "/api/v1/tx/review", gin.H{"sessionId": "not-a-uuid"})
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
	assert.Equal(t, "sessionId 不是有效的会话 ID", resp.Msg)
}

func TestSetAccount_Validation(t *testing.T) {
	s := newTestServer(t)

	acct := btcAccount()
	acct.Descriptor = ""
	resp := s.do(t, http.MethodPut, "/api/v1/state/account", acct)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
	assert.Equal(t, "descriptor 不能为空", resp.Msg)

	resp = s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())
	assert.Equal(t, errno.OK.Code, resp.Code)
	assert.Contains(t, string(resp.Data), "zpub-btc")
}

func TestDiscardComposedSession(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/v1/state/account", btcAccount())

	resp := s.do(t, http.MethodPost, "/api/v1/tx/compose", gin.H{
		"outputs":  []gin.H{{"address": "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", "amount": "100000"}},
		"feeLevel": gin.H{"feePerUnit": "2"},
	})
	require.Equal(t, errno.OK.Code, resp.Code, resp.Msg)
	session := decode[transaction.Session](t, resp.Data)

	resp = s.do(t, http.MethodPost, "/api/v1/tx/cancel", gin.H{"sessionId": session.ID})
	assert.Equal(t, errno.ErrInvalidTransition.Code, resp.Code)

	resp = s.do(t, http.MethodPost, "/api/v1/tx/discard", gin.H{"sessionId": session.ID})
	assert.Equal(t, errno.OK.Code, resp.Code, resp.Msg)

	resp = s.do(t, http.MethodGet, "/api/v1/tx/sessions/"+session.ID, nil)
	assert.Equal(t, errno.ErrSessionNotFound.Code, resp.Code)
	assert.Empty(t, s.fake.CancelReasons())
}

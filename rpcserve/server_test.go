package rpcserve

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simular-fi/simular-go/statedb"
)

func newTestServer(t *testing.T) (*Server, *statedb.Backend, *gin.Engine) {
	t.Helper()
	backend := statedb.NewLocal(nil)
	server := NewServer(backend, 1337, 12, nil)
	return server, backend, server.Router()
}

func call(t *testing.T, router *gin.Engine, method string, params ...interface{}) rpcResponse {
	t.Helper()
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRPCChainID(t *testing.T) {
	_, _, router := newTestServer(t)
	resp := call(t, router, "eth_chainId")
	require.Nil(t, resp.Error)
	assert.Equal(t, "0x539", resp.Result)
}

func TestRPCBlockNumber(t *testing.T) {
	assert := assert.New(t)
	_, backend, router := newTestServer(t)

	resp := call(t, router, "eth_blockNumber")
	assert.Equal("0x0", resp.Result)

	backend.AdvanceBlock(12)
	resp = call(t, router, "eth_blockNumber")
	assert.Equal("0x1", resp.Result)
}

func TestRPCGetBalance(t *testing.T) {
	assert := assert.New(t)
	_, backend, router := newTestServer(t)
	addr := common.Address{19: 1}
	backend.CreateAccount(addr, uint256.NewInt(1000))

	resp := call(t, router, "eth_getBalance", addr.Hex())
	require.Nil(t, resp.Error)
	assert.Equal("0x3e8", resp.Result)

	// Unknown accounts read as empty, not as errors.
	resp = call(t, router, "eth_getBalance", common.Address{19: 9}.Hex())
	require.Nil(t, resp.Error)
	assert.Equal("0x0", resp.Result)
}

func TestRPCGetTransactionCount(t *testing.T) {
	_, backend, router := newTestServer(t)
	addr := common.Address{19: 1}
	backend.CreateAccount(addr, nil)

	resp := call(t, router, "eth_getTransactionCount", addr.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(t, "0x0", resp.Result)
}

func TestRPCGetCode(t *testing.T) {
	assert := assert.New(t)
	_, backend, router := newTestServer(t)
	addr := common.Address{19: 1}
	backend.CreateAccount(addr, nil)

	resp := call(t, router, "eth_getCode", addr.Hex())
	require.Nil(t, resp.Error)
	assert.Equal("0x", resp.Result)

	resp = call(t, router, "eth_getCode", common.Address{19: 9}.Hex())
	require.Nil(t, resp.Error)
	assert.Equal("0x", resp.Result)
}

func TestRPCGetStorageAt(t *testing.T) {
	assert := assert.New(t)
	_, backend, router := newTestServer(t)
	addr := common.Address{19: 1}
	key := common.Hash{31: 1}
	value := common.Hash{31: 7}
	backend.CreateAccount(addr, nil)
	require.NoError(t, backend.SetSlot(addr, key, value))

	resp := call(t, router, "eth_getStorageAt", addr.Hex(), key.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(value.Hex(), resp.Result)

	// Unknown addresses answer the zero word.
	resp = call(t, router, "eth_getStorageAt", common.Address{19: 9}.Hex(), key.Hex())
	require.Nil(t, resp.Error)
	assert.Equal((common.Hash{}).Hex(), resp.Result)
}

func TestRPCMine(t *testing.T) {
	assert := assert.New(t)
	_, backend, router := newTestServer(t)

	resp := call(t, router, "evm_mine")
	require.Nil(t, resp.Error)
	head, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal("0x1", head["number"])
	assert.Equal("0xc", head["timestamp"])
	assert.Equal(uint64(1), backend.BlockNumber())
	assert.Equal(uint64(12), backend.Timestamp())
}

func TestRPCUnknownMethod(t *testing.T) {
	_, _, router := newTestServer(t)
	resp := call(t, router, "eth_sendTransaction")
	require.NotNil(t, resp.Error)
	require.Contains(t, *resp.Error, "not supported")
}

func TestRPCBadParams(t *testing.T) {
	_, _, router := newTestServer(t)

	resp := call(t, router, "eth_getBalance")
	require.NotNil(t, resp.Error)

	resp = call(t, router, "eth_getBalance", "not-an-address")
	require.NotNil(t, resp.Error)

	// Negative block numbers must not wrap into huge uints.
	resp = call(t, router, "eth_getBlockHash", float64(-1))
	require.NotNil(t, resp.Error)
}

func TestRPCInvalidBody(t *testing.T) {
	_, _, router := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

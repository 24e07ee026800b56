package rpcserve

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/simular-fi/simular-go/statedb"
)

// Server exposes the backend's read contract over JSON-RPC so ordinary
// chain tooling can inspect the simulated state, plus a websocket feed
// pushing new heads when blocks are mined. It accepts no transactions.
type Server struct {
	backend  *statedb.Backend
	chainID  uint64
	interval uint64
	log      *logrus.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer wraps a backend. interval is the timestamp step applied per
// evm_mine call.
func NewServer(backend *statedb.Backend, chainID, interval uint64, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		backend:  backend,
		chainID:  chainID,
		interval: interval,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Router builds the gin engine serving POST / for JSON-RPC and GET /ws
// for head subscriptions.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode) // No debug noise

	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("[RPC] %s - %s %s %d\n",
				param.TimeStamp.Format("2006-01-02 15:04:05"),
				param.Method,
				param.Path,
				param.StatusCode,
			)
		},
	}))
	r.Use(gin.Recovery())
	r.POST("/", s.handleRPC)
	r.GET("/ws", s.handleWebSocket)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Infof("Starting read-only RPC server on %s (%s mode)", addr, s.backend.Mode())
	return s.Router().Run(addr)
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      interface{}   `json:"id"`
}

type rpcResponse struct {
	Jsonrpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *string     `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

func (s *Server) handleRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.BindJSON(&req); err != nil {
		s.log.Errorf("Failed to parse JSON-RPC request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"jsonrpc": "2.0",
			"error":   "Invalid JSON-RPC request",
			"id":      nil,
		})
		return
	}

	resp := rpcResponse{Jsonrpc: "2.0", ID: req.ID}

	result, err := s.dispatch(req.Method, req.Params)
	if err != nil {
		errMsg := err.Error()
		resp.Error = &errMsg
	} else {
		resp.Result = result
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) dispatch(method string, params []interface{}) (interface{}, error) {
	switch method {
	case "eth_chainId":
		return hexutil.Uint64(s.chainID).String(), nil

	case "eth_blockNumber":
		return hexutil.Uint64(s.backend.BlockNumber()).String(), nil

	case "eth_getBalance":
		addr, err := addressParam(params, 0)
		if err != nil {
			return nil, err
		}
		info, err := s.backend.Basic(addr)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return "0x0", nil
		}
		return info.Balance.Hex(), nil

	case "eth_getTransactionCount":
		addr, err := addressParam(params, 0)
		if err != nil {
			return nil, err
		}
		info, err := s.backend.Basic(addr)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return "0x0", nil
		}
		return hexutil.Uint64(info.Nonce).String(), nil

	case "eth_getCode":
		addr, err := addressParam(params, 0)
		if err != nil {
			return nil, err
		}
		info, err := s.backend.Basic(addr)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return "0x", nil
		}
		code, err := s.backend.CodeByHash(info.CodeHash)
		if err != nil {
			return nil, err
		}
		return hexutil.Encode(code), nil

	case "eth_getStorageAt":
		addr, err := addressParam(params, 0)
		if err != nil {
			return nil, err
		}
		slot, err := hashParam(params, 1)
		if err != nil {
			return nil, err
		}
		value, err := s.backend.Storage(addr, slot)
		var missing *statedb.MissingAccountError
		if errors.As(err, &missing) {
			return (common.Hash{}).Hex(), nil
		}
		if err != nil {
			return nil, err
		}
		return value.Hex(), nil

	case "eth_getBlockHash":
		number, err := uintParam(params, 0)
		if err != nil {
			return nil, err
		}
		hash, err := s.backend.BlockHash(number)
		if err != nil {
			return nil, err
		}
		return hash.Hex(), nil

	case "evm_mine":
		s.backend.AdvanceBlock(s.interval)
		head := map[string]interface{}{
			"number":    hexutil.Uint64(s.backend.BlockNumber()).String(),
			"timestamp": hexutil.Uint64(s.backend.Timestamp()).String(),
		}
		s.broadcastHead(head)
		return head, nil

	default:
		return nil, fmt.Errorf("method %s not supported", method)
	}
}

func addressParam(params []interface{}, i int) (common.Address, error) {
	if len(params) <= i {
		return common.Address{}, fmt.Errorf("missing address parameter")
	}
	str, ok := params[i].(string)
	if !ok || !common.IsHexAddress(str) {
		return common.Address{}, fmt.Errorf("invalid address parameter")
	}
	return common.HexToAddress(str), nil
}

func hashParam(params []interface{}, i int) (common.Hash, error) {
	if len(params) <= i {
		return common.Hash{}, fmt.Errorf("missing hash parameter")
	}
	str, ok := params[i].(string)
	if !ok {
		return common.Hash{}, fmt.Errorf("invalid hash parameter")
	}
	return common.HexToHash(str), nil
}

func uintParam(params []interface{}, i int) (uint64, error) {
	if len(params) <= i {
		return 0, fmt.Errorf("missing block number parameter")
	}
	switch v := params[i].(type) {
	case string:
		n, err := hexutil.DecodeUint64(v)
		if err != nil {
			return 0, fmt.Errorf("invalid block number parameter: %v", err)
		}
		return n, nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid block number parameter")
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("invalid block number parameter")
	}
}

// handleWebSocket registers a client for head notifications.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.mu.Unlock()
	s.log.Infof("New WebSocket client connected. Total clients: %d", total)

	// Reads are discarded; the feed is one-way. The read loop only
	// notices disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				s.log.Infof("WebSocket client disconnected")
				return
			}
		}
	}()
}

func (s *Server) broadcastHead(head map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteJSON(gin.H{"event": "newHead", "head": head}); err != nil {
			s.log.Warnf("Failed to push head, dropping client: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

package eth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/simular-fi/simular-go/types"
)

// DefaultFetchTimeout bounds a single remote request. The bridge never
// retries; retry policy belongs to callers.
const DefaultFetchTimeout = 30 * time.Second

// ErrFetcherClosed is returned for requests issued after Close.
var ErrFetcherClosed = errors.New("fetcher closed")

// ChainReader is the slice of the RPC client the fetcher drives. Tests
// stub it to avoid the network.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	AccountAt(ctx context.Context, addr common.Address, blockNum uint64) (*types.AccountInfo, error)
	StorageAt(ctx context.Context, addr common.Address, key common.Hash, blockNum uint64) (common.Hash, error)
	BlockHash(ctx context.Context, number uint64) (common.Hash, error)
}

type fetchResult struct {
	value interface{}
	err   error
}

type fetchRequest struct {
	run  func(context.Context) (interface{}, error)
	done chan fetchResult
}

// Fetcher bridges the synchronous read contract of the backends onto
// the network-bound client. It dispatches one of two ways, chosen at
// construction:
//
//   - inline: the request runs on the caller's goroutine under a fresh
//     bounded context;
//   - serial: the request is forwarded to a dedicated worker goroutine
//     and the caller blocks on its completion, so all remote I/O is
//     funneled through one goroutine regardless of the call site.
//
// Both paths return the same values and the same errors; callers cannot
// tell them apart.
type Fetcher struct {
	client  ChainReader
	timeout time.Duration
	log     *logrus.Logger

	reqs chan fetchRequest // nil when requests run inline
	quit chan struct{}     // closed once, never reassigned

	closeOnce sync.Once
}

// NewFetcher returns a bridge that executes requests inline.
func NewFetcher(client ChainReader, log *logrus.Logger) *Fetcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{
		client:  client,
		timeout: DefaultFetchTimeout,
		log:     log,
	}
}

// NewSerialFetcher returns a bridge that funnels every request through
// a dedicated worker goroutine. Close must be called to release it.
func NewSerialFetcher(client ChainReader, log *logrus.Logger) *Fetcher {
	f := NewFetcher(client, log)
	f.reqs = make(chan fetchRequest)
	f.quit = make(chan struct{})
	go f.worker()
	return f
}

// SetTimeout overrides the per-request deadline.
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.timeout = d
}

// Close stops the worker goroutine, if any. A request already accepted
// by the worker finishes first; later requests fail with
// ErrFetcherClosed. Safe to call more than once.
func (f *Fetcher) Close() {
	if f.quit == nil {
		return
	}
	f.closeOnce.Do(func() { close(f.quit) })
}

func (f *Fetcher) worker() {
	for {
		select {
		case req := <-f.reqs:
			value, err := f.exec(req.run)
			req.done <- fetchResult{value: value, err: err}
		case <-f.quit:
			return
		}
	}
}

func (f *Fetcher) exec(run func(context.Context) (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	return run(ctx)
}

// do executes one request through the active dispatch path.
func (f *Fetcher) do(run func(context.Context) (interface{}, error)) (interface{}, error) {
	if f.reqs == nil {
		return f.exec(run)
	}
	req := fetchRequest{run: run, done: make(chan fetchResult, 1)}
	select {
	case f.reqs <- req:
	case <-f.quit:
		return nil, ErrFetcherClosed
	}
	// Once the worker has accepted the request it always replies; done
	// is buffered so the reply never blocks on a vanished caller.
	res := <-req.done
	return res.value, res.err
}

// LatestBlockNumber implements statedb.RemoteSource.
func (f *Fetcher) LatestBlockNumber() (uint64, error) {
	value, err := f.do(func(ctx context.Context) (interface{}, error) {
		return f.client.LatestBlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}
	return value.(uint64), nil
}

// AccountAt implements statedb.RemoteSource.
func (f *Fetcher) AccountAt(addr common.Address, blockNum uint64) (*types.AccountInfo, error) {
	value, err := f.do(func(ctx context.Context) (interface{}, error) {
		return f.client.AccountAt(ctx, addr, blockNum)
	})
	if err != nil {
		return nil, err
	}
	return value.(*types.AccountInfo), nil
}

// StorageAt implements statedb.RemoteSource.
func (f *Fetcher) StorageAt(addr common.Address, key common.Hash, blockNum uint64) (common.Hash, error) {
	value, err := f.do(func(ctx context.Context) (interface{}, error) {
		return f.client.StorageAt(ctx, addr, key, blockNum)
	})
	if err != nil {
		return common.Hash{}, err
	}
	return value.(common.Hash), nil
}

// BlockHash implements statedb.RemoteSource.
func (f *Fetcher) BlockHash(number uint64) (common.Hash, error) {
	value, err := f.do(func(ctx context.Context) (interface{}, error) {
		return f.client.BlockHash(ctx, number)
	})
	if err != nil {
		return common.Hash{}, err
	}
	return value.(common.Hash), nil
}

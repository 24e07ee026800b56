package statedb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"

	"github.com/simular-fi/simular-go/snapshot"
	"github.com/simular-fi/simular-go/types"
)

// Mode selects which backend serves reads. The set is closed: a backend
// is either purely local or forked from a remote endpoint, decided once
// at construction.
type Mode uint8

const (
	ModeLocal Mode = iota
	ModeFork
)

func (m Mode) String() string {
	if m == ModeFork {
		return "fork"
	}
	return "local"
}

// Backend is the single entry point the execution engine talks to. It
// owns the record store, the active backend mode and the block metadata
// used to seed transaction context. Backends are not safe for
// concurrent use; callers serialize access structurally, one
// transaction at a time.
type Backend struct {
	mode    Mode
	records *Records
	db      Database

	blockNum  uint64
	timestamp uint64

	log *logrus.Logger
}

// NewLocal builds a self-contained backend with no remote fallback.
func NewLocal(log *logrus.Logger) *Backend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	records := NewRecords()
	return &Backend{
		mode:    ModeLocal,
		records: records,
		db:      NewMemDB(records),
		log:     log,
	}
}

// NewFork builds a backend that lazily pulls missing state from remote,
// pinned at blockNum. Pass zero to pin at the remote's latest block.
func NewFork(remote RemoteSource, blockNum uint64, log *logrus.Logger) (*Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if blockNum == 0 {
		latest, err := remote.LatestBlockNumber()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve latest block from remote: %v", err)
		}
		blockNum = latest
	}
	records := NewRecords()
	log.Infof("Forking chain state at block %d", blockNum)
	return &Backend{
		mode:     ModeFork,
		records:  records,
		db:       NewForkDB(records, remote, blockNum, log),
		blockNum: blockNum,
		log:      log,
	}, nil
}

// Mode reports whether the backend is local or forked.
func (b *Backend) Mode() Mode {
	return b.mode
}

// BlockNumber returns the current block number of the simulated chain.
func (b *Backend) BlockNumber() uint64 {
	return b.blockNum
}

// Timestamp returns the current block timestamp of the simulated chain.
func (b *Backend) Timestamp() uint64 {
	return b.timestamp
}

// Basic implements the read contract; see Database.
func (b *Backend) Basic(addr common.Address) (*types.AccountInfo, error) {
	return b.db.Basic(addr)
}

// CodeByHash implements the read contract; see Database.
func (b *Backend) CodeByHash(hash common.Hash) ([]byte, error) {
	return b.db.CodeByHash(hash)
}

// Storage implements the read contract; see Database.
func (b *Backend) Storage(addr common.Address, key common.Hash) (common.Hash, error) {
	return b.db.Storage(addr, key)
}

// BlockHash implements the read contract; see Database.
func (b *Backend) BlockHash(number uint64) (common.Hash, error) {
	return b.db.BlockHash(number)
}

// Commit merges the touched-account batch of one executed transaction.
func (b *Backend) Commit(changes types.StateChanges) {
	b.db.Commit(changes)
}

// CreateAccount inserts an account directly into the record store,
// bypassing any remote fetch. A nil balance means zero. Existing
// metadata for the address is replaced; cached storage is preserved.
func (b *Backend) CreateAccount(addr common.Address, balance *uint256.Int) {
	info := types.NewAccountInfo()
	if balance != nil {
		info.Balance = new(uint256.Int).Set(balance)
	}
	b.records.InsertInfo(addr, info)
}

// SetBalance overwrites the balance for addr, creating the account if
// the store has never seen it.
func (b *Backend) SetBalance(addr common.Address, value *uint256.Int) {
	rec := b.records.Account(addr)
	if rec == nil || rec.State == types.NotExisting {
		b.CreateAccount(addr, value)
		return
	}
	rec.Info.Balance = new(uint256.Int).Set(value)
}

// SetSlot seeds one storage slot directly. The account must already be
// known.
func (b *Backend) SetSlot(addr common.Address, key, value common.Hash) error {
	return b.records.SetSlot(addr, key, value)
}

// ReplaceStorage swaps in a complete storage map for addr and marks it
// StorageCleared.
func (b *Backend) ReplaceStorage(addr common.Address, storage map[common.Hash]common.Hash) error {
	return b.records.ReplaceStorage(addr, storage)
}

// AdvanceBlock moves the simulated chain forward one block, bumping the
// timestamp by interval seconds. Block production is caller-driven and
// never automatic.
func (b *Backend) AdvanceBlock(interval uint64) {
	b.blockNum++
	b.timestamp += interval
}

// DumpSnapshot exports the full record store plus block metadata as a
// self-contained document. Code is resolved inline per account; an
// account whose code was never staged is an error.
func (b *Backend) DumpSnapshot() (*snapshot.Document, error) {
	source := snapshot.SourceLocal
	if b.mode == ModeFork {
		source = snapshot.SourceFork
	}
	doc := snapshot.NewDocument(source, b.blockNum, b.timestamp)

	for _, addr := range b.records.Addresses() {
		rec := b.records.Account(addr)
		code := rec.Info.Code
		if code == nil {
			staged, ok := b.records.Code(rec.Info.CodeHash)
			if !ok {
				return nil, &MissingCodeError{CodeHash: rec.Info.CodeHash}
			}
			code = staged
		}
		storage := make(map[common.Hash]common.Hash, len(rec.Storage))
		for key, value := range rec.Storage {
			storage[key] = value
		}
		doc.Accounts[addr] = &snapshot.AccountRecord{
			Nonce:   rec.Info.Nonce,
			Balance: new(uint256.Int).Set(rec.Info.Balance),
			Code:    append([]byte{}, code...),
			Storage: storage,
		}
	}
	return doc, nil
}

// LoadSnapshot materializes a document into the record store. Every
// imported account is marked StorageCleared, so unspecified slots read
// as zero instead of triggering a fetch. A restored snapshot never
// re-attaches to a remote endpoint: loading into a fork backend
// detaches the remote and flips the mode to local.
func (b *Backend) LoadSnapshot(doc *snapshot.Document) error {
	if b.mode == ModeFork {
		b.log.Infof("Detaching remote endpoint: snapshot restore is local-only")
		b.mode = ModeLocal
		b.db = NewMemDB(b.records)
	}
	b.blockNum = doc.BlockNum
	b.timestamp = doc.Timestamp

	for addr, account := range doc.Accounts {
		info := types.AccountInfo{
			Nonce:    account.Nonce,
			Balance:  new(uint256.Int).Set(account.Balance),
			CodeHash: types.EmptyCodeHash,
			Code:     append([]byte{}, account.Code...),
		}
		b.records.InsertInfo(addr, info)
		if err := b.records.ReplaceStorage(addr, account.Storage); err != nil {
			return err
		}
	}
	return nil
}
